// Package listing validates listing submissions and performs the listing
// mutations and reads against the remote store.
package listing

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/catalog"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

// Identity reports who is submitting. The app core's auth session and the
// server's request identity both implement it.
type Identity interface {
	CurrentUser() (*models.User, bool)
}

// Store is the listing half of the remote store.
type Store interface {
	ListSale(ctx context.Context, q models.Query) ([]models.SaleProperty, error)
	ListRental(ctx context.Context, q models.Query) ([]models.RentalProperty, error)
	GetSale(ctx context.Context, id string) (*models.SaleProperty, error)
	GetRental(ctx context.Context, id string) (*models.RentalProperty, error)
	InsertSale(ctx context.Context, p *models.SaleProperty) (*models.SaleProperty, error)
	InsertRental(ctx context.Context, p *models.RentalProperty) (*models.RentalProperty, error)
	DeleteSale(ctx context.Context, id, ownerID string) error
	DeleteRental(ctx context.Context, id, ownerID string) error
}

// ImageCapture turns submitted image URIs into stored references.
type ImageCapture interface {
	Capture(ctx context.Context, ownerID string, images []string) ([]string, error)
	// Release removes stored images that ownerID owns and ignores the rest.
	Release(ctx context.Context, ownerID string, images []string)
}

// ActivityRecorder persists listing events.
type ActivityRecorder interface {
	Record(ctx context.Context, a *models.Activity) error
}

// Service holds the listing operations. images and activity may be nil.
type Service struct {
	store    Store
	images   ImageCapture
	activity ActivityRecorder
	log      *zap.Logger
	timeout  time.Duration
}

func NewService(store Store, images ImageCapture, activity ActivityRecorder, log *zap.Logger, timeout time.Duration) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, images: images, activity: activity, log: log, timeout: timeout}
}

func (s *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Authenticated returns the current user or ErrAuthRequired.
func Authenticated(who Identity) (*models.User, error) {
	if who == nil {
		return nil, apperr.ErrAuthRequired
	}
	u, ok := who.CurrentUser()
	if !ok || u == nil {
		return nil, apperr.ErrAuthRequired
	}
	return u, nil
}

// SubmitSale creates a sale listing owned by the current user. The identity
// is checked before validation so an expired session fails fast.
func (s *Service) SubmitSale(ctx context.Context, who Identity, f SaleForm) (*models.SaleProperty, error) {
	user, err := Authenticated(who)
	if err != nil {
		return nil, err
	}
	p, err := ValidateSale(f)
	if err != nil {
		return nil, err
	}
	p.OwnerID = user.ID

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if p.Images, err = s.capture(ctx, user.ID, p.Images); err != nil {
		return nil, err
	}
	created, err := s.store.InsertSale(ctx, p)
	if err != nil {
		s.release(ctx, user.ID, p.Images)
		return nil, err
	}
	s.record(ctx, user.ID, models.ActionListingCreated, models.KindSale, created.ID, created.Title)
	s.log.Info("sale listing created", zap.String("id", created.ID), zap.String("owner", user.ID))
	return created, nil
}

// SubmitRental creates a rental listing owned by the current user.
func (s *Service) SubmitRental(ctx context.Context, who Identity, f RentalForm) (*models.RentalProperty, error) {
	user, err := Authenticated(who)
	if err != nil {
		return nil, err
	}
	p, err := ValidateRental(f)
	if err != nil {
		return nil, err
	}
	p.OwnerID = user.ID

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if p.Images, err = s.capture(ctx, user.ID, p.Images); err != nil {
		return nil, err
	}
	created, err := s.store.InsertRental(ctx, p)
	if err != nil {
		s.release(ctx, user.ID, p.Images)
		return nil, err
	}
	s.record(ctx, user.ID, models.ActionListingCreated, models.KindRental, created.ID, created.Title)
	s.log.Info("rental listing created", zap.String("id", created.ID), zap.String("owner", user.ID))
	return created, nil
}

// Delete removes a listing after checking that the current user owns it.
func (s *Service) Delete(ctx context.Context, who Identity, kind models.Kind, id string) error {
	user, err := Authenticated(who)
	if err != nil {
		return err
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var owner, title string
	var images []string
	switch kind {
	case models.KindSale:
		p, err := s.store.GetSale(ctx, id)
		if err != nil {
			return err
		}
		owner, title, images = p.OwnerID, p.Title, p.Images
	case models.KindRental:
		p, err := s.store.GetRental(ctx, id)
		if err != nil {
			return err
		}
		owner, title, images = p.OwnerID, p.Title, p.Images
	default:
		return apperr.New(apperr.Validation, "listing.Delete", "unknown listing kind "+string(kind))
	}

	if owner != user.ID {
		s.record(ctx, user.ID, models.ActionDeleteDenied, kind, id, title)
		s.log.Warn("delete denied", zap.String("id", id), zap.String("user", user.ID), zap.String("owner", owner))
		return &apperr.Error{Kind: apperr.Permission, Op: "listing.Delete", Message: apperr.ErrForbidden.Message}
	}

	if kind == models.KindSale {
		err = s.store.DeleteSale(ctx, id, user.ID)
	} else {
		err = s.store.DeleteRental(ctx, id, user.ID)
	}
	if err != nil {
		return err
	}
	s.release(ctx, user.ID, images)
	s.record(ctx, user.ID, models.ActionListingDeleted, kind, id, title)
	s.log.Info("listing deleted", zap.String("kind", string(kind)), zap.String("id", id))
	return nil
}

// GetSale and GetRental back the property detail view.
func (s *Service) GetSale(ctx context.Context, id string) (*models.SaleProperty, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.store.GetSale(ctx, id)
}

func (s *Service) GetRental(ctx context.Context, id string) (*models.RentalProperty, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.store.GetRental(ctx, id)
}

// Catalog fetches every listing of kind, newest first, as catalog items.
// Filtering happens on the full list, so nothing is cut off here.
func (s *Service) Catalog(ctx context.Context, kind models.Kind) ([]catalog.Item, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	q := models.Query{OrderBy: "created_at"}
	if kind == models.KindRental {
		rows, err := s.store.ListRental(ctx, q)
		if err != nil {
			return nil, err
		}
		items := make([]catalog.Item, 0, len(rows))
		for _, r := range rows {
			items = append(items, catalog.FromRental(r))
		}
		return items, nil
	}
	rows, err := s.store.ListSale(ctx, q)
	if err != nil {
		return nil, err
	}
	items := make([]catalog.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, catalog.FromSale(r))
	}
	return items, nil
}

// Owned is the my-properties read model.
type Owned struct {
	Sale   []models.SaleProperty   `json:"sale_properties"`
	Rental []models.RentalProperty `json:"rental_properties"`
}

// Mine fetches both listing kinds of the current user concurrently.
func (s *Service) Mine(ctx context.Context, who Identity) (*Owned, error) {
	user, err := Authenticated(who)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	out := &Owned{}
	q := models.Query{OwnerID: user.ID, OrderBy: "created_at"}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.store.ListSale(gctx, q)
		out.Sale = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.store.ListRental(gctx, q)
		out.Rental = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out.Sale == nil {
		out.Sale = []models.SaleProperty{}
	}
	if out.Rental == nil {
		out.Rental = []models.RentalProperty{}
	}
	return out, nil
}

func (s *Service) capture(ctx context.Context, ownerID string, images []string) ([]string, error) {
	if s.images == nil || len(images) == 0 {
		return images, nil
	}
	return s.images.Capture(ctx, ownerID, images)
}

func (s *Service) release(ctx context.Context, ownerID string, images []string) {
	if s.images == nil || len(images) == 0 {
		return
	}
	s.images.Release(ctx, ownerID, images)
}

func (s *Service) record(ctx context.Context, userID, action string, kind models.Kind, id, title string) {
	if s.activity == nil {
		return
	}
	err := s.activity.Record(ctx, &models.Activity{
		UserID:     userID,
		Action:     action,
		Kind:       kind,
		PropertyID: id,
		Title:      title,
	})
	if err != nil {
		s.log.Warn("activity record failed", zap.String("action", action), zap.Error(err))
	}
}
