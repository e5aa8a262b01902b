package client

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/authsession"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/listing"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/routeguard"
)

// HomeRoute is where a signed-in user visiting the auth page is sent.
const HomeRoute = "/"

// App wires one auth session to the API client and hands out the page views.
type App struct {
	Session *authsession.Session
	api     *Client
	log     *zap.Logger
}

func NewApp(api *Client, log *zap.Logger, opts ...authsession.Option) *App {
	if log == nil {
		log = zap.NewNop()
	}
	opts = append([]authsession.Option{authsession.WithLogger(log)}, opts...)
	return &App{Session: authsession.New(api, opts...), api: api, log: log}
}

// Start resolves the stored session. On failure the app stays in its loading
// state and Start may be called again.
func (a *App) Start(ctx context.Context) error {
	return a.Session.Init(ctx)
}

// Navigate guards path against the current session.
func (a *App) Navigate(path string) routeguard.Decision {
	snap := a.Session.Snapshot()
	if r, ok := routeguard.Match(path); ok && r.Pattern == routeguard.AuthRoute &&
		snap.State == authsession.Authenticated {
		return routeguard.Decision{Outcome: routeguard.Redirect, Target: HomeRoute}
	}
	d := routeguard.Resolve(path, snap)
	a.log.Debug("navigate", zap.String("path", path), zap.Stringer("outcome", d.Outcome))
	return d
}

func (a *App) Catalog(kind models.Kind) *CatalogView { return NewCatalogView(a.api, kind) }

func (a *App) MyProperties() *MyProperties { return NewMyProperties(a.api) }

// SubmitSale checks the session, validates the form locally and submits it.
// Nothing is sent when either check fails.
func (a *App) SubmitSale(ctx context.Context, f listing.SaleForm) (*models.SaleProperty, error) {
	if _, err := listing.Authenticated(a.Session); err != nil {
		return nil, err
	}
	if _, err := listing.ValidateSale(f); err != nil {
		return nil, err
	}
	return a.api.SubmitSale(ctx, f)
}

// SubmitRental is SubmitSale for the rent/list form.
func (a *App) SubmitRental(ctx context.Context, f listing.RentalForm) (*models.RentalProperty, error) {
	if _, err := listing.Authenticated(a.Session); err != nil {
		return nil, err
	}
	if _, err := listing.ValidateRental(f); err != nil {
		return nil, err
	}
	return a.api.SubmitRental(ctx, f)
}

// AccountPage is the account page: the account and its recent activity.
type AccountPage struct {
	Account  *models.Account
	Activity []models.Activity
}

// Account fetches the account and its activity concurrently.
func (a *App) Account(ctx context.Context, activityLimit int) (*AccountPage, error) {
	if _, err := listing.Authenticated(a.Session); err != nil {
		return nil, err
	}
	page := &AccountPage{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page.Account, err = a.api.Account(gctx)
		return err
	})
	g.Go(func() (err error) {
		page.Activity, err = a.api.Activity(gctx, activityLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, nil
}
