package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/imagecapture"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

type memStore struct {
	mu       sync.Mutex
	sale     []models.SaleProperty
	rental   []models.RentalProperty
	seq      int
	failList error
	deletes  int
	queries  []models.Query
}

func (m *memStore) ListSale(_ context.Context, q models.Query) ([]models.SaleProperty, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if m.failList != nil {
		return nil, m.failList
	}
	var out []models.SaleProperty
	for _, p := range m.sale {
		if q.OwnerID == "" || p.OwnerID == q.OwnerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) ListRental(_ context.Context, q models.Query) ([]models.RentalProperty, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if m.failList != nil {
		return nil, m.failList
	}
	var out []models.RentalProperty
	for _, p := range m.rental {
		if q.OwnerID == "" || p.OwnerID == q.OwnerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) GetSale(_ context.Context, id string) (*models.SaleProperty, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.sale {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundErr("memStore.GetSale", nil)
}

func (m *memStore) GetRental(_ context.Context, id string) (*models.RentalProperty, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rental {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundErr("memStore.GetRental", nil)
}

func (m *memStore) InsertSale(_ context.Context, p *models.SaleProperty) (*models.SaleProperty, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	cp := *p
	cp.ID = fmt.Sprintf("sale-%d", m.seq)
	m.sale = append(m.sale, cp)
	return &cp, nil
}

func (m *memStore) InsertRental(_ context.Context, p *models.RentalProperty) (*models.RentalProperty, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	cp := *p
	cp.ID = fmt.Sprintf("rental-%d", m.seq)
	m.rental = append(m.rental, cp)
	return &cp, nil
}

func (m *memStore) DeleteSale(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.sale {
		if p.ID == id && p.OwnerID == ownerID {
			m.sale = append(m.sale[:i], m.sale[i+1:]...)
			m.deletes++
			return nil
		}
	}
	return apperr.NotFoundErr("memStore.DeleteSale", nil)
}

func (m *memStore) DeleteRental(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.rental {
		if p.ID == id && p.OwnerID == ownerID {
			m.rental = append(m.rental[:i], m.rental[i+1:]...)
			m.deletes++
			return nil
		}
	}
	return apperr.NotFoundErr("memStore.DeleteRental", nil)
}

type fakeIdentity struct{ user *models.User }

func (f fakeIdentity) CurrentUser() (*models.User, bool) { return f.user, f.user != nil }

type recorder struct {
	mu      sync.Mutex
	actions []string
}

func (r *recorder) Record(_ context.Context, a *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a.Action)
	return nil
}

type fakeImages struct {
	released []string
	owners   []string
}

func (f *fakeImages) Capture(_ context.Context, owner string, images []string) ([]string, error) {
	out := make([]string, len(images))
	for i := range images {
		out[i] = fmt.Sprintf("stored/%s/%d", owner, i)
	}
	return out, nil
}

func (f *fakeImages) Release(_ context.Context, owner string, images []string) {
	f.released = append(f.released, images...)
	f.owners = append(f.owners, owner)
}

var (
	alice = &models.User{ID: "alice", Email: "alice@example.com"}
	bob   = &models.User{ID: "bob", Email: "bob@example.com"}
)

func newService(store *memStore) (*Service, *recorder, *fakeImages) {
	rec := &recorder{}
	img := &fakeImages{}
	return NewService(store, img, rec, zap.NewNop(), 0), rec, img
}

func TestSubmitSale_RequiresAuthBeforeValidation(t *testing.T) {
	svc, _, _ := newService(&memStore{})
	_, err := svc.SubmitSale(context.Background(), fakeIdentity{}, SaleForm{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrAuthRequired))
	assert.Equal(t, apperr.Auth, apperr.KindOf(err))
}

func TestSubmitSale_ValidationNeverReachesStore(t *testing.T) {
	store := &memStore{}
	svc, rec, _ := newService(store)
	_, err := svc.SubmitSale(context.Background(), fakeIdentity{alice}, SaleForm{Price: "10", PropertyType: "villa"})
	require.Error(t, err)
	assert.Empty(t, store.sale)
	assert.Empty(t, rec.actions)
}

func TestSubmitSale_StampsOwnerAndCapturesImages(t *testing.T) {
	store := &memStore{}
	svc, rec, _ := newService(store)
	p, err := svc.SubmitSale(context.Background(), fakeIdentity{alice}, SaleForm{
		Title: "Villa", Price: "85,00,000", PropertyType: "villa",
		Images: []string{"data:image/png;base64,AAAA"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", p.OwnerID)
	assert.Equal(t, []string{"stored/alice/0"}, p.Images)
	assert.Equal(t, []string{models.ActionListingCreated}, rec.actions)
}

func TestSubmitRental(t *testing.T) {
	store := &memStore{}
	svc, _, _ := newService(store)
	p, err := svc.SubmitRental(context.Background(), fakeIdentity{bob}, RentalForm{
		Title: "Flat", MonthlyRent: "18000", PropertyType: "apartment",
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", p.OwnerID)
	assert.Len(t, store.rental, 1)

	_, err = svc.SubmitRental(context.Background(), nil, RentalForm{})
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)
}

func TestDelete_OwnershipEnforced(t *testing.T) {
	store := &memStore{sale: []models.SaleProperty{
		{ID: "s1", OwnerID: "alice", Title: "Villa", Images: []string{"img/1"}},
	}}
	svc, rec, img := newService(store)

	err := svc.Delete(context.Background(), fakeIdentity{bob}, models.KindSale, "s1")
	require.Error(t, err)
	assert.Equal(t, apperr.Permission, apperr.KindOf(err))
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Len(t, store.sale, 1, "non-owner delete must not reach the store")
	assert.Equal(t, 0, store.deletes)

	require.NoError(t, svc.Delete(context.Background(), fakeIdentity{alice}, models.KindSale, "s1"))
	assert.Empty(t, store.sale)
	assert.Equal(t, []string{"img/1"}, img.released)
	assert.Equal(t, []string{"alice"}, img.owners)
	assert.Equal(t, []string{models.ActionDeleteDenied, models.ActionListingDeleted}, rec.actions)
}

func TestDelete_Errors(t *testing.T) {
	svc, _, _ := newService(&memStore{})

	err := svc.Delete(context.Background(), fakeIdentity{}, models.KindSale, "x")
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)

	err = svc.Delete(context.Background(), fakeIdentity{alice}, models.KindRental, "missing")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	err = svc.Delete(context.Background(), fakeIdentity{alice}, models.Kind("lease"), "x")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestMine(t *testing.T) {
	store := &memStore{
		sale:   []models.SaleProperty{{ID: "s1", OwnerID: "alice"}, {ID: "s2", OwnerID: "bob"}},
		rental: []models.RentalProperty{{ID: "r1", OwnerID: "alice"}},
	}
	svc, _, _ := newService(store)

	owned, err := svc.Mine(context.Background(), fakeIdentity{alice})
	require.NoError(t, err)
	assert.Len(t, owned.Sale, 1)
	assert.Len(t, owned.Rental, 1)

	owned, err = svc.Mine(context.Background(), fakeIdentity{&models.User{ID: "carol"}})
	require.NoError(t, err)
	assert.NotNil(t, owned.Sale)
	assert.Empty(t, owned.Sale)

	store.failList = apperr.New(apperr.Network, "memStore", "unreachable")
	_, err = svc.Mine(context.Background(), fakeIdentity{alice})
	assert.Equal(t, apperr.Network, apperr.KindOf(err))
}

func TestCatalog(t *testing.T) {
	store := &memStore{
		sale:   []models.SaleProperty{{ID: "s1", Title: "A", Price: 100}},
		rental: []models.RentalProperty{{ID: "r1", Title: "B", MonthlyRent: 50}},
	}
	svc, _, _ := newService(store)

	items, err := svc.Catalog(context.Background(), models.KindSale)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.KindSale, items[0].Kind)

	items, err = svc.Catalog(context.Background(), models.KindRental)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "r1", items[0].ID)
}

func TestCatalogAndMineFetchEveryRow(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 250; i++ {
		store.sale = append(store.sale, models.SaleProperty{ID: fmt.Sprintf("s%d", i), OwnerID: "alice", Price: 100})
	}
	svc, _, _ := newService(store)

	items, err := svc.Catalog(context.Background(), models.KindSale)
	require.NoError(t, err)
	assert.Len(t, items, 250)

	owned, err := svc.Mine(context.Background(), fakeIdentity{alice})
	require.NoError(t, err)
	assert.Len(t, owned.Sale, 250)

	require.NotEmpty(t, store.queries)
	for _, q := range store.queries {
		assert.Zero(t, q.Limit, "listing reads must not be truncated")
	}
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string]bool
}

func (m *memBlobs) Upload(_ context.Context, key string, _ []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = true
	return nil
}

func (m *memBlobs) Download(context.Context, string) ([]byte, string, error) {
	return nil, "", apperr.ErrNotFound
}

func (m *memBlobs) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func TestDeleteKeepsOtherOwnersImages(t *testing.T) {
	ctx := context.Background()
	blobs := &memBlobs{objects: map[string]bool{}}
	store := &memStore{}
	svc := NewService(store, imagecapture.New(blobs, nil), nil, zap.NewNop(), 0)
	png := "data:image/png;base64,iVBORw0K"

	villa, err := svc.SubmitSale(ctx, fakeIdentity{alice}, SaleForm{
		Title: "Villa", Price: "85,00,000", PropertyType: "villa", Images: []string{png},
	})
	require.NoError(t, err)
	require.Len(t, blobs.objects, 1)

	_, err = svc.SubmitSale(ctx, fakeIdentity{bob}, SaleForm{
		Title: "Copy", Price: "10,00,000", PropertyType: "villa", Images: villa.Images,
	})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.Len(t, store.sale, 1)

	// a record that already points at alice's image, e.g. written before
	// stored URLs were checked
	store.mu.Lock()
	store.sale = append(store.sale, models.SaleProperty{ID: "b1", OwnerID: "bob", Title: "Copy", Images: villa.Images})
	store.mu.Unlock()
	require.NoError(t, svc.Delete(ctx, fakeIdentity{bob}, models.KindSale, "b1"))
	assert.Len(t, blobs.objects, 1, "bob's delete must leave alice's image")

	require.NoError(t, svc.Delete(ctx, fakeIdentity{alice}, models.KindSale, villa.ID))
	assert.Empty(t, blobs.objects)
}
