package client

import (
	"context"
	"slices"
	"sync"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

// MyProperties holds the current user's listings. Deletes are optimistic: the
// record leaves the list at once and comes back at its old position if the
// remote delete fails.
type MyProperties struct {
	api *Client

	mu     sync.Mutex
	gen    uint64
	closed bool
	sale   []models.SaleProperty
	rental []models.RentalProperty
}

// NewMyProperties returns an empty owner page backed by api.
func NewMyProperties(api *Client) *MyProperties {
	return &MyProperties{api: api}
}

// Load fetches both lists. Only the most recent Load may apply its result.
func (m *MyProperties) Load(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrStale
	}
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	owned, err := m.api.Owned(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.gen {
		return ErrStale
	}
	if err != nil {
		return err
	}
	m.sale, m.rental = owned.Sale, owned.Rental
	return nil
}

func (m *MyProperties) Sale() []models.SaleProperty {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sale)
}

func (m *MyProperties) Rental() []models.RentalProperty {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rental)
}

// Delete removes the listing locally, then remotely. On a remote failure the
// listing is restored unless a newer Load has replaced the lists meanwhile.
func (m *MyProperties) Delete(ctx context.Context, kind models.Kind, id string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrStale
	}
	restore, ok := m.remove(kind, id)
	gen := m.gen
	m.mu.Unlock()
	if !ok {
		return apperr.New(apperr.NotFound, "client.MyProperties.Delete", "property not found")
	}

	err := m.api.DeleteListing(ctx, kind, id)
	if err == nil {
		return nil
	}
	m.mu.Lock()
	if !m.closed && gen == m.gen {
		restore()
	}
	m.mu.Unlock()
	return err
}

// remove must be called with mu held; so must the returned restore.
func (m *MyProperties) remove(kind models.Kind, id string) (restore func(), ok bool) {
	switch kind {
	case models.KindSale:
		i := slices.IndexFunc(m.sale, func(p models.SaleProperty) bool { return p.ID == id })
		if i < 0 {
			return nil, false
		}
		p := m.sale[i]
		m.sale = slices.Delete(m.sale, i, i+1)
		return func() { m.sale = slices.Insert(m.sale, min(i, len(m.sale)), p) }, true
	case models.KindRental:
		i := slices.IndexFunc(m.rental, func(p models.RentalProperty) bool { return p.ID == id })
		if i < 0 {
			return nil, false
		}
		p := m.rental[i]
		m.rental = slices.Delete(m.rental, i, i+1)
		return func() { m.rental = slices.Insert(m.rental, min(i, len(m.rental)), p) }, true
	}
	return nil, false
}

// Close discards any in-flight load or restore.
func (m *MyProperties) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}
