package client

import (
	"context"
	"errors"
	"sync"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/catalog"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

// ErrStale is returned for a response that was superseded by a newer load or
// arrived after the view was closed. The view is left unchanged.
var ErrStale = errors.New("client: stale response")

// CatalogView is the state of the buy or rent page: the fetched list and the
// current criteria. Visible is recomputed from both on every call.
type CatalogView struct {
	api  *Client
	kind models.Kind

	mu       sync.Mutex
	gen      uint64
	closed   bool
	loaded   bool
	items    []catalog.Item
	criteria catalog.Criteria
}

// NewCatalogView returns an empty view of the kind catalog. Call Load to fill it.
func NewCatalogView(api *Client, kind models.Kind) *CatalogView {
	return &CatalogView{api: api, kind: kind}
}

func (v *CatalogView) Kind() models.Kind { return v.kind }

// Load fetches the catalog. Only the most recent Load may apply its result.
func (v *CatalogView) Load(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrStale
	}
	v.gen++
	gen := v.gen
	v.mu.Unlock()

	items, err := v.api.Catalog(ctx, v.kind)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || gen != v.gen {
		return ErrStale
	}
	if err != nil {
		return err
	}
	v.items = items
	v.loaded = true
	return nil
}

// SetCriteria replaces the filter. Invalid criteria leave the view unchanged.
func (v *CatalogView) SetCriteria(c catalog.Criteria) error {
	if err := c.Validate(v.kind); err != nil {
		return err
	}
	v.mu.Lock()
	v.criteria = c
	v.mu.Unlock()
	return nil
}

func (v *CatalogView) Criteria() catalog.Criteria {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.criteria
}

// Loaded reports whether a load has completed. Before that the page shows
// its loading state rather than an empty result.
func (v *CatalogView) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Visible returns the fetched items matching the current criteria.
func (v *CatalogView) Visible() []catalog.Item {
	v.mu.Lock()
	items, c := v.items, v.criteria
	v.mu.Unlock()
	return catalog.Filter(items, c)
}

// Close discards any in-flight load.
func (v *CatalogView) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}
