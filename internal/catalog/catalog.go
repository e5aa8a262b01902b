// Package catalog derives the visible subset of a fetched property list from
// the search criteria entered on the buy and rent pages.
//
// Filter is pure: it never mutates its inputs, never reorders, and returns a
// fresh slice. Callers re-run it whenever criteria or the fetched list change.
package catalog

import (
	"strings"
	"time"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

// Item is the view shape shared by sale and rental records.
type Item struct {
	ID           string      `json:"id"`
	Kind         models.Kind `json:"kind"`
	Title        string      `json:"title"`
	Location     *string     `json:"location"`
	PropertyType string      `json:"property_type"`
	Amount       *int64      `json:"amount"`
	Bedrooms     *int        `json:"bedrooms"`
	Bathrooms    *int        `json:"bathrooms"`
	Area         *int        `json:"area"`
	Image        string      `json:"image,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// FromSale builds the catalog item for a sale listing. A non-positive price leaves Amount nil.
func FromSale(p models.SaleProperty) Item {
	it := Item{
		ID:           p.ID,
		Kind:         models.KindSale,
		Title:        p.Title,
		Location:     p.Location,
		PropertyType: p.PropertyType,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		Area:         p.Area,
		CreatedAt:    p.CreatedAt,
	}
	if p.Price > 0 {
		price := p.Price
		it.Amount = &price
	}
	if len(p.Images) > 0 {
		it.Image = p.Images[0]
	}
	return it
}

// FromRental builds the catalog item for a rental listing, using the monthly rent as Amount.
func FromRental(p models.RentalProperty) Item {
	it := Item{
		ID:           p.ID,
		Kind:         models.KindRental,
		Title:        p.Title,
		Location:     p.Location,
		PropertyType: p.PropertyType,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		Area:         p.Area,
		CreatedAt:    p.CreatedAt,
	}
	if p.MonthlyRent > 0 {
		rent := p.MonthlyRent
		it.Amount = &rent
	}
	if len(p.Images) > 0 {
		it.Image = p.Images[0]
	}
	return it
}

// Sort labels offered by the listing pages. They are accepted and echoed back
// but do not reorder results.
const (
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortNewest    = "newest"
	SortArea      = "area"
)

var sortLabels = map[string]bool{
	SortPriceLow: true, SortPriceHigh: true, SortNewest: true, SortArea: true,
}

// Criteria is the ephemeral filter state of a listing page.
type Criteria struct {
	Query        string `json:"q"`
	Bracket      string `json:"price"`
	PropertyType string `json:"type"`
	Location     string `json:"location"`
	Sort         string `json:"sort,omitempty"`
}

// IsZero reports whether no predicate is active.
func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Query) == "" && strings.TrimSpace(c.Bracket) == "" &&
		strings.TrimSpace(c.PropertyType) == "" && strings.TrimSpace(c.Location) == ""
}

// Validate checks the bracket name against kind and the sort label.
func (c Criteria) Validate(kind models.Kind) error {
	if _, err := LookupBracket(kind, c.Bracket); err != nil {
		return err
	}
	if c.Sort != "" && !sortLabels[c.Sort] {
		return &apperr.Error{
			Kind:    apperr.Validation,
			Op:      "catalog.Criteria",
			Field:   "sort",
			Message: "unknown sort order " + c.Sort,
		}
	}
	return nil
}

type predicate func(Item) bool

// Filter returns the items passing every active predicate of c, in input
// order. Items of either kind may be mixed; brackets resolve per item kind.
// An unknown bracket name matches nothing; use Criteria.Validate to reject it
// up front.
func Filter(items []Item, c Criteria) []Item {
	preds := predicates(c)
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if matchAll(it, preds) {
			out = append(out, it)
		}
	}
	return out
}

func matchAll(it Item, preds []predicate) bool {
	for _, p := range preds {
		if !p(it) {
			return false
		}
	}
	return true
}

func predicates(c Criteria) []predicate {
	var preds []predicate
	if q := strings.ToLower(strings.TrimSpace(c.Query)); q != "" {
		preds = append(preds, func(it Item) bool {
			return containsFold(it.Title, q) || (it.Location != nil && containsFold(*it.Location, q))
		})
	}
	if t := strings.TrimSpace(c.PropertyType); t != "" {
		preds = append(preds, func(it Item) bool {
			return strings.EqualFold(it.PropertyType, t)
		})
	}
	if loc := strings.ToLower(strings.TrimSpace(c.Location)); loc != "" {
		preds = append(preds, func(it Item) bool {
			return it.Location != nil && containsFold(*it.Location, loc)
		})
	}
	if name := strings.TrimSpace(c.Bracket); name != "" {
		preds = append(preds, func(it Item) bool {
			b, err := LookupBracket(it.Kind, name)
			if err != nil || b == nil || it.Amount == nil {
				return false
			}
			return b.Contains(*it.Amount)
		})
	}
	return preds
}

// containsFold reports whether lowerNeedle occurs in s, ignoring case.
func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}
