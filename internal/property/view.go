package property

import (
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/catalog"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/listing"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/pricefmt"
)

// Card is a catalog item with its list-page price text.
type Card struct {
	catalog.Item
	DisplayPrice string `json:"display_price,omitempty"`
}

// CatalogPage is the buy or rent page read model. Fetched counts the records
// before filtering.
type CatalogPage struct {
	Kind     models.Kind      `json:"kind"`
	Criteria catalog.Criteria `json:"criteria"`
	Fetched  int              `json:"fetched"`
	Count    int              `json:"count"`
	Items    []Card           `json:"items"`
}

// NewCatalogPage filters items by c and renders the list prices. Sale prices
// are abbreviated; rents use the compact rent list format.
func NewCatalogPage(kind models.Kind, items []catalog.Item, c catalog.Criteria) *CatalogPage {
	visible := catalog.Filter(items, c)
	page := &CatalogPage{Kind: kind, Criteria: c, Fetched: len(items), Count: len(visible), Items: make([]Card, 0, len(visible))}
	for _, it := range visible {
		card := Card{Item: it}
		if it.Amount != nil {
			if it.Kind == models.KindRental {
				card.DisplayPrice = pricefmt.FormatRentCompact(*it.Amount)
			} else {
				card.DisplayPrice = pricefmt.Rupees(pricefmt.FormatPrice(*it.Amount))
			}
		}
		page.Items = append(page.Items, card)
	}
	return page
}

type SaleDetail struct {
	*models.SaleProperty
	Kind         models.Kind `json:"kind"`
	DisplayPrice string      `json:"display_price"`
}

type RentalDetail struct {
	*models.RentalProperty
	Kind           models.Kind `json:"kind"`
	DisplayRent    string      `json:"display_rent"`
	DisplayDeposit string      `json:"display_deposit"`
}

func NewSaleDetail(p *models.SaleProperty) SaleDetail {
	return SaleDetail{SaleProperty: p, Kind: models.KindSale, DisplayPrice: pricefmt.Rupees(pricefmt.FormatPrice(p.Price))}
}

func NewRentalDetail(p *models.RentalProperty) RentalDetail {
	return RentalDetail{
		RentalProperty: p,
		Kind:           models.KindRental,
		DisplayRent:    pricefmt.FormatRent(p.MonthlyRent),
		DisplayDeposit: pricefmt.FormatDeposit(p.SecurityDeposit),
	}
}

// OwnedPage is the my-properties read model.
type OwnedPage struct {
	Sale   []SaleDetail   `json:"sale_properties"`
	Rental []RentalDetail `json:"rental_properties"`
}

func NewOwnedPage(o *listing.Owned) *OwnedPage {
	page := &OwnedPage{
		Sale:   make([]SaleDetail, 0, len(o.Sale)),
		Rental: make([]RentalDetail, 0, len(o.Rental)),
	}
	for i := range o.Sale {
		page.Sale = append(page.Sale, NewSaleDetail(&o.Sale[i]))
	}
	for i := range o.Rental {
		page.Rental = append(page.Rental, NewRentalDetail(&o.Rental[i]))
	}
	return page
}
