package models

import "time"

// Kind distinguishes the two listing tables.
type Kind string

const (
	KindSale   Kind = "sale"
	KindRental Kind = "rental"
)

// ParseKind accepts the path segment used by /property/{id}/{kind}.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindSale, KindRental:
		return Kind(s), true
	}
	return "", false
}

// Table returns the backing table name.
func (k Kind) Table() string {
	if k == KindRental {
		return "rental_properties"
	}
	return "sale_properties"
}

// Furnishing values accepted for rental_properties.furnished.
const (
	FurnishedFully       = "fully"
	FurnishedSemi        = "semi"
	FurnishedUnfurnished = "unfurnished"
)

// SaleProperty is a row of sale_properties. Price is in whole rupees.
type SaleProperty struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"user_id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	Price        int64     `json:"price"`
	PropertyType string    `json:"property_type"`
	Bedrooms     *int      `json:"bedrooms"`
	Bathrooms    *int      `json:"bathrooms"`
	Area         *int      `json:"area"`
	Location     *string   `json:"location"`
	Address      *string   `json:"address"`
	ContactName  *string   `json:"contact_name"`
	ContactPhone *string   `json:"contact_phone"`
	ContactEmail *string   `json:"contact_email"`
	Images       []string  `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RentalProperty is a row of rental_properties.
type RentalProperty struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"user_id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description"`
	MonthlyRent     int64      `json:"monthly_rent"`
	SecurityDeposit *int64     `json:"security_deposit"`
	PropertyType    string     `json:"property_type"`
	Bedrooms        *int       `json:"bedrooms"`
	Bathrooms       *int       `json:"bathrooms"`
	Parking         *int       `json:"parking"`
	Area            *int       `json:"area"`
	Furnished       *string    `json:"furnished"`
	Location        *string    `json:"location"`
	Address         *string    `json:"address"`
	AvailableFrom   *time.Time `json:"available_from"`
	LeaseDuration   *string    `json:"lease_duration"`
	ContactName     *string    `json:"contact_name"`
	ContactPhone    *string    `json:"contact_phone"`
	ContactEmail    *string    `json:"contact_email"`
	Amenities       []string   `json:"amenities"`
	Images          []string   `json:"images"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Query is the abstract query() argument of the remote store. Zero values mean
// "no owner filter", "created_at", descending and no row limit.
type Query struct {
	OwnerID   string
	OrderBy   string
	Ascending bool
	Limit     int
}
