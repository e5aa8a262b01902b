package listing

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

var (
	ErrMissingField  = errors.New("required field missing")
	ErrInvalidNumber = errors.New("not a valid number")
	ErrInvalidValue  = errors.New("invalid value")
)

// SaleForm is the raw input of the sell form.
type SaleForm struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Price        string   `json:"price"`
	PropertyType string   `json:"property_type"`
	Bedrooms     string   `json:"bedrooms"`
	Bathrooms    string   `json:"bathrooms"`
	Area         string   `json:"area"`
	Location     string   `json:"location"`
	Address      string   `json:"address"`
	ContactName  string   `json:"contact_name"`
	ContactPhone string   `json:"contact_phone"`
	ContactEmail string   `json:"contact_email"`
	Images       []string `json:"images"`
}

// RentalForm is the raw input of the rent/list form.
type RentalForm struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	MonthlyRent     string   `json:"monthly_rent"`
	SecurityDeposit string   `json:"security_deposit"`
	PropertyType    string   `json:"property_type"`
	Bedrooms        string   `json:"bedrooms"`
	Bathrooms       string   `json:"bathrooms"`
	Parking         string   `json:"parking"`
	Area            string   `json:"area"`
	Furnished       string   `json:"furnished"`
	Location        string   `json:"location"`
	Address         string   `json:"address"`
	AvailableFrom   string   `json:"available_from"`
	LeaseDuration   string   `json:"lease_duration"`
	ContactName     string   `json:"contact_name"`
	ContactPhone    string   `json:"contact_phone"`
	ContactEmail    string   `json:"contact_email"`
	Amenities       []string `json:"amenities"`
	Images          []string `json:"images"`
}

func missing(field string) error {
	return &apperr.Error{
		Kind:    apperr.Validation,
		Op:      "listing.Validate",
		Field:   field,
		Message: field + " is required",
		Err:     ErrMissingField,
	}
}

func invalidNumber(field string) error {
	return &apperr.Error{
		Kind:    apperr.Validation,
		Op:      "listing.Validate",
		Field:   field,
		Message: field + " must be a positive number",
		Err:     ErrInvalidNumber,
	}
}

func invalidValue(field, msg string) error {
	return &apperr.Error{
		Kind:    apperr.Validation,
		Op:      "listing.Validate",
		Field:   field,
		Message: msg,
		Err:     ErrInvalidValue,
	}
}

// ValidateSale checks required fields and coerces the sell form into a
// record. OwnerID, ID and timestamps are left for the caller.
func ValidateSale(f SaleForm) (*models.SaleProperty, error) {
	if err := required("title", f.Title, "price", f.Price, "property_type", f.PropertyType); err != nil {
		return nil, err
	}
	price, err := ParseAmount(f.Price)
	if err != nil {
		return nil, invalidNumber("price")
	}

	p := &models.SaleProperty{
		Title:        strings.TrimSpace(f.Title),
		Price:        price,
		PropertyType: strings.TrimSpace(f.PropertyType),
		Description:  optString(f.Description),
		Location:     optString(f.Location),
		Address:      optString(f.Address),
		ContactName:  optString(f.ContactName),
		ContactPhone: optString(f.ContactPhone),
		ContactEmail: optString(f.ContactEmail),
		Images:       nonEmpty(f.Images),
	}
	if p.Bedrooms, err = optInt("bedrooms", f.Bedrooms); err != nil {
		return nil, err
	}
	if p.Bathrooms, err = optInt("bathrooms", f.Bathrooms); err != nil {
		return nil, err
	}
	if p.Area, err = optInt("area", f.Area); err != nil {
		return nil, err
	}
	return p, nil
}

// ValidateRental is ValidateSale for the rent/list form.
func ValidateRental(f RentalForm) (*models.RentalProperty, error) {
	if err := required("title", f.Title, "monthly_rent", f.MonthlyRent, "property_type", f.PropertyType); err != nil {
		return nil, err
	}
	rent, err := ParseAmount(f.MonthlyRent)
	if err != nil {
		return nil, invalidNumber("monthly_rent")
	}

	p := &models.RentalProperty{
		Title:         strings.TrimSpace(f.Title),
		MonthlyRent:   rent,
		PropertyType:  strings.TrimSpace(f.PropertyType),
		Description:   optString(f.Description),
		Location:      optString(f.Location),
		Address:       optString(f.Address),
		LeaseDuration: optString(f.LeaseDuration),
		ContactName:   optString(f.ContactName),
		ContactPhone:  optString(f.ContactPhone),
		ContactEmail:  optString(f.ContactEmail),
		Amenities:     Amenities(f.Amenities),
		Images:        nonEmpty(f.Images),
	}
	if strings.TrimSpace(f.SecurityDeposit) != "" {
		d, err := ParseAmount(f.SecurityDeposit)
		if err != nil {
			return nil, invalidNumber("security_deposit")
		}
		p.SecurityDeposit = &d
	}
	if p.Bedrooms, err = optInt("bedrooms", f.Bedrooms); err != nil {
		return nil, err
	}
	if p.Bathrooms, err = optInt("bathrooms", f.Bathrooms); err != nil {
		return nil, err
	}
	if p.Parking, err = optInt("parking", f.Parking); err != nil {
		return nil, err
	}
	if p.Area, err = optInt("area", f.Area); err != nil {
		return nil, err
	}
	if fu := strings.ToLower(strings.TrimSpace(f.Furnished)); fu != "" {
		switch fu {
		case models.FurnishedFully, models.FurnishedSemi, models.FurnishedUnfurnished:
			p.Furnished = &fu
		default:
			return nil, invalidValue("furnished", "furnished must be one of fully, semi, unfurnished")
		}
	}
	if af := strings.TrimSpace(f.AvailableFrom); af != "" {
		d, err := time.Parse(time.DateOnly, af)
		if err != nil {
			return nil, invalidValue("available_from", "available_from must be a date (YYYY-MM-DD)")
		}
		p.AvailableFrom = &d
	}
	return p, nil
}

// required takes (name, value) pairs and reports the first blank one.
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return missing(pairs[i])
		}
	}
	return nil
}

var separators = strings.NewReplacer(",", "", "_", "", " ", "", "₹", "")

// ParseAmount strips thousands separators and the rupee sign, then parses a
// positive finite amount rounded to whole rupees. Both "100,000" and the
// Indian grouping "1,00,000" yield 100000.
func ParseAmount(s string) (int64, error) {
	clean := separators.Replace(strings.TrimSpace(s))
	if clean == "" {
		return 0, ErrInvalidNumber
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v > 1e15 {
		return 0, ErrInvalidNumber
	}
	n := int64(math.Round(v))
	if n <= 0 {
		return 0, ErrInvalidNumber
	}
	return n, nil
}

// optInt coerces an optional whole-number field. Blank means absent.
func optInt(field, s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(separators.Replace(strings.TrimSuffix(s, "+")))
	if err != nil || n < 0 {
		return nil, &apperr.Error{
			Kind:    apperr.Validation,
			Op:      "listing.Validate",
			Field:   field,
			Message: field + " must be a whole number",
			Err:     ErrInvalidNumber,
		}
	}
	return &n, nil
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Amenities deduplicates the amenity list, keeping first-seen order.
func Amenities(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
