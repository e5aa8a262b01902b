package catalog

import (
	"strings"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

// Bracket is an amount range (Min, Max]. A zero Max means unbounded.
type Bracket struct {
	Name    string
	Aliases []string
	Min     int64
	Max     int64
}

// Contains reports whether amount falls in the bracket.
func (b Bracket) Contains(amount int64) bool {
	return amount > b.Min && (b.Max == 0 || amount <= b.Max)
}

// SaleBrackets classify sale prices.
var SaleBrackets = []Bracket{
	{Name: "low", Aliases: []string{"0-50"}, Max: 5_000_000},
	{Name: "mid", Aliases: []string{"50-100"}, Min: 5_000_000, Max: 10_000_000},
	{Name: "high", Aliases: []string{"100+"}, Min: 10_000_000},
}

// RentalBrackets classify monthly rents.
var RentalBrackets = []Bracket{
	{Name: "0-15", Aliases: []string{"low"}, Max: 15_000},
	{Name: "15-25", Aliases: []string{"mid"}, Min: 15_000, Max: 25_000},
	{Name: "25-40", Aliases: []string{"upper"}, Min: 25_000, Max: 40_000},
	{Name: "40+", Aliases: []string{"high"}, Min: 40_000},
}

func bracketsFor(kind models.Kind) []Bracket {
	if kind == models.KindRental {
		return RentalBrackets
	}
	return SaleBrackets
}

// LookupBracket resolves a bracket name or alias for kind. An empty name
// resolves to nil with no error.
func LookupBracket(kind models.Kind, name string) (*Bracket, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return nil, nil
	}
	for _, b := range bracketsFor(kind) {
		if b.Name == name {
			return &b, nil
		}
		for _, a := range b.Aliases {
			if a == name {
				return &b, nil
			}
		}
	}
	return nil, &apperr.Error{
		Kind:    apperr.Validation,
		Op:      "catalog.LookupBracket",
		Field:   "price",
		Message: "unknown price range " + name,
	}
}

// Classify returns the canonical bracket name for amount.
func Classify(kind models.Kind, amount int64) string {
	for _, b := range bracketsFor(kind) {
		if b.Contains(amount) {
			return b.Name
		}
	}
	return ""
}
