// Package pricefmt renders rupee amounts the way the listing pages show them.
//
// Sale prices are abbreviated to Lakh (1e5) and Crore (1e7) with one decimal.
// Rents are shown in full on the property detail view and abbreviated on the
// rent list view; both variants are kept because they are visible text.
package pricefmt

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	Lakh  int64 = 100_000
	Crore int64 = 10_000_000

	rupee        = "₹"
	notSpecified = "Not specified"
)

var printer = message.NewPrinter(language.English)

// Thousands formats n with comma group separators: 1234567 -> "1,234,567".
func Thousands(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatPrice returns the magnitude string for amount without currency sign.
func FormatPrice(amount int64) string {
	switch {
	case amount >= Crore:
		return tenths(amount, Crore) + " Crore"
	case amount >= Lakh:
		return tenths(amount, Lakh) + " Lakh"
	default:
		return Thousands(amount)
	}
}

// FormatRent is the detail-view rent: never abbreviated.
func FormatRent(amount int64) string {
	return rupee + Thousands(amount) + "/month"
}

// FormatRentCompact is the rent list variant, abbreviated like a sale price.
func FormatRentCompact(amount int64) string {
	return rupee + FormatPrice(amount) + "/month"
}

// FormatDeposit renders an optional security deposit.
func FormatDeposit(deposit *int64) string {
	if deposit == nil || *deposit == 0 {
		return notSpecified
	}
	return rupee + Thousands(*deposit)
}

// Rupees prefixes s with the rupee sign.
func Rupees(s string) string { return rupee + s }

// tenths divides amount by unit and rounds half up to one decimal place using
// integer arithmetic, so 12_500_000 / Crore is "1.3" and not "1.2".
func tenths(amount, unit int64) string {
	step := unit / 10
	t := (amount + step/2) / step
	return strconv.FormatInt(t/10, 10) + "." + strconv.FormatInt(t%10, 10)
}
