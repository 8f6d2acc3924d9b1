// Package core provides the ledger domain types and money handling utilities.
//
// Amounts are carried as decimal.Decimal end to end so that totals such as
// income - expense stay exact. Storage backends persist minor units (cents).
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to a positive amount rounded half-up to two places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns a validation error for invalid formats, signs, or zero amounts.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, Invalid("amount is required")
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, Invalid("invalid amount %q: only positive values allowed", s)
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, Invalid("invalid amount %q", s)
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, Invalid("invalid amount %q", s)
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Invalid("invalid amount %q", s)
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, Invalid("amount must be greater than 0")
	}
	return d, nil
}

// ToCents converts an amount to integer minor units, rounding half away from zero.
func ToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromCents converts integer minor units back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
