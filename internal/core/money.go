// Package core provides money parsing and handling utilities.
//
// All monetary values are decimals rounded to cents at every aggregation
// step. The storage layer persists integer cents and converts at the
// boundary with FromCents/Cents.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts serialize as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Round2 rounds to 2 decimal places with half-up rounding. Every
// aggregation step in the engine goes through this helper so that
// cents-level drift stays reproducible.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Ceil2 rounds up to the next cent. Rescaled goal schedules level their
// installments with Ceil2 so the final installment never exceeds the base.
func Ceil2(d decimal.Decimal) decimal.Decimal {
	return d.RoundCeil(2)
}

// Cents converts a decimal amount to integer cents, rounding half-up.
func Cents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromCents converts integer cents back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ParseAmount converts a decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// keeps the sign: income amounts arrive negative. Returns ErrInvalidAmount
// for anything that does not parse as a number.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("-450")   -> -450, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
