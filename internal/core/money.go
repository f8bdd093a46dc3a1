// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. Parsing and formatting go through
// shopspring/decimal so no float arithmetic touches stored values.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// MaxCents is the largest single amount accepted (100 billion units). Totals
// over any realistic number of operations stay far from int64 overflow.
const MaxCents int64 = 10_000_000_000_000

var maxCents = decimal.NewFromInt(MaxCents)

// ParseMoney converts a decimal string to Money with half-up rounding to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns ErrInvalidAmount for invalid formats, negative values, zero amounts
// or values above MaxCents.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234 cents
//	ParseMoney("12,345") -> 1235 cents (rounds up)
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2)
	if cents.GreaterThan(maxCents) {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Cents: cents.IntPart()}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// MoneyFromDecimal converts a decimal amount (e.g. 12.5) to cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with two decimals, e.g. "1500.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}
