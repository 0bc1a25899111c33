// Package types provides common value types shared by the domain packages.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value in rupees with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyPlaces is the number of decimal places amounts are stored and shown with.
const MoneyPlaces = 2

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds to 2 decimal places, half away from zero
// (half-up for the non-negative amounts a sale carries).
func RoundMoney(m Money) Money {
	return m.Round(MoneyPlaces)
}

// SplitEvenly divides total into parts shares of whole paise that sum exactly to the
// rounded total. The leftover paise go one each to the first shares, so no two shares
// differ by more than 0.01 and none is negative for a non-negative total.
func SplitEvenly(total Money, parts int) []Money {
	if parts <= 0 {
		return nil
	}
	paise := RoundMoney(total).Shift(MoneyPlaces).IntPart()
	n := int64(parts)
	base, rem := paise/n, paise%n
	if rem < 0 {
		base--
		rem += n
	}

	out := make([]Money, parts)
	for i := range out {
		share := base
		if int64(i) < rem {
			share++
		}
		out[i] = decimal.New(share, -MoneyPlaces)
	}
	return out
}
