// Package types provides the value types shared across the cap-table packages.
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in the smallest currency unit, used for funding-round
// terms. All arithmetic is integer-only.
//
// Examples:
//   - USD(250000000) = $2,500,000.00 raised
//   - EUR(100000) = €1,000.00
type Money struct {
	Amount   int64  `json:"amount"`   // Smallest unit (cents, pence, etc)
	Currency string `json:"currency"` // ISO 4217 lowercase
}

// USD creates a Money value in US Dollars (cents).
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// EUR creates a Money value in Euros (cents).
func EUR(cents int64) Money { return Money{Amount: cents, Currency: "eur"} }

// GBP creates a Money value in British Pounds (pence).
func GBP(pence int64) Money { return Money{Amount: pence, Currency: "gbp"} }

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency string) Money { return Money{Currency: strings.ToLower(currency)} }

// ParseMoney parses a major-unit string such as "1500000.50" in currency.
// Digits beyond the currency's minor unit are rounded half away from zero.
func ParseMoney(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	places := int32(currencyDecimals(currency))
	return Money{
		Amount:   d.Round(places).Shift(places).IntPart(),
		Currency: strings.ToLower(currency),
	}, nil
}

// Add adds two amounts. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Share returns part/whole as a Percent rounded half away from zero.
// Returns NoEquity when whole is not positive. Panics on a currency mismatch.
func Share(part, whole Money) Percent {
	part.assertSameCurrency(whole)
	if whole.Amount <= 0 {
		return NoEquity
	}
	return Percent(roundDiv(part.Amount*int64(FullEquity), whole.Amount))
}

// FormatMajor renders the amount in major units without a symbol,
// e.g. "49.00" for USD(4900) and "100" for a zero-decimal currency.
func (m Money) FormatMajor() string {
	places := int32(currencyDecimals(m.Currency))
	return decimal.New(m.Amount, -places).StringFixed(places)
}

// String renders the amount with its currency symbol, e.g. "$49.00".
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON adds a display field next to the raw amount.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

func currencySymbol(currency string) string {
	switch strings.ToLower(currency) {
	case "usd":
		return "$"
	case "eur":
		return "€"
	case "gbp":
		return "£"
	case "jpy":
		return "¥"
	default:
		return strings.ToUpper(currency) + " "
	}
}

func currencyDecimals(currency string) int {
	switch strings.ToLower(currency) {
	case "jpy", "krw", "vnd", "clp":
		return 0
	default:
		return 2
	}
}
