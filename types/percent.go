package types

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Percent is a share of total ownership in hundredths of a percentage point,
// so 100.00% is Percent(10000) and 0.01% is Percent(1).
// All arithmetic is integer-only. Decimal text and floats are rounded
// half away from zero to two fractional digits on the way in.
type Percent int64

const (
	// NoEquity is the empty cap-table total.
	NoEquity Percent = 0

	// Hundredth is the smallest representable stake, 0.01%.
	Hundredth Percent = 1

	// FullEquity is a fully allocated cap table, 100.00%.
	FullEquity Percent = 10000
)

// percentPlaces is the number of fractional digits a Percent carries.
const percentPlaces = 2

// Points returns a Percent of whole percentage points: Points(20) is 20.00%.
func Points(whole int64) Percent { return Percent(whole * 100) }

// ParsePercent parses decimal text such as "33.335" or "70".
// Extra fractional digits are rounded half away from zero.
func ParsePercent(s string) (Percent, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return NoEquity, fmt.Errorf("percent: parse %q: %w", s, err)
	}
	return PercentFromDecimal(d), nil
}

// MustPercent is like ParsePercent but panics on error. Use for literals.
func MustPercent(s string) Percent {
	p, err := ParsePercent(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PercentFromDecimal rounds d to two places, half away from zero.
func PercentFromDecimal(d decimal.Decimal) Percent {
	return Percent(d.Round(percentPlaces).Shift(percentPlaces).IntPart())
}

// PercentFromFloat converts a float such as 33.335 via its shortest decimal form.
func PercentFromFloat(f float64) Percent {
	return PercentFromDecimal(decimal.NewFromFloat(f))
}

// Decimal returns the exact decimal value in percentage points.
func (p Percent) Decimal() decimal.Decimal { return decimal.New(int64(p), -percentPlaces) }

// Float64 returns the value in percentage points. For display only.
func (p Percent) Float64() float64 {
	f, _ := p.Decimal().Float64()
	return f
}

// String renders the value with exactly two fractional digits, e.g. "56.00".
func (p Percent) String() string { return p.Decimal().StringFixed(percentPlaces) }

// Add returns p + o.
func (p Percent) Add(o Percent) Percent { return p + o }

// Sub returns p - o.
func (p Percent) Sub(o Percent) Percent { return p - o }

// Abs returns the magnitude of p.
func (p Percent) Abs() Percent {
	if p < 0 {
		return -p
	}
	return p
}

// Complement returns the share not covered by p, FullEquity - p.
func (p Percent) Complement() Percent { return FullEquity - p }

// IsZero reports whether p is exactly 0.00%.
func (p Percent) IsZero() bool { return p == 0 }

// IsNegative reports whether p is below zero.
func (p Percent) IsNegative() bool { return p < 0 }

// Scale returns p*num/den rounded half away from zero to the nearest
// hundredth. The product is computed exactly. Panics if den is zero.
func (p Percent) Scale(num, den int64) Percent {
	if den == 0 {
		panic("percent: scale by zero denominator")
	}
	return Percent(roundDiv(int64(p)*num, den))
}

// roundDiv divides n by d rounding half away from zero.
func roundDiv(n, d int64) int64 {
	neg := (n < 0) != (d < 0)
	if n < 0 {
		n = -n
	}
	if d < 0 {
		d = -d
	}
	q := (2*n + d) / (2 * d)
	if neg {
		return -q
	}
	return q
}

// SumPercent adds up all values.
func SumPercent(values ...Percent) Percent {
	var total Percent
	for _, v := range values {
		total += v
	}
	return total
}

// MarshalJSON renders the value as a JSON number with two fractional digits.
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (p *Percent) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	parsed, err := ParsePercent(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
