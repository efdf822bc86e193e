package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (cents). Sums over Money are exact in Go and in SQL.
type Money int64

var hundred = decimal.NewFromInt(100)

// ParseMoney parses a decimal string, rounding half away from zero to cents.
// Values whose cents do not fit in int64 are rejected.
func ParseMoney(raw string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	cents := d.Shift(2).Round(0)
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("value out of range: %q", raw)
	}
	return Money(cents.IntPart()), nil
}

// Decimal returns m in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a fixed two-decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts the string form written by MarshalJSON.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Average divides m by n and rounds half away from zero to cents. n <= 0 yields zero.
func (m Money) Average(n int) Money {
	if n <= 0 {
		return 0
	}
	q := decimal.NewFromInt(int64(m)).Div(decimal.NewFromInt(int64(n)))
	return Money(q.Round(0).IntPart())
}

// Percent is a percentage with two decimal places.
type Percent struct {
	decimal.Decimal
}

// MarshalJSON encodes the percentage as a fixed two-decimal string.
func (p Percent) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.StringFixed(2))
}

// UnmarshalJSON accepts the string form written by MarshalJSON.
func (p *Percent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("not a percentage: %q", s)
	}
	p.Decimal = d.Round(2)
	return nil
}

// PercentChange returns (cur-prev)/prev*100 rounded to two places, or nil when prev is zero.
func PercentChange(prev, cur Money) *Percent {
	if prev == 0 {
		return nil
	}
	diff := decimal.NewFromInt(int64(cur - prev))
	pct := diff.Mul(hundred).Div(decimal.NewFromInt(int64(prev))).Round(2)
	return &Percent{Decimal: pct}
}
