/*
Package core provides the domain-agnostic-by-convention engine shared by
every cash-flow component: money and calendar primitives, the entity
model, the calendar expander, the forecast engine, the simulator, the
blended overlay, snapshots, and alerts.

All monetary values are integer minor units ("cents"). Floating point
never touches a balance; the only place fractional numbers appear is the
Blended Overlay's statistical parameters (mu, sigma, weekday multipliers),
which are decimal.Decimal-backed to avoid the drift that float64 would
introduce across repeated recomputation.
*/
package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a signed quantity of integer minor units (cents). Debits are
// negative, credits are positive, matching spec's Transaction.amount_cents
// convention.
type Money int64

func (m Money) Add(other Money) Money { return m + other }
func (m Money) Sub(other Money) Money { return m - other }
func (m Money) Neg() Money             { return -m }
func (m Money) IsNegative() bool       { return m < 0 }
func (m Money) IsPositive() bool       { return m > 0 }
func (m Money) IsZero() bool           { return m == 0 }

func (m Money) Min(other Money) Money {
	if m < other {
		return m
	}
	return other
}

func (m Money) Max(other Money) Money {
	if m > other {
		return m
	}
	return other
}

func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// String renders cents as a decimal amount, e.g. Money(12345) -> "123.45".
func (m Money) String() string {
	neg := ""
	v := int64(m)
	if v < 0 {
		neg = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", neg, v/100, v%100)
}

// SumMoney adds a slice of Money values.
func SumMoney(vs []Money) Money {
	var total Money
	for _, v := range vs {
		total += v
	}
	return total
}

// Ratio wraps decimal.Decimal for the fractional quantities the Blended
// Overlay deals in: mu, sigma, and weekday multipliers. These are never
// persisted as the authoritative balance, only used to derive a reference
// band around the deterministic series.
type Ratio struct {
	Value decimal.Decimal
}

func NewRatio(f float64) Ratio            { return Ratio{Value: decimal.NewFromFloat(f)} }
func RatioFromInt(n int64) Ratio          { return Ratio{Value: decimal.NewFromInt(n)} }
func (r Ratio) Add(o Ratio) Ratio         { return Ratio{r.Value.Add(o.Value)} }
func (r Ratio) Sub(o Ratio) Ratio         { return Ratio{r.Value.Sub(o.Value)} }
func (r Ratio) Mul(o Ratio) Ratio         { return Ratio{r.Value.Mul(o.Value)} }
func (r Ratio) Div(o Ratio) Ratio         { return Ratio{r.Value.Div(o.Value)} }
func (r Ratio) Float64() float64          { f, _ := r.Value.Float64(); return f }
func (r Ratio) IsZero() bool              { return r.Value.IsZero() }

// ToMoney rounds a cents-denominated Ratio to the nearest Money value.
func (r Ratio) ToMoney() Money {
	return Money(r.Value.Round(0).IntPart())
}

// MulMoney scales a Money amount by a Ratio, rounding to the nearest cent
// (banker's rounding is unnecessary here; half-away-from-zero matches the
// teacher's decimal usage and is deterministic).
func (r Ratio) MulMoney(m Money) Money {
	scaled := decimal.NewFromInt(int64(m)).Mul(r.Value)
	return Money(scaled.Round(0).IntPart())
}
