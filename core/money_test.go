package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/cashflow-engine/core"
)

func TestMoney_Arithmetic(t *testing.T) {
	a := core.Money(1000)
	b := core.Money(-300)

	assert.Equal(t, core.Money(700), a.Add(b))
	assert.Equal(t, core.Money(1300), a.Sub(b))
	assert.Equal(t, core.Money(300), b.Neg())
	assert.True(t, b.IsNegative())
	assert.True(t, a.IsPositive())
	assert.False(t, core.Money(0).IsPositive())
	assert.True(t, core.Money(0).IsZero())
	assert.Equal(t, b, a.Min(b))
	assert.Equal(t, a, a.Max(b))
	assert.Equal(t, core.Money(300), b.Abs())
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "123.45", core.Money(12345).String())
	assert.Equal(t, "-5.00", core.Money(-500).String())
	assert.Equal(t, "0.00", core.Money(0).String())
}

func TestSumMoney(t *testing.T) {
	vs := []core.Money{100, 200, -50}
	assert.Equal(t, core.Money(250), core.SumMoney(vs))
}

func TestRatio_MulMoney(t *testing.T) {
	half := core.NewRatio(0.5)
	assert.Equal(t, core.Money(50), half.MulMoney(core.Money(100)))
}

func TestRatio_ToMoney_Rounds(t *testing.T) {
	r := core.NewRatio(10.006)
	assert.Equal(t, core.Money(10), r.ToMoney())
}

func TestRatioFromInt(t *testing.T) {
	r := core.RatioFromInt(42)
	assert.Equal(t, float64(42), r.Float64())
}
