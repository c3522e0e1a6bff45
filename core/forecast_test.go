package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/cashflow-engine/core"
)

func TestComputeBalances_CarriesForwardAndMinBalance(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 5)

	entries := []core.Entry{
		{Date: core.NewDay(2026, time.January, 2), SignedAmountCents: -5000},
		{Date: core.NewDay(2026, time.January, 4), SignedAmountCents: 2000},
	}

	series := core.ComputeBalances(core.Money(10000), start, end, entries)

	bal1, ok := series.At(core.NewDay(2026, time.January, 1))
	assert.True(t, ok)
	assert.Equal(t, core.Money(10000), bal1)

	bal2, _ := series.At(core.NewDay(2026, time.January, 2))
	assert.Equal(t, core.Money(5000), bal2)

	// day 3 has no entry: balance carries forward unchanged
	bal3, _ := series.At(core.NewDay(2026, time.January, 3))
	assert.Equal(t, core.Money(5000), bal3)

	bal5, _ := series.At(end)
	assert.Equal(t, core.Money(7000), bal5)

	minBal, minDate := series.MinBalance()
	assert.Equal(t, core.Money(5000), minBal)
	assert.Equal(t, core.NewDay(2026, time.January, 2), minDate)
}

func TestBalanceSeries_NextCliffDate(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 5)
	entries := []core.Entry{
		{Date: core.NewDay(2026, time.January, 3), SignedAmountCents: -9900},
	}
	series := core.ComputeBalances(core.Money(10000), start, end, entries)

	cliff, ok := series.NextCliffDate(core.Money(100))
	assert.True(t, ok)
	assert.Equal(t, core.NewDay(2026, time.January, 3), cliff)

	_, ok = series.NextCliffDate(core.Money(-1))
	assert.False(t, ok)
}

func TestSafeToSpendToday_ZeroWhenAlreadyBelowFloor(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 10)
	entries := []core.Entry{
		{Date: core.NewDay(2026, time.January, 5), SignedAmountCents: -9900},
	}
	safe := core.SafeToSpendToday(core.Money(10000), start, end, start, entries, core.Money(500))
	assert.Equal(t, core.Money(0), safe)
}
