package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/cashflow-engine/core"
)

func TestMaxSafeSpend_BinarySearchFindsLargestSafeAmount(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 10)

	safe := core.MaxSafeSpend(core.Money(10000), start, end, start, nil, core.Money(5000))
	assert.Equal(t, core.Money(5000), safe)
}

func TestMaxSafeSpend_ZeroWhenAlreadyUnsafe(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 10)

	safe := core.MaxSafeSpend(core.Money(100), start, end, start, nil, core.Money(5000))
	assert.Equal(t, core.Money(0), safe)
}

func TestMaxSafeSpend_ConsidersFutureInflows(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 10)
	entries := []core.Entry{
		{Date: core.NewDay(2026, time.January, 5), SignedAmountCents: 20000},
	}

	safe := core.MaxSafeSpend(core.Money(0), start, end, start, entries, core.Money(0))
	assert.Equal(t, core.Money(0), safe)
}

func TestSimulateSpend_UnsafeWhenBelowFloor(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 10)

	result := core.SimulateSpend(core.Money(1000), start, end, nil, start, core.Money(600), core.Money(500), core.Money(0))
	assert.False(t, result.Safe)
	assert.Equal(t, core.Money(400), result.NewMinBalanceCents)
}

func TestSimulateSpend_SafeWithinFloor(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 10)

	result := core.SimulateSpend(core.Money(1000), start, end, nil, start, core.Money(400), core.Money(500), core.Money(0))
	assert.True(t, result.Safe)
	assert.Equal(t, core.Money(600), result.NewMinBalanceCents)
}
