package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/core"
)

func TestExpandCalendar_OrdersByDateThenType(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 31)

	inflow := core.ScheduledInflow{
		ID: "inflow-1", Name: "Paycheck", AmountCents: 200000,
		DueRule: "fixed_date(2026-01-15)",
	}
	commitment := core.Commitment{
		ID: "rent", Name: "Rent", AmountCents: 150000,
		DueRule: "fixed_date(2026-01-15)", ShiftPolicy: core.AsScheduled,
	}

	entries, err := core.ExpandCalendar(start, end, []core.ScheduledInflow{inflow}, []core.Commitment{commitment}, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// same date: Inflow (EntryInflow=0) sorts before Commitment (EntryCommitment=1)
	assert.Equal(t, core.EntryInflow, entries[0].Type)
	assert.Equal(t, core.Money(200000), entries[0].SignedAmountCents)
	assert.Equal(t, core.EntryCommitment, entries[1].Type)
	assert.Equal(t, core.Money(-150000), entries[1].SignedAmountCents)
}

func TestExpandCalendar_KeyEventSignConvention(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 31)

	expense := core.KeySpendEvent{ID: "vacation", Name: "Vacation", EventDate: core.NewDay(2026, time.January, 10), PlannedAmountCents: 50000}
	rebate := core.KeySpendEvent{ID: "rebate", Name: "Tax rebate", EventDate: core.NewDay(2026, time.January, 20), PlannedAmountCents: -30000}

	entries, err := core.ExpandCalendar(start, end, nil, nil, []core.KeySpendEvent{expense, rebate})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, core.Money(-50000), entries[0].SignedAmountCents)
	assert.Equal(t, core.Money(30000), entries[1].SignedAmountCents)
}

func TestExpandCalendar_OutOfRangeEventsExcluded(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 31)

	ev := core.KeySpendEvent{ID: "later", Name: "later", EventDate: core.NewDay(2026, time.March, 1), PlannedAmountCents: 1000}
	entries, err := core.ExpandCalendar(start, end, nil, nil, []core.KeySpendEvent{ev})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
