package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/cashflow-engine/core"
)

func TestComputeDailyStats_ExcludesKnownPayeesAndTransfers(t *testing.T) {
	matcher := core.NewRecurringMatcher(
		[]core.Commitment{{Name: "Rent"}},
		[]core.ScheduledInflow{{Name: "Paycheck"}},
	)
	windowEnd := core.NewDay(2026, time.January, 10)
	txs := []core.Transaction{
		{Payee: "Employer", AmountCents: 300000, PostedAt: windowEnd},      // income: excluded
		{Payee: "Rent", AmountCents: -150000, PostedAt: windowEnd},        // known commitment: excluded
		{Payee: "Paycheck", AmountCents: -1, PostedAt: windowEnd},         // known inflow name: excluded
		{Payee: "Internal Transfer", AmountCents: -50000, PostedAt: windowEnd}, // transfer marker: excluded
		{Payee: "Grocery Store", AmountCents: -2000, PostedAt: windowEnd}, // variable spend: included
	}
	stats := core.ComputeDailyStats(txs, matcher, windowEnd, 10)
	assert.Equal(t, core.NewRatio(200), stats.MuCents) // 2000 / 10-day window
}

func TestComputeDailyStats_EmptyYieldsZeroed(t *testing.T) {
	matcher := core.NewRecurringMatcher(nil, nil)
	stats := core.ComputeDailyStats(nil, matcher, core.Today(), 30)
	assert.True(t, stats.MuCents.IsZero())
	assert.True(t, stats.SigmaCents.IsZero())
}

func TestComputeDailyStats_ComputesMeanOfVariableSpend(t *testing.T) {
	matcher := core.NewRecurringMatcher(nil, nil)
	windowEnd := core.NewDay(2026, time.January, 10)
	txs := []core.Transaction{
		{Payee: "Grocery Store", AmountCents: -1000, PostedAt: core.NewDay(2026, time.January, 9)},
		{Payee: "Grocery Store", AmountCents: -3000, PostedAt: core.NewDay(2026, time.January, 10)},
	}
	stats := core.ComputeDailyStats(txs, matcher, windowEnd, 10)
	// 10-day window with all-zero days except two: mean = (1000+3000)/10 = 400
	assert.Equal(t, core.NewRatio(400), stats.MuCents)
}

func TestComputeWeekdayMultipliers_NeutralWhenNoData(t *testing.T) {
	matcher := core.NewRecurringMatcher(nil, nil)
	mult := core.ComputeWeekdayMultipliers(nil, matcher, core.Today(), 30)
	for _, m := range mult {
		assert.True(t, m.Sub(core.NewRatio(1.0)).IsZero())
	}
}

func TestComputeBlended_SubtractsExpectedSpendAndBandsAroundIt(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 3)
	series := core.ComputeBalances(core.Money(10000), start, end, nil)

	stats := core.DailyStats{MuCents: core.NewRatio(100), SigmaCents: core.NewRatio(50)}
	var weekday core.WeekdayMultipliers
	for i := range weekday {
		weekday[i] = core.NewRatio(1.0)
	}
	blended := core.ComputeBlended(series, stats, weekday, core.NewRatio(2.0))

	key := start.String()
	assert.Equal(t, core.Money(9900), blended.Baseline[key])
	assert.Equal(t, core.Money(9800), blended.Lower[key])
	assert.Equal(t, core.Money(10000), blended.Upper[key])
}
