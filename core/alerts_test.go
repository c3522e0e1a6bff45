package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/cashflow-engine/core"
)

var defaultThresholds = core.AlertThresholds{
	MinBalanceDropCents:       10000,
	LargeDebitCents:           20000,
	DriftAmountToleranceCents: 500,
	DriftDateToleranceDays:    3,
	DriftMinConsecutiveCycles: 3,
}

func TestDetectThresholdBreach_FiresOnLargeDrop(t *testing.T) {
	now := core.NewDay(2026, time.January, 1)
	alert, ok := core.DetectThresholdBreach(core.Money(50000), core.Money(30000), defaultThresholds, now)
	assert.True(t, ok)
	assert.Equal(t, core.AlertThresholdBreach, alert.Type)
	assert.Equal(t, "min_balance_drop", alert.DedupeKey)
}

func TestDetectThresholdBreach_NoFireBelowThreshold(t *testing.T) {
	now := core.NewDay(2026, time.January, 1)
	_, ok := core.DetectThresholdBreach(core.Money(50000), core.Money(45000), defaultThresholds, now)
	assert.False(t, ok)
}

func TestDetectFloorBreach_FiresBelowFloor(t *testing.T) {
	floor := core.Money(1000)
	anchor := core.AccountAnchor{AccountID: "checking", MinFloorCents: &floor}
	alert, ok := core.DetectFloorBreach("checking", core.Money(500), anchor, core.Today())
	assert.True(t, ok)
	assert.Equal(t, core.SeverityCritical, alert.Severity)
	assert.Equal(t, "floor_breach:checking", alert.DedupeKey)
}

func TestDetectFloorBreach_NoFloorConfigured(t *testing.T) {
	anchor := core.AccountAnchor{AccountID: "checking"}
	_, ok := core.DetectFloorBreach("checking", core.Money(-500), anchor, core.Today())
	assert.False(t, ok)
}

func TestDetectLargeUnplannedDebit_FiresForUnmatchedLargeDebit(t *testing.T) {
	matcher := core.NewRecurringMatcher(nil, nil)
	tx := core.Transaction{
		IdempotencyKey: "tx-1",
		Payee:          "Random Electronics Store",
		AmountCents:    core.Money(-25000),
		IsCleared:      true,
		PostedAt:       core.Today(),
	}
	alert, ok := core.DetectLargeUnplannedDebit(tx, defaultThresholds, matcher, core.Today())
	assert.True(t, ok)
	assert.Equal(t, core.AlertLargeUnplanned, alert.Type)
}

func TestDetectLargeUnplannedDebit_SkipsKnownCommitmentPayee(t *testing.T) {
	matcher := core.NewRecurringMatcher([]core.Commitment{{Name: "Rent"}}, nil)
	tx := core.Transaction{
		IdempotencyKey: "tx-2",
		Payee:          "Rent",
		AmountCents:    core.Money(-150000),
		IsCleared:      true,
		PostedAt:       core.Today(),
	}
	_, ok := core.DetectLargeUnplannedDebit(tx, defaultThresholds, matcher, core.Today())
	assert.False(t, ok)
}

func TestDetectLargeUnplannedDebit_SkipsBelowThreshold(t *testing.T) {
	matcher := core.NewRecurringMatcher(nil, nil)
	tx := core.Transaction{
		IdempotencyKey: "tx-3",
		Payee:          "Coffee Shop",
		AmountCents:    core.Money(-500),
		IsCleared:      true,
		PostedAt:       core.Today(),
	}
	_, ok := core.DetectLargeUnplannedDebit(tx, defaultThresholds, matcher, core.Today())
	assert.False(t, ok)
}

func TestDetectLargeUnplannedDebit_SkipsUncleared(t *testing.T) {
	matcher := core.NewRecurringMatcher(nil, nil)
	tx := core.Transaction{
		IdempotencyKey: "tx-4",
		Payee:          "Random Electronics Store",
		AmountCents:    core.Money(-25000),
		IsCleared:      false,
		PostedAt:       core.Today(),
	}
	_, ok := core.DetectLargeUnplannedDebit(tx, defaultThresholds, matcher, core.Today())
	assert.False(t, ok)
}

func TestDetectCommitmentDrift_FiresWhenAllCyclesDrift(t *testing.T) {
	c := core.Commitment{ID: "rent", Name: "Rent", AmountCents: 150000, NextDueDate: core.NewDay(2026, time.January, 1)}
	observations := []core.CommitmentObservation{
		{AmountCents: 160000, ObservedAt: core.NewDay(2025, time.November, 1), DueDate: core.NewDay(2025, time.November, 1)},
		{AmountCents: 161000, ObservedAt: core.NewDay(2025, time.December, 1), DueDate: core.NewDay(2025, time.December, 1)},
		{AmountCents: 162000, ObservedAt: core.NewDay(2026, time.January, 1), DueDate: core.NewDay(2026, time.January, 1)},
	}
	alert, ok := core.DetectCommitmentDrift(c, observations, defaultThresholds, core.Today())
	assert.True(t, ok)
	assert.Equal(t, core.AlertCommitmentDrift, alert.Type)
	assert.Equal(t, "commitment:rent", alert.DedupeKey)
}

func TestDetectCommitmentDrift_NoFireWhenRecentCycleMatches(t *testing.T) {
	c := core.Commitment{ID: "rent", Name: "Rent", AmountCents: 150000, NextDueDate: core.NewDay(2026, time.January, 1)}
	observations := []core.CommitmentObservation{
		{AmountCents: 160000, ObservedAt: core.NewDay(2025, time.November, 1), DueDate: core.NewDay(2025, time.November, 1)},
		{AmountCents: 161000, ObservedAt: core.NewDay(2025, time.December, 1), DueDate: core.NewDay(2025, time.December, 1)},
		{AmountCents: 150000, ObservedAt: core.NewDay(2026, time.January, 1), DueDate: core.NewDay(2026, time.January, 1)},
	}
	_, ok := core.DetectCommitmentDrift(c, observations, defaultThresholds, core.Today())
	assert.False(t, ok)
}

func TestDetectCommitmentDrift_NoFireBelowMinCycles(t *testing.T) {
	c := core.Commitment{ID: "rent", Name: "Rent", AmountCents: 150000, NextDueDate: core.NewDay(2026, time.January, 1)}
	observations := []core.CommitmentObservation{
		{AmountCents: 160000, ObservedAt: core.NewDay(2026, time.January, 1), DueDate: core.NewDay(2026, time.January, 1)},
	}
	_, ok := core.DetectCommitmentDrift(c, observations, defaultThresholds, core.Today())
	assert.False(t, ok)
}
