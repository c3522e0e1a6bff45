package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/core"
)

type fakeAnchors map[core.AccountID]core.AccountAnchor

func (f fakeAnchors) AnchorFor(account core.AccountID) (core.AccountAnchor, bool, error) {
	a, ok := f[account]
	return a, ok, nil
}

type fakeSums map[core.AccountID]core.Money

func (f fakeSums) SumCleared(ctx context.Context, account core.AccountID, from *core.Day, through core.Day) (core.Money, error) {
	return f[account], nil
}

func TestOpening_NoAnchor_SumsClearedToDate(t *testing.T) {
	sums := fakeSums{"checking": 4200}
	opening, err := core.Opening(context.Background(), fakeAnchors{}, sums, core.NewDay(2026, time.January, 1), []core.AccountID{"checking"})
	require.NoError(t, err)
	assert.Equal(t, core.Money(4200), opening)
}

func TestOpening_AnchorAtOrBeforeAsOf_AddsDelta(t *testing.T) {
	anchors := fakeAnchors{
		"checking": {AccountID: "checking", AnchorDate: core.NewDay(2026, time.January, 1), AnchorBalanceCents: 10000},
	}
	sums := fakeSums{"checking": 500}
	opening, err := core.Opening(context.Background(), anchors, sums, core.NewDay(2026, time.January, 10), []core.AccountID{"checking"})
	require.NoError(t, err)
	assert.Equal(t, core.Money(10500), opening)
}

func TestOpening_AnchorAfterAsOf_SubtractsDelta(t *testing.T) {
	anchors := fakeAnchors{
		"checking": {AccountID: "checking", AnchorDate: core.NewDay(2026, time.January, 10), AnchorBalanceCents: 10000},
	}
	sums := fakeSums{"checking": 500}
	opening, err := core.Opening(context.Background(), anchors, sums, core.NewDay(2026, time.January, 1), []core.AccountID{"checking"})
	require.NoError(t, err)
	assert.Equal(t, core.Money(9500), opening)
}

func TestOpening_SumsAcrossMultipleAccounts(t *testing.T) {
	anchors := fakeAnchors{}
	sums := fakeSums{"checking": 1000, "savings": 2000}
	opening, err := core.Opening(context.Background(), anchors, sums, core.NewDay(2026, time.January, 1), []core.AccountID{"checking", "savings"})
	require.NoError(t, err)
	assert.Equal(t, core.Money(3000), opening)
}
