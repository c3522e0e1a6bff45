package questionnaire_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/core"
	"github.com/warp/cashflow-engine/questionnaire"
)

func TestSubscriptionList_DetectsRegularRecurringPayee(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, store, "checking")

	// GIVEN a payee charging the same amount on a ~30-day cadence
	seedTx(t, store, "tx-1", "checking", core.NewDay(2025, 11, 1), -1500, "Streaming Co", nil)
	seedTx(t, store, "tx-2", "checking", core.NewDay(2025, 12, 1), -1500, "Streaming Co", nil)
	seedTx(t, store, "tx-3", "checking", core.NewDay(2026, 1, 1), -1500, "Streaming Co", nil)

	engine := questionnaire.NewEngine(store)
	subs, err := engine.SubscriptionList(ctx, []core.AccountID{"checking"}, core.NewDay(2026, 1, 15))
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, "Streaming Co", subs[0].Payee)
	require.Equal(t, 3, subs[0].Occurrences)
	require.Greater(t, subs[0].Confidence, 0.9) // steady amount, steady cadence
}

func TestSubscriptionList_IgnoresPayeeBelowMinimumOccurrences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, store, "checking")

	seedTx(t, store, "tx-1", "checking", core.NewDay(2025, 12, 1), -1500, "One Time Shop", nil)
	seedTx(t, store, "tx-2", "checking", core.NewDay(2026, 1, 1), -1500, "One Time Shop", nil)

	engine := questionnaire.NewEngine(store)
	subs, err := engine.SubscriptionList(ctx, []core.AccountID{"checking"}, core.NewDay(2026, 1, 15))
	require.NoError(t, err)
	require.Empty(t, subs)
}

func TestSubscriptionList_IgnoresIncomeAndUnnamedPayees(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, store, "checking")

	seedTx(t, store, "tx-1", "checking", core.NewDay(2025, 11, 1), 300000, "Employer", nil)
	seedTx(t, store, "tx-2", "checking", core.NewDay(2025, 12, 1), 300000, "Employer", nil)
	seedTx(t, store, "tx-3", "checking", core.NewDay(2026, 1, 1), 300000, "Employer", nil)

	engine := questionnaire.NewEngine(store)
	subs, err := engine.SubscriptionList(ctx, []core.AccountID{"checking"}, core.NewDay(2026, 1, 15))
	require.NoError(t, err)
	require.Empty(t, subs)
}
