package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/core"
	"github.com/warp/cashflow-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUpsertAccount_RoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertAccount(ctx, core.Account{
		ID: "checking", Name: "Primary Checking", Type: core.AccountChecking, Currency: "USD", IsActive: true,
	}))

	acct, ok, err := store.GetAccount(ctx, "checking")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Primary Checking", acct.Name)
}

func TestUpsertTransaction_SecondInsertWithSameKeyUpdatesNotDuplicates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertAccount(ctx, core.Account{ID: "checking", Name: "Checking", Type: core.AccountChecking, Currency: "USD", IsActive: true}))

	tx := core.Transaction{
		IdempotencyKey: "key-1",
		AccountID:      "checking",
		PostedAt:       core.NewDay(2026, 1, 5),
		AmountCents:    -1500,
		Payee:          "Coffee Shop",
		Source:         "manual",
		IsCleared:      false,
	}
	inserted, err := store.UpsertTransaction(ctx, tx)
	require.NoError(t, err)
	require.True(t, inserted)

	tx.IsCleared = true
	inserted, err = store.UpsertTransaction(ctx, tx)
	require.NoError(t, err)
	require.False(t, inserted)

	rows, err := store.TransactionsInRange(ctx, "checking", nil, core.NewDay(2026, 1, 31))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].IsCleared)
}

func TestSumCleared_ExcludesUnclearedTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertAccount(ctx, core.Account{ID: "checking", Name: "Checking", Type: core.AccountChecking, Currency: "USD", IsActive: true}))

	_, err := store.UpsertTransaction(ctx, core.Transaction{
		IdempotencyKey: "key-cleared", AccountID: "checking", PostedAt: core.NewDay(2026, 1, 5),
		AmountCents: -1000, Source: "manual", IsCleared: true,
	})
	require.NoError(t, err)
	_, err = store.UpsertTransaction(ctx, core.Transaction{
		IdempotencyKey: "key-pending", AccountID: "checking", PostedAt: core.NewDay(2026, 1, 6),
		AmountCents: -5000, Source: "manual", IsCleared: false,
	})
	require.NoError(t, err)

	sum, err := store.SumCleared(ctx, "checking", nil, core.NewDay(2026, 1, 31))
	require.NoError(t, err)
	require.Equal(t, core.Money(-1000), sum)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx core.Store) error {
		if err := tx.UpsertAccount(ctx, core.Account{ID: "checking", Name: "Checking", Type: core.AccountChecking, Currency: "USD", IsActive: true}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, ok, err := store.GetAccount(ctx, "checking")
	require.NoError(t, err)
	require.False(t, ok, "account insert must be rolled back with the rest of the transaction")
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx core.Store) error {
		return tx.UpsertAccount(ctx, core.Account{ID: "checking", Name: "Checking", Type: core.AccountChecking, Currency: "USD", IsActive: true})
	})
	require.NoError(t, err)

	_, ok, err := store.GetAccount(ctx, "checking")
	require.NoError(t, err)
	require.True(t, ok)
}
