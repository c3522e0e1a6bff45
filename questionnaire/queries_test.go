package questionnaire_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/core"
	"github.com/warp/cashflow-engine/questionnaire"
	"github.com/warp/cashflow-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedAccount(t *testing.T, store *sqlite.Store, id core.AccountID) {
	t.Helper()
	require.NoError(t, store.UpsertAccount(context.Background(), core.Account{
		ID: id, Name: string(id), Type: core.AccountChecking, Currency: "USD", IsActive: true,
	}))
}

func seedTx(t *testing.T, store *sqlite.Store, key string, account core.AccountID, posted core.Day, amount core.Money, payee string, cat *core.CategoryID) {
	t.Helper()
	_, err := store.UpsertTransaction(context.Background(), core.Transaction{
		IdempotencyKey: key, AccountID: account, PostedAt: posted, AmountCents: amount,
		Payee: payee, Source: "manual", IsCleared: true, CategoryID: cat,
	})
	require.NoError(t, err)
}

func TestMonthlyTotalByCategory_SumsOutflowMagnitudeOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, store, "checking")

	groceries := core.CategoryID("groceries")
	seedTx(t, store, "tx-1", "checking", core.NewDay(2026, 1, 5), -3000, "Grocery Store", &groceries)
	seedTx(t, store, "tx-2", "checking", core.NewDay(2026, 1, 10), -2000, "Grocery Store", &groceries)
	seedTx(t, store, "tx-3", "checking", core.NewDay(2026, 1, 15), 500000, "Employer", nil) // income excluded

	engine := questionnaire.NewEngine(store)
	result, err := engine.MonthlyTotalByCategory(ctx, []core.AccountID{"checking"}, groceries, core.NewDay(2026, 1, 1), core.NewDay(2026, 1, 31))
	require.NoError(t, err)
	require.Equal(t, core.Money(5000), result.ValueCents)
	require.ElementsMatch(t, []string{"tx-1", "tx-2"}, result.EvidenceIDs)
}

func TestIncomeSummary_BreaksDownBySource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, store, "checking")

	seedTx(t, store, "tx-1", "checking", core.NewDay(2026, 1, 1), 300000, "Employer", nil)
	seedTx(t, store, "tx-2", "checking", core.NewDay(2026, 1, 15), 1000, "Interest", nil)
	seedTx(t, store, "tx-3", "checking", core.NewDay(2026, 1, 20), -5000, "Groceries", nil)

	engine := questionnaire.NewEngine(store)
	result, bySource, err := engine.IncomeSummary(ctx, []core.AccountID{"checking"}, core.NewDay(2026, 1, 1), core.NewDay(2026, 1, 31))
	require.NoError(t, err)
	require.Equal(t, core.Money(301000), result.ValueCents)
	require.Equal(t, core.Money(301000), bySource["manual"])
}

func TestCategoryBreakdown_OrdersDescendingAndRespectsTopN(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, store, "checking")

	groceries := core.CategoryID("groceries")
	dining := core.CategoryID("dining")
	seedTx(t, store, "tx-1", "checking", core.NewDay(2026, 1, 5), -1000, "Grocery Store", &groceries)
	seedTx(t, store, "tx-2", "checking", core.NewDay(2026, 1, 6), -5000, "Restaurant", &dining)

	engine := questionnaire.NewEngine(store)
	entries, err := engine.CategoryBreakdown(ctx, []core.AccountID{"checking"}, core.NewDay(2026, 1, 1), core.NewDay(2026, 1, 31), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, dining, entries[0].CategoryID)
	require.Equal(t, core.Money(5000), entries[0].TotalCents)
}

func TestSupportingTransactions_PaginatesByDateThenKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, store, "checking")

	groceries := core.CategoryID("groceries")
	seedTx(t, store, "tx-1", "checking", core.NewDay(2026, 1, 5), -1000, "Grocery Store", &groceries)
	seedTx(t, store, "tx-2", "checking", core.NewDay(2026, 1, 10), -2000, "Grocery Store", &groceries)
	seedTx(t, store, "tx-3", "checking", core.NewDay(2026, 1, 15), -3000, "Grocery Store", &groceries)

	engine := questionnaire.NewEngine(store)
	page, err := engine.SupportingTransactions(ctx, []core.AccountID{"checking"}, groceries, core.NewDay(2026, 1, 1), core.NewDay(2026, 1, 31), 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "tx-2", page[0].IdempotencyKey)
}

func TestHouseholdFixedCosts_OnlySumsConfiguredCategories(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, store, "checking")

	rent := core.CategoryID("rent")
	dining := core.CategoryID("dining")
	seedTx(t, store, "tx-1", "checking", core.NewDay(2026, 1, 1), -150000, "Landlord", &rent)
	seedTx(t, store, "tx-2", "checking", core.NewDay(2026, 1, 5), -5000, "Restaurant", &dining)

	engine := questionnaire.NewEngine(store)
	result, err := engine.HouseholdFixedCosts(ctx, []core.AccountID{"checking"}, []core.CategoryID{rent}, core.NewDay(2026, 1, 1), core.NewDay(2026, 1, 31))
	require.NoError(t, err)
	require.Equal(t, core.Money(150000), result.ValueCents)
}
