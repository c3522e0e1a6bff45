package ingest_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/core"
	"github.com/warp/cashflow-engine/ingest"
	"github.com/warp/cashflow-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

const csvHeader = "external_id,account_external_id,account_name,posted_at,amount_cents,payee,memo,cleared\n"

func TestRunFromCSV_UpsertsRowsAndWritesAuditRow(t *testing.T) {
	store := newTestStore(t)
	in := ingest.NewIngestor(store, nil, zerolog.Nop())

	csvBody := csvHeader + "ext-1,acct-1,Checking,2026-01-05,-1500,Coffee Shop,,true\n"

	// GIVEN a CSV batch of one transaction
	// WHEN it is ingested
	audit, err := in.RunFromCSV(context.Background(), "manual", strings.NewReader(csvBody))
	require.NoError(t, err)

	// THEN one row is upserted and the account is created
	require.Equal(t, 1, audit.RowsUpserted)
	require.Equal(t, core.IngestSuccess, audit.Status)

	acct, ok, err := store.GetAccount(context.Background(), "acct-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Checking", acct.Name)
}

func TestRunFromCSV_DuplicateRowIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	in := ingest.NewIngestor(store, nil, zerolog.Nop())
	ctx := context.Background()

	csvBody := csvHeader + "ext-1,acct-1,Checking,2026-01-05,-1500,Coffee Shop,,true\n"

	// GIVEN the same row ingested twice (same source/external_id/date/amount)
	_, err := in.RunFromCSV(ctx, "manual", strings.NewReader(csvBody))
	require.NoError(t, err)
	audit2, err := in.RunFromCSV(ctx, "manual", strings.NewReader(csvBody))
	require.NoError(t, err)

	// THEN the second run upserts zero new rows: the idempotency key matched
	require.Equal(t, 0, audit2.RowsUpserted)
}

func TestRunFromCSV_RejectsMissingRequiredColumn(t *testing.T) {
	store := newTestStore(t)
	in := ingest.NewIngestor(store, nil, zerolog.Nop())

	badCSV := "external_id,account_external_id\next-1,acct-1\n"
	_, err := in.RunFromCSV(context.Background(), "manual", strings.NewReader(badCSV))
	require.Error(t, err)
}
