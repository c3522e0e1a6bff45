package ingest_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/core"
	"github.com/warp/cashflow-engine/ingest"
)

func TestSyncCategories_FirstRunMapsToHoldingFallback(t *testing.T) {
	store := newTestStore(t)
	mapper := ingest.NewMapper(store, zerolog.Nop())
	ctx := context.Background()

	external := []ingest.UpstreamCategory{{ExternalID: "ext-groceries", Name: "Groceries"}}
	mapped, unchanged, err := mapper.SyncCategories(ctx, "plaid", external)
	require.NoError(t, err)
	require.Equal(t, 1, mapped)
	require.Equal(t, 0, unchanged)

	catID, ok, err := store.LookupCategoryMap(ctx, "plaid", "ext-groceries")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, catID)
}

func TestSyncCategories_MatchesExistingInternalCategoryByName(t *testing.T) {
	store := newTestStore(t)
	mapper := ingest.NewMapper(store, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, store.UpsertCategory(ctx, core.Category{
		ID: "groceries-internal", Name: "Groceries", Source: core.InternalSource,
	}))

	external := []ingest.UpstreamCategory{{ExternalID: "ext-groceries", Name: "groceries"}}
	mapped, _, err := mapper.SyncCategories(ctx, "plaid", external)
	require.NoError(t, err)
	require.Equal(t, 1, mapped)

	catID, ok, err := store.LookupCategoryMap(ctx, "plaid", "ext-groceries")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, core.CategoryID("groceries-internal"), catID)
}

func TestSyncCategories_SecondRunNeverRewritesExistingMap(t *testing.T) {
	store := newTestStore(t)
	mapper := ingest.NewMapper(store, zerolog.Nop())
	ctx := context.Background()

	external := []ingest.UpstreamCategory{{ExternalID: "ext-groceries", Name: "Groceries"}}
	_, _, err := mapper.SyncCategories(ctx, "plaid", external)
	require.NoError(t, err)

	firstMap, _, err := store.LookupCategoryMap(ctx, "plaid", "ext-groceries")
	require.NoError(t, err)

	// a later run, even with a renamed upstream category, must not rewrite
	// the existing mapping
	renamed := []ingest.UpstreamCategory{{ExternalID: "ext-groceries", Name: "Supermarket"}}
	mapped, unchanged, err := mapper.SyncCategories(ctx, "plaid", renamed)
	require.NoError(t, err)
	require.Equal(t, 0, mapped)
	require.Equal(t, 1, unchanged)

	secondMap, _, err := store.LookupCategoryMap(ctx, "plaid", "ext-groceries")
	require.NoError(t, err)
	require.Equal(t, firstMap, secondMap)
}
