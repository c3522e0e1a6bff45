/*
mapper.go - the Category Mapper (spec section 4.2). Monotonic by
construction: SetCategoryMap is only ever called for (source,
external_id) pairs that LookupCategoryMap just reported missing, so a
re-run never rewrites a previously assigned internal category.
*/
package ingest

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/cashflow-engine/core"
)

type Mapper struct {
	Store core.Store
	Log   zerolog.Logger
}

func NewMapper(store core.Store, log zerolog.Logger) *Mapper {
	return &Mapper{Store: store, Log: log}
}

// SyncCategories upserts the external category snapshot and resolves a
// (source, external_id) -> internal_category_id mapping for each one,
// per spec 4.2's three-step precedence: existing map row, then
// case-insensitive name match, then the Holding fallback.
func (m *Mapper) SyncCategories(ctx context.Context, source string, external []UpstreamCategory) (mapped, unchanged int, err error) {
	for _, ext := range external {
		if err := m.Store.UpsertCategory(ctx, core.Category{
			ID:         core.CategoryID(source + ":" + ext.ExternalID),
			Name:       ext.Name,
			Source:     source,
			ExternalID: &ext.ExternalID,
		}); err != nil {
			return mapped, unchanged, err
		}

		if _, ok, err := m.Store.LookupCategoryMap(ctx, source, ext.ExternalID); err != nil {
			return mapped, unchanged, err
		} else if ok {
			unchanged++
			continue // rule 1: an existing map row is never rewritten
		}

		internalID, err := m.resolveInternal(ctx, ext.Name)
		if err != nil {
			return mapped, unchanged, err
		}

		if err := m.Store.SetCategoryMap(ctx, core.CategoryMap{
			Source:             source,
			ExternalID:         ext.ExternalID,
			InternalCategoryID: internalID,
		}); err != nil {
			return mapped, unchanged, err
		}
		mapped++
	}

	m.Log.Info().Str("source", source).Int("mapped", mapped).Int("unchanged", unchanged).Msg("category sync complete")
	return mapped, unchanged, nil
}

// resolveInternal implements rule 2 (case-insensitive name match against
// an existing internal category) then rule 3 (Holding fallback).
func (m *Mapper) resolveInternal(ctx context.Context, externalName string) (core.CategoryID, error) {
	if cat, ok, err := m.Store.GetCategoryByName(ctx, strings.TrimSpace(externalName), core.InternalSource); err != nil {
		return "", err
	} else if ok {
		return cat.ID, nil
	}
	return m.Store.GetOrCreateHolding(ctx)
}

// NewInternalCategoryID mints a fresh internal category ID. Internal IDs
// are permanent once assigned (spec 3), so callers should only use this
// when a genuinely new internal category is being created, never to
// regenerate an existing mapping.
func NewInternalCategoryID() core.CategoryID {
	return core.CategoryID(uuid.NewString())
}
