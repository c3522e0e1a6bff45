package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/warp/cashflow-engine/core"
)

func (s *Store) UpsertCategory(ctx context.Context, c core.Category) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO categories (id, name, parent_id, is_archived, source, external_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, parent_id=excluded.parent_id,
			is_archived=excluded.is_archived
	`, string(c.ID), c.Name, categoryIDPtrToNull(c.ParentID), boolToInt(c.IsArchived),
		c.Source, stringPtrToNull(c.ExternalID))
	return err
}

func (s *Store) GetCategoryByName(ctx context.Context, name, source string) (core.Category, bool, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, name, parent_id, is_archived, source, external_id FROM categories
		WHERE source = ? AND name = ? COLLATE NOCASE LIMIT 1
	`, source, name)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, false, nil
	}
	if err != nil {
		return core.Category{}, false, err
	}
	return c, true, nil
}

// GetOrCreateHolding returns the permanent internal Holding category,
// creating it on first use. Grounded on the Category Mapper's rule 3
// fallback (see ingest/mapper.go).
func (s *Store) GetOrCreateHolding(ctx context.Context) (core.CategoryID, error) {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	var id string
	row := s.q.QueryRowContext(ctx, `SELECT id FROM categories WHERE source = ? AND name = ?`,
		core.InternalSource, core.HoldingCategoryName)
	switch err := row.Scan(&id); {
	case err == nil:
		return core.CategoryID(id), nil
	case errors.Is(err, sql.ErrNoRows):
		// fall through to create
	default:
		return "", err
	}

	newID := core.CategoryID(uuid.NewString())
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO categories (id, name, parent_id, is_archived, source, external_id)
		VALUES (?, ?, NULL, 0, ?, NULL)
	`, string(newID), core.HoldingCategoryName, core.InternalSource)
	if err != nil {
		return "", err
	}
	return newID, nil
}

func (s *Store) LookupCategoryMap(ctx context.Context, source, externalID string) (core.CategoryID, bool, error) {
	var internal string
	err := s.q.QueryRowContext(ctx, `
		SELECT internal_category_id FROM category_map WHERE source = ? AND external_id = ?
	`, source, externalID).Scan(&internal)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return core.CategoryID(internal), true, nil
}

// SetCategoryMap is called only for (source, external_id) pairs
// LookupCategoryMap just reported missing, so a plain INSERT enforces the
// mapper's monotonic contract: a second attempt to set an existing pair
// is a bug, not a benign race, and surfaces as a unique constraint error.
func (s *Store) SetCategoryMap(ctx context.Context, m core.CategoryMap) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO category_map (source, external_id, internal_category_id) VALUES (?, ?, ?)
	`, m.Source, m.ExternalID, string(m.InternalCategoryID))
	return err
}

func (s *Store) ResolveAlias(ctx context.Context, alias string) (core.CategoryID, bool, error) {
	var id string
	err := s.q.QueryRowContext(ctx, `SELECT category_id FROM question_category_aliases WHERE alias = ? COLLATE NOCASE`, alias).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return core.CategoryID(id), true, nil
}

func scanCategory(row rowScanner) (core.Category, error) {
	var c core.Category
	var parentID, externalID sql.NullString
	var archived int
	if err := row.Scan(&c.ID, &c.Name, &parentID, &archived, &c.Source, &externalID); err != nil {
		return core.Category{}, err
	}
	c.IsArchived = archived != 0
	if parentID.Valid {
		pid := core.CategoryID(parentID.String)
		c.ParentID = &pid
	}
	if externalID.Valid {
		ext := externalID.String
		c.ExternalID = &ext
	}
	return c, nil
}

func stringPtrToNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}
