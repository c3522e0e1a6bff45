// reporting.go covers forecast snapshots, ingest cursors/audits, and
// alerts/aliases — the bookkeeping tables that aren't part of the core
// recurring-obligation model but support the scheduler and questionnaire
// layers.
package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/warp/cashflow-engine/core"
)

func (s *Store) InsertSnapshot(ctx context.Context, snap core.ForecastSnapshot) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	id := snap.ID
	if id == "" {
		id = core.SnapshotID(uuid.NewString())
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO forecast_snapshots (id, created_at, horizon_start, horizon_end, payload,
			min_balance_cents, min_balance_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(id), snap.CreatedAt.String(), snap.HorizonStart.String(), snap.HorizonEnd.String(),
		snap.Payload, int64(snap.MinBalanceCents), snap.MinBalanceDate.String())
	return err
}

func (s *Store) LatestSnapshot(ctx context.Context) (core.ForecastSnapshot, bool, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, created_at, horizon_start, horizon_end, payload, min_balance_cents, min_balance_date
		FROM forecast_snapshots ORDER BY created_at DESC LIMIT 1
	`)
	var snap core.ForecastSnapshot
	var createdAt, horizonStart, horizonEnd, minBalDate string
	var minBal int64
	err := row.Scan(&snap.ID, &createdAt, &horizonStart, &horizonEnd, &snap.Payload, &minBal, &minBalDate)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ForecastSnapshot{}, false, nil
	}
	if err != nil {
		return core.ForecastSnapshot{}, false, err
	}
	for _, pair := range []struct {
		s string
		d *core.Day
	}{{createdAt, &snap.CreatedAt}, {horizonStart, &snap.HorizonStart}, {horizonEnd, &snap.HorizonEnd}, {minBalDate, &snap.MinBalanceDate}} {
		d, err := core.ParseDay(pair.s)
		if err != nil {
			return core.ForecastSnapshot{}, false, err
		}
		*pair.d = d
	}
	snap.MinBalanceCents = core.Money(minBal)
	return snap, true, nil
}

func (s *Store) GetCursor(ctx context.Context, source string) (core.SourceCursor, bool, error) {
	row := s.q.QueryRowContext(ctx, `SELECT source, last_cursor, updated_at FROM source_cursors WHERE source = ?`, source)
	var c core.SourceCursor
	var updatedAt string
	err := row.Scan(&c.Source, &c.LastCursor, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SourceCursor{}, false, nil
	}
	if err != nil {
		return core.SourceCursor{}, false, err
	}
	d, err := core.ParseDay(updatedAt)
	if err != nil {
		return core.SourceCursor{}, false, err
	}
	c.UpdatedAt = d
	return c, true, nil
}

// AdvanceCursor is only ever called from inside the same WithTx as the
// ingest run's final upsert batch (see ingest.Ingestor.commitBatch), so
// a cursor write and the rows it watermarks commit or roll back together.
func (s *Store) AdvanceCursor(ctx context.Context, source, cursor string, at core.Day) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO source_cursors (source, last_cursor, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET last_cursor=excluded.last_cursor, updated_at=excluded.updated_at
	`, source, cursor, at.String())
	return err
}

func (s *Store) InsertAudit(ctx context.Context, a core.IngestAudit) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	id := a.ID
	if id == "" {
		id = core.AuditID(uuid.NewString())
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO ingest_audits (id, source, run_started_at, run_finished_at, rows_upserted, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(id), a.Source, a.RunStartedAt.String(), a.RunFinishedAt.String(), a.RowsUpserted,
		string(a.Status), a.Notes)
	return err
}

// UpsertAlert is unique on (type, dedupe_key): a re-evaluation of an
// already-open alert condition updates the existing row (refreshing
// severity, title, message, details and resolved_at; CreatedAt keeps the
// first occurrence's date) rather than creating a duplicate, per spec's
// threshold-breach dedup rule.
func (s *Store) UpsertAlert(ctx context.Context, a core.Alert) (bool, error) {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	id := a.ID
	if id == "" {
		id = core.AlertID(uuid.NewString())
	}

	var existed int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts WHERE type = ? AND dedupe_key = ?`,
		string(a.Type), a.DedupeKey).Scan(&existed); err != nil {
		return false, err
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO alerts (id, created_at, type, dedupe_key, severity, title, message, details, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(type, dedupe_key) DO UPDATE SET severity=excluded.severity,
			title=excluded.title, message=excluded.message, details=excluded.details,
			resolved_at=excluded.resolved_at
	`, string(id), a.CreatedAt.String(), string(a.Type), a.DedupeKey, string(a.Severity),
		a.Title, a.Message, a.Details, dayPtrToNull(a.ResolvedAt))
	if err != nil {
		return false, err
	}
	return existed == 0, nil
}

func (s *Store) ListActiveAlerts(ctx context.Context) ([]core.Alert, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, created_at, type, dedupe_key, severity, title, message, details, resolved_at
		FROM alerts WHERE resolved_at IS NULL ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAlert(rows *sql.Rows) (core.Alert, error) {
	var a core.Alert
	var createdAt string
	var resolvedAt sql.NullString
	if err := rows.Scan(&a.ID, &createdAt, &a.Type, &a.DedupeKey, &a.Severity, &a.Title, &a.Message,
		&a.Details, &resolvedAt); err != nil {
		return core.Alert{}, err
	}
	d, err := core.ParseDay(createdAt)
	if err != nil {
		return core.Alert{}, err
	}
	a.CreatedAt = d
	if resolvedAt.Valid {
		rd, err := core.ParseDay(resolvedAt.String)
		if err != nil {
			return core.Alert{}, err
		}
		a.ResolvedAt = &rd
	}
	return a, nil
}

func (s *Store) SetAlias(ctx context.Context, alias string, category core.CategoryID) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO question_category_aliases (alias, category_id) VALUES (?, ?)
		ON CONFLICT(alias) DO UPDATE SET category_id=excluded.category_id
	`, alias, string(category))
	return err
}

func dayPtrToNull(d *core.Day) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return nullString(d.String())
}
