/*
Package sqlite is the SQLite-backed implementation of core.Store.

Schema is applied by numeric-prefix migration string and recorded in a
schema_migrations table, matching spec.md section 6's persisted-layout
contract. Mutex-guarded like the teacher's store/sqlite/sqlite.go: SQLite
allows only one writer at a time, so a sync.Mutex around the shared
*sql.DB keeps concurrent HTTP handlers from tripping over "database is
locked" errors, the same rationale the teacher's store documents. A plain
Mutex rather than the teacher's RWMutex: WithTx needs to hold the lock
for the whole transaction body while the bound Store's own write methods
run on the same goroutine, and an RWMutex's Lock/RLock aren't reentrant
the way that requires.

WAL mode is kept from the teacher for the same reason: readers don't
block each other, and the ingest/scheduler writer doesn't starve readers.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/cashflow-engine/core"
)

// execer is satisfied by both *sql.DB and *sql.Tx, the way the teacher's
// appendTx accepts either to share query logic between the plain and
// transactional paths.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements core.Store. q is the active executor: the raw *sql.DB
// outside a transaction, or the bound *sql.Tx inside one (see WithTx).
// Every query method reads through q so the same method set works in
// both modes without duplicating SQL.
type Store struct {
	db   *sql.DB
	q    execer
	mu   *sync.Mutex
	inTx bool // true for the Store handed to WithTx's fn: the lock is already held
}

// New opens (creating if absent) the SQLite store at dbPath and applies
// the schema. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, q: db, mu: &sync.Mutex{}}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	currency TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS transactions (
	idempotency_key TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	posted_at TEXT NOT NULL,
	amount_cents INTEGER NOT NULL,
	payee TEXT,
	memo TEXT,
	external_id TEXT,
	source TEXT NOT NULL,
	category_id TEXT,
	is_cleared INTEGER NOT NULL DEFAULT 1,
	import_meta TEXT
);
CREATE INDEX IF NOT EXISTS idx_transactions_posted_at ON transactions(posted_at);
CREATE INDEX IF NOT EXISTS idx_transactions_account_id ON transactions(account_id);

CREATE TABLE IF NOT EXISTS categories (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	parent_id TEXT,
	is_archived INTEGER NOT NULL DEFAULT 0,
	source TEXT NOT NULL,
	external_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_categories_source_name ON categories(source, name);

CREATE TABLE IF NOT EXISTS category_map (
	source TEXT NOT NULL,
	external_id TEXT NOT NULL,
	internal_category_id TEXT NOT NULL,
	PRIMARY KEY (source, external_id)
);

CREATE TABLE IF NOT EXISTS commitments (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	amount_cents INTEGER NOT NULL,
	due_rule TEXT NOT NULL,
	next_due_date TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	account_id TEXT NOT NULL,
	flexible_window_days INTEGER NOT NULL DEFAULT 0,
	category_id TEXT,
	type TEXT NOT NULL DEFAULT '',
	shift_policy TEXT NOT NULL DEFAULT 'AS_SCHEDULED'
);

CREATE TABLE IF NOT EXISTS scheduled_inflows (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	amount_cents INTEGER NOT NULL,
	due_rule TEXT NOT NULL,
	next_due_date TEXT NOT NULL,
	account_id TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS key_spend_events (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	event_date TEXT NOT NULL,
	repeat_rule TEXT,
	planned_amount_cents INTEGER NOT NULL,
	category_id TEXT,
	lead_time_days INTEGER NOT NULL DEFAULT 0,
	shift_policy TEXT NOT NULL DEFAULT 'AS_SCHEDULED',
	account_id TEXT
);

CREATE TABLE IF NOT EXISTS account_anchors (
	account_id TEXT PRIMARY KEY,
	anchor_date TEXT NOT NULL,
	anchor_balance_cents INTEGER NOT NULL,
	min_floor_cents INTEGER
);

CREATE TABLE IF NOT EXISTS forecast_snapshots (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	horizon_start TEXT NOT NULL,
	horizon_end TEXT NOT NULL,
	payload BLOB NOT NULL,
	min_balance_cents INTEGER NOT NULL,
	min_balance_date TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_forecast_snapshots_created_at ON forecast_snapshots(created_at);

CREATE TABLE IF NOT EXISTS source_cursors (
	source TEXT PRIMARY KEY,
	last_cursor TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ingest_audits (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	run_started_at TEXT NOT NULL,
	run_finished_at TEXT NOT NULL,
	rows_upserted INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	notes TEXT
);

CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	type TEXT NOT NULL,
	dedupe_key TEXT NOT NULL,
	severity TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	details TEXT,
	resolved_at TEXT,
	UNIQUE(type, dedupe_key)
);

CREATE TABLE IF NOT EXISTS question_category_aliases (
	alias TEXT PRIMARY KEY,
	category_id TEXT NOT NULL
);
`

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))`,
		"0001_initial_schema",
	)
	return err
}

// WithTx runs fn against a Store bound to a single *sql.Tx, committing on
// nil return and rolling back otherwise. Mirrors the teacher's
// Store.WithTx/txStore split, but shares one method set instead of a
// second type, since Go has no virtual dispatch to make an embedded
// override reach promoted methods.
func (s *Store) WithTx(ctx context.Context, fn func(tx core.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer sqlTx.Rollback()

	bound := &Store{db: s.db, q: sqlTx, mu: s.mu, inTx: true}
	if err := fn(bound); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
