package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/warp/cashflow-engine/core"
)

func (s *Store) UpsertAccount(ctx context.Context, a core.Account) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO accounts (id, name, type, currency, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, type=excluded.type,
			currency=excluded.currency, is_active=excluded.is_active
	`, string(a.ID), a.Name, string(a.Type), a.Currency, boolToInt(a.IsActive))
	return err
}

func (s *Store) GetAccount(ctx context.Context, id core.AccountID) (core.Account, bool, error) {
	row := s.q.QueryRowContext(ctx, `SELECT id, name, type, currency, is_active FROM accounts WHERE id = ?`, string(id))
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, false, nil
	}
	if err != nil {
		return core.Account{}, false, err
	}
	return a, true, nil
}

func (s *Store) ListAccounts(ctx context.Context, activeOnly bool) ([]core.Account, error) {
	query := `SELECT id, name, type, currency, is_active FROM accounts`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccountRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	var typ string
	var active int
	if err := row.Scan(&a.ID, &a.Name, &typ, &a.Currency, &active); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	a.IsActive = active != 0
	return a, nil
}

func scanAccountRows(rows *sql.Rows) (core.Account, error) { return scanAccount(rows) }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
