package sqlite

import (
	"context"
	"database/sql"

	"github.com/warp/cashflow-engine/core"
)

// UpsertTransaction inserts a new row keyed by idempotency_key, or — on a
// re-ingest of the same (source, external_id, posted_at, amount) — rewrites
// only CategoryID, IsCleared and ImportMeta, per the entity's upsert-only
// contract. inserted reports which branch ran, so the Ingestor can count
// new rows in its audit log.
func (s *Store) UpsertTransaction(ctx context.Context, tx core.Transaction) (bool, error) {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO transactions (idempotency_key, account_id, posted_at, amount_cents,
			payee, memo, external_id, source, category_id, is_cleared, import_meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, tx.IdempotencyKey, string(tx.AccountID), tx.PostedAt.String(), int64(tx.AmountCents),
		tx.Payee, tx.Memo, tx.ExternalID, tx.Source, categoryIDPtrToNull(tx.CategoryID),
		boolToInt(tx.IsCleared), tx.ImportMeta)

	if err == nil {
		return true, nil
	}
	if !isUniqueConstraintError(err) {
		return false, err
	}

	_, updErr := s.q.ExecContext(ctx, `
		UPDATE transactions SET category_id = ?, is_cleared = ?, import_meta = ?
		WHERE idempotency_key = ?
	`, categoryIDPtrToNull(tx.CategoryID), boolToInt(tx.IsCleared), tx.ImportMeta, tx.IdempotencyKey)
	if updErr != nil {
		return false, updErr
	}
	return false, nil
}

func (s *Store) TransactionsInRange(ctx context.Context, account core.AccountID, from *core.Day, through core.Day) ([]core.Transaction, error) {
	var rows *sql.Rows
	var err error
	if from != nil {
		rows, err = s.q.QueryContext(ctx, transactionSelect+` WHERE account_id = ? AND posted_at >= ? AND posted_at <= ? ORDER BY posted_at, idempotency_key`,
			string(account), from.String(), through.String())
	} else {
		rows, err = s.q.QueryContext(ctx, transactionSelect+` WHERE account_id = ? AND posted_at <= ? ORDER BY posted_at, idempotency_key`,
			string(account), through.String())
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *Store) TransactionsForAccounts(ctx context.Context, accounts []core.AccountID, from, to core.Day) ([]core.Transaction, error) {
	if len(accounts) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(accounts))
	args := make([]any, 0, len(accounts)+2)
	for i, a := range accounts {
		placeholders[i] = "?"
		args = append(args, string(a))
	}
	args = append(args, from.String(), to.String())

	query := transactionSelect + ` WHERE account_id IN (` + joinPlaceholders(placeholders) + `)
		AND posted_at >= ? AND posted_at <= ? ORDER BY posted_at, idempotency_key`
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *Store) SumCleared(ctx context.Context, account core.AccountID, from *core.Day, through core.Day) (core.Money, error) {
	var row *sql.Row
	if from != nil {
		row = s.q.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
			WHERE account_id = ? AND is_cleared = 1 AND posted_at > ? AND posted_at <= ?
		`, string(account), from.String(), through.String())
	} else {
		row = s.q.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
			WHERE account_id = ? AND is_cleared = 1 AND posted_at <= ?
		`, string(account), through.String())
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, err
	}
	return core.Money(sum), nil
}

const transactionSelect = `SELECT idempotency_key, account_id, posted_at, amount_cents,
	payee, memo, external_id, source, category_id, is_cleared, import_meta FROM transactions`

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var postedAt string
		var amount int64
		var categoryID sql.NullString
		var isCleared int
		if err := rows.Scan(&t.IdempotencyKey, &t.AccountID, &postedAt, &amount,
			&t.Payee, &t.Memo, &t.ExternalID, &t.Source, &categoryID, &isCleared, &t.ImportMeta); err != nil {
			return nil, err
		}
		day, err := core.ParseDay(postedAt)
		if err != nil {
			return nil, err
		}
		t.PostedAt = day
		t.AmountCents = core.Money(amount)
		t.IsCleared = isCleared != 0
		if categoryID.Valid {
			cid := core.CategoryID(categoryID.String)
			t.CategoryID = &cid
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func categoryIDPtrToNull(id *core.CategoryID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return nullString(string(*id))
}

func joinPlaceholders(ph []string) string {
	out := ph[0]
	for _, p := range ph[1:] {
		out += "," + p
	}
	return out
}
