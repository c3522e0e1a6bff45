// scheduling.go covers the recurring-obligation side of the data model:
// commitments, scheduled inflows, key spend events and account anchors.
package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/warp/cashflow-engine/core"
)

func (s *Store) ListCommitments(ctx context.Context) ([]core.Commitment, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, amount_cents, due_rule, next_due_date, priority, account_id,
			flexible_window_days, category_id, type, shift_policy FROM commitments ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Commitment
	for rows.Next() {
		c, err := scanCommitment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCommitment(ctx context.Context, id core.CommitmentID) (core.Commitment, bool, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, name, amount_cents, due_rule, next_due_date, priority, account_id,
			flexible_window_days, category_id, type, shift_policy FROM commitments WHERE id = ?
	`, string(id))
	c, err := scanCommitment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Commitment{}, false, nil
	}
	if err != nil {
		return core.Commitment{}, false, err
	}
	return c, true, nil
}

func scanCommitment(row rowScanner) (core.Commitment, error) {
	var c core.Commitment
	var nextDue, shiftPolicy string
	var amount int64
	if err := row.Scan(&c.ID, &c.Name, &amount, &c.DueRule, &nextDue, &c.Priority, &c.AccountID,
		&c.FlexibleWindowDays, &c.CategoryID, &c.Type, &shiftPolicy); err != nil {
		return core.Commitment{}, err
	}
	c.AmountCents = core.Money(amount)
	d, err := core.ParseDay(nextDue)
	if err != nil {
		return core.Commitment{}, err
	}
	c.NextDueDate = d
	c.ShiftPolicy = core.ShiftPolicy(shiftPolicy)
	return c, nil
}

func (s *Store) ListScheduledInflows(ctx context.Context) ([]core.ScheduledInflow, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, amount_cents, due_rule, next_due_date, account_id, type FROM scheduled_inflows ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.ScheduledInflow
	for rows.Next() {
		var inf core.ScheduledInflow
		var nextDue string
		var amount int64
		if err := rows.Scan(&inf.ID, &inf.Name, &amount, &inf.DueRule, &nextDue, &inf.AccountID, &inf.Type); err != nil {
			return nil, err
		}
		inf.AmountCents = core.Money(amount)
		d, err := core.ParseDay(nextDue)
		if err != nil {
			return nil, err
		}
		inf.NextDueDate = d
		out = append(out, inf)
	}
	return out, rows.Err()
}

func (s *Store) ListKeyEvents(ctx context.Context, from, to core.Day) ([]core.KeySpendEvent, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, event_date, repeat_rule, planned_amount_cents, category_id,
			lead_time_days, shift_policy, account_id FROM key_spend_events
		WHERE event_date >= ? AND event_date <= ? ORDER BY event_date, id
	`, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.KeySpendEvent
	for rows.Next() {
		ev, err := scanKeyEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) UpsertKeyEvent(ctx context.Context, ev core.KeySpendEvent) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO key_spend_events (id, name, event_date, repeat_rule, planned_amount_cents,
			category_id, lead_time_days, shift_policy, account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, event_date=excluded.event_date,
			repeat_rule=excluded.repeat_rule, planned_amount_cents=excluded.planned_amount_cents,
			category_id=excluded.category_id, lead_time_days=excluded.lead_time_days,
			shift_policy=excluded.shift_policy, account_id=excluded.account_id
	`, string(ev.ID), ev.Name, ev.EventDate.String(), ev.RepeatRule, int64(ev.PlannedAmountCents),
		string(ev.CategoryID), ev.LeadTimeDays, string(ev.ShiftPolicy), accountIDPtrToNull(ev.AccountID))
	return err
}

func (s *Store) DeleteKeyEvent(ctx context.Context, id core.KeyEventID) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	_, err := s.q.ExecContext(ctx, `DELETE FROM key_spend_events WHERE id = ?`, string(id))
	return err
}

func scanKeyEvent(rows *sql.Rows) (core.KeySpendEvent, error) {
	var ev core.KeySpendEvent
	var eventDate, shiftPolicy string
	var amount int64
	var accountID sql.NullString
	if err := rows.Scan(&ev.ID, &ev.Name, &eventDate, &ev.RepeatRule, &amount, &ev.CategoryID,
		&ev.LeadTimeDays, &shiftPolicy, &accountID); err != nil {
		return core.KeySpendEvent{}, err
	}
	d, err := core.ParseDay(eventDate)
	if err != nil {
		return core.KeySpendEvent{}, err
	}
	ev.EventDate = d
	ev.PlannedAmountCents = core.Money(amount)
	ev.ShiftPolicy = core.ShiftPolicy(shiftPolicy)
	if accountID.Valid {
		aid := core.AccountID(accountID.String)
		ev.AccountID = &aid
	}
	return ev, nil
}

// AnchorFor takes no context, matching core.AnchorLookup: the Opening
// Resolver is a pure function called from the hot forecast path and
// callers that need the full Store cancellation story go through
// ListAnchors instead.
func (s *Store) AnchorFor(account core.AccountID) (core.AccountAnchor, bool, error) {
	row := s.q.QueryRowContext(context.Background(), `
		SELECT account_id, anchor_date, anchor_balance_cents, min_floor_cents
		FROM account_anchors WHERE account_id = ?
	`, string(account))
	a, err := scanAnchor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AccountAnchor{}, false, nil
	}
	if err != nil {
		return core.AccountAnchor{}, false, err
	}
	return a, true, nil
}

func (s *Store) UpsertAnchor(ctx context.Context, a core.AccountAnchor) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO account_anchors (account_id, anchor_date, anchor_balance_cents, min_floor_cents)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET anchor_date=excluded.anchor_date,
			anchor_balance_cents=excluded.anchor_balance_cents, min_floor_cents=excluded.min_floor_cents
	`, string(a.AccountID), a.AnchorDate.String(), int64(a.AnchorBalanceCents), moneyPtrToNull(a.MinFloorCents))
	return err
}

func (s *Store) ListAnchors(ctx context.Context) ([]core.AccountAnchor, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT account_id, anchor_date, anchor_balance_cents, min_floor_cents FROM account_anchors ORDER BY account_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.AccountAnchor
	for rows.Next() {
		a, err := scanAnchor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAnchor(row rowScanner) (core.AccountAnchor, error) {
	var a core.AccountAnchor
	var anchorDate string
	var balance int64
	var floor sql.NullInt64
	if err := row.Scan(&a.AccountID, &anchorDate, &balance, &floor); err != nil {
		return core.AccountAnchor{}, err
	}
	d, err := core.ParseDay(anchorDate)
	if err != nil {
		return core.AccountAnchor{}, err
	}
	a.AnchorDate = d
	a.AnchorBalanceCents = core.Money(balance)
	if floor.Valid {
		f := core.Money(floor.Int64)
		a.MinFloorCents = &f
	}
	return a, nil
}

func accountIDPtrToNull(id *core.AccountID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return nullString(string(*id))
}

func moneyPtrToNull(m *core.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*m), Valid: true}
}
