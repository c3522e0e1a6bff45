/*
ingest.go - the Ingestor (spec section 4.1): delta, backfill and CSV
modes, idempotent upsert, cursor advancement in the same transaction as
the final upsert batch, and one audit row per run. Grounded on the
teacher's generic/ledger.go DefaultLedger.Append (idempotency-key
dedup) and api/scheduler.go's retry-with-backoff run loop.
*/
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/cashflow-engine/core"
)

type Mode string

const (
	ModeDelta    Mode = "delta"
	ModeBackfill Mode = "backfill"
	ModeCSV      Mode = "csv"
)

type Ingestor struct {
	Store  core.Store
	Client Client // nil is fine for CSV-only operation
	Log    zerolog.Logger

	MaxRetries int
	RetryDelay time.Duration
}

func NewIngestor(store core.Store, client Client, log zerolog.Logger) *Ingestor {
	return &Ingestor{Store: store, Client: client, Log: log, MaxRetries: 3, RetryDelay: 500 * time.Millisecond}
}

// idempotencyKey = hash(source, external_id, posted_at, amount_cents).
func idempotencyKey(source, externalID string, posted core.Day, amount core.Money) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d", source, externalID, posted.String(), int64(amount))
	return hex.EncodeToString(h.Sum(nil))
}

// RunDelta fetches transactions since the stored cursor (clock-skew
// safe: fetches from cursor-1day) and upserts them, advancing the
// cursor atomically with the final upsert batch.
func (in *Ingestor) RunDelta(ctx context.Context, source string) (core.IngestAudit, error) {
	if in.Client == nil {
		return core.IngestAudit{}, core.NewValidationError("source", "no upstream client configured for delta ingest")
	}

	started := core.Today()
	cursor, ok, err := in.Store.GetCursor(ctx, source)
	since := ""
	if ok {
		since = core.DayFromTime(mustParseCursorDay(cursor.LastCursor)).AddDays(-1).String()
	}
	if err != nil {
		return in.fail(ctx, source, started, err)
	}

	var txs []UpstreamTransaction
	var newCursor string
	err = in.withRetry(ctx, func() error {
		var rerr error
		txs, newCursor, rerr = in.Client.FetchDelta(ctx, since)
		return rerr
	})
	if err != nil {
		return in.fail(ctx, source, started, err)
	}

	return in.commitBatch(ctx, source, started, txs, &newCursor)
}

// RunBackfill fetches the last N months of history and upserts them.
// Backfill never advances the cursor: it is a history-repair operation,
// not a substitute for delta progress.
func (in *Ingestor) RunBackfill(ctx context.Context, source string, months int) (core.IngestAudit, error) {
	if in.Client == nil {
		return core.IngestAudit{}, core.NewValidationError("source", "no upstream client configured for backfill ingest")
	}
	started := core.Today()

	var txs []UpstreamTransaction
	err := in.withRetry(ctx, func() error {
		var rerr error
		txs, _, rerr = in.Client.FetchBackfill(ctx, months)
		return rerr
	})
	if err != nil {
		return in.fail(ctx, source, started, err)
	}

	return in.commitBatch(ctx, source, started, txs, nil)
}

// RunFromCSV parses the CSV read from r (see ParseCSV) and upserts
// every row.
// Cursor is not touched: CSV import is not the delta stream.
func (in *Ingestor) RunFromCSV(ctx context.Context, source string, r io.Reader) (core.IngestAudit, error) {
	started := core.Today()
	txs, err := ParseCSV(r)
	if err != nil {
		return in.fail(ctx, source, started, err)
	}
	return in.commitBatch(ctx, source, started, txs, nil)
}

func (in *Ingestor) commitBatch(ctx context.Context, source string, started core.Day, txs []UpstreamTransaction, newCursor *string) (core.IngestAudit, error) {
	var rowsUpserted int
	err := in.Store.WithTx(ctx, func(tx core.Store) error {
		rowsUpserted = 0
		for _, utx := range txs {
			if err := in.upsertAccountIfNeeded(ctx, tx, utx); err != nil {
				return err
			}

			var categoryID *core.CategoryID
			if utx.CategoryExternalID != "" {
				if cid, ok, err := tx.LookupCategoryMap(ctx, source, utx.CategoryExternalID); err == nil && ok {
					categoryID = &cid
				}
			}

			key := idempotencyKey(source, utx.ExternalID, utx.PostedAt, utx.AmountCents)
			inserted, err := tx.UpsertTransaction(ctx, core.Transaction{
				IdempotencyKey: key,
				AccountID:      core.AccountID(utx.AccountExternalID),
				PostedAt:       utx.PostedAt,
				AmountCents:    utx.AmountCents,
				Payee:          utx.Payee,
				Memo:           utx.Memo,
				ExternalID:     utx.ExternalID,
				Source:         source,
				CategoryID:     categoryID,
				IsCleared:      utx.IsCleared,
			})
			if err != nil {
				return err
			}
			if inserted {
				rowsUpserted++
			}
		}

		if newCursor != nil {
			if err := tx.AdvanceCursor(ctx, source, *newCursor, core.Today()); err != nil {
				return err
			}
		}

		return tx.InsertAudit(ctx, core.IngestAudit{
			ID:            core.AuditID(uuid.NewString()),
			Source:        source,
			RunStartedAt:  started,
			RunFinishedAt: core.Today(),
			RowsUpserted:  rowsUpserted,
			Status:        core.IngestSuccess,
		})
	})
	if err != nil {
		return in.fail(ctx, source, started, err)
	}

	in.Log.Info().Str("source", source).Int("rows", rowsUpserted).Msg("ingest run committed")
	return core.IngestAudit{Source: source, RunStartedAt: started, RunFinishedAt: core.Today(), RowsUpserted: rowsUpserted, Status: core.IngestSuccess}, nil
}

func (in *Ingestor) upsertAccountIfNeeded(ctx context.Context, tx core.Store, utx UpstreamTransaction) error {
	acctID := core.AccountID(utx.AccountExternalID)
	if _, ok, err := tx.GetAccount(ctx, acctID); err != nil {
		return err
	} else if ok {
		return nil
	}
	return tx.UpsertAccount(ctx, core.Account{
		ID:       acctID,
		Name:     utx.AccountName,
		Type:     core.AccountChecking,
		Currency: "USD",
		IsActive: true,
	})
}

func (in *Ingestor) fail(ctx context.Context, source string, started core.Day, cause error) (core.IngestAudit, error) {
	audit := core.IngestAudit{
		ID:            core.AuditID(uuid.NewString()),
		Source:        source,
		RunStartedAt:  started,
		RunFinishedAt: core.Today(),
		Status:        core.IngestFailure,
		Notes:         cause.Error(),
	}
	if err := in.Store.InsertAudit(ctx, audit); err != nil {
		in.Log.Error().Err(err).Str("source", source).Msg("failed to write ingest audit row")
	}
	in.Log.Error().Err(cause).Str("source", source).Msg("ingest run failed, cursor unchanged")
	return audit, &core.UpstreamError{Source: source, Op: "ingest", Retryable: false, Err: cause}
}

func (in *Ingestor) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= in.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(); err != nil {
			lastErr = err
			in.Log.Warn().Err(err).Int("attempt", attempt+1).Msg("upstream fetch failed, retrying")
			select {
			case <-time.After(in.RetryDelay * time.Duration(attempt+1)):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		return nil
	}
	return lastErr
}

func mustParseCursorDay(cursor string) time.Time {
	d, err := core.ParseDay(cursor)
	if err != nil {
		return time.Now().UTC()
	}
	return d.Time()
}
