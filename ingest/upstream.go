/*
Package ingest implements the Ingestor and Category Mapper (spec
sections 4.1-4.2): idempotent transaction upsert from the upstream
bookkeeping service, cursor advancement, audit rows, and category
mapping. Grounded on the teacher's generic/ledger.go DefaultLedger
(idempotent append) and ledger-retry conventions.
*/
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/warp/cashflow-engine/core"
)

// UpstreamTransaction is the wire shape returned by the upstream service
// or parsed from a CSV row, before idempotency-key computation.
type UpstreamTransaction struct {
	AccountExternalID string
	AccountName       string
	ExternalID        string
	PostedAt          core.Day
	AmountCents       core.Money
	Payee             string
	Memo              string
	IsCleared         bool
	CategoryExternalID string
}

// UpstreamCategory is a category as reported by the upstream service.
type UpstreamCategory struct {
	ExternalID string
	Name       string
	ParentName string
}

// Client is the upstream bookkeeping service's read-only interface, the
// one external collaborator spec.md section 1 names without specifying.
// HTTPClient (httpclient.go) is the implementation that ships with this
// repo. CSV import does not go through Client: ParseCSV below reads the
// file directly and Ingestor.RunFromCSV upserts the result.
type Client interface {
	FetchDelta(ctx context.Context, since string) (txs []UpstreamTransaction, newCursor string, err error)
	FetchBackfill(ctx context.Context, months int) (txs []UpstreamTransaction, newCursor string, err error)
	FetchCategories(ctx context.Context) ([]UpstreamCategory, error)
}

// ParseCSV reads the upstream's flat CSV export format:
//
//	external_id,account_external_id,account_name,posted_at,amount_cents,payee,memo,cleared,category_external_id
//
// One header row is required. Malformed rows produce a ValidationError
// naming the row number.
func ParseCSV(r io.Reader) ([]UpstreamTransaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, core.NewValidationError("csv", "empty file")
		}
		return nil, core.NewValidationError("csv", "could not read header: "+err.Error())
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.ToLower(h))] = i
	}
	required := []string{"external_id", "account_external_id", "posted_at", "amount_cents"}
	for _, col := range required {
		if _, ok := cols[col]; !ok {
			return nil, core.NewValidationError("csv", "missing required column "+col)
		}
	}

	var out []UpstreamTransaction
	rowNum := 1
	for {
		rowNum++
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.NewValidationError("csv", "row "+strconv.Itoa(rowNum)+": "+err.Error())
		}
		tx, err := rowToTransaction(rec, cols)
		if err != nil {
			return nil, core.NewValidationError("csv", "row "+strconv.Itoa(rowNum)+": "+err.Error())
		}
		out = append(out, tx)
	}
	return out, nil
}

func rowToTransaction(rec []string, cols map[string]int) (UpstreamTransaction, error) {
	get := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}

	posted, err := core.ParseDay(get("posted_at"))
	if err != nil {
		return UpstreamTransaction{}, err
	}
	amount, err := strconv.ParseInt(get("amount_cents"), 10, 64)
	if err != nil {
		return UpstreamTransaction{}, err
	}
	cleared := true
	if v := get("cleared"); v != "" {
		cleared = v == "1" || strings.EqualFold(v, "true")
	}

	return UpstreamTransaction{
		AccountExternalID:  get("account_external_id"),
		AccountName:        get("account_name"),
		ExternalID:         get("external_id"),
		PostedAt:           posted,
		AmountCents:        core.Money(amount),
		Payee:              get("payee"),
		Memo:               get("memo"),
		IsCleared:          cleared,
		CategoryExternalID: get("category_external_id"),
	}, nil
}
