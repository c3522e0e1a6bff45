/*
dto.go - JSON request/response shapes for the HTTP API.

Decouples the wire contract (spec section 6, all money in integer
cents, all dates ISO YYYY-MM-DD) from the core domain types, the same
separation the teacher's dto.go draws between EmployeeDTO/generic.Entity.
*/
package api

import (
	"github.com/warp/cashflow-engine/core"
)

// EntryDTO mirrors core.Entry for the wire: Day and Money render as
// plain string/int64 rather than their internal representations.
type EntryDTO struct {
	Date               string `json:"date"`
	Type               string `json:"type"`
	Name               string `json:"name"`
	SignedAmountCents  int64  `json:"signed_amount_cents"`
	SourceID           string `json:"source_id"`
	ShiftApplied       bool   `json:"shift_applied"`
	Policy             string `json:"policy"`
	UIMarker           string `json:"ui_marker"`
	IsWithinLeadWindow bool   `json:"is_within_lead_window"`
}

// CalendarResponse answers GET /forecast/calendar.
type CalendarResponse struct {
	OpeningBalanceCents int64            `json:"opening_balance_cents"`
	Entries             []EntryDTO       `json:"entries"`
	Balances            map[string]int64 `json:"balances"`
	MinBalanceCents     int64            `json:"min_balance_cents"`
	MinBalanceDate      string           `json:"min_balance_date"`
	Meta                CalendarMetaDTO  `json:"meta"`
}

type CalendarMetaDTO struct {
	EmptySeries bool `json:"empty_series"`
}

// BlendedResponse answers GET /forecast/blended: CalendarResponse plus
// the blended baseline and confidence bands.
type BlendedResponse struct {
	CalendarResponse
	BaselineBlended map[string]int64 `json:"baseline_blended"`
	Bands           BandsDTO         `json:"bands"`
}

type BandsDTO struct {
	Lower map[string]int64 `json:"lower"`
	Upper map[string]int64 `json:"upper"`
}

// KeyEventDTO is both the GET /key-events list item and the POST
// /key-events upsert body.
type KeyEventDTO struct {
	ID                 string  `json:"id,omitempty"`
	Name               string  `json:"name"`
	EventDate          string  `json:"event_date"`
	RepeatRule         string  `json:"repeat_rule,omitempty"`
	PlannedAmountCents int64   `json:"planned_amount_cents"`
	CategoryID         string  `json:"category_id,omitempty"`
	LeadTimeDays       int     `json:"lead_time_days"`
	ShiftPolicy        string  `json:"shift_policy,omitempty"`
	AccountID          *string `json:"account_id,omitempty"`
}

// OverviewResponse answers GET /overview (core.Digest on the wire).
type OverviewResponse struct {
	CreatedAt           string                  `json:"created_at"`
	Stale               bool                    `json:"stale"`
	CurrentBalanceCents int64                   `json:"current_balance_cents"`
	SafeToSpendCents    int64                   `json:"safe_to_spend_cents"`
	NextCliffDate       *string                 `json:"next_cliff_date,omitempty"`
	MinBalanceCents     int64                   `json:"min_balance_cents"`
	MinBalanceDate      string                  `json:"min_balance_date"`
	TopCommitments      []CommitmentDigestDTO   `json:"top_commitments"`
	KeyEventsInWindow    []KeyEventDTO           `json:"key_events_in_lead_window"`
}

type CommitmentDigestDTO struct {
	CommitmentID string `json:"commitment_id"`
	Name         string `json:"name"`
	DueDate      string `json:"due_date"`
	AmountCents  int64  `json:"amount_cents"`
	Priority     int    `json:"priority"`
}

// QueryResponse answers GET /q/{query}.
type QueryResponse struct {
	ValueCents  int64    `json:"value_cents"`
	WindowStart string   `json:"window_start"`
	WindowEnd   string   `json:"window_end"`
	Method      string   `json:"method"`
	EvidenceIDs []string `json:"evidence_ids"`
}

// PackResponse answers GET /q/packs/{pack}.
type PackResponse struct {
	Pack  string          `json:"pack"`
	Items []PackItemDTO   `json:"items"`
}

type PackItemDTO struct {
	Label       string   `json:"label"`
	ValueCents  int64    `json:"value_cents"`
	Method      string   `json:"method"`
	EvidenceIDs []string `json:"evidence_ids"`
}

// AccountDTO answers GET /accounts.
type AccountDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
	IsActive bool   `json:"is_active"`
}

// AnchorDTO is both the GET /accounts/anchors item and the PUT
// /accounts/{id}/anchor request body.
type AnchorDTO struct {
	AccountID          string `json:"account_id,omitempty"`
	AnchorDate         string `json:"anchor_date"`
	AnchorBalanceCents int64  `json:"anchor_balance_cents"`
	MinFloorCents      *int64 `json:"min_floor_cents,omitempty"`
}

// FloorDTO answers GET /accounts/floors: one row per account with a
// configured minimum floor, whether from an anchor or from
// OVERDRAFT_ALERT_THRESHOLDS.
type FloorDTO struct {
	AccountID     string `json:"account_id"`
	MinFloorCents int64  `json:"min_floor_cents"`
	Source        string `json:"source"`
}

// SimulateSpendRequest is the POST /forecast/simulate-spend body.
type SimulateSpendRequest struct {
	Date         string `json:"date"`
	AmountCents  int64  `json:"amount_cents"`
	Mode         string `json:"mode,omitempty"`
	BufferFloor  *int64 `json:"buffer_floor,omitempty"`
	HorizonDays  *int   `json:"horizon_days,omitempty"`
}

// SimulateSpendResponse is the result of a what-if simulation.
type SimulateSpendResponse struct {
	Safe               bool     `json:"safe"`
	NewMinBalanceCents int64    `json:"new_min_balance_cents"`
	NewMinBalanceDate  string   `json:"new_min_balance_date"`
	TightDays          []string `json:"tight_days"`
	MaxSafeTodayCents  int64    `json:"max_safe_today_cents"`
}

// IngestResultDTO is the response to POST /ingest/{source}/{mode}.
type IngestResultDTO struct {
	RowsUpserted int    `json:"rows_upserted"`
	Status       string `json:"status"`
	Notes        string `json:"notes,omitempty"`
}

// ExportRequest is the POST /q/export body.
type ExportRequest struct {
	Pack        string `json:"pack"`
	Period      string `json:"period"`
	Format      string `json:"format"`
	RedactMemos bool   `json:"redact_memos"`
}

// ExportResponse answers POST /q/export.
type ExportResponse struct {
	Hash        string `json:"hash"`
	GeneratedAt string `json:"generated_at"`
	CSVURL      string `json:"csv_url,omitempty"`
	PDFURL      string `json:"pdf_url,omitempty"`
}

// ErrorResponse is the standard error envelope for every 4xx/5xx.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func entryToDTO(e core.Entry) EntryDTO {
	return EntryDTO{
		Date:               e.Date.String(),
		Type:               entryTypeName(e.Type),
		Name:               e.Name,
		SignedAmountCents:  int64(e.SignedAmountCents),
		SourceID:           e.SourceID,
		ShiftApplied:       e.ShiftApplied,
		Policy:             string(e.Policy),
		UIMarker:           e.UIMarker,
		IsWithinLeadWindow: e.IsWithinLeadWindow,
	}
}

func entryTypeName(t core.EntryType) string {
	switch t {
	case core.EntryInflow:
		return "inflow"
	case core.EntryCommitment:
		return "commitment"
	case core.EntryKeyEvent:
		return "key_event"
	default:
		return "unknown"
	}
}

func keyEventToDTO(ev core.KeySpendEvent) KeyEventDTO {
	dto := KeyEventDTO{
		ID:                 string(ev.ID),
		Name:               ev.Name,
		EventDate:          ev.EventDate.String(),
		RepeatRule:         ev.RepeatRule,
		PlannedAmountCents: int64(ev.PlannedAmountCents),
		CategoryID:         string(ev.CategoryID),
		LeadTimeDays:       ev.LeadTimeDays,
		ShiftPolicy:        string(ev.ShiftPolicy),
	}
	if ev.AccountID != nil {
		id := string(*ev.AccountID)
		dto.AccountID = &id
	}
	return dto
}

func moneyMapToCents(m map[string]core.Money) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = int64(v)
	}
	return out
}
