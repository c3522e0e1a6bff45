/*
handlers.go - HTTP handlers for the cash-flow forecast API (spec section
6). Each handler parses query/body params, calls into core/ingest/
questionnaire, and serializes the DTOs from dto.go. Errors are mapped to
status codes by writeDomainError, mirroring the teacher's handlers.go
writeError convention generalized to the richer error taxonomy in
core/errors.go.
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/cashflow-engine/core"
	"github.com/warp/cashflow-engine/exportstore"
	"github.com/warp/cashflow-engine/ingest"
	"github.com/warp/cashflow-engine/internal/config"
	"github.com/warp/cashflow-engine/questionnaire"
)

// Handler holds every dependency the route handlers need. Grounded on
// the teacher's Handler struct (store + factory + caches); here the
// "factories" are the ingest Client registry and the questionnaire
// Engine, both stateless enough to construct once at startup.
type Handler struct {
	Store   core.Store
	Cfg     config.Config
	Log     zerolog.Logger
	Clients map[string]ingest.Client // source name -> upstream client, delta/backfill only
	Mirror  *exportstore.Mirror
	Engine  *questionnaire.Engine

	StartedAt   time.Time
	LastRunInfo func() (at time.Time, ok bool) // wired to scheduler.Scheduler.LastRun
}

func NewHandler(store core.Store, cfg config.Config, log zerolog.Logger, clients map[string]ingest.Client, mirror *exportstore.Mirror) *Handler {
	return &Handler{
		Store:     store,
		Cfg:       cfg,
		Log:       log,
		Clients:   clients,
		Mirror:    mirror,
		Engine:    questionnaire.NewEngine(store),
		StartedAt: time.Now(),
	}
}

// =============================================================================
// FORECAST
// =============================================================================

// GetCalendarForecast answers GET /forecast/calendar.
func (h *Handler) GetCalendarForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, end, err := parseHorizon(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	accounts, err := h.resolveAccounts(ctx, r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	bufferFloor := h.parseBufferFloor(r)

	series, err := h.buildSeries(ctx, accounts, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := seriesToResponse(series, bufferFloor)
	writeJSON(w, http.StatusOK, resp)
}

// GetBlendedForecast answers GET /forecast/blended: the deterministic
// calendar response plus a blended baseline and confidence bands derived
// from 180 days of variable-spend history.
func (h *Handler) GetBlendedForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, end, err := parseHorizon(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	accounts, err := h.resolveAccounts(ctx, r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	bufferFloor := h.parseBufferFloor(r)
	bandK := core.NewRatio(2)
	if v := r.URL.Query().Get("band_k"); v != "" {
		n, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			writeDomainError(w, core.NewValidationError("band_k", "must be numeric"))
			return
		}
		bandK = core.NewRatio(n)
	}

	series, err := h.buildSeries(ctx, accounts, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	windowEnd := start.AddDays(-1)
	historyStart := windowEnd.AddDays(-core.VariableSpendWindowDays)
	historyTxs, err := h.Store.TransactionsForAccounts(ctx, accounts, historyStart, windowEnd)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	commitments, err := h.Store.ListCommitments(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	inflows, err := h.Store.ListScheduledInflows(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	matcher := core.NewRecurringMatcher(commitments, inflows)
	stats := core.ComputeDailyStats(historyTxs, matcher, windowEnd, core.VariableSpendWindowDays)
	weekday := core.ComputeWeekdayMultipliers(historyTxs, matcher, windowEnd, core.VariableSpendWindowDays)
	blended := core.ComputeBlended(series, stats, weekday, bandK)

	resp := BlendedResponse{
		CalendarResponse: seriesToResponse(series, bufferFloor),
		BaselineBlended:  moneyMapToCents(blended.Baseline),
		Bands: BandsDTO{
			Lower: moneyMapToCents(blended.Lower),
			Upper: moneyMapToCents(blended.Upper),
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func seriesToResponse(series core.BalanceSeries, bufferFloor core.Money) CalendarResponse {
	dtos := make([]EntryDTO, 0, len(series.Entries))
	for _, e := range series.Entries {
		dtos = append(dtos, entryToDTO(e))
	}
	minBal, minDate := series.MinBalance()
	return CalendarResponse{
		OpeningBalanceCents: int64(series.Opening),
		Entries:             dtos,
		Balances:            moneyMapToCents(series.AsMap()),
		MinBalanceCents:     int64(minBal),
		MinBalanceDate:      minDate.String(),
		Meta:                CalendarMetaDTO{EmptySeries: len(series.Entries) == 0},
	}
}

// buildSeries resolves the opening balance via the Anchor Resolver,
// expands the calendar, and folds it into a balance series — the same
// three steps the Snapshot & Digest Job runs post-ingest (spec 4.8).
func (h *Handler) buildSeries(ctx context.Context, accounts []core.AccountID, start, end core.Day) (core.BalanceSeries, error) {
	opening, err := core.Opening(ctx, h.Store, h.Store, start.AddDays(-1), accounts)
	if err != nil {
		return core.BalanceSeries{}, err
	}
	inflows, err := h.Store.ListScheduledInflows(ctx)
	if err != nil {
		return core.BalanceSeries{}, err
	}
	commitments, err := h.Store.ListCommitments(ctx)
	if err != nil {
		return core.BalanceSeries{}, err
	}
	events, err := h.Store.ListKeyEvents(ctx, start, end)
	if err != nil {
		return core.BalanceSeries{}, err
	}
	entries, err := core.ExpandCalendar(start, end, inflows, commitments, events)
	if err != nil {
		return core.BalanceSeries{}, err
	}
	return core.ComputeBalances(opening, start, end, entries), nil
}

// SimulateSpend answers POST /forecast/simulate-spend.
func (h *Handler) SimulateSpend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SimulateSpendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, core.NewValidationError("body", "malformed JSON"))
		return
	}
	spendDate, err := core.ParseDay(req.Date)
	if err != nil {
		writeDomainError(w, core.NewValidationError("date", "must be YYYY-MM-DD"))
		return
	}

	horizonDays := 120
	if req.HorizonDays != nil {
		horizonDays = *req.HorizonDays
	}
	bufferFloor := h.Cfg.BufferFloorCents
	if req.BufferFloor != nil {
		bufferFloor = core.Money(*req.BufferFloor)
	}

	accounts, err := h.resolveAccounts(ctx, r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	today := core.Today()
	start := today
	end := today.AddDays(horizonDays)
	if spendDate.After(end) {
		end = spendDate
	}

	opening, err := core.Opening(ctx, h.Store, h.Store, start.AddDays(-1), accounts)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	inflows, err := h.Store.ListScheduledInflows(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	commitments, err := h.Store.ListCommitments(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	events, err := h.Store.ListKeyEvents(ctx, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	entries, err := core.ExpandCalendar(start, end, inflows, commitments, events)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result := core.SimulateSpend(opening, start, end, entries, spendDate, core.Money(req.AmountCents), bufferFloor, core.Money(100))
	maxSafe := core.MaxSafeSpend(opening, start, end, today, entries, bufferFloor)

	tight := make([]string, 0, len(result.TightDays))
	for _, d := range result.TightDays {
		tight = append(tight, d.String())
	}
	writeJSON(w, http.StatusOK, SimulateSpendResponse{
		Safe:               result.Safe,
		NewMinBalanceCents: int64(result.NewMinBalanceCents),
		NewMinBalanceDate:  result.NewMinBalanceDate.String(),
		TightDays:          tight,
		MaxSafeTodayCents:  int64(maxSafe),
	})
}

// =============================================================================
// CALENDAR / KEY EVENTS
// =============================================================================

// GetCalendar answers GET /calendar: dated entries with no balance fold,
// for a UI that only needs the ledger, not the running total.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start, end, err := parseFromTo(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	inflows, err := h.Store.ListScheduledInflows(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	commitments, err := h.Store.ListCommitments(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	events, err := h.Store.ListKeyEvents(ctx, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	entries, err := core.ExpandCalendar(start, end, inflows, commitments, events)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, entryToDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ListKeyEvents(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseFromTo(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	events, err := h.Store.ListKeyEvents(r.Context(), start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]KeyEventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, keyEventToDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) UpsertKeyEvent(w http.ResponseWriter, r *http.Request) {
	var dto KeyEventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeDomainError(w, core.NewValidationError("body", "malformed JSON"))
		return
	}
	eventDate, err := core.ParseDay(dto.EventDate)
	if err != nil {
		writeDomainError(w, core.NewValidationError("event_date", "must be YYYY-MM-DD"))
		return
	}
	id := dto.ID
	if id == "" {
		id = uuid.NewString()
	}
	ev := core.KeySpendEvent{
		ID:                 core.KeyEventID(id),
		Name:               dto.Name,
		EventDate:          eventDate,
		RepeatRule:         dto.RepeatRule,
		PlannedAmountCents: core.Money(dto.PlannedAmountCents),
		CategoryID:         core.CategoryID(dto.CategoryID),
		LeadTimeDays:       dto.LeadTimeDays,
		ShiftPolicy:        core.ShiftPolicy(dto.ShiftPolicy),
	}
	if ev.ShiftPolicy == "" {
		ev.ShiftPolicy = core.AsScheduled
	}
	if dto.AccountID != nil {
		acct := core.AccountID(*dto.AccountID)
		ev.AccountID = &acct
	}
	if err := h.Store.UpsertKeyEvent(r.Context(), ev); err != nil {
		writeDomainError(w, err)
		return
	}
	dto.ID = id
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) DeleteKeyEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteKeyEvent(r.Context(), core.KeyEventID(id)); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// OVERVIEW
// =============================================================================

// GetOverview answers GET /overview. The digest is recomputed against
// the current store state (cheap: a 120-day horizon is the same
// forecast GetCalendarForecast runs); "stale" flags whether the
// scheduler's nightly job actually ran today, the signal the spec's
// "stale indicator" calls for even though the number itself is live.
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := core.Today()
	start := today
	end := today.AddDays(120)

	accounts, err := h.Store.ListAccounts(ctx, true)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ids := make([]core.AccountID, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}

	series, err := h.buildSeries(ctx, ids, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	commitments, err := h.Store.ListCommitments(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	byID := make(map[core.CommitmentID]core.Commitment, len(commitments))
	for _, c := range commitments {
		byID[c.ID] = c
	}
	events, err := h.Store.ListKeyEvents(ctx, today, today.AddDays(90))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	snap, hasSnap, err := h.Store.LatestSnapshot(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	createdAt := today
	stale := true
	if hasSnap {
		createdAt = snap.CreatedAt
		stale = !createdAt.Equal(today)
	}

	digest := core.DeriveDigest(createdAt, stale, series, today, h.Cfg.BufferFloorCents, byID, events)
	writeJSON(w, http.StatusOK, digestToResponse(digest))
}

func digestToResponse(d core.Digest) OverviewResponse {
	top := make([]CommitmentDigestDTO, 0, len(d.TopCommitments))
	for _, c := range d.TopCommitments {
		top = append(top, CommitmentDigestDTO{
			CommitmentID: string(c.CommitmentID),
			Name:         c.Name,
			DueDate:      c.Date.String(),
			AmountCents:  int64(c.AmountCents),
			Priority:     c.Priority,
		})
	}
	events := make([]KeyEventDTO, 0, len(d.KeyEventsInLeadWindow))
	for _, e := range d.KeyEventsInLeadWindow {
		events = append(events, keyEventToDTO(e))
	}
	resp := OverviewResponse{
		CreatedAt:           d.SnapshotCreatedAt.String(),
		Stale:               d.Stale,
		CurrentBalanceCents: int64(d.CurrentBalanceCents),
		SafeToSpendCents:    int64(d.SafeToSpendTodayCents),
		MinBalanceCents:     int64(d.MinBalanceCents),
		MinBalanceDate:      d.MinBalanceDate.String(),
		TopCommitments:      top,
		KeyEventsInWindow:   events,
	}
	if d.NextCliffDate != nil {
		s := d.NextCliffDate.String()
		resp.NextCliffDate = &s
	}
	return resp
}

// =============================================================================
// QUESTIONNAIRE
// =============================================================================

// GetQuery answers GET /q/{query}.
func (h *Handler) GetQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := chi.URLParam(r, "query")
	q := r.URL.Query()
	today := core.Today()

	accounts, err := h.resolveAccounts(ctx, r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	start, end, perr := resolveQueryWindow(q, today)

	switch query {
	case "monthly_total_by_category":
		if perr != nil {
			writeDomainError(w, perr)
			return
		}
		res, err := h.Engine.MonthlyTotalByCategory(ctx, accounts, core.CategoryID(q.Get("category")), start, end)
		writeQueryResult(w, res, err)
	case "monthly_average_by_category":
		months, _ := strconv.Atoi(q.Get("months"))
		if months <= 0 {
			months = 3
		}
		res, err := h.Engine.MonthlyAverageByCategory(ctx, accounts, core.CategoryID(q.Get("category")), months, today)
		writeQueryResult(w, res, err)
	case "income_summary":
		if perr != nil {
			writeDomainError(w, perr)
			return
		}
		res, _, err := h.Engine.IncomeSummary(ctx, accounts, start, end)
		writeQueryResult(w, res, err)
	case "monthly_commitment_total":
		if perr != nil {
			writeDomainError(w, perr)
			return
		}
		res, err := h.Engine.MonthlyCommitmentTotal(ctx, q.Get("kind"), start, end)
		writeQueryResult(w, res, err)
	case "household_fixed_costs":
		if perr != nil {
			writeDomainError(w, perr)
			return
		}
		res, err := h.Engine.HouseholdFixedCosts(ctx, accounts, h.fixedCategories(), start, end)
		writeQueryResult(w, res, err)
	case "active_loans":
		loans, err := h.Engine.ActiveLoans(ctx)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, activeLoansToResult(loans))
	case "category_breakdown":
		if perr != nil {
			writeDomainError(w, perr)
			return
		}
		topN, _ := strconv.Atoi(q.Get("top_n"))
		if topN <= 0 {
			topN = 5
		}
		entries, err := h.Engine.CategoryBreakdown(ctx, accounts, start, end, topN)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, categoryBreakdownToResponse(entries, start, end))
	case "supporting_transactions":
		if perr != nil {
			writeDomainError(w, perr)
			return
		}
		offset, _ := strconv.Atoi(q.Get("offset"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		if limit <= 0 {
			limit = 50
		}
		txs, err := h.Engine.SupportingTransactions(ctx, accounts, core.CategoryID(q.Get("category")), start, end, offset, limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, txs)
	case "subscription_list":
		subs, err := h.Engine.SubscriptionList(ctx, accounts, today)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, subscriptionsToResult(subs, today))
	default:
		writeDomainError(w, core.ErrUnknownQuery)
	}
}

func writeQueryResult(w http.ResponseWriter, res questionnaire.Result, err error) {
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{
		ValueCents:  int64(res.ValueCents),
		WindowStart: res.WindowStart.String(),
		WindowEnd:   res.WindowEnd.String(),
		Method:      res.Method,
		EvidenceIDs: res.EvidenceIDs,
	})
}

func activeLoansToResult(loans []core.Commitment) QueryResponse {
	var total core.Money
	ids := make([]string, 0, len(loans))
	for _, l := range loans {
		total = total.Add(l.AmountCents.Abs())
		ids = append(ids, string(l.ID))
	}
	today := core.Today()
	return QueryResponse{ValueCents: int64(total), WindowStart: today.String(), WindowEnd: today.String(), Method: "active_loans", EvidenceIDs: ids}
}

func categoryBreakdownToResponse(entries []questionnaire.CategoryBreakdownEntry, start, end core.Day) []QueryResponse {
	out := make([]QueryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, QueryResponse{
			ValueCents:  int64(e.TotalCents),
			WindowStart: start.String(),
			WindowEnd:   end.String(),
			Method:      "category_breakdown:" + string(e.CategoryID),
			EvidenceIDs: e.EvidenceIDs,
		})
	}
	return out
}

func subscriptionsToResult(subs []questionnaire.Subscription, asOf core.Day) []QueryResponse {
	out := make([]QueryResponse, 0, len(subs))
	windowStart := asOf.AddDays(-365)
	for _, s := range subs {
		out = append(out, QueryResponse{
			ValueCents:  int64(s.AvgAmountCents),
			WindowStart: windowStart.String(),
			WindowEnd:   asOf.String(),
			Method:      "subscription_list:" + s.Payee,
			EvidenceIDs: s.EvidenceIDs,
		})
	}
	return out
}

// GetPack answers GET /q/packs/{pack}.
func (h *Handler) GetPack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	packName := chi.URLParam(r, "pack")
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "3m_full"
	}
	accounts, err := h.resolveAccounts(ctx, r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	today := core.Today()

	var pack questionnaire.Pack
	switch packName {
	case "loan_application_basics":
		pack, err = h.Engine.LoanApplicationBasics(ctx, accounts, h.fixedCategories(), period, today)
	case "affordability_snapshot":
		pack, err = h.Engine.AffordabilitySnapshot(ctx, accounts, h.fixedCategories(), period, today)
	default:
		err = core.ErrUnknownPack
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, packToResponse(pack))
}

func packToResponse(p questionnaire.Pack) PackResponse {
	items := make([]PackItemDTO, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, PackItemDTO{Label: it.Label, ValueCents: int64(it.ValueCents), Method: it.Method, EvidenceIDs: it.EvidenceIDs})
	}
	return PackResponse{Pack: p.Name, Items: items}
}

func (h *Handler) fixedCategories() []core.CategoryID {
	out := make([]core.CategoryID, 0, len(h.Cfg.FixedCostCategories))
	for _, c := range h.Cfg.FixedCostCategories {
		out = append(out, core.CategoryID(c))
	}
	return out
}

// Export answers POST /q/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, core.NewValidationError("body", "malformed JSON"))
		return
	}
	accounts, err := h.resolveAccounts(ctx, r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	today := core.Today()

	var pack questionnaire.Pack
	switch req.Pack {
	case "loan_application_basics":
		pack, err = h.Engine.LoanApplicationBasics(ctx, accounts, h.fixedCategories(), req.Period, today)
	case "affordability_snapshot":
		pack, err = h.Engine.AffordabilitySnapshot(ctx, accounts, h.fixedCategories(), req.Period, today)
	default:
		err = core.ErrUnknownPack
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	format := questionnaire.Format(req.Format)
	if format == "" {
		format = questionnaire.FormatBoth
	}
	result, err := questionnaire.Export(pack, format, time.Now(), req.RedactMemos)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := ExportResponse{Hash: result.Hash, GeneratedAt: result.GeneratedAt.UTC().Format(time.RFC3339)}
	hash8 := result.Hash
	if len(hash8) > 8 {
		hash8 = hash8[:8]
	}
	if len(result.CSV) > 0 {
		name := req.Pack + "_" + result.GeneratedAt.UTC().Format("20060102T150405Z") + "_" + hash8 + ".csv"
		resp.CSVURL, err = h.writeExportFile(ctx, name, result.CSV)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if len(result.PDF) > 0 {
		name := req.Pack + "_" + result.GeneratedAt.UTC().Format("20060102T150405Z") + "_" + hash8 + ".pdf"
		resp.PDFURL, err = h.writeExportFile(ctx, name, result.PDF)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.ListAccounts(r.Context(), false)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, AccountDTO{ID: string(a.ID), Name: a.Name, Type: string(a.Type), Currency: a.Currency, IsActive: a.IsActive})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ListAnchors(w http.ResponseWriter, r *http.Request) {
	anchors, err := h.Store.ListAnchors(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]AnchorDTO, 0, len(anchors))
	for _, a := range anchors {
		dtos = append(dtos, anchorToDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ListFloors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	anchors, err := h.Store.ListAnchors(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	seen := make(map[string]bool)
	var out []FloorDTO
	for _, a := range anchors {
		if a.MinFloorCents != nil {
			out = append(out, FloorDTO{AccountID: string(a.AccountID), MinFloorCents: int64(*a.MinFloorCents), Source: "anchor"})
			seen[string(a.AccountID)] = true
		}
	}
	for acct, cents := range h.Cfg.OverdraftThresholds {
		if seen[acct] {
			continue
		}
		out = append(out, FloorDTO{AccountID: acct, MinFloorCents: int64(cents), Source: "config"})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) UpsertAnchor(w http.ResponseWriter, r *http.Request) {
	acctID := chi.URLParam(r, "id")
	var dto AnchorDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeDomainError(w, core.NewValidationError("body", "malformed JSON"))
		return
	}
	anchorDate, err := core.ParseDay(dto.AnchorDate)
	if err != nil {
		writeDomainError(w, core.NewValidationError("anchor_date", "must be YYYY-MM-DD"))
		return
	}
	anchor := core.AccountAnchor{
		AccountID:          core.AccountID(acctID),
		AnchorDate:         anchorDate,
		AnchorBalanceCents: core.Money(dto.AnchorBalanceCents),
	}
	if dto.MinFloorCents != nil {
		f := core.Money(*dto.MinFloorCents)
		anchor.MinFloorCents = &f
	}
	if err := h.Store.UpsertAnchor(r.Context(), anchor); err != nil {
		writeDomainError(w, err)
		return
	}
	dto.AccountID = acctID
	writeJSON(w, http.StatusOK, dto)
}

func anchorToDTO(a core.AccountAnchor) AnchorDTO {
	dto := AnchorDTO{AccountID: string(a.AccountID), AnchorDate: a.AnchorDate.String(), AnchorBalanceCents: int64(a.AnchorBalanceCents)}
	if a.MinFloorCents != nil {
		f := int64(*a.MinFloorCents)
		dto.MinFloorCents = &f
	}
	return dto
}

// =============================================================================
// INGEST
// =============================================================================

// RunIngest answers POST /ingest/{source}/{mode}.
func (h *Handler) RunIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	source := chi.URLParam(r, "source")
	mode := chi.URLParam(r, "mode")

	ingestor := &ingest.Ingestor{Store: h.Store, Log: h.Log, MaxRetries: 3, RetryDelay: 2 * time.Second}

	var audit core.IngestAudit
	var err error
	switch mode {
	case "delta":
		client, ok := h.Clients[source]
		if !ok {
			writeDomainError(w, core.NewValidationError("source", "unknown ingest source "+source))
			return
		}
		ingestor.Client = client
		audit, err = ingestor.RunDelta(ctx, source)
	case "backfill":
		client, ok := h.Clients[source]
		if !ok {
			writeDomainError(w, core.NewValidationError("source", "unknown ingest source "+source))
			return
		}
		ingestor.Client = client
		months, _ := strconv.Atoi(r.URL.Query().Get("months"))
		if months <= 0 {
			months = 3
		}
		audit, err = ingestor.RunBackfill(ctx, source, months)
	case "from-csv":
		audit, err = ingestor.RunFromCSV(ctx, source, r.Body)
	default:
		writeDomainError(w, core.NewValidationError("mode", "must be delta, backfill or from-csv"))
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IngestResultDTO{RowsUpserted: audit.RowsUpserted, Status: string(audit.Status), Notes: audit.Notes})
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func (h *Handler) resolveAccounts(ctx context.Context, r *http.Request) ([]core.AccountID, error) {
	raw := r.URL.Query().Get("accounts")
	if raw == "" {
		all, err := h.Store.ListAccounts(ctx, true)
		if err != nil {
			return nil, err
		}
		ids := make([]core.AccountID, 0, len(all))
		for _, a := range all {
			ids = append(ids, a.ID)
		}
		return ids, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]core.AccountID, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, core.AccountID(p))
		}
	}
	return ids, nil
}

func (h *Handler) parseBufferFloor(r *http.Request) core.Money {
	if v := r.URL.Query().Get("buffer_floor"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return core.Money(n)
		}
	}
	return h.Cfg.BufferFloorCents
}

func (h *Handler) writeExportFile(ctx context.Context, name string, body []byte) (string, error) {
	if err := os.MkdirAll(h.Cfg.ExportDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(h.Cfg.ExportDir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", err
	}
	if h.Mirror != nil && h.Mirror.Enabled() {
		uploadURL, err := h.Mirror.Upload(ctx, name, body)
		if err == nil && uploadURL != "" {
			return uploadURL, nil
		}
	}
	return "file://" + path, nil
}

func parseHorizon(r *http.Request) (core.Day, core.Day, error) {
	return parseFromTo2(r, "start", "end")
}

func parseFromTo(r *http.Request) (core.Day, core.Day, error) {
	return parseFromTo2(r, "from", "to")
}

func parseFromTo2(r *http.Request, startKey, endKey string) (core.Day, core.Day, error) {
	startRaw := r.URL.Query().Get(startKey)
	endRaw := r.URL.Query().Get(endKey)
	if startRaw == "" || endRaw == "" {
		return core.Day{}, core.Day{}, core.NewValidationError(startKey, "both "+startKey+" and "+endKey+" are required")
	}
	start, err := core.ParseDay(startRaw)
	if err != nil {
		return core.Day{}, core.Day{}, core.NewValidationError(startKey, "must be YYYY-MM-DD")
	}
	end, err := core.ParseDay(endRaw)
	if err != nil {
		return core.Day{}, core.Day{}, core.NewValidationError(endKey, "must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return core.Day{}, core.Day{}, core.ErrInvalidHorizon
	}
	return start, end, nil
}

func resolveQueryWindow(q url.Values, today core.Day) (core.Day, core.Day, error) {
	if period := q.Get("period"); period != "" {
		return questionnaire.ResolvePeriod(period, today)
	}
	startRaw, endRaw := q.Get("start"), q.Get("end")
	if startRaw == "" || endRaw == "" {
		return questionnaire.ResolvePeriod("1m_full", today)
	}
	start, err := core.ParseDay(startRaw)
	if err != nil {
		return core.Day{}, core.Day{}, core.NewValidationError("start", "must be YYYY-MM-DD")
	}
	end, err := core.ParseDay(endRaw)
	if err != nil {
		return core.Day{}, core.Day{}, core.NewValidationError("end", "must be YYYY-MM-DD")
	}
	return start, end, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps core's error taxonomy to HTTP status codes per
// spec section 7.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case core.IsClientError(err):
		writeError(w, http.StatusBadRequest, "validation error", err)
	case core.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case core.IsRetryable(err):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
