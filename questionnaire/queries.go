/*
Package questionnaire implements the Questionnaire Layer (spec section
4.10): nine deterministic primitive queries over transactions, pack
compositions, and a reproducible export with an integrity hash.
Evidence-carrying results are grounded on the teacher's generic/store.go
AuditEntry/AuditFilter convention of returning the IDs behind a derived
number, not just the number itself.
*/
package questionnaire

import (
	"context"
	"sort"
	"strings"

	"github.com/warp/cashflow-engine/core"
)

// Result is the shape every primitive query returns (spec 4.10 table
// preamble): a derived value plus the window and evidence it came from.
type Result struct {
	ValueCents   core.Money
	WindowStart  core.Day
	WindowEnd    core.Day
	Method       string
	EvidenceIDs  []string
}

// Engine answers the nine primitive queries against a transaction store.
type Engine struct {
	Store core.Store
}

func NewEngine(store core.Store) *Engine { return &Engine{Store: store} }

func (e *Engine) txInWindow(ctx context.Context, accounts []core.AccountID, start, end core.Day) ([]core.Transaction, error) {
	var all []core.Transaction
	for _, acct := range accounts {
		txs, err := e.Store.TransactionsInRange(ctx, acct, &start, end)
		if err != nil {
			return nil, err
		}
		all = append(all, txs...)
	}
	return all, nil
}

// MonthlyTotalByCategory sums outflow magnitudes in window for cat.
func (e *Engine) MonthlyTotalByCategory(ctx context.Context, accounts []core.AccountID, cat core.CategoryID, start, end core.Day) (Result, error) {
	txs, err := e.txInWindow(ctx, accounts, start, end)
	if err != nil {
		return Result{}, err
	}
	var total core.Money
	var ids []string
	for _, tx := range txs {
		if tx.CategoryID == nil || *tx.CategoryID != cat || tx.AmountCents.IsPositive() {
			continue
		}
		total = total.Add(tx.AmountCents.Abs())
		ids = append(ids, tx.IdempotencyKey)
	}
	return Result{ValueCents: total, WindowStart: start, WindowEnd: end, Method: "monthly_total_by_category", EvidenceIDs: ids}, nil
}

// MonthlyAverageByCategory is the category total divided by the number
// of full months in the window: the `months` complete calendar months
// before end's month.
func (e *Engine) MonthlyAverageByCategory(ctx context.Context, accounts []core.AccountID, cat core.CategoryID, months int, end core.Day) (Result, error) {
	if months <= 0 {
		months = 1
	}
	windowEnd := core.NewDay(end.Year(), end.Month(), 1).AddDays(-1)
	start := core.NewDay(windowEnd.Year(), windowEnd.Month(), 1).AddMonths(-(months - 1))
	total, err := e.MonthlyTotalByCategory(ctx, accounts, cat, start, windowEnd)
	if err != nil {
		return Result{}, err
	}
	total.ValueCents = core.Money(int64(total.ValueCents) / int64(months))
	total.Method = "monthly_average_by_category"
	return total, nil
}

// IncomeSummary sums inflow magnitudes in window, with a per-source breakdown.
func (e *Engine) IncomeSummary(ctx context.Context, accounts []core.AccountID, start, end core.Day) (Result, map[string]core.Money, error) {
	txs, err := e.txInWindow(ctx, accounts, start, end)
	if err != nil {
		return Result{}, nil, err
	}
	var total core.Money
	var ids []string
	bySource := make(map[string]core.Money)
	for _, tx := range txs {
		if !tx.AmountCents.IsPositive() {
			continue
		}
		total = total.Add(tx.AmountCents)
		bySource[tx.Source] = bySource[tx.Source].Add(tx.AmountCents)
		ids = append(ids, tx.IdempotencyKey)
	}
	return Result{ValueCents: total, WindowStart: start, WindowEnd: end, Method: "income_summary", EvidenceIDs: ids}, bySource, nil
}

// CategoryBreakdownEntry is one row of CategoryBreakdown's top-N list.
type CategoryBreakdownEntry struct {
	CategoryID  core.CategoryID
	TotalCents  core.Money
	EvidenceIDs []string
}

// CategoryBreakdown returns the top-N categories by outflow magnitude.
func (e *Engine) CategoryBreakdown(ctx context.Context, accounts []core.AccountID, start, end core.Day, topN int) ([]CategoryBreakdownEntry, error) {
	txs, err := e.txInWindow(ctx, accounts, start, end)
	if err != nil {
		return nil, err
	}
	totals := make(map[core.CategoryID]core.Money)
	evidence := make(map[core.CategoryID][]string)
	for _, tx := range txs {
		if tx.CategoryID == nil || tx.AmountCents.IsPositive() {
			continue
		}
		totals[*tx.CategoryID] = totals[*tx.CategoryID].Add(tx.AmountCents.Abs())
		evidence[*tx.CategoryID] = append(evidence[*tx.CategoryID], tx.IdempotencyKey)
	}

	entries := make([]CategoryBreakdownEntry, 0, len(totals))
	for cat, total := range totals {
		entries = append(entries, CategoryBreakdownEntry{CategoryID: cat, TotalCents: total, EvidenceIDs: evidence[cat]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalCents != entries[j].TotalCents {
			return entries[i].TotalCents > entries[j].TotalCents
		}
		return entries[i].CategoryID < entries[j].CategoryID
	})
	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	return entries, nil
}

// SupportingTransactions paginates evidence rows for a category and window.
func (e *Engine) SupportingTransactions(ctx context.Context, accounts []core.AccountID, cat core.CategoryID, start, end core.Day, offset, limit int) ([]core.Transaction, error) {
	txs, err := e.txInWindow(ctx, accounts, start, end)
	if err != nil {
		return nil, err
	}
	var matched []core.Transaction
	for _, tx := range txs {
		if tx.CategoryID != nil && *tx.CategoryID == cat {
			matched = append(matched, tx)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].PostedAt.Equal(matched[j].PostedAt) {
			return matched[i].PostedAt.Before(matched[j].PostedAt)
		}
		return matched[i].IdempotencyKey < matched[j].IdempotencyKey
	})
	if offset >= len(matched) {
		return nil, nil
	}
	end2 := offset + limit
	if limit <= 0 || end2 > len(matched) {
		end2 = len(matched)
	}
	return matched[offset:end2], nil
}

// ActiveLoans returns distinct loan-type commitments with a non-zero
// remaining-balance proxy (here: amount_cents != 0, since the data model
// doesn't carry a running loan balance).
func (e *Engine) ActiveLoans(ctx context.Context) ([]core.Commitment, error) {
	all, err := e.Store.ListCommitments(ctx)
	if err != nil {
		return nil, err
	}
	var loans []core.Commitment
	for _, c := range all {
		if strings.EqualFold(c.Type, "loan") && !c.AmountCents.IsZero() {
			loans = append(loans, c)
		}
	}
	return loans, nil
}

// MonthlyCommitmentTotal sums commitment amounts by kind across window,
// expanding due_rule occurrences the same way the Calendar Expander does.
func (e *Engine) MonthlyCommitmentTotal(ctx context.Context, kind string, start, end core.Day) (Result, error) {
	all, err := e.Store.ListCommitments(ctx)
	if err != nil {
		return Result{}, err
	}
	var total core.Money
	var ids []string
	for _, c := range all {
		if kind != "" && !strings.EqualFold(c.Type, kind) {
			continue
		}
		rule, err := core.ParseRule(c.DueRule)
		if err != nil {
			continue
		}
		occ := rule.Occurrences(start, end)
		total = total.Add(core.Money(int64(c.AmountCents) * int64(len(occ))))
		if len(occ) > 0 {
			ids = append(ids, string(c.ID))
		}
	}
	return Result{ValueCents: total, WindowStart: start, WindowEnd: end, Method: "monthly_commitment_total", EvidenceIDs: ids}, nil
}

// HouseholdFixedCosts sums the configured fixed-cost categories over window.
func (e *Engine) HouseholdFixedCosts(ctx context.Context, accounts []core.AccountID, fixedCategories []core.CategoryID, start, end core.Day) (Result, error) {
	set := make(map[core.CategoryID]bool, len(fixedCategories))
	for _, c := range fixedCategories {
		set[c] = true
	}
	txs, err := e.txInWindow(ctx, accounts, start, end)
	if err != nil {
		return Result{}, err
	}
	var total core.Money
	var ids []string
	for _, tx := range txs {
		if tx.CategoryID == nil || !set[*tx.CategoryID] || tx.AmountCents.IsPositive() {
			continue
		}
		total = total.Add(tx.AmountCents.Abs())
		ids = append(ids, tx.IdempotencyKey)
	}
	return Result{ValueCents: total, WindowStart: start, WindowEnd: end, Method: "household_fixed_costs", EvidenceIDs: ids}, nil
}

// Subscription is a heuristically-detected recurring payee (spec 4.10 +
// SPEC_FULL.md's supplemented confidence score).
type Subscription struct {
	Payee          string
	AvgAmountCents core.Money
	Occurrences    int
	Confidence     float64
	EvidenceIDs    []string
}
