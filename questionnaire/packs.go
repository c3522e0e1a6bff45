/*
packs.go - questionnaire pack compositions (spec 4.10): pre-defined sets
of primitive queries, each item annotated with its method string and
evidence IDs, plus the period-alias resolution ("3m_full" = last 3
complete calendar months).
*/
package questionnaire

import (
	"context"

	"github.com/warp/cashflow-engine/core"
)

// PackItem is one line of a pack's output.
type PackItem struct {
	Label       string
	ValueCents  core.Money
	Method      string
	EvidenceIDs []string
}

type Pack struct {
	Name  string
	Items []PackItem
}

// ResolvePeriod turns a period alias into a concrete [start, end]
// window. "3m_full" means the last 3 complete calendar months before
// asOf's month.
func ResolvePeriod(alias string, asOf core.Day) (core.Day, core.Day, error) {
	switch alias {
	case "3m_full":
		endOfLastMonth := core.NewDay(asOf.Year(), asOf.Month(), 1).AddDays(-1)
		start := core.NewDay(endOfLastMonth.Year(), endOfLastMonth.Month(), 1).AddMonths(-2)
		return start, endOfLastMonth, nil
	case "1m_full":
		endOfLastMonth := core.NewDay(asOf.Year(), asOf.Month(), 1).AddDays(-1)
		start := core.NewDay(endOfLastMonth.Year(), endOfLastMonth.Month(), 1)
		return start, endOfLastMonth, nil
	default:
		return core.Day{}, core.Day{}, core.NewValidationError("period", "unknown period alias "+alias)
	}
}

// LoanApplicationBasics assembles the pack a lender-style questionnaire
// asks for first: income, active loans, fixed costs, top spend categories.
func (e *Engine) LoanApplicationBasics(ctx context.Context, accounts []core.AccountID, fixedCategories []core.CategoryID, periodAlias string, asOf core.Day) (Pack, error) {
	start, end, err := ResolvePeriod(periodAlias, asOf)
	if err != nil {
		return Pack{}, err
	}

	income, bySource, err := e.IncomeSummary(ctx, accounts, start, end)
	if err != nil {
		return Pack{}, err
	}
	_ = bySource

	loans, err := e.ActiveLoans(ctx)
	if err != nil {
		return Pack{}, err
	}
	var loanIDs []string
	var loanTotal core.Money
	for _, l := range loans {
		loanIDs = append(loanIDs, string(l.ID))
		loanTotal = loanTotal.Add(l.AmountCents)
	}

	fixed, err := e.HouseholdFixedCosts(ctx, accounts, fixedCategories, start, end)
	if err != nil {
		return Pack{}, err
	}

	breakdown, err := e.CategoryBreakdown(ctx, accounts, start, end, 5)
	if err != nil {
		return Pack{}, err
	}

	items := []PackItem{
		{Label: "income_summary", ValueCents: income.ValueCents, Method: income.Method, EvidenceIDs: income.EvidenceIDs},
		{Label: "active_loans_total", ValueCents: loanTotal, Method: "active_loans", EvidenceIDs: loanIDs},
		{Label: "household_fixed_costs", ValueCents: fixed.ValueCents, Method: fixed.Method, EvidenceIDs: fixed.EvidenceIDs},
	}
	for _, b := range breakdown {
		items = append(items, PackItem{Label: "category:" + string(b.CategoryID), ValueCents: b.TotalCents, Method: "category_breakdown", EvidenceIDs: b.EvidenceIDs})
	}

	return Pack{Name: "loan_application_basics", Items: items}, nil
}

// AffordabilitySnapshot assembles the pack used to answer "can this
// household afford a new recurring obligation": income, commitments,
// fixed costs, and detected subscriptions.
func (e *Engine) AffordabilitySnapshot(ctx context.Context, accounts []core.AccountID, fixedCategories []core.CategoryID, periodAlias string, asOf core.Day) (Pack, error) {
	start, end, err := ResolvePeriod(periodAlias, asOf)
	if err != nil {
		return Pack{}, err
	}

	income, _, err := e.IncomeSummary(ctx, accounts, start, end)
	if err != nil {
		return Pack{}, err
	}

	commitments, err := e.MonthlyCommitmentTotal(ctx, "", start, end)
	if err != nil {
		return Pack{}, err
	}

	fixed, err := e.HouseholdFixedCosts(ctx, accounts, fixedCategories, start, end)
	if err != nil {
		return Pack{}, err
	}

	subs, err := e.SubscriptionList(ctx, accounts, asOf)
	if err != nil {
		return Pack{}, err
	}
	var subTotal core.Money
	var subIDs []string
	for _, s := range subs {
		if s.Confidence < 0.5 {
			continue
		}
		subTotal = subTotal.Add(s.AvgAmountCents)
		subIDs = append(subIDs, s.EvidenceIDs...)
	}

	items := []PackItem{
		{Label: "income_summary", ValueCents: income.ValueCents, Method: income.Method, EvidenceIDs: income.EvidenceIDs},
		{Label: "monthly_commitment_total", ValueCents: commitments.ValueCents, Method: commitments.Method, EvidenceIDs: commitments.EvidenceIDs},
		{Label: "household_fixed_costs", ValueCents: fixed.ValueCents, Method: fixed.Method, EvidenceIDs: fixed.EvidenceIDs},
		{Label: "subscriptions_total", ValueCents: subTotal, Method: "subscription_list", EvidenceIDs: subIDs},
	}

	return Pack{Name: "affordability_snapshot", Items: items}, nil
}

// Packs returns every supported pack name.
func Packs() []string {
	return []string{"loan_application_basics", "affordability_snapshot"}
}
