/*
simulate.go - the what-if Simulator (spec section 4.6), grounded on the
teacher's generic/projection.go QuickValidate (a cheap recompute-and-check
against a hypothetical consumption) generalized to a full binary search
over spend amounts. Deterministic: mode=blended only changes the reported
reference baseline upstream, never the safety decision here.
*/
package core

// SimulationResult is the response shape for POST /forecast/simulate-spend.
type SimulationResult struct {
	Safe                bool
	NewMinBalanceCents  Money
	NewMinBalanceDate   Day
	TightDays           []Day
	MaxSafeTodayCents   Money
}

// SimulateSpend recomputes the deterministic forecast with an extra
// synthetic outflow of amountCents on spendDate, and reports whether the
// horizon stays at or above bufferFloor. tightEpsilon controls which
// days are reported in TightDays (balance within tightEpsilon of the
// floor, inclusive, regardless of safety outcome).
func SimulateSpend(opening Money, start, end Day, entries []Entry, spendDate Day, amountCents Money, bufferFloor, tightEpsilon Money) SimulationResult {
	series := withSyntheticSpend(opening, start, end, entries, spendDate, amountCents)
	minBal, minDate := series.MinBalance()

	var tight []Day
	for _, d := range series.Dates() {
		v, _ := series.At(d)
		if v.Sub(bufferFloor).Abs() <= tightEpsilon {
			tight = append(tight, d)
		}
	}

	return SimulationResult{
		Safe:               minBal >= bufferFloor,
		NewMinBalanceCents: minBal,
		NewMinBalanceDate:  minDate,
		TightDays:          tight,
		MaxSafeTodayCents:  MaxSafeSpend(opening, start, end, spendDate, entries, bufferFloor),
	}
}

func withSyntheticSpend(opening Money, start, end Day, entries []Entry, spendDate Day, amountCents Money) BalanceSeries {
	extra := Entry{
		Date:              spendDate,
		Type:              EntryKeyEvent,
		Name:              "simulated spend",
		SignedAmountCents: amountCents.Abs().Neg(),
		SourceID:          "__simulated__",
	}
	combined := make([]Entry, 0, len(entries)+1)
	combined = append(combined, entries...)
	combined = append(combined, extra)
	return ComputeBalances(opening, start, end, combined)
}

// MaxSafeSpend performs an integer binary search over [0, opening +
// max(0, future inflows from spendDate onward)] for the largest amount
// that can be spent on spendDate while keeping the horizon minimum at or
// above bufferFloor. If even spending 0 is unsafe (the horizon was
// already below floor), it returns 0: there is no non-negative amount
// that restores safety by spending less.
func MaxSafeSpend(opening Money, start, end, spendDate Day, entries []Entry, bufferFloor Money) Money {
	safeAt := func(amount Money) bool {
		series := withSyntheticSpend(opening, start, end, entries, spendDate, amount)
		minBal, _ := series.MinBalance()
		return minBal >= bufferFloor
	}

	if !safeAt(0) {
		return 0
	}

	var futureInflows Money
	for _, e := range entries {
		if e.SignedAmountCents.IsPositive() && e.Date.AfterOrEqual(spendDate) && e.Date.BeforeOrEqual(end) {
			futureInflows = futureInflows.Add(e.SignedAmountCents)
		}
	}
	high := opening.Add(futureInflows.Max(0))
	if high < 0 {
		high = 0
	}

	low := Money(0)
	for low < high {
		mid := low + (high-low+1)/2
		if safeAt(mid) {
			low = mid
		} else {
			high = mid - 1
		}
	}
	return low
}
