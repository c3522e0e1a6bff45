/*
forecast.go - the Forecast Engine (spec section 4.5). Composes an
opening balance and expanded calendar entries into a day-by-day balance
series, then derives min-balance, cliff date, and safe-to-spend. Grounded
on the teacher's generic/projection.go ProjectionEngine.Project, which
walks a period and folds deltas into a running balance the same way.
*/
package core

// BalanceSeries is the day-by-day balance trajectory over [Start, End],
// with Opening carried as balance at Start-1.
type BalanceSeries struct {
	Start    Day
	End      Day
	Opening  Money
	Entries  []Entry
	balances map[string]Money // Day.String() -> end-of-day balance, every date in range
}

// ComputeBalances walks [start, end] applying entries.SignedAmountCents
// on their date, carrying the running total forward. Sparse entries are
// fine; every date in range still gets a key (carry-forward materialized
// eagerly, since JSON payload determinism needs a complete series).
func ComputeBalances(opening Money, start, end Day, entries []Entry) BalanceSeries {
	byDate := make(map[string]Money)
	for _, e := range entries {
		key := e.Date.String()
		byDate[key] = byDate[key].Add(e.SignedAmountCents)
	}

	balances := make(map[string]Money, DaysBetween(start, end)+1)
	running := opening
	for _, d := range DayRange(start, end) {
		running = running.Add(byDate[d.String()])
		balances[d.String()] = running
	}

	return BalanceSeries{Start: start, End: end, Opening: opening, Entries: entries, balances: balances}
}

// At returns the balance at the end of day d. d must lie in [Start, End].
func (s BalanceSeries) At(d Day) (Money, bool) {
	v, ok := s.balances[d.String()]
	return v, ok
}

// Dates returns every date in the series in order.
func (s BalanceSeries) Dates() []Day { return DayRange(s.Start, s.End) }

// AsMap returns a date-string-keyed snapshot of the series, for payload
// serialization.
func (s BalanceSeries) AsMap() map[string]Money {
	out := make(map[string]Money, len(s.balances))
	for k, v := range s.balances {
		out[k] = v
	}
	return out
}

// MinBalance returns the minimum balance and its (first) date.
func (s BalanceSeries) MinBalance() (Money, Day) {
	dates := s.Dates()
	if len(dates) == 0 {
		return s.Opening, s.Start
	}
	minDay := dates[0]
	minVal := s.balances[minDay.String()]
	for _, d := range dates[1:] {
		v := s.balances[d.String()]
		if v < minVal {
			minVal = v
			minDay = d
		}
	}
	return minVal, minDay
}

// NextCliffDate returns the first date whose balance is at or below
// bufferFloor, if any.
func (s BalanceSeries) NextCliffDate(bufferFloor Money) (Day, bool) {
	for _, d := range s.Dates() {
		if s.balances[d.String()] <= bufferFloor {
			return d, true
		}
	}
	return Day{}, false
}

// SafeToSpendToday is the largest non-negative amount that can be spent
// on today without breaching bufferFloor anywhere in the horizon. It
// delegates to the Simulator's binary search (section 4.6), since the
// two are defined identically: "the largest x such that simulating spend
// x on today leaves min_balance_over_horizon >= buffer_floor".
func SafeToSpendToday(opening Money, start, end, today Day, entries []Entry, bufferFloor Money) Money {
	return MaxSafeSpend(opening, start, end, today, entries, bufferFloor)
}
