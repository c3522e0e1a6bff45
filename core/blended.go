/*
blended.go - the Blended Overlay (spec section 4.7). Computes the
variable-spend daily statistics (mu, sigma) and weekday multipliers used
to produce a statistical reference band around the deterministic
baseline. Mean/stddev are computed with gonum.org/v1/gonum/stat rather
than hand-rolled accumulators, the way aristath-sentinel computes its own
trend statistics over a rolling observation window.
*/
package core

import (
	"strings"

	"gonum.org/v1/gonum/stat"
)

// VariableSpendWindowDays is the default lookback for compute_daily_stats.
const VariableSpendWindowDays = 180

// DailyStats holds the Blended Overlay's fitted parameters, in cents.
type DailyStats struct {
	MuCents    Ratio
	SigmaCents Ratio
}

// WeekdayMultipliers holds one multiplier per time.Weekday index (0=Sun..6=Sat),
// normalized so their mean is 1.0.
type WeekdayMultipliers [7]Ratio

// RecurringMatcher reports whether a transaction is already accounted
// for by a Commitment, ScheduledInflow or KeySpendEvent (by payee/category
// heuristic), or is an inter-account transfer, or is income. Any of these
// is excluded from the variable-spend subset.
type RecurringMatcher struct {
	KnownPayees     map[string]bool // lowercased commitment/inflow names
	TransferMarkers []string        // lowercased category/payee substrings indicating a transfer
}

func NewRecurringMatcher(commitments []Commitment, inflows []ScheduledInflow) RecurringMatcher {
	m := RecurringMatcher{KnownPayees: make(map[string]bool), TransferMarkers: []string{"transfer", "xfer"}}
	for _, c := range commitments {
		m.KnownPayees[strings.ToLower(c.Name)] = true
	}
	for _, in := range inflows {
		m.KnownPayees[strings.ToLower(in.Name)] = true
	}
	return m
}

func (m RecurringMatcher) isVariableSpend(tx Transaction) bool {
	if tx.AmountCents.IsPositive() {
		return false // income
	}
	payee := strings.ToLower(tx.Payee)
	if m.KnownPayees[payee] {
		return false
	}
	for _, marker := range m.TransferMarkers {
		if strings.Contains(payee, marker) || strings.Contains(strings.ToLower(tx.Memo), marker) {
			return false
		}
	}
	return true
}

// ComputeDailyStats builds the contiguous daily variable-spend series
// over [windowEnd-windowDays+1, windowEnd], including zero days, and
// returns mu=mean(abs(daily outflow)), sigma=stddev(daily outflow), both
// in cents. Sparse/empty data yields zeroed stats (spec: mu=sigma=0 when
// there is nothing to compute from).
func ComputeDailyStats(txs []Transaction, matcher RecurringMatcher, windowEnd Day, windowDays int) DailyStats {
	if windowDays <= 0 {
		windowDays = VariableSpendWindowDays
	}
	windowStart := windowEnd.AddDays(-(windowDays - 1))

	daily := make(map[string]float64, windowDays)
	for _, d := range DayRange(windowStart, windowEnd) {
		daily[d.String()] = 0
	}
	for _, tx := range txs {
		if tx.PostedAt.Before(windowStart) || tx.PostedAt.After(windowEnd) {
			continue
		}
		if !matcher.isVariableSpend(tx) {
			continue
		}
		daily[tx.PostedAt.String()] += float64(tx.AmountCents.Abs())
	}

	series := make([]float64, 0, len(daily))
	for _, d := range DayRange(windowStart, windowEnd) {
		series = append(series, daily[d.String()])
	}
	if len(series) == 0 {
		return DailyStats{}
	}

	mu := stat.Mean(series, nil)
	sigma := stat.StdDev(series, nil)
	return DailyStats{MuCents: NewRatio(mu), SigmaCents: NewRatio(sigma)}
}

// ComputeWeekdayMultipliers normalizes per-weekday average variable
// spend so the mean across all seven is 1.0. Sparse data (no observed
// spend on some weekday, or empty input) yields neutral [1.0]*7.
func ComputeWeekdayMultipliers(txs []Transaction, matcher RecurringMatcher, windowEnd Day, windowDays int) WeekdayMultipliers {
	neutral := func() WeekdayMultipliers {
		var w WeekdayMultipliers
		for i := range w {
			w[i] = NewRatio(1.0)
		}
		return w
	}

	if windowDays <= 0 {
		windowDays = VariableSpendWindowDays
	}
	windowStart := windowEnd.AddDays(-(windowDays - 1))

	var sums [7]float64
	var counts [7]int
	any := false
	for _, tx := range txs {
		if tx.PostedAt.Before(windowStart) || tx.PostedAt.After(windowEnd) {
			continue
		}
		if !matcher.isVariableSpend(tx) {
			continue
		}
		wd := int(tx.PostedAt.Weekday())
		sums[wd] += float64(tx.AmountCents.Abs())
		counts[wd]++
		any = true
	}
	if !any {
		return neutral()
	}
	for i := 0; i < 7; i++ {
		if counts[i] == 0 {
			return neutral()
		}
	}

	var avg [7]float64
	for i := 0; i < 7; i++ {
		if counts[i] > 0 {
			avg[i] = sums[i] / float64(counts[i])
		}
	}
	overall := stat.Mean(avg[:], nil)
	if overall == 0 {
		return neutral()
	}

	var out WeekdayMultipliers
	for i := 0; i < 7; i++ {
		out[i] = NewRatio(avg[i] / overall)
	}
	return out
}

// BlendedSeries is the statistical overlay on top of a deterministic
// BalanceSeries: baseline minus expected variable spend, plus a
// symmetric band of +/- k*sigma.
type BlendedSeries struct {
	Baseline map[string]Money // date -> deterministic[t] - mu*w[weekday]
	Lower    map[string]Money
	Upper    map[string]Money
}

// ComputeBlended derives the blended baseline and bands from a
// deterministic series. No RNG: purely a deterministic transform of the
// series and the fitted stats.
func ComputeBlended(det BalanceSeries, stats DailyStats, weekday WeekdayMultipliers, bandK Ratio) BlendedSeries {
	out := BlendedSeries{
		Baseline: make(map[string]Money, len(det.Dates())),
		Lower:    make(map[string]Money, len(det.Dates())),
		Upper:    make(map[string]Money, len(det.Dates())),
	}
	bandCents := bandK.Mul(stats.SigmaCents).ToMoney()
	for _, d := range det.Dates() {
		v, _ := det.At(d)
		mult := weekday[int(d.Weekday())]
		subtract := stats.MuCents.Mul(mult).ToMoney()
		key := d.String()
		blendedVal := v.Sub(subtract)
		out.Baseline[key] = blendedVal
		out.Lower[key] = blendedVal.Sub(bandCents)
		out.Upper[key] = blendedVal.Add(bandCents)
	}
	return out
}
