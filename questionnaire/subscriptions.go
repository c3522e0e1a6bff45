/*
subscriptions.go - subscription_list() (spec 4.10) plus the confidence
score SPEC_FULL.md supplements: amount-variance and interval-regularity
both feed into a 0-1 confidence so low-quality guesses can be filtered,
using the same gonum/stat primitives the Blended Overlay fits its
variable-spend distribution with.
*/
package questionnaire

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/warp/cashflow-engine/core"
)

const subscriptionWindowDays = 365
const minSubscriptionOccurrences = 3

// SubscriptionList detects recurring payees: same payee, at least 3
// outflows over the window. Every such payee is listed; how steady its
// amount and cadence are is reported only in Confidence and does not
// exclude a payee from the list.
func (e *Engine) SubscriptionList(ctx context.Context, accounts []core.AccountID, asOf core.Day) ([]Subscription, error) {
	start := asOf.AddDays(-subscriptionWindowDays)
	txs, err := e.txInWindow(ctx, accounts, start, asOf)
	if err != nil {
		return nil, err
	}

	byPayee := make(map[string][]core.Transaction)
	for _, tx := range txs {
		if tx.AmountCents.IsPositive() || tx.Payee == "" {
			continue
		}
		byPayee[tx.Payee] = append(byPayee[tx.Payee], tx)
	}

	var subs []Subscription
	for payee, group := range byPayee {
		if len(group) < minSubscriptionOccurrences {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].PostedAt.Before(group[j].PostedAt) })

		amounts := make([]float64, len(group))
		ids := make([]string, len(group))
		for i, tx := range group {
			amounts[i] = float64(tx.AmountCents.Abs())
			ids[i] = tx.IdempotencyKey
		}
		mean := stat.Mean(amounts, nil)
		stddev := stat.StdDev(amounts, nil)
		amountRegularity := 1.0
		if mean > 0 {
			amountRegularity = clamp01(1 - (stddev / mean))
		}

		intervals := make([]float64, 0, len(group)-1)
		for i := 1; i < len(group); i++ {
			intervals = append(intervals, float64(core.DaysBetween(group[i-1].PostedAt, group[i].PostedAt)))
		}
		intervalRegularity := 1.0
		if len(intervals) > 0 {
			intervalMean := stat.Mean(intervals, nil)
			intervalStd := stat.StdDev(intervals, nil)
			if intervalMean > 0 {
				intervalRegularity = clamp01(1 - (intervalStd / intervalMean))
			}
		}

		confidence := (amountRegularity + intervalRegularity) / 2

		subs = append(subs, Subscription{
			Payee:          payee,
			AvgAmountCents: core.Money(int64(mean)),
			Occurrences:    len(group),
			Confidence:     confidence,
			EvidenceIDs:    ids,
		})
	}

	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].Confidence != subs[j].Confidence {
			return subs[i].Confidence > subs[j].Confidence
		}
		return subs[i].Payee < subs[j].Payee
	})
	return subs, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
