/*
alerts.go - Alert rules and dedup (spec section 4.9). Commitment-drift
detection smooths the observed amount history with an SMA from
github.com/markcheno/go-talib, the same library aristath-sentinel uses to
smooth its own trend observations before comparing against a configured
reference value.
*/
package core

import (
	"fmt"

	"github.com/markcheno/go-talib"
)

// AlertThresholds configures the tolerances spec section 9 leaves as an
// open question ("implementers should expose it as configuration rather
// than guessing").
type AlertThresholds struct {
	MinBalanceDropCents   Money // threshold-breach: drop vs previous snapshot
	LargeDebitCents       Money // large-unplanned-debit: |amount| >= this
	DriftAmountToleranceCents Money
	DriftDateToleranceDays    int
	DriftMinConsecutiveCycles int
}

// DetectThresholdBreach fires when the horizon minimum balance fell by
// more than MinBalanceDropCents versus the previous snapshot.
func DetectThresholdBreach(prevMin, currMin Money, thresholds AlertThresholds, now Day) (Alert, bool) {
	drop := prevMin.Sub(currMin)
	if drop <= thresholds.MinBalanceDropCents {
		return Alert{}, false
	}
	return Alert{
		CreatedAt: now,
		Type:      AlertThresholdBreach,
		DedupeKey: "min_balance_drop",
		Severity:  SeverityWarning,
		Title:     "Projected minimum balance dropped",
		Message:   fmt.Sprintf("Horizon minimum fell from %s to %s", prevMin, currMin),
		Details:   fmt.Sprintf(`{"previous_min_cents":%d,"current_min_cents":%d}`, int64(prevMin), int64(currMin)),
	}, true
}

// DetectFloorBreach fires when an account's projected balance crosses
// below its own configured overdraft floor.
func DetectFloorBreach(account AccountID, balance Money, anchor AccountAnchor, now Day) (Alert, bool) {
	if anchor.MinFloorCents == nil || balance >= *anchor.MinFloorCents {
		return Alert{}, false
	}
	return Alert{
		CreatedAt: now,
		Type:      AlertThresholdBreach,
		DedupeKey: "floor_breach:" + string(account),
		Severity:  SeverityCritical,
		Title:     "Account projected below overdraft floor",
		Message:   fmt.Sprintf("Account %s projected at %s, floor is %s", account, balance, *anchor.MinFloorCents),
		Details:   fmt.Sprintf(`{"account_id":%q,"balance_cents":%d,"floor_cents":%d}`, account, int64(balance), int64(*anchor.MinFloorCents)),
	}, true
}

// DetectLargeUnplannedDebit fires for a new cleared transaction with no
// matching recurring row, at or above the configured threshold.
func DetectLargeUnplannedDebit(tx Transaction, thresholds AlertThresholds, matcher RecurringMatcher, now Day) (Alert, bool) {
	if !tx.IsCleared || tx.AmountCents.IsPositive() {
		return Alert{}, false
	}
	if tx.AmountCents.Abs() < thresholds.LargeDebitCents {
		return Alert{}, false
	}
	if !matcher.isVariableSpend(tx) {
		return Alert{}, false // matches a known recurring payee: not "unplanned"
	}
	return Alert{
		CreatedAt: now,
		Type:      AlertLargeUnplanned,
		DedupeKey: "debit:" + tx.IdempotencyKey,
		Severity:  SeverityWarning,
		Title:     "Large unplanned debit",
		Message:   fmt.Sprintf("%s charged %s on %s", tx.Payee, tx.AmountCents.Abs(), tx.PostedAt),
		Details:   fmt.Sprintf(`{"idempotency_key":%q,"amount_cents":%d,"posted_at":%q}`, tx.IdempotencyKey, int64(tx.AmountCents), tx.PostedAt.String()),
	}, true
}

// CommitmentObservation is one observed cycle of a recurring commitment:
// the actual transaction amount and date matched against it.
type CommitmentObservation struct {
	AmountCents Money
	ObservedAt  Day
	DueDate     Day
}

// DetectCommitmentDrift fires when the last DriftMinConsecutiveCycles
// observations all diverge from the configured commitment by more than
// the configured amount/date tolerance, proposing a smoothed amount (via
// SMA) and the modal date offset.
func DetectCommitmentDrift(c Commitment, observations []CommitmentObservation, thresholds AlertThresholds, now Day) (Alert, bool) {
	n := thresholds.DriftMinConsecutiveCycles
	if n <= 0 {
		n = 3
	}
	if len(observations) < n {
		return Alert{}, false
	}
	recent := observations[len(observations)-n:]

	allDrift := true
	for _, o := range recent {
		amountDiff := o.AmountCents.Sub(c.AmountCents).Abs()
		dateDiff := DaysBetween(c.NextDueDate, o.DueDate)
		if dateDiff < 0 {
			dateDiff = -dateDiff
		}
		if amountDiff <= thresholds.DriftAmountToleranceCents && dateDiff <= thresholds.DriftDateToleranceDays {
			allDrift = false
			break
		}
	}
	if !allDrift {
		return Alert{}, false
	}

	amounts := make([]float64, len(recent))
	for i, o := range recent {
		amounts[i] = float64(o.AmountCents)
	}
	sma := talib.Sma(amounts, n)
	proposedAmount := c.AmountCents
	if last := sma[len(sma)-1]; last == last { // not NaN
		proposedAmount = Money(last)
	}

	offsetCounts := make(map[int]int)
	for _, o := range recent {
		offsetCounts[DaysBetween(c.NextDueDate, o.DueDate)]++
	}
	modalOffset, modalCount := 0, -1
	for off, count := range offsetCounts {
		if count > modalCount {
			modalOffset, modalCount = off, count
		}
	}

	return Alert{
		CreatedAt: now,
		Type:      AlertCommitmentDrift,
		DedupeKey: "commitment:" + string(c.ID),
		Severity:  SeverityInfo,
		Title:     fmt.Sprintf("%s drifted from its configured schedule", c.Name),
		Message:   fmt.Sprintf("Observed amount/date diverged for %d consecutive cycles", n),
		Details: fmt.Sprintf(
			`{"commitment_id":%q,"proposed_amount_cents":%d,"proposed_due_date_offset_days":%d}`,
			c.ID, int64(proposedAmount), modalOffset,
		),
	}, true
}
