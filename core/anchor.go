/*
anchor.go - the Anchor Resolver (spec section 4.3). Pure function of
stored state: given an as-of date and account set, returns the opening
balance. Grounded on the teacher's generic/balance.go BalanceCalculator,
which also composes a starting point with deltas over a range rather than
replaying the full transaction history every time.
*/
package core

import "context"

// ClearedSummer sums cleared transaction amounts for an account over a
// half-open-on-one-side date range, matching the two range shapes the
// resolver needs: (from, through] when from != nil, or (-inf, through]
// when from == nil.
type ClearedSummer interface {
	SumCleared(ctx context.Context, account AccountID, from *Day, through Day) (Money, error)
}

// AnchorLookup resolves the configured anchor for an account, if any.
type AnchorLookup interface {
	AnchorFor(account AccountID) (AccountAnchor, bool, error)
}

// Opening computes the opening balance at asOf across every account in
// accounts, per spec 4.3:
//
//	anchor exists, asOf >= anchor date: anchor.balance + sum(cleared in (anchor_date, asOf])
//	anchor exists, asOf <  anchor date: anchor.balance - sum(cleared in (asOf, anchor_date])
//	no anchor: sum(cleared in (-inf, asOf])
func Opening(ctx context.Context, anchors AnchorLookup, sums ClearedSummer, asOf Day, accounts []AccountID) (Money, error) {
	var total Money
	for _, acct := range accounts {
		bal, err := openingForAccount(ctx, anchors, sums, asOf, acct)
		if err != nil {
			return 0, err
		}
		total = total.Add(bal)
	}
	return total, nil
}

func openingForAccount(ctx context.Context, anchors AnchorLookup, sums ClearedSummer, asOf Day, acct AccountID) (Money, error) {
	anchor, ok, err := anchors.AnchorFor(acct)
	if err != nil {
		return 0, err
	}
	if !ok {
		total, err := sums.SumCleared(ctx, acct, nil, asOf)
		if err != nil {
			return 0, err
		}
		return total, nil
	}

	d0 := anchor.AnchorDate
	if asOf.AfterOrEqual(d0) {
		delta, err := sums.SumCleared(ctx, acct, &d0, asOf)
		if err != nil {
			return 0, err
		}
		return anchor.AnchorBalanceCents.Add(delta), nil
	}

	delta, err := sums.SumCleared(ctx, acct, &asOf, d0)
	if err != nil {
		return 0, err
	}
	return anchor.AnchorBalanceCents.Sub(delta), nil
}
