/*
snapshot.go - ForecastSnapshot construction and digest derivation (spec
section 4.8). The payload is msgpack-encoded for compact, deterministic
storage (field order is fixed by struct tags, unlike a Go map), the way
aristath-sentinel persists its own periodic observation payloads; it is
decoded back to JSON only at the HTTP boundary.
*/
package core

import (
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotPayload is the serialized form of a forecast run: the full
// balance series plus the expanded entries that produced it.
type SnapshotPayload struct {
	Balances map[string]int64 `msgpack:"balances"`
	Entries  []EntryPayload   `msgpack:"entries"`
}

type EntryPayload struct {
	Date         string `msgpack:"date"`
	Type         int    `msgpack:"type"`
	Name         string `msgpack:"name"`
	AmountCents  int64  `msgpack:"amount_cents"`
	SourceID     string `msgpack:"source_id"`
	ShiftApplied bool   `msgpack:"shift_applied"`
	Policy       string `msgpack:"policy"`
	UIMarker     string `msgpack:"ui_marker"`
	LeadWindow   bool   `msgpack:"lead_window"`
}

// EncodeSnapshotPayload serializes a balance series and its entries.
func EncodeSnapshotPayload(series BalanceSeries) ([]byte, error) {
	payload := SnapshotPayload{
		Balances: make(map[string]int64, len(series.Dates())),
		Entries:  make([]EntryPayload, 0, len(series.Entries)),
	}
	for _, d := range series.Dates() {
		v, _ := series.At(d)
		payload.Balances[d.String()] = int64(v)
	}
	for _, e := range series.Entries {
		payload.Entries = append(payload.Entries, EntryPayload{
			Date:         e.Date.String(),
			Type:         int(e.Type),
			Name:         e.Name,
			AmountCents:  int64(e.SignedAmountCents),
			SourceID:     e.SourceID,
			ShiftApplied: e.ShiftApplied,
			Policy:       string(e.Policy),
			UIMarker:     e.UIMarker,
			LeadWindow:   e.IsWithinLeadWindow,
		})
	}
	return msgpack.Marshal(payload)
}

// DecodeSnapshotPayload reverses EncodeSnapshotPayload.
func DecodeSnapshotPayload(b []byte) (SnapshotPayload, error) {
	var payload SnapshotPayload
	if err := msgpack.Unmarshal(b, &payload); err != nil {
		return SnapshotPayload{}, err
	}
	return payload, nil
}

// CommitmentDigestEntry is one row of the digest's top_commitments list.
type CommitmentDigestEntry struct {
	CommitmentID CommitmentID
	Name         string
	Date         Day
	AmountCents  Money
	Priority     int
}

// Digest is the compact daily summary derived from the latest snapshot
// (spec 4.8 step 4).
type Digest struct {
	SnapshotCreatedAt     Day
	Stale                 bool
	CurrentBalanceCents   Money
	SafeToSpendTodayCents Money
	NextCliffDate         *Day
	MinBalanceCents       Money
	MinBalanceDate        Day
	TopCommitments        []CommitmentDigestEntry
	KeyEventsInLeadWindow []KeySpendEvent
}

// DeriveDigest builds the digest from a computed series plus the
// commitment/key-event rows used to produce it. commitmentByID supplies
// the priority used to break ties in TopCommitments ordering.
func DeriveDigest(
	snapshotCreatedAt Day,
	stale bool,
	series BalanceSeries,
	today Day,
	bufferFloor Money,
	commitmentByID map[CommitmentID]Commitment,
	keyEvents []KeySpendEvent,
) Digest {
	current, _ := series.At(today)
	minBal, minDate := series.MinBalance()
	cliff, hasCliff := series.NextCliffDate(bufferFloor)
	var cliffPtr *Day
	if hasCliff {
		cliffPtr = &cliff
	}

	horizonEnd := today.AddDays(14)
	var top []CommitmentDigestEntry
	for _, e := range series.Entries {
		if e.Type != EntryCommitment {
			continue
		}
		if e.Date.Before(today) || e.Date.After(horizonEnd) {
			continue
		}
		c := commitmentByID[CommitmentID(e.SourceID)]
		top = append(top, CommitmentDigestEntry{
			CommitmentID: CommitmentID(e.SourceID),
			Name:         e.Name,
			Date:         e.Date,
			AmountCents:  e.SignedAmountCents.Abs(),
			Priority:     c.Priority,
		})
	}
	sort.SliceStable(top, func(i, j int) bool {
		if !top[i].Date.Equal(top[j].Date) {
			return top[i].Date.Before(top[j].Date)
		}
		return top[i].Priority < top[j].Priority
	})

	var upcoming []KeySpendEvent
	for _, ev := range keyEvents {
		if ev.InLeadWindow(today) {
			upcoming = append(upcoming, ev)
		}
	}

	return Digest{
		SnapshotCreatedAt:     snapshotCreatedAt,
		Stale:                 stale,
		CurrentBalanceCents:   current,
		SafeToSpendTodayCents: SafeToSpendToday(series.Opening, series.Start, series.End, today, series.Entries, bufferFloor),
		NextCliffDate:         cliffPtr,
		MinBalanceCents:       minBal,
		MinBalanceDate:        minDate,
		TopCommitments:        top,
		KeyEventsInLeadWindow: upcoming,
	}
}
