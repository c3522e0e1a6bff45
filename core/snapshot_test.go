package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/core"
)

func TestEncodeDecodeSnapshotPayload_RoundTrips(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 5)
	entries := []core.Entry{
		{Date: core.NewDay(2026, time.January, 3), Type: core.EntryCommitment, Name: "Rent", SignedAmountCents: -150000, SourceID: "rent"},
	}
	series := core.ComputeBalances(core.Money(500000), start, end, entries)

	b, err := core.EncodeSnapshotPayload(series)
	require.NoError(t, err)
	require.NotEmpty(t, b)

	payload, err := core.DecodeSnapshotPayload(b)
	require.NoError(t, err)
	assert.Equal(t, int64(350000), payload.Balances[end.String()])
	require.Len(t, payload.Entries, 1)
	assert.Equal(t, "Rent", payload.Entries[0].Name)
	assert.Equal(t, int64(-150000), payload.Entries[0].AmountCents)
}

func TestDeriveDigest_SummarizesSeriesAndUpcomingCommitments(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 31)
	today := start

	entries := []core.Entry{
		{Date: core.NewDay(2026, time.January, 5), Type: core.EntryCommitment, Name: "Rent", SignedAmountCents: -150000, SourceID: "rent"},
		{Date: core.NewDay(2026, time.January, 20), Type: core.EntryCommitment, Name: "Car loan", SignedAmountCents: -40000, SourceID: "car"},
	}
	series := core.ComputeBalances(core.Money(500000), start, end, entries)

	commitmentByID := map[core.CommitmentID]core.Commitment{
		"rent": {ID: "rent", Priority: 1},
		"car":  {ID: "car", Priority: 2},
	}

	digest := core.DeriveDigest(today, false, series, today, core.Money(0), commitmentByID, nil)
	assert.False(t, digest.Stale)
	assert.Equal(t, core.Money(500000), digest.CurrentBalanceCents)
	require.Len(t, digest.TopCommitments, 1) // car loan on Jan 20 is outside the 14-day window from Jan 1
	assert.Equal(t, "Rent", digest.TopCommitments[0].Name)
}

func TestDeriveDigest_IncludesKeyEventsInLeadWindow(t *testing.T) {
	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 31)
	series := core.ComputeBalances(core.Money(100000), start, end, nil)

	nearEvent := core.KeySpendEvent{ID: "vacation", Name: "Vacation", EventDate: core.NewDay(2026, time.January, 5), LeadTimeDays: 7}
	farEvent := core.KeySpendEvent{ID: "car", Name: "Car repair", EventDate: core.NewDay(2026, time.January, 30), LeadTimeDays: 2}

	digest := core.DeriveDigest(start, false, series, start, core.Money(0), map[core.CommitmentID]core.Commitment{}, []core.KeySpendEvent{nearEvent, farEvent})
	require.Len(t, digest.KeyEventsInLeadWindow, 1)
	assert.Equal(t, core.KeyEventID("vacation"), digest.KeyEventsInLeadWindow[0].ID)
}
