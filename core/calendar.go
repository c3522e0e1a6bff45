/*
calendar.go - the Calendar Expander (spec section 4.4). Materializes a
deterministic dated ledger of scheduled inflows, commitments, and key
spend events across a horizon. Entry is the tagged-variant projection
the spec's design notes call for (inflow/commitment/key_event sharing one
shape) rather than an inheritance hierarchy, matching the teacher's
generic/ledger.go Transaction-as-sum-type convention.
*/
package core

import (
	"sort"
	"strings"
)

type EntryType int

const (
	EntryInflow EntryType = iota
	EntryCommitment
	EntryKeyEvent
)

// Entry is the dated, ordered projection of any calendar source.
type Entry struct {
	Date               Day
	Type               EntryType
	Name               string
	SignedAmountCents  Money
	SourceID           string
	ShiftApplied       bool
	Policy             ShiftPolicy
	UIMarker           string
	IsWithinLeadWindow bool
}

// ExpandCalendar produces the ordered, deterministic entry list across
// [start, end] for the given scheduled inflows, commitments and key
// events.
func ExpandCalendar(start, end Day, inflows []ScheduledInflow, commitments []Commitment, events []KeySpendEvent) ([]Entry, error) {
	var entries []Entry

	for _, in := range inflows {
		rule, err := ParseRule(in.DueRule)
		if err != nil {
			return nil, err
		}
		for _, nominal := range rule.Occurrences(start, end) {
			entries = append(entries, Entry{
				Date:              nominal,
				Type:              EntryInflow,
				Name:              in.Name,
				SignedAmountCents: in.AmountCents.Abs(),
				SourceID:          string(in.ID),
				ShiftApplied:      false,
				Policy:            AsScheduled,
				UIMarker:          "",
			})
		}
	}

	for _, c := range commitments {
		rule, err := ParseRule(c.DueRule)
		if err != nil {
			return nil, err
		}
		for _, nominal := range rule.Occurrences(start, end) {
			shifted, applied := applyShift(nominal, c.ShiftPolicy, c.FlexibleWindowDays)
			entries = append(entries, Entry{
				Date:              shifted,
				Type:              EntryCommitment,
				Name:              c.Name,
				SignedAmountCents: c.AmountCents.Abs().Neg(),
				SourceID:          string(c.ID),
				ShiftApplied:      applied,
				Policy:            c.ShiftPolicy,
				UIMarker:          "\U0001F4C4", // 📄
			})
		}
	}

	for _, ev := range events {
		dates := []Day{ev.EventDate}
		if ev.RepeatRule != "" {
			rule, err := ParseRule(ev.RepeatRule)
			if err != nil {
				return nil, err
			}
			dates = rule.Occurrences(start, end)
		}
		for _, nominal := range dates {
			if nominal.Before(start) || nominal.After(end) {
				continue
			}
			shifted, applied := applyShift(nominal, ev.ShiftPolicy, 0)
			// planned > 0 subtracts, planned < 0 adds: negate either way.
			amount := ev.PlannedAmountCents.Neg()
			entries = append(entries, Entry{
				Date:               shifted,
				Type:               EntryKeyEvent,
				Name:               ev.Name,
				SignedAmountCents:  amount,
				SourceID:           string(ev.ID),
				ShiftApplied:       applied,
				Policy:             ev.ShiftPolicy,
				UIMarker:           keyEventMarker(ev),
				IsWithinLeadWindow: ev.InLeadWindow(start),
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.SourceID < b.SourceID
	})

	return entries, nil
}

// applyShift resolves a nominal date against its shift policy, returning
// the effective date and whether a shift occurred. flexibleWindowDays,
// when > 0, caps how far PREV_BUSINESS_DAY may walk back: if the weekend
// walk would exceed it, the nominal date is used unshifted rather than
// landing outside the configured window.
func applyShift(nominal Day, policy ShiftPolicy, flexibleWindowDays int) (Day, bool) {
	switch policy {
	case PrevBusinessDay:
		shifted := nominal.PrevBusinessDay()
		if shifted.Equal(nominal) {
			return nominal, false
		}
		if flexibleWindowDays > 0 {
			shiftLen := DaysBetween(shifted, nominal)
			if shiftLen > flexibleWindowDays {
				return nominal, false
			}
		}
		return shifted, true
	case NextBusinessDay:
		shifted := nominal.NextBusinessDay()
		return shifted, !shifted.Equal(nominal)
	default:
		return nominal, false
	}
}

// keyEventMarker picks a decorative marker from the event name: pure
// decoration, never read back by forecast math.
func keyEventMarker(ev KeySpendEvent) string {
	name := strings.ToLower(ev.Name)
	switch {
	case strings.Contains(name, "birthday"):
		return "\U0001F382" // 🎂
	case strings.Contains(name, "christmas"), strings.Contains(name, "holiday"):
		return "\U0001F384" // 🎄
	default:
		return "\U0001F3AF" // 🎯
	}
}
