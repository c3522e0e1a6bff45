package core

import "time"

// Day is a calendar day in a fixed zone (UTC), with no time-of-day
// component. All forecast math operates on Day, never on wall-clock
// time.Time, so the engine is a pure function of stored state: see
// generic/time.go in the teacher for the TimePoint precedent this
// generalizes (TimePoint also carried hour/minute granularity we don't
// need here — a forecast day is always whole-day).
type Day struct {
	t time.Time
}

// NewDay constructs a Day from a calendar date, normalized to UTC midnight.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayFromTime truncates a time.Time to its UTC calendar day.
func DayFromTime(t time.Time) Day {
	u := t.UTC()
	return NewDay(u.Year(), u.Month(), u.Day())
}

// ParseDay parses an ISO "YYYY-MM-DD" string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, err
	}
	return DayFromTime(t), nil
}

// Today returns the current UTC calendar day. Its callers are the
// entrypoints (API handlers, the scheduler and the ingestor); forecast
// math itself never calls it (pure functions take "today" as an explicit
// parameter).
func Today() Day { return DayFromTime(time.Now()) }

func (d Day) Time() time.Time { return d.t }
func (d Day) Year() int       { return d.t.Year() }
func (d Day) Month() time.Month { return d.t.Month() }
func (d Day) Num() int        { return d.t.Day() }
func (d Day) Weekday() time.Weekday { return d.t.Weekday() }
func (d Day) IsZero() bool    { return d.t.IsZero() }

func (d Day) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (d Day) IsBusinessDay() bool { return !d.IsWeekend() }

func (d Day) Before(o Day) bool        { return d.t.Before(o.t) }
func (d Day) After(o Day) bool         { return d.t.After(o.t) }
func (d Day) Equal(o Day) bool         { return d.t.Equal(o.t) }
func (d Day) BeforeOrEqual(o Day) bool { return d.Before(o) || d.Equal(o) }
func (d Day) AfterOrEqual(o Day) bool  { return d.After(o) || d.Equal(o) }

func (d Day) AddDays(n int) Day   { return Day{t: d.t.AddDate(0, 0, n)} }
func (d Day) AddMonths(n int) Day { return Day{t: d.t.AddDate(0, n, 0)} }
func (d Day) AddYears(n int) Day  { return Day{t: d.t.AddDate(n, 0, 0)} }

// DaysBetween returns to-from in whole days (may be negative).
func DaysBetween(from, to Day) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

func (d Day) String() string { return d.t.Format("2006-01-02") }

// PrevBusinessDay walks backward (skipping weekends) from d and returns
// the nearest business day on or before d. The walk itself is unbounded;
// any cap on how far a due date may move is applied by the caller
// (the Calendar Expander's applyShift), this is just the walk.
func (d Day) PrevBusinessDay() Day {
	c := d
	for !c.IsBusinessDay() {
		c = c.AddDays(-1)
	}
	return c
}

func (d Day) NextBusinessDay() Day {
	c := d
	for !c.IsBusinessDay() {
		c = c.AddDays(1)
	}
	return c
}

// DayRange returns every Day in [start, end] inclusive.
func DayRange(start, end Day) []Day {
	var days []Day
	for c := start; c.BeforeOrEqual(end); c = c.AddDays(1) {
		days = append(days, c)
	}
	return days
}
