package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/core"
)

func TestParseDay_RoundTrip(t *testing.T) {
	d, err := core.ParseDay("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", d.String())
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 15, d.Num())
}

func TestDay_AddDays(t *testing.T) {
	d := core.NewDay(2026, time.January, 31)
	assert.Equal(t, core.NewDay(2026, time.February, 1), d.AddDays(1))
}

func TestDay_Ordering(t *testing.T) {
	a := core.NewDay(2026, time.January, 1)
	b := core.NewDay(2026, time.January, 2)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.BeforeOrEqual(a))
	assert.True(t, a.AfterOrEqual(a))
	assert.False(t, b.Before(a))
}

func TestDaysBetween(t *testing.T) {
	a := core.NewDay(2026, time.January, 1)
	b := core.NewDay(2026, time.January, 11)
	assert.Equal(t, 10, core.DaysBetween(a, b))
	assert.Equal(t, -10, core.DaysBetween(b, a))
}

func TestDay_IsWeekend(t *testing.T) {
	saturday := core.NewDay(2026, time.August, 1)
	monday := core.NewDay(2026, time.August, 3)
	assert.True(t, saturday.IsWeekend())
	assert.False(t, monday.IsWeekend())
	assert.True(t, monday.IsBusinessDay())
}

func TestDay_PrevBusinessDay_SkipsWeekend(t *testing.T) {
	sunday := core.NewDay(2026, time.August, 2)
	assert.Equal(t, core.NewDay(2026, time.July, 31), sunday.PrevBusinessDay())
}
