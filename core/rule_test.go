package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/core"
)

func TestParseRule_FixedDate(t *testing.T) {
	r, err := core.ParseRule("fixed_date(2026-05-01)")
	require.NoError(t, err)
	assert.Equal(t, core.RuleFixedDate, r.Kind)

	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.December, 31)
	occ := r.Occurrences(start, end)
	require.Len(t, occ, 1)
	assert.Equal(t, core.NewDay(2026, time.May, 1), occ[0])
}

func TestParseRule_MonthlyOn(t *testing.T) {
	r, err := core.ParseRule("monthly_on(15)")
	require.NoError(t, err)

	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.March, 31)
	occ := r.Occurrences(start, end)
	require.Len(t, occ, 3)
	assert.Equal(t, core.NewDay(2026, time.January, 15), occ[0])
	assert.Equal(t, core.NewDay(2026, time.February, 15), occ[1])
	assert.Equal(t, core.NewDay(2026, time.March, 15), occ[2])
}

func TestParseRule_EveryNDays(t *testing.T) {
	r, err := core.ParseRule("every_n_days(14, 2026-01-01)")
	require.NoError(t, err)

	start := core.NewDay(2026, time.January, 1)
	end := core.NewDay(2026, time.January, 29)
	occ := r.Occurrences(start, end)
	assert.Equal(t, []core.Day{
		core.NewDay(2026, time.January, 1),
		core.NewDay(2026, time.January, 15),
		core.NewDay(2026, time.January, 29),
	}, occ)
}

func TestParseRule_Malformed(t *testing.T) {
	_, err := core.ParseRule("not_a_rule")
	assert.Error(t, err)
	var ve *core.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestParseRule_UnknownKind(t *testing.T) {
	_, err := core.ParseRule("bogus_kind(1)")
	assert.Error(t, err)
}
