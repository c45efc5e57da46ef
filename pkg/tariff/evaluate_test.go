package tariff

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargecost/chargecost/pkg/profile"
	"github.com/chargecost/chargecost/pkg/types"
)

func testStructure(t *testing.T, weekday, weekend [][]int, ladders ...Ladder) *Structure {
	t.Helper()
	sched, err := NewSchedule(weekday, weekend)
	require.NoError(t, err)
	return &Structure{Label: "test", Schedule: sched, Ladders: ladders}
}

func TestEvaluateFlatRate(t *testing.T) {
	s := testStructure(t, uniformMatrix(0), uniformMatrix(0),
		Ladder{{Ceiling: math.Inf(1), Rate: 0.10}})

	// one weekday, 1 kWh every hour: 24 * 1 * 0.10 = 2.40
	hours := make([]profile.Hour, 0, 24)
	for h := 0; h < 24; h++ {
		hours = append(hours, profile.Hour{Month: time.January, Day: types.Weekday, Hour: h, KWH: 1})
	}
	cost, err := s.Evaluate(profile.FromHours(hours))
	require.NoError(t, err)
	assert.InDelta(t, 2.40, cost, 1e-9)
}

func TestEvaluateTieredSplitInvariance(t *testing.T) {
	// 0-100 kWh @ $0.10, above @ $0.20: 150 kWh in a month is always
	// 100*0.10 + 50*0.20 = 20.00 no matter how the hours split it
	s := testStructure(t, uniformMatrix(0), uniformMatrix(0),
		Ladder{{Ceiling: 100, Rate: 0.10}, {Ceiling: math.Inf(1), Rate: 0.20}})

	tests := []struct {
		name string
		kwhs []float64
	}{
		{"single hour", []float64{150}},
		{"two even hours", []float64{75, 75}},
		{"boundary-straddling hours", []float64{99, 1, 50}},
		{"many small hours", []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hours := make([]profile.Hour, len(tt.kwhs))
			for i, kwh := range tt.kwhs {
				hours[i] = profile.Hour{Month: time.March, Day: types.Weekday, Hour: i, KWH: kwh}
			}
			cost, err := s.Evaluate(profile.FromHours(hours))
			require.NoError(t, err)
			assert.InDelta(t, 20.00, cost, 1e-9)
		})
	}
}

func TestEvaluateTimeOfUse(t *testing.T) {
	// weekday 12:00-17:59 is on-peak @ $0.30, everything else @ $0.10
	weekday := uniformMatrix(0)
	for m := range weekday {
		for h := 12; h < 18; h++ {
			weekday[m][h] = 1
		}
	}
	s := testStructure(t, weekday, uniformMatrix(0),
		Ladder{{Ceiling: math.Inf(1), Rate: 0.10}},
		Ladder{{Ceiling: math.Inf(1), Rate: 0.30}})

	// 10 kWh on-peak + 20 kWh off-peak: 10*0.30 + 20*0.10 = 5.00
	hours := []profile.Hour{
		{Month: time.June, Day: types.Weekday, Hour: 2, KWH: 8},
		{Month: time.June, Day: types.Weekday, Hour: 13, KWH: 4},
		{Month: time.June, Day: types.Weekday, Hour: 15, KWH: 6},
		{Month: time.June, Day: types.Weekday, Hour: 22, KWH: 12},
	}
	cost, err := s.Evaluate(profile.FromHours(hours))
	require.NoError(t, err)
	assert.InDelta(t, 5.00, cost, 1e-9)

	// weekends stay off-peak even during the on-peak hours
	weekendHours := []profile.Hour{
		{Month: time.June, Day: types.Weekend, Hour: 13, KWH: 10},
	}
	cost, err = s.Evaluate(profile.FromHours(weekendHours))
	require.NoError(t, err)
	assert.InDelta(t, 1.00, cost, 1e-9)
}

func TestEvaluateMonthlyReset(t *testing.T) {
	s := testStructure(t, uniformMatrix(0), uniformMatrix(0),
		Ladder{{Ceiling: 100, Rate: 0.10}, {Ceiling: math.Inf(1), Rate: 0.20}})

	// December: 100*0.10 + 50*0.20 = 20.00
	// January starts a fresh ladder: 50*0.10 = 5.00
	hours := []profile.Hour{
		{Month: time.December, Day: types.Weekday, Hour: 0, KWH: 150},
		{Month: time.January, Day: types.Weekday, Hour: 0, KWH: 50},
	}
	cost, err := s.Evaluate(profile.FromHours(hours))
	require.NoError(t, err)
	assert.InDelta(t, 25.00, cost, 1e-9)
}

func TestEvaluatePerPeriodLedgers(t *testing.T) {
	// morning and evening periods share a ladder shape but accumulate
	// usage independently
	weekday := uniformMatrix(0)
	for m := range weekday {
		for h := 12; h < 24; h++ {
			weekday[m][h] = 1
		}
	}
	ladder := Ladder{{Ceiling: 10, Rate: 1.00}, {Ceiling: math.Inf(1), Rate: 2.00}}
	s := testStructure(t, weekday, uniformMatrix(0), ladder, ladder)

	// 15 kWh in each period: 2 * (10*1.00 + 5*2.00) = 40.00; a shared
	// ledger would have priced 10*1.00 + 20*2.00 = 50.00
	hours := []profile.Hour{
		{Month: time.April, Day: types.Weekday, Hour: 3, KWH: 15},
		{Month: time.April, Day: types.Weekday, Hour: 14, KWH: 15},
	}
	cost, err := s.Evaluate(profile.FromHours(hours))
	require.NoError(t, err)
	assert.InDelta(t, 40.00, cost, 1e-9)
}

func TestEvaluateAborts(t *testing.T) {
	t.Run("hour outside schedule domain", func(t *testing.T) {
		s := testStructure(t, uniformMatrix(0), uniformMatrix(0),
			Ladder{{Ceiling: math.Inf(1), Rate: 0.10}})
		hours := []profile.Hour{
			{Month: time.May, Day: types.Weekday, Hour: 24, KWH: 1},
		}
		_, err := s.Evaluate(profile.FromHours(hours))
		var gap *ScheduleGapError
		require.ErrorAs(t, err, &gap)
		assert.Equal(t, 24, gap.Hour)
	})

	t.Run("period without a ladder", func(t *testing.T) {
		// built by hand so the schedule can point past the ladder slice
		sched, err := NewSchedule(uniformMatrix(1), uniformMatrix(1))
		require.NoError(t, err)
		s := &Structure{Schedule: sched, Ladders: []Ladder{{{Ceiling: math.Inf(1), Rate: 0.10}}}}

		hours := []profile.Hour{
			{Month: time.May, Day: types.Weekend, Hour: 6, KWH: 1},
		}
		_, err = s.Evaluate(profile.FromHours(hours))
		var gap *ScheduleGapError
		require.ErrorAs(t, err, &gap)
		assert.Equal(t, time.May, gap.Month)
		assert.Equal(t, types.Weekend, gap.Day)
	})
}

func TestEvaluateEmptyProfile(t *testing.T) {
	s := testStructure(t, uniformMatrix(0), uniformMatrix(0),
		Ladder{{Ceiling: math.Inf(1), Rate: 0.10}})
	cost, err := s.Evaluate(profile.FromHours(nil))
	require.NoError(t, err)
	assert.Zero(t, cost)
}
