package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargecost/chargecost/pkg/types"
)

func TestTotalKWH(t *testing.T) {
	p := FromHours([]Hour{
		{Month: time.January, Day: types.Weekday, Hour: 0, KWH: 1.5},
		{Month: time.January, Day: types.Weekday, Hour: 1, KWH: 2.5},
		{Month: time.February, Day: types.Weekend, Hour: 8, KWH: 6},
	})
	assert.InDelta(t, 10.0, p.TotalKWH(), 1e-12)
	assert.Zero(t, FromHours(nil).TotalKWH())
}

func TestCombine(t *testing.T) {
	base := FromHours([]Hour{
		{Month: time.January, Day: types.Weekday, Hour: 0, KWH: 1},
		{Month: time.January, Day: types.Weekday, Hour: 1, KWH: 2},
	})
	charging := FromHours([]Hour{
		{Month: time.January, Day: types.Weekday, Hour: 0, KWH: 0},
		{Month: time.January, Day: types.Weekday, Hour: 1, KWH: 7},
	})

	combined, err := Combine(base, charging)
	require.NoError(t, err)
	hours := combined.Hours()
	require.Len(t, hours, 2)
	assert.InDelta(t, 1.0, hours[0].KWH, 1e-12)
	assert.InDelta(t, 9.0, hours[1].KWH, 1e-12)
	// addressing is carried through untouched
	assert.Equal(t, time.January, hours[1].Month)
	assert.Equal(t, types.Weekday, hours[1].Day)
	assert.Equal(t, 1, hours[1].Hour)

	// inputs are not mutated
	assert.InDelta(t, 2.0, base.Hours()[1].KWH, 1e-12)
}

func TestCombineMismatch(t *testing.T) {
	t.Run("length", func(t *testing.T) {
		a := FromHours([]Hour{{Month: time.January, Day: types.Weekday, Hour: 0, KWH: 1}})
		b := FromHours(nil)
		_, err := Combine(a, b)
		assert.Error(t, err)
	})

	t.Run("addressing", func(t *testing.T) {
		a := FromHours([]Hour{{Month: time.January, Day: types.Weekday, Hour: 0, KWH: 1}})
		b := FromHours([]Hour{{Month: time.January, Day: types.Weekday, Hour: 5, KWH: 1}})
		_, err := Combine(a, b)
		assert.Error(t, err)
	})
}
