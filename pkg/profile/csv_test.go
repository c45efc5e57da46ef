package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargecost/chargecost/pkg/types"
)

func TestLoadCompactCSV(t *testing.T) {
	in := strings.Join([]string{
		"month,hour,weekday_kwh,weekend_kwh",
		"1,0,0.5,0.25",
		"1,1,1.5,0",
		"6,13,2.0,3.0",
	}, "\n")

	c, err := LoadCompactCSV(strings.NewReader(in))
	require.NoError(t, err)

	kwh, ok := c.At(time.January, types.Weekday, 0)
	require.True(t, ok)
	assert.Equal(t, 0.5, kwh)

	kwh, ok = c.At(time.January, types.Weekend, 0)
	require.True(t, ok)
	assert.Equal(t, 0.25, kwh)

	kwh, ok = c.At(time.June, types.Weekday, 13)
	require.True(t, ok)
	assert.Equal(t, 2.0, kwh)

	kwh, ok = c.At(time.June, types.Weekend, 13)
	require.True(t, ok)
	assert.Equal(t, 3.0, kwh)

	// rows not in the file stay unset
	_, ok = c.At(time.June, types.Weekday, 14)
	assert.False(t, ok)
}

func TestLoadCompactCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "empty"},
		{
			"bad month",
			"month,hour,weekday_kwh,weekend_kwh\nxx,0,1,1",
			"line 2: bad month",
		},
		{
			"bad hour",
			"month,hour,weekday_kwh,weekend_kwh\n1,late,1,1",
			"line 2: bad hour",
		},
		{
			"bad weekday kwh",
			"month,hour,weekday_kwh,weekend_kwh\n1,0,one,1",
			"bad weekday kwh",
		},
		{
			"bad weekend kwh",
			"month,hour,weekday_kwh,weekend_kwh\n1,0,1,one",
			"bad weekend kwh",
		},
		{
			"month out of range",
			"month,hour,weekday_kwh,weekend_kwh\n13,0,1,1",
			"line 2: month 13 out of range",
		},
		{
			"hour out of range",
			"month,hour,weekday_kwh,weekend_kwh\n1,24,1,1",
			"line 2: hour 24 out of range",
		},
		{
			"wrong field count",
			"month,hour,weekday_kwh,weekend_kwh\n1,0,1",
			"failed to read",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCompactCSV(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadCompactFile(t *testing.T) {
	var b strings.Builder
	b.WriteString("month,hour,weekday_kwh,weekend_kwh\n")
	for m := 1; m <= 12; m++ {
		for h := 0; h < 24; h++ {
			fmt.Fprintf(&b, "%d,%d,%g,%g\n", m, h, 1.0, 0.5)
		}
	}
	path := filepath.Join(t.TempDir(), "profile.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	c, err := LoadCompactFile(path)
	require.NoError(t, err)

	// a fully covered file expands cleanly
	p, err := c.Expand(2025)
	require.NoError(t, err)
	assert.Len(t, p.Hours(), 8760)
	// 261 weekdays * 24 * 1.0 + 104 weekend days * 24 * 0.5
	assert.InDelta(t, 261*24*1.0+104*24*0.5, p.TotalKWH(), 1e-6)
}

func TestLoadCompactFileMissing(t *testing.T) {
	_, err := LoadCompactFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")
}
