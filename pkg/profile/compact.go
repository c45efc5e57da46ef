package profile

import (
	"fmt"
	"time"

	"github.com/chargecost/chargecost/pkg/types"
)

// Compact holds one average hourly quantity per (month, day type, hour)
// cell, the shape profiles are distributed in: 12 x 2 x 24 = 576 values.
type Compact struct {
	kwh [12][types.NumDayTypes][24]float64
	set [12][types.NumDayTypes][24]bool
}

// Cell identifies one compact profile cell.
type Cell struct {
	Month time.Month
	Day   types.DayType
	Hour  int
}

// CoverageError lists the cells a compact profile is missing. Expansion of
// an incomplete profile fails rather than zero-filling the holes.
type CoverageError struct {
	Missing []Cell
}

func (e *CoverageError) Error() string {
	first := e.Missing[0]
	return fmt.Sprintf("profile missing %d of 576 cells (first: %s %s hour %d)",
		len(e.Missing), first.Month, first.Day, first.Hour)
}

// Zero returns a compact profile with every cell present and zero. Expanding
// it gives the empty-load scenario used for separately metered rates.
func Zero() *Compact {
	var c Compact
	for m := range c.set {
		for d := range c.set[m] {
			for h := range c.set[m][d] {
				c.set[m][d][h] = true
			}
		}
	}
	return &c
}

// Set stores the average kWh for one cell.
func (c *Compact) Set(month time.Month, day types.DayType, hour int, kwh float64) error {
	if month < time.January || month > time.December {
		return fmt.Errorf("month %d out of range", month)
	}
	if !day.Valid() {
		return fmt.Errorf("invalid day type %d", day)
	}
	if hour < 0 || hour > 23 {
		return fmt.Errorf("hour %d out of range", hour)
	}
	c.kwh[month-1][day][hour] = kwh
	c.set[month-1][day][hour] = true
	return nil
}

// At returns the cell's value and whether it has been set.
func (c *Compact) At(month time.Month, day types.DayType, hour int) (float64, bool) {
	if month < time.January || month > time.December || !day.Valid() || hour < 0 || hour > 23 {
		return 0, false
	}
	return c.kwh[month-1][day][hour], c.set[month-1][day][hour]
}

func (c *Compact) coverage() error {
	var missing []Cell
	for m := range c.set {
		for d := range c.set[m] {
			for h := range c.set[m][d] {
				if !c.set[m][d][h] {
					missing = append(missing, Cell{Month: time.Month(m + 1), Day: types.DayType(d), Hour: h})
				}
			}
		}
	}
	if len(missing) > 0 {
		return &CoverageError{Missing: missing}
	}
	return nil
}

// Expand replicates each cell's average across every calendar day of that
// (month, day type) combination in year, producing the full hourly profile
// in chronological order. A missing cell fails the whole expansion.
func (c *Compact) Expand(year int) (*Profile, error) {
	if err := c.coverage(); err != nil {
		return nil, err
	}
	hours := make([]Hour, 0, 366*24)
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Year() == year; d = d.AddDate(0, 0, 1) {
		month := d.Month()
		day := types.DayTypeFor(d.Weekday())
		for hr := 0; hr < 24; hr++ {
			hours = append(hours, Hour{
				Month: month,
				Day:   day,
				Hour:  hr,
				KWH:   c.kwh[month-1][day][hr],
			})
		}
	}
	return &Profile{hours: hours}, nil
}
