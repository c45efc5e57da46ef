package tariff

import (
	"time"

	"github.com/chargecost/chargecost/pkg/types"
)

// Schedule assigns a period index to every (month, day type, hour) of the
// year. The weekday and weekend matrices come straight from the catalog
// record.
type Schedule struct {
	periods [12][types.NumDayTypes][24]int
}

// NewSchedule builds a schedule from 12x24 weekday and weekend matrices. A
// missing or short row is reported as a gap at the first absent cell.
func NewSchedule(weekday, weekend [][]int) (Schedule, error) {
	var s Schedule
	matrices := [types.NumDayTypes][][]int{weekday, weekend}
	for _, day := range types.DayTypes {
		m := matrices[day]
		for monthIdx := 0; monthIdx < 12; monthIdx++ {
			if monthIdx >= len(m) {
				return Schedule{}, &ScheduleGapError{Month: time.Month(monthIdx + 1), Day: day}
			}
			row := m[monthIdx]
			for hour := 0; hour < 24; hour++ {
				if hour >= len(row) {
					return Schedule{}, &ScheduleGapError{Month: time.Month(monthIdx + 1), Day: day, Hour: hour}
				}
				s.periods[monthIdx][day][hour] = row[hour]
			}
		}
	}
	return s, nil
}

// Resolve returns the period index for the triple. Pure lookup; a triple
// outside the declared domain is a gap, never a defaulted period.
func (s Schedule) Resolve(month time.Month, day types.DayType, hour int) (int, error) {
	if month < time.January || month > time.December || !day.Valid() || hour < 0 || hour > 23 {
		return 0, &ScheduleGapError{Month: month, Day: day, Hour: hour}
	}
	return s.periods[month-1][day][hour], nil
}
