package types

import "time"

// DayType distinguishes weekday hours from weekend hours. Tariff schedules
// and consumption profiles are both addressed by (month, day type, hour).
type DayType int

const (
	Weekday DayType = iota
	Weekend
)

// NumDayTypes sizes arrays indexed by DayType.
const NumDayTypes = 2

// DayTypes lists the valid day types in addressing order.
var DayTypes = [NumDayTypes]DayType{Weekday, Weekend}

func (d DayType) String() string {
	switch d {
	case Weekday:
		return "weekday"
	case Weekend:
		return "weekend"
	}
	return "unknown"
}

// Valid reports whether d is one of the declared day types.
func (d DayType) Valid() bool {
	return d == Weekday || d == Weekend
}

// DayTypeFor buckets a calendar day of the week. Saturday and Sunday are
// weekend, everything else is weekday.
func DayTypeFor(wd time.Weekday) DayType {
	if wd == time.Saturday || wd == time.Sunday {
		return Weekend
	}
	return Weekday
}
