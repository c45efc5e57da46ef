// Package profile builds the hourly consumption profiles the evaluator
// prices: compact (month, day type, hour) averages expanded over a calendar
// year, and the combination of baseline and charging loads.
package profile

import (
	"fmt"
	"time"

	"github.com/chargecost/chargecost/pkg/types"
)

// DefaultYear is the representative year profiles are expanded over unless
// one is configured.
const DefaultYear = 2025

// Hour is one calendar hour of consumption.
type Hour struct {
	Month time.Month
	Day   types.DayType
	Hour  int
	KWH   float64
}

// Profile is a year (or any contiguous span) of hourly consumption in strict
// chronological order. Built once per scenario and read-only afterwards.
type Profile struct {
	hours []Hour
}

// FromHours wraps pre-laid-out hours. The caller is responsible for
// chronological ordering.
func FromHours(hours []Hour) *Profile {
	return &Profile{hours: hours}
}

// Hours returns the profile's hours in chronological order. Callers must not
// modify the returned slice.
func (p *Profile) Hours() []Hour {
	return p.hours
}

// TotalKWH sums the whole profile.
func (p *Profile) TotalKWH() float64 {
	var sum float64
	for _, h := range p.hours {
		sum += h.KWH
	}
	return sum
}

// Combine sums two profiles hour-for-hour to build the combined scenario.
// Both profiles must share the same hour addressing.
func Combine(a, b *Profile) (*Profile, error) {
	if len(a.hours) != len(b.hours) {
		return nil, fmt.Errorf("profiles cover %d and %d hours", len(a.hours), len(b.hours))
	}
	hours := make([]Hour, len(a.hours))
	for i, ha := range a.hours {
		hb := b.hours[i]
		if ha.Month != hb.Month || ha.Day != hb.Day || ha.Hour != hb.Hour {
			return nil, fmt.Errorf("profiles disagree at hour %d: %s %s %d vs %s %s %d",
				i, ha.Month, ha.Day, ha.Hour, hb.Month, hb.Day, hb.Hour)
		}
		hours[i] = Hour{Month: ha.Month, Day: ha.Day, Hour: ha.Hour, KWH: ha.KWH + hb.KWH}
	}
	return &Profile{hours: hours}, nil
}
