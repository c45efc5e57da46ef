// Package tariff interprets tiered time-of-use utility rates: a schedule
// decides which period prices each hour of the year, and each period's tier
// ladder decides which marginal price applies as usage accumulates over a
// billing month.
package tariff

import (
	"fmt"
	"math"
	"time"

	"github.com/chargecost/chargecost/pkg/types"
)

// Structure is a validated, evaluable rate: a total schedule plus one ladder
// per period, with baseline-relative ceilings already resolved to absolute
// kWh so the evaluation loop never recomputes them.
type Structure struct {
	Label    string
	Schedule Schedule
	Ladders  []Ladder
}

// Compile validates a catalog record and builds its Structure. Malformed
// records are rejected here, before any hour is priced.
func Compile(rec types.RateRecord) (*Structure, error) {
	if len(rec.EnergyRateStructure) == 0 {
		return nil, fmt.Errorf("record has no energy rate structure")
	}

	sched, err := NewSchedule(rec.EnergyWeekdaySchedule, rec.EnergyWeekendSchedule)
	if err != nil {
		return nil, err
	}

	ladders := make([]Ladder, len(rec.EnergyRateStructure))
	for p, tiers := range rec.EnergyRateStructure {
		ladder := make(Ladder, 0, len(tiers))
		for i, t := range tiers {
			if t.Rate == nil {
				return nil, &LadderInvariantError{Period: p, Tier: i, Reason: "missing rate"}
			}
			rate := *t.Rate
			if t.Adj != nil {
				rate += *t.Adj
			}
			ceiling := math.Inf(1)
			switch {
			case t.Max != nil:
				ceiling = *t.Max
			case t.BaselineMultiplier != nil:
				if rec.BaselineQuantity == nil {
					return nil, fmt.Errorf("period %d tier %d: %w", p, i, ErrMissingBaseline)
				}
				ceiling = *t.BaselineMultiplier * *rec.BaselineQuantity
			}
			ladder = append(ladder, Tier{Ceiling: ceiling, Rate: rate})
		}
		if err := ladder.Validate(p); err != nil {
			return nil, err
		}
		ladders[p] = ladder
	}

	// the schedule must be total over periods that actually have ladders
	for month := time.January; month <= time.December; month++ {
		for _, day := range types.DayTypes {
			for hour := 0; hour < 24; hour++ {
				p, err := sched.Resolve(month, day, hour)
				if err != nil {
					return nil, err
				}
				if p < 0 || p >= len(ladders) {
					return nil, &ScheduleGapError{Month: month, Day: day, Hour: hour}
				}
			}
		}
	}

	return &Structure{Label: rec.Label, Schedule: sched, Ladders: ladders}, nil
}
