package tariff

import "math"

// Tier is one band of a ladder: Rate applies to cumulative monthly usage up
// through Ceiling. The final tier of a valid ladder has Ceiling = +Inf.
type Tier struct {
	Ceiling float64
	Rate    float64
}

// Unbounded reports whether the tier absorbs all remaining usage.
func (t Tier) Unbounded() bool {
	return math.IsInf(t.Ceiling, 1)
}

// Ladder is the ordered tier list for one rate period. A valid ladder has
// strictly increasing ceilings and an unbounded final tier, so together the
// tiers price every cumulative usage in [0, inf) with no gaps.
type Ladder []Tier

// Validate checks the ladder invariants. period only labels the error.
func (l Ladder) Validate(period int) error {
	if len(l) == 0 {
		return &LadderInvariantError{Period: period, Reason: "empty ladder"}
	}
	prev := 0.0
	for i, t := range l {
		if t.Unbounded() {
			if i != len(l)-1 {
				return &LadderInvariantError{Period: period, Tier: i, Reason: "unbounded tier before the last"}
			}
			continue
		}
		if t.Ceiling <= prev {
			return &LadderInvariantError{Period: period, Tier: i, Reason: "ceilings not strictly increasing"}
		}
		prev = t.Ceiling
	}
	if !l[len(l)-1].Unbounded() {
		return &LadderInvariantError{Period: period, Tier: len(l) - 1, Reason: "no unbounded final tier"}
	}
	return nil
}

// Allocate prices an additional increment of usage given that prior has
// already accumulated this billing month in this ladder's period. The
// increment is split across tier boundaries and only the increment is
// priced; a zero increment costs zero. Tiers with identical rates are still
// walked one at a time.
func (l Ladder) Allocate(prior, increment float64) float64 {
	var cost float64
	remaining := increment
	prev := 0.0
	for _, t := range l {
		if remaining <= 0 {
			break
		}
		portion := math.Min(t.Ceiling, prior+remaining) - math.Max(prior, prev)
		if portion > 0 {
			cost += portion * t.Rate
			remaining -= portion
		}
		prev = t.Ceiling
	}
	return cost
}
