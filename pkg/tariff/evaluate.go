package tariff

import (
	"time"

	"github.com/chargecost/chargecost/pkg/profile"
)

// Evaluate prices an hourly profile under the rate and returns the total in
// dollars. Hours are walked in the profile's chronological order; each
// period accumulates usage in a ledger that resets at month boundaries, so
// tier attribution is cumulative-within-month per period. The ledger lives
// and dies inside this call, which keeps concurrent evaluations of other
// rates fully independent.
//
// Any schedule gap aborts the whole evaluation; a rate that cannot price
// every hour is not evaluable at all.
func (s *Structure) Evaluate(p *profile.Profile) (float64, error) {
	ledger := make([]float64, len(s.Ladders))
	var total float64
	var month time.Month
	for _, h := range p.Hours() {
		if h.Month != month {
			clear(ledger)
			month = h.Month
		}
		period, err := s.Schedule.Resolve(h.Month, h.Day, h.Hour)
		if err != nil {
			return 0, err
		}
		if period < 0 || period >= len(ledger) {
			return 0, &ScheduleGapError{Month: h.Month, Day: h.Day, Hour: h.Hour}
		}
		total += s.Ladders[period].Allocate(ledger[period], h.KWH)
		ledger[period] += h.KWH
	}
	return total, nil
}
