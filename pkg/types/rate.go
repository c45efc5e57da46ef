package types

import (
	"strings"
	"time"
)

// RateRecord is one utility rate as returned by the catalog API. Field names
// follow the catalog's JSON keys. Optional numeric fields are pointers so
// absence can be told apart from zero.
type RateRecord struct {
	Label       string `json:"label"`
	Utility     string `json:"utility"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// EndDate is the unix timestamp (seconds) the rate stops being offered.
	// Zero means no end date was published.
	EndDate int64 `json:"enddate,omitempty"`

	// Source is the utility's own tariff document; URI is the catalog page.
	Source string `json:"source,omitempty"`
	URI    string `json:"uri,omitempty"`

	// FixedMonthlyCharge is reported as metadata alongside computed costs and
	// is never folded into the energy cost.
	FixedMonthlyCharge *float64 `json:"fixedmonthlycharge,omitempty"`

	// BaselineQuantity is the customer-class usage allowance (kWh per billing
	// month) that baseline-relative tier ceilings are multiples of.
	BaselineQuantity *float64 `json:"baselinequantity,omitempty"`

	// EnergyRateStructure holds one tier list per rate period.
	EnergyRateStructure [][]RateTier `json:"energyratestructure,omitempty"`

	// EnergyWeekdaySchedule and EnergyWeekendSchedule are 12x24 matrices of
	// period indices into EnergyRateStructure.
	EnergyWeekdaySchedule [][]int `json:"energyweekdayschedule,omitempty"`
	EnergyWeekendSchedule [][]int `json:"energyweekendschedule,omitempty"`
}

// RateTier is one band of a period's tiered price table. A tier's ceiling is
// Max (absolute kWh) or BaselineMultiplier times the record's
// BaselineQuantity; a tier with neither is unbounded.
type RateTier struct {
	Max                *float64 `json:"max,omitempty"`
	BaselineMultiplier *float64 `json:"baselinemultiplier,omitempty"`
	Rate               *float64 `json:"rate,omitempty"`
	Adj                *float64 `json:"adj,omitempty"`
	Unit               string   `json:"unit,omitempty"`
}

// EndDateTime returns the rate's end date, if one was published.
func (r RateRecord) EndDateTime() (time.Time, bool) {
	if r.EndDate == 0 {
		return time.Time{}, false
	}
	return time.Unix(r.EndDate, 0), true
}

// EVDedicated reports whether the rate meters vehicle charging separately
// from household load. Such rates are evaluated against the charging profile
// alone rather than layered on top of the baseline.
func (r RateRecord) EVDedicated() bool {
	return strings.Contains(r.Name, "EV") ||
		strings.Contains(strings.ToLower(r.Name), "electric vehicle")
}
