package types

import "time"

// Result is the evaluated annual cost of one rate against the configured
// profiles.
type Result struct {
	Label           string `json:"label"`
	Utility         string `json:"utility"`
	RateName        string `json:"rateName"`
	RateDescription string `json:"rateDescription,omitempty"`
	RateEndDate     int64  `json:"rateEndDate,omitempty"`
	SourceURL       string `json:"sourceURL,omitempty"`
	CatalogURL      string `json:"catalogURL,omitempty"`

	FixedMonthlyCharge *float64 `json:"fixedMonthlyCharge,omitempty"`

	// BaselineCost and CombinedCost are the annual dollar totals for the
	// baseline and baseline-plus-charging scenarios. EVChargingCost is their
	// difference, the incremental cost of charging under this rate.
	BaselineCost   float64 `json:"baselineCost"`
	CombinedCost   float64 `json:"combinedCost"`
	EVChargingCost float64 `json:"evChargingCost"`

	// ChargingOnly marks rates that meter the vehicle separately; for those
	// BaselineCost is zero and CombinedCost covers the charging profile alone.
	ChargingOnly bool `json:"chargingOnly,omitempty"`
}

// FilteredRecord is a rate that was excluded before or during evaluation,
// with the reason it was excluded.
type FilteredRecord struct {
	Label           string `json:"label"`
	Utility         string `json:"utility"`
	RateName        string `json:"rateName"`
	RateDescription string `json:"rateDescription,omitempty"`
	RateEndDate     int64  `json:"rateEndDate,omitempty"`
	SourceURL       string `json:"sourceURL,omitempty"`
	CatalogURL      string `json:"catalogURL,omitempty"`

	Reason string `json:"reason"`
}

// Run is one whole-catalog evaluation.
type Run struct {
	ID       string    `json:"id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	RecordCount   int `json:"recordCount"`
	ResultCount   int `json:"resultCount"`
	FilteredCount int `json:"filteredCount"`

	Results  []Result         `json:"results"`
	Filtered []FilteredRecord `json:"filtered"`
}
