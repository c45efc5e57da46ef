package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/chargecost/chargecost/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// Exclusion reasons recorded alongside filtered records. The strings are
// part of the output format and must not change.
const (
	ReasonMissingEnergyStructure = "missing energy structure"
	ReasonEndDate                = "end date"
	ReasonKeyword                = "keyword"
	ReasonUnits                  = "units"
	ReasonMissingRate            = "missing rate"
	ReasonTierStructure          = "non-conforming tier structure"
)

// defaultKeywords excludes rate names that are not household service even
// when the catalog classifies them as residential.
var defaultKeywords = []string{
	"lighting",
	"street",
	"outdoor",
	"lamp",
	"traffic",
	"irrigation",
	"pump",
	"agricultural",
	"billboard",
}

// Filter decides which rate records are eligible for evaluation. Checks run
// in a fixed order and the first failing check names the exclusion reason.
type Filter struct {
	keywords []string
	now      func() time.Time
}

// NewFilter returns a Filter using the given keyword list (nil means the
// default list) and clock (nil means time.Now).
func NewFilter(keywords []string, now func() time.Time) *Filter {
	if keywords == nil {
		keywords = defaultKeywords
	}
	if now == nil {
		now = time.Now
	}
	return &Filter{keywords: keywords, now: now}
}

// ConfiguredFilter sets up flags for the record filter and returns the
// instance.
func ConfiguredFilter() *Filter {
	f := &Filter{now: time.Now}
	keywords := defaultKeywords
	lflag.JSON(&keywords, "filter-keywords", keywords, "JSON array of rate name keywords that exclude a record (case-insensitive)")

	lflag.Do(func() {
		f.keywords = keywords
	})

	return f
}

// Exclude returns the reason rec cannot be evaluated. ok is false when the
// record is eligible.
func (f *Filter) Exclude(rec types.RateRecord) (reason string, ok bool) {
	switch {
	case len(rec.EnergyRateStructure) == 0:
		return ReasonMissingEnergyStructure, true
	case f.expired(rec):
		return ReasonEndDate, true
	case f.keywordMatch(rec):
		return ReasonKeyword, true
	case !monthlyUnits(rec):
		return ReasonUnits, true
	case missingRate(rec):
		return ReasonMissingRate, true
	case !conformingTiers(rec):
		return ReasonTierStructure, true
	}
	return "", false
}

// expired reports whether the rate stopped being offered. A negative end
// date is malformed and treated as expired.
func (f *Filter) expired(rec types.RateRecord) bool {
	if rec.EndDate < 0 {
		return true
	}
	end, ok := rec.EndDateTime()
	if !ok {
		return false
	}
	return end.Before(f.now())
}

func (f *Filter) keywordMatch(rec types.RateRecord) bool {
	name := strings.ToLower(rec.Name)
	for _, keyword := range f.keywords {
		if strings.Contains(name, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// monthlyUnits reports whether every tier ceiling is denominated in monthly
// kWh. An absent unit means kWh. Per-day ceilings ("kWh daily") cannot be
// priced by the monthly ledger, so they fail this check.
func monthlyUnits(rec types.RateRecord) bool {
	for _, period := range rec.EnergyRateStructure {
		for _, tier := range period {
			if tier.Max == nil && tier.BaselineMultiplier == nil {
				continue
			}
			if tier.Unit != "" && tier.Unit != "kWh" {
				return false
			}
		}
	}
	return true
}

func missingRate(rec types.RateRecord) bool {
	for _, period := range rec.EnergyRateStructure {
		for _, tier := range period {
			if tier.Rate == nil {
				return true
			}
		}
	}
	return false
}

// conformingTiers reports whether, for every month, the periods that month's
// schedules reference agree on tier structure: every period carries the same
// number of tiers, and each tier's ceiling matches the ceiling the
// lowest-numbered period declares. Ceilings that cannot be compared (some
// periods declare one where the lowest-numbered period does not) are
// non-conforming. Periods with a single tier have no ceilings to compare and
// are skipped.
func conformingTiers(rec types.RateRecord) bool {
	for month := 0; month < 12; month++ {
		periods := monthPeriods(rec, month)
		if len(periods) == 0 {
			continue
		}

		numTiers := 0
		for _, p := range periods {
			if n := len(rec.EnergyRateStructure[p]); n > numTiers {
				numTiers = n
			}
		}
		for _, p := range periods {
			if len(rec.EnergyRateStructure[p]) != numTiers {
				return false
			}
		}

		lowest := periods[0]
		for tier := 0; tier < numTiers; tier++ {
			ceilings := make(map[int]float64)
			for _, p := range periods {
				if len(rec.EnergyRateStructure[p]) == 1 {
					continue
				}
				if max := rec.EnergyRateStructure[p][tier].Max; max != nil {
					ceilings[p] = *max
				}
			}
			if len(ceilings) == 0 {
				continue
			}
			want, ok := ceilings[lowest]
			if !ok {
				return false
			}
			for _, c := range ceilings {
				if c != want {
					return false
				}
			}
		}
	}
	return true
}

// monthPeriods returns the sorted set of period indices the month's weekday
// and weekend schedule rows reference. Indices outside the rate structure
// are dropped here; the compiler reports them as schedule gaps.
func monthPeriods(rec types.RateRecord, month int) []int {
	seen := make(map[int]bool)
	for _, schedule := range [][][]int{rec.EnergyWeekdaySchedule, rec.EnergyWeekendSchedule} {
		if month >= len(schedule) {
			continue
		}
		for _, p := range schedule[month] {
			if p >= 0 && p < len(rec.EnergyRateStructure) {
				seen[p] = true
			}
		}
	}
	periods := make([]int, 0, len(seen))
	for p := range seen {
		periods = append(periods, p)
	}
	sort.Ints(periods)
	return periods
}
