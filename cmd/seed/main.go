// Command seed fills the configured store (by default the firestore
// emulator) with one synthetic run so the server has something to serve
// during development.
package main

import (
	"context"
	"math"
	"os"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/chargecost/chargecost/pkg/catalog"
	"github.com/chargecost/chargecost/pkg/log"
	"github.com/chargecost/chargecost/pkg/pipeline"
	"github.com/chargecost/chargecost/pkg/profile"
	"github.com/chargecost/chargecost/pkg/storage"
	"github.com/chargecost/chargecost/pkg/types"
)

func main() {
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	db := storage.Configured()
	lflag.Configure()

	ctx := context.Background()

	log.Ctx(ctx).InfoContext(ctx, "seeding synthetic run")

	baseline, charging, err := seedProfiles()
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to build profiles", "error", err)
		os.Exit(1)
	}
	scenarios, err := profile.BuildScenarios(baseline, charging, time.Now().Year())
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to build scenarios", "error", err)
		os.Exit(1)
	}

	pipe := &pipeline.Pipeline{
		Filter:  catalog.NewFilter(nil, nil),
		Workers: 2,
	}
	run := pipe.Process(ctx, seedRecords(), scenarios)

	if err := db.SaveRun(ctx, run); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save run", "error", err)
		os.Exit(1)
	}

	log.Ctx(ctx).InfoContext(ctx, "seeded run",
		"runID", run.ID,
		"results", run.ResultCount,
		"filtered", run.FilteredCount)
}

// seedProfiles builds an evening-peaked household curve and an overnight
// charging curve, the same shape for every month.
func seedProfiles() (*profile.Compact, *profile.Compact, error) {
	baseline := profile.Zero()
	charging := profile.Zero()
	for m := time.January; m <= time.December; m++ {
		for _, d := range types.DayTypes {
			for h := 0; h < 24; h++ {
				// household usage peaks around 18:00
				dist := math.Abs(float64(h) - 18)
				if dist > 12 {
					dist = 24 - dist
				}
				kwh := 0.4 + 1.2*math.Exp(-(dist*dist)/18)
				if err := baseline.Set(m, d, h, kwh); err != nil {
					return nil, nil, err
				}

				// the car charges from midnight to 06:00
				var ev float64
				if h < 6 {
					ev = 1.6
				}
				if err := charging.Set(m, d, h, ev); err != nil {
					return nil, nil, err
				}
			}
		}
	}
	return baseline, charging, nil
}

// seedRecords returns a small catalog: a flat rate, a tiered TOU rate, an
// EV-dedicated overnight rate, and a lighting rate that gets filtered.
func seedRecords() []types.RateRecord {
	fp := func(v float64) *float64 { return &v }

	flat := schedule(func(time.Month, int) int { return 0 })
	// summer afternoons are on-peak
	tou := schedule(func(m time.Month, h int) int {
		if m >= time.June && m <= time.September && h >= 14 && h < 19 {
			return 1
		}
		return 0
	})

	return []types.RateRecord{
		{
			Label:              "seed-flat",
			Utility:            "Example Power & Light",
			Name:               "Residential Service",
			Description:        "Flat rate for bundled residential service",
			URI:                "https://catalog.example.com/rates/seed-flat",
			FixedMonthlyCharge: fp(11.5),
			EnergyRateStructure: [][]types.RateTier{
				{{Rate: fp(0.13)}},
			},
			EnergyWeekdaySchedule: flat,
			EnergyWeekendSchedule: flat,
		},
		{
			Label:       "seed-tou",
			Utility:     "Example Power & Light",
			Name:        "Residential TOU Tiered",
			Description: "Summer on-peak pricing with a 500 kWh first tier",
			URI:         "https://catalog.example.com/rates/seed-tou",
			EnergyRateStructure: [][]types.RateTier{
				{{Rate: fp(0.11), Max: fp(500), Unit: "kWh"}, {Rate: fp(0.15)}},
				{{Rate: fp(0.24), Max: fp(500), Unit: "kWh"}, {Rate: fp(0.31)}},
			},
			EnergyWeekdaySchedule: tou,
			EnergyWeekendSchedule: flat,
		},
		{
			Label:       "seed-ev",
			Utility:     "Example Power & Light",
			Name:        "Residential EV Overnight",
			Description: "Separately metered overnight vehicle charging",
			URI:         "https://catalog.example.com/rates/seed-ev",
			EnergyRateStructure: [][]types.RateTier{
				{{Rate: fp(0.07)}},
			},
			EnergyWeekdaySchedule: flat,
			EnergyWeekendSchedule: flat,
		},
		{
			Label:   "seed-lighting",
			Utility: "Example Power & Light",
			Name:    "Street Lighting Service",
			URI:     "https://catalog.example.com/rates/seed-lighting",
			EnergyRateStructure: [][]types.RateTier{
				{{Rate: fp(0.09)}},
			},
			EnergyWeekdaySchedule: flat,
			EnergyWeekendSchedule: flat,
		},
	}
}

func schedule(assign func(time.Month, int) int) [][]int {
	rows := make([][]int, 12)
	for m := range rows {
		row := make([]int, 24)
		for h := range row {
			row[h] = assign(time.Month(m+1), h)
		}
		rows[m] = row
	}
	return rows
}
