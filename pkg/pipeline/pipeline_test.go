package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chargecost/chargecost/pkg/catalog"
	"github.com/chargecost/chargecost/pkg/profile"
	"github.com/chargecost/chargecost/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func uniformCompact(t *testing.T, v float64) *profile.Compact {
	c := profile.Zero()
	for m := time.January; m <= time.December; m++ {
		for _, d := range types.DayTypes {
			for h := 0; h < 24; h++ {
				require.NoError(t, c.Set(m, d, h, v))
			}
		}
	}
	return c
}

// testScenarios builds 2025 scenarios with 1 kWh baseline and 0.5 kWh
// charging in every hour: 8760 kWh baseline, 4380 kWh charging.
func testScenarios(t *testing.T) *profile.Scenarios {
	sc, err := profile.BuildScenarios(uniformCompact(t, 1.0), uniformCompact(t, 0.5), 2025)
	require.NoError(t, err)
	return sc
}

func fullSchedule(period int) [][]int {
	rows := make([][]int, 12)
	for m := range rows {
		row := make([]int, 24)
		for h := range row {
			row[h] = period
		}
		rows[m] = row
	}
	return rows
}

func flatRate(label, name string, rate float64) types.RateRecord {
	return types.RateRecord{
		Label:   label,
		Utility: "Test Utility",
		Name:    name,
		EnergyRateStructure: [][]types.RateTier{
			{{Rate: fp(rate)}},
		},
		EnergyWeekdaySchedule: fullSchedule(0),
		EnergyWeekendSchedule: fullSchedule(0),
	}
}

func testPipeline() *Pipeline {
	return &Pipeline{
		Filter:  catalog.NewFilter(nil, nil),
		Workers: 4,
	}
}

func findResult(t *testing.T, run types.Run, label string) types.Result {
	for _, r := range run.Results {
		if r.Label == label {
			return r
		}
	}
	t.Fatalf("result %s not found", label)
	return types.Result{}
}

func findFiltered(t *testing.T, run types.Run, label string) types.FilteredRecord {
	for _, f := range run.Filtered {
		if f.Label == label {
			return f
		}
	}
	t.Fatalf("filtered record %s not found", label)
	return types.FilteredRecord{}
}

func TestProcessFlatRate(t *testing.T) {
	sc := testScenarios(t)
	run := testPipeline().Process(context.Background(), []types.RateRecord{
		flatRate("rate1", "Residential Service", 0.10),
	}, sc)

	require.Len(t, run.Results, 1)
	assert.Empty(t, run.Filtered)
	assert.Equal(t, 1, run.RecordCount)
	assert.Equal(t, 1, run.ResultCount)
	assert.Equal(t, 0, run.FilteredCount)
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.Finished.Before(run.Started))

	// 8760 kWh * $0.10 = $876, 13140 kWh * $0.10 = $1314, EV = $438.
	res := run.Results[0]
	assert.InDelta(t, 876.0, res.BaselineCost, 1e-6)
	assert.InDelta(t, 1314.0, res.CombinedCost, 1e-6)
	assert.Equal(t, 438.0, res.EVChargingCost)
	assert.False(t, res.ChargingOnly)
}

func TestProcessEVDedicated(t *testing.T) {
	sc := testScenarios(t)
	run := testPipeline().Process(context.Background(), []types.RateRecord{
		flatRate("rate-ev", "Residential EV Charging", 0.20),
	}, sc)

	require.Len(t, run.Results, 1)
	res := run.Results[0]
	assert.True(t, res.ChargingOnly)
	// Only the 4380 kWh charging profile is priced: 4380 * $0.20 = $876.
	assert.Equal(t, 0.0, res.BaselineCost)
	assert.InDelta(t, 876.0, res.CombinedCost, 1e-6)
	assert.Equal(t, 876.0, res.EVChargingCost)
}

func TestProcessIsolation(t *testing.T) {
	// A filtered record and a record that fails compilation must not stop
	// the healthy record from being evaluated.
	broken := flatRate("rate-broken", "Residential Service", 0.10)
	broken.EnergyWeekdaySchedule = fullSchedule(5) // no period 5

	records := []types.RateRecord{
		flatRate("rate-good", "Residential Service", 0.10),
		{Label: "rate-lighting", Utility: "Test Utility", Name: "Street Lighting",
			EnergyRateStructure:   [][]types.RateTier{{{Rate: fp(0.1)}}},
			EnergyWeekdaySchedule: fullSchedule(0),
			EnergyWeekendSchedule: fullSchedule(0)},
		broken,
	}

	sc := testScenarios(t)
	run := testPipeline().Process(context.Background(), records, sc)

	assert.Equal(t, 3, run.RecordCount)
	require.Len(t, run.Results, 1)
	require.Len(t, run.Filtered, 2)

	assert.Equal(t, "rate-good", run.Results[0].Label)
	assert.Equal(t, catalog.ReasonKeyword, findFiltered(t, run, "rate-lighting").Reason)
	assert.Contains(t, findFiltered(t, run, "rate-broken").Reason, "schedule cannot price")
}

func TestProcessSortsByLabel(t *testing.T) {
	sc := testScenarios(t)
	run := testPipeline().Process(context.Background(), []types.RateRecord{
		flatRate("rate-c", "Residential Service", 0.10),
		flatRate("rate-a", "Residential Service", 0.10),
		flatRate("rate-b", "Residential Service", 0.10),
	}, sc)

	require.Len(t, run.Results, 3)
	assert.Equal(t, "rate-a", run.Results[0].Label)
	assert.Equal(t, "rate-b", run.Results[1].Label)
	assert.Equal(t, "rate-c", run.Results[2].Label)
}

func TestProcessResultMetadata(t *testing.T) {
	rec := flatRate("rate-meta", "Residential Service", 0.10)
	rec.Description = "A plain residential rate"
	rec.EndDate = time.Now().Add(365 * 24 * time.Hour).Unix()
	rec.Source = "https://utility.example.com/tariff.pdf"
	rec.URI = "https://catalog.example.com/rates/rate-meta"
	rec.FixedMonthlyCharge = fp(12.5)

	sc := testScenarios(t)
	run := testPipeline().Process(context.Background(), []types.RateRecord{rec}, sc)

	res := findResult(t, run, "rate-meta")
	assert.Equal(t, rec.Description, res.RateDescription)
	assert.Equal(t, rec.EndDate, res.RateEndDate)
	assert.Equal(t, rec.Source, res.SourceURL)
	assert.Equal(t, rec.URI, res.CatalogURL)
	require.NotNil(t, res.FixedMonthlyCharge)
	assert.Equal(t, 12.5, *res.FixedMonthlyCharge)
}

func TestProcessDefaultWorkers(t *testing.T) {
	p := &Pipeline{Filter: catalog.NewFilter(nil, nil)}
	sc := testScenarios(t)
	run := p.Process(context.Background(), []types.RateRecord{
		flatRate("rate1", "Residential Service", 0.10),
	}, sc)
	assert.Len(t, run.Results, 1)
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 438.0, roundCents(437.999999999))
	assert.Equal(t, 0.13, roundCents(0.125))
	assert.Equal(t, -0.13, roundCents(-0.125))
	assert.Equal(t, 1.0, roundCents(1.004))
}

func TestRunFetchesCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") == "0" {
			fmt.Fprint(w, `{"items": [
				{"label": "rate1", "utility": "Util A", "name": "Residential Service",
				 "energyratestructure": [[{"rate": 0.1}]],
				 "energyweekdayschedule": [[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0]],
				 "energyweekendschedule": [[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0]]}
			]}`)
		} else {
			fmt.Fprint(w, `{"items": []}`)
		}
	}))
	defer srv.Close()

	p := testPipeline()
	p.Catalog = catalog.NewClient(srv.URL, "test-key", 500)

	sc := testScenarios(t)
	run, err := p.Run(context.Background(), sc)
	require.NoError(t, err)
	require.Len(t, run.Results, 1)
	assert.Equal(t, "rate1", run.Results[0].Label)
}
