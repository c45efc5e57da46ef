// Package pipeline orchestrates one whole-catalog evaluation: fetch every
// rate record, filter out the ineligible ones, compile the survivors, and
// price each against the configured consumption scenarios.
package pipeline

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/chargecost/chargecost/pkg/catalog"
	"github.com/chargecost/chargecost/pkg/log"
	"github.com/chargecost/chargecost/pkg/metrics"
	"github.com/chargecost/chargecost/pkg/profile"
	"github.com/chargecost/chargecost/pkg/tariff"
	"github.com/chargecost/chargecost/pkg/types"
	"github.com/google/uuid"
	"github.com/levenlabs/go-lflag"
)

const defaultWorkers = 8

// Pipeline wires the catalog client and record filter to the evaluator.
type Pipeline struct {
	Catalog *catalog.Client
	Filter  *catalog.Filter
	Workers int
}

// Configured sets up flags for the pipeline and returns the instance.
func Configured(c *catalog.Client, f *catalog.Filter) *Pipeline {
	workers := lflag.Int("evaluate-workers", defaultWorkers, "Number of records evaluated concurrently")

	p := &Pipeline{Catalog: c, Filter: f}

	lflag.Do(func() {
		p.Workers = *workers
	})

	return p
}

// Run fetches the whole catalog and evaluates it against sc. The returned
// error covers fetch failures only; records that fail individually are
// recorded in the run's filtered rows.
func (p *Pipeline) Run(ctx context.Context, sc *profile.Scenarios) (types.Run, error) {
	var records []types.RateRecord
	_, err := p.Catalog.FetchAll(ctx, func(items []types.RateRecord) error {
		metrics.AddFetched(len(items))
		records = append(records, items...)
		return nil
	})
	if err != nil {
		return types.Run{}, err
	}
	return p.Process(ctx, records, sc), nil
}

// outcome carries one record's disposition out of the worker pool.
type outcome struct {
	result   *types.Result
	filtered *types.FilteredRecord
}

// Process evaluates records against sc. A record that fails never aborts
// its siblings: every record lands either in Results or in Filtered, except
// records skipped because ctx was canceled mid-run.
func (p *Pipeline) Process(ctx context.Context, records []types.RateRecord, sc *profile.Scenarios) types.Run {
	run := types.Run{
		ID:          uuid.NewString(),
		Started:     time.Now().UTC(),
		RecordCount: len(records),
	}

	workers := p.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	log.Ctx(ctx).InfoContext(
		ctx,
		"starting run",
		slog.String("runID", run.ID),
		slog.Int("records", len(records)),
		slog.Int("workers", workers),
	)

	work := make(chan types.RateRecord, len(records))
	for _, rec := range records {
		work <- rec
	}
	close(work)

	outcomes := make(chan outcome, len(records))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}
				outcomes <- p.processRecord(ctx, rec, sc)
			}
		}()
	}
	wg.Wait()
	close(outcomes)

	for o := range outcomes {
		switch {
		case o.result != nil:
			run.Results = append(run.Results, *o.result)
		case o.filtered != nil:
			run.Filtered = append(run.Filtered, *o.filtered)
		}
	}

	// The pool finishes records in arbitrary order; sort by label so runs
	// and the files written from them are stable.
	sort.Slice(run.Results, func(i, j int) bool {
		return run.Results[i].Label < run.Results[j].Label
	})
	sort.Slice(run.Filtered, func(i, j int) bool {
		return run.Filtered[i].Label < run.Filtered[j].Label
	})

	run.Finished = time.Now().UTC()
	run.ResultCount = len(run.Results)
	run.FilteredCount = len(run.Filtered)
	metrics.SetLastRun(run.Finished)

	log.Ctx(ctx).InfoContext(
		ctx,
		"run finished",
		slog.String("runID", run.ID),
		slog.Int("results", run.ResultCount),
		slog.Int("filtered", run.FilteredCount),
		slog.Duration("elapsed", run.Finished.Sub(run.Started)),
	)
	return run
}

func (p *Pipeline) processRecord(ctx context.Context, rec types.RateRecord, sc *profile.Scenarios) outcome {
	if reason, excluded := p.Filter.Exclude(rec); excluded {
		metrics.IncFiltered(reason)
		return outcome{filtered: filteredRecord(rec, reason)}
	}

	start := time.Now()
	st, err := tariff.Compile(rec)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "rate failed to compile", slog.String("label", rec.Label), slog.Any("error", err))
		metrics.IncFailed()
		return outcome{filtered: filteredRecord(rec, err.Error())}
	}

	// EV-dedicated rates meter the vehicle separately from the household:
	// price the charging profile by itself instead of layering it on top of
	// the baseline.
	baseline, combined := sc.Baseline, sc.Combined
	chargingOnly := rec.EVDedicated()
	if chargingOnly {
		baseline, combined = nil, sc.Charging
	}

	var baselineCost float64
	if baseline != nil {
		baselineCost, err = st.Evaluate(baseline)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "baseline evaluation failed", slog.String("label", rec.Label), slog.Any("error", err))
			metrics.IncFailed()
			return outcome{filtered: filteredRecord(rec, err.Error())}
		}
	}

	combinedCost, err := st.Evaluate(combined)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "combined evaluation failed", slog.String("label", rec.Label), slog.Any("error", err))
		metrics.IncFailed()
		return outcome{filtered: filteredRecord(rec, err.Error())}
	}

	metrics.ObserveEvaluation(time.Since(start))
	metrics.IncEvaluated()

	return outcome{result: &types.Result{
		Label:              rec.Label,
		Utility:            rec.Utility,
		RateName:           rec.Name,
		RateDescription:    rec.Description,
		RateEndDate:        rec.EndDate,
		SourceURL:          rec.Source,
		CatalogURL:         rec.URI,
		FixedMonthlyCharge: rec.FixedMonthlyCharge,
		BaselineCost:       baselineCost,
		CombinedCost:       combinedCost,
		EVChargingCost:     roundCents(combinedCost - baselineCost),
		ChargingOnly:       chargingOnly,
	}}
}

func filteredRecord(rec types.RateRecord, reason string) *types.FilteredRecord {
	return &types.FilteredRecord{
		Label:           rec.Label,
		Utility:         rec.Utility,
		RateName:        rec.Name,
		RateDescription: rec.Description,
		RateEndDate:     rec.EndDate,
		SourceURL:       rec.Source,
		CatalogURL:      rec.URI,
		Reason:          reason,
	}
}

// roundCents rounds a dollar amount to whole cents.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
