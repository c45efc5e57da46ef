// Package report writes the tabular outputs of a run: one CSV of evaluated
// rates with their annual EV charging cost and one CSV of the records that
// were excluded, plus a logged summary.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/chargecost/chargecost/pkg/log"
	"github.com/chargecost/chargecost/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// File names under the results directory.
const (
	ResultsFileName  = "ev_charging_cost_by_utility_rate.csv"
	FilteredFileName = "filtered_records.csv"
)

var resultsHeader = []string{
	"label", "utility", "rate_name", "rate_description", "rate_end_date",
	"source_url", "openei_url", "fixed_charge_first_meter",
	"ev_annual_charging_cost",
}

var filteredHeader = []string{
	"label", "utility", "rate_name", "rate_description", "rate_end_date",
	"source_url", "openei_url", "reason",
}

// WriteResults writes the evaluated rates as CSV. Optional fields the catalog
// never published are left as empty cells.
func WriteResults(w io.Writer, results []types.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultsHeader); err != nil {
		return fmt.Errorf("failed to write results header: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.Label,
			r.Utility,
			r.RateName,
			r.RateDescription,
			endDateCell(r.RateEndDate),
			r.SourceURL,
			r.CatalogURL,
			floatCell(r.FixedMonthlyCharge),
			strconv.FormatFloat(r.EVChargingCost, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write result row (%s): %w", r.Label, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFiltered writes the excluded records and why each was excluded.
func WriteFiltered(w io.Writer, filtered []types.FilteredRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(filteredHeader); err != nil {
		return fmt.Errorf("failed to write filtered header: %w", err)
	}
	for _, f := range filtered {
		row := []string{
			f.Label,
			f.Utility,
			f.RateName,
			f.RateDescription,
			endDateCell(f.RateEndDate),
			f.SourceURL,
			f.CatalogURL,
			f.Reason,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write filtered row (%s): %w", f.Label, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Summary logs the headline counts for a run.
func Summary(ctx context.Context, run types.Run) {
	log.Ctx(ctx).InfoContext(
		ctx,
		"run summary",
		slog.String("runID", run.ID),
		slog.Int("records", run.RecordCount),
		slog.Int("evaluated", run.ResultCount),
		slog.Int("filtered", run.FilteredCount),
		slog.Duration("took", run.Finished.Sub(run.Started)),
	)
}

// Config decides where the CSV files land.
type Config struct {
	dir string
}

// Configured sets up flags for the report writer and returns the instance.
func Configured() *Config {
	c := new(Config)
	dir := lflag.String("results-dir", "results", "Directory the results CSV files are written to")
	lflag.Do(func() {
		c.dir = *dir
	})
	return c
}

// Files writes both CSVs for the run under the configured directory, creating
// it if needed.
func (c *Config) Files(ctx context.Context, run types.Run) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create results dir (%s): %w", c.dir, err)
	}
	if err := writeFile(filepath.Join(c.dir, ResultsFileName), func(w io.Writer) error {
		return WriteResults(w, run.Results)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(c.dir, FilteredFileName), func(w io.Writer) error {
		return WriteFiltered(w, run.Filtered)
	}); err != nil {
		return err
	}
	log.Ctx(ctx).InfoContext(ctx, "wrote results files", slog.String("dir", c.dir))
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// endDateCell renders the raw unix timestamp, or an empty cell when the
// record never published an end date.
func endDateCell(ts int64) string {
	if ts == 0 {
		return ""
	}
	return strconv.FormatInt(ts, 10)
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
