package profile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chargecost/chargecost/pkg/types"
)

// LoadCompactCSV reads the distribution format for compact profiles: a
// header row, then one row per (month, hour) holding the weekday and weekend
// average kWh. Missing rows are not an error here; they surface as a
// coverage error when the profile is expanded.
func LoadCompactCSV(r io.Reader) (*Compact, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read profile csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("profile csv is empty")
	}

	var c Compact
	for i, row := range rows[1:] {
		line := i + 2
		month, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad month %q: %w", line, row[0], err)
		}
		hour, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad hour %q: %w", line, row[1], err)
		}
		weekday, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad weekday kwh %q: %w", line, row[2], err)
		}
		weekend, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad weekend kwh %q: %w", line, row[3], err)
		}
		if err := c.Set(time.Month(month), types.Weekday, hour, weekday); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := c.Set(time.Month(month), types.Weekend, hour, weekend); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return &c, nil
}

// LoadCompactFile reads a compact profile CSV from disk.
func LoadCompactFile(path string) (*Compact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile %s: %w", path, err)
	}
	defer f.Close()
	c, err := LoadCompactCSV(f)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return c, nil
}
