package profile

import (
	"fmt"

	"github.com/levenlabs/go-lflag"
)

// Scenarios bundles the expanded profiles every rate is priced against:
// household load alone, household load plus vehicle charging, and the
// charging load by itself for rates that meter the vehicle separately.
type Scenarios struct {
	Baseline *Profile
	Combined *Profile
	Charging *Profile
}

// BuildScenarios expands the compact baseline and charging profiles over
// the given year and combines them.
func BuildScenarios(baseline, charging *Compact, year int) (*Scenarios, error) {
	base, err := baseline.Expand(year)
	if err != nil {
		return nil, fmt.Errorf("failed to expand baseline profile: %w", err)
	}
	charge, err := charging.Expand(year)
	if err != nil {
		return nil, fmt.Errorf("failed to expand charging profile: %w", err)
	}
	combined, err := Combine(base, charge)
	if err != nil {
		return nil, fmt.Errorf("failed to combine profiles: %w", err)
	}
	return &Scenarios{Baseline: base, Combined: combined, Charging: charge}, nil
}

// Config locates the compact profile inputs.
type Config struct {
	baselinePath string
	chargingPath string
	year         int
}

// Configured sets up flags for the profile inputs and returns the instance.
func Configured() *Config {
	baselinePath := lflag.String("baseline-profile", "inputs/baseline_profile.csv", "Path to the baseline consumption profile CSV")
	chargingPath := lflag.String("charging-profile", "inputs/charging_profile.csv", "Path to the EV charging profile CSV")
	year := lflag.Int("profile-year", DefaultYear, "Calendar year profiles are expanded over")

	c := &Config{}

	lflag.Do(func() {
		c.baselinePath = *baselinePath
		c.chargingPath = *chargingPath
		c.year = *year
	})

	return c
}

// Validate ensures the configuration is valid.
func (c *Config) Validate() error {
	if c.baselinePath == "" {
		return fmt.Errorf("baseline-profile is required")
	}
	if c.chargingPath == "" {
		return fmt.Errorf("charging-profile is required")
	}
	if c.year < 1 {
		return fmt.Errorf("profile-year must be positive")
	}
	return nil
}

// Load reads both profile CSVs and expands them into scenarios.
func (c *Config) Load() (*Scenarios, error) {
	baseline, err := LoadCompactFile(c.baselinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline profile (%s): %w", c.baselinePath, err)
	}
	charging, err := LoadCompactFile(c.chargingPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load charging profile (%s): %w", c.chargingPath, err)
	}
	return BuildScenarios(baseline, charging, c.year)
}
