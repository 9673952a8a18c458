// Package config provides the shared configuration types for leapkpi.
// It is decoupled from CLI concerns so the API server and tests can load
// a project configuration without cobra.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapkpi/internal/facts"
	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// FactsConfig selects and configures the fact source.
type FactsConfig struct {
	Driver string `koanf:"driver"` // duckdb, postgres, memory

	// DSN is a DuckDB file path (empty for in-memory) or a Postgres URL.
	DSN string `koanf:"dsn"`

	// SeedsDir holds <table>.csv files loaded before calculation.
	SeedsDir string `koanf:"seeds_dir"`

	// FacilitiesFile is an optional YAML facility directory overriding
	// the facilities table.
	FacilitiesFile string `koanf:"facilities_file"`
}

// Validate checks if the facts configuration is valid.
func (f *FactsConfig) Validate() error {
	switch strings.ToLower(f.Driver) {
	case facts.DriverDuckDB, facts.DriverPostgres, facts.DriverMemory:
	case "":
		return errors.New("facts.driver is required")
	default:
		return fmt.Errorf("unknown facts driver %q (available: %s, %s, %s)",
			f.Driver, facts.DriverDuckDB, facts.DriverPostgres, facts.DriverMemory)
	}
	if strings.EqualFold(f.Driver, facts.DriverPostgres) && f.DSN == "" {
		return errors.New("facts.dsn is required for the postgres driver")
	}
	return nil
}

// OutlierConfig tunes kpi_outlier detection.
type OutlierConfig struct {
	// Window is how many prior periods are compared against.
	Window int `koanf:"window"`
	// Threshold is the distance from the trailing mean, in standard
	// deviations, beyond which a value is flagged.
	Threshold float64 `koanf:"threshold"`
}

// Validate checks if the outlier configuration is valid.
func (o *OutlierConfig) Validate() error {
	if o.Window < 3 {
		return fmt.Errorf("outlier.window must be at least 3, got %d", o.Window)
	}
	if o.Threshold <= 0 {
		return fmt.Errorf("outlier.threshold must be positive, got %g", o.Threshold)
	}
	return nil
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	Addr string `koanf:"addr"`
}

// KPIConfig declares a custom composite KPI evaluated as a Starlark
// expression over numerator sums and denominators.
type KPIConfig struct {
	ID              string   `koanf:"id"`
	Name            string   `koanf:"name"`
	Expr            string   `koanf:"expr"`
	Inputs          []string `koanf:"inputs"`
	Unit            string   `koanf:"unit"`
	HigherIsBetter  bool     `koanf:"higher_is_better"`
	DenominatorType string   `koanf:"denominator_type"`
	Settings        []string `koanf:"settings"`
}

var units = map[core.Unit]bool{
	core.UnitCurrency:   true,
	core.UnitPercentage: true,
	core.UnitHours:      true,
	core.UnitNumber:     true,
}

var denominatorTypes = map[core.DenominatorType]bool{
	core.DenominatorResidentDays:  true,
	core.DenominatorSkilledDays:   true,
	core.DenominatorVentDays:      true,
	core.DenominatorOccupiedUnits: true,
	core.DenominatorPayerDays:     true,
	core.DenominatorNone:          true,
}

// Validate checks the static fields of a custom KPI. The expression
// itself is checked when it is compiled.
func (c *KPIConfig) Validate() error {
	if c.ID == "" {
		return errors.New("kpi id is required")
	}
	if strings.TrimSpace(c.Expr) == "" {
		return fmt.Errorf("kpi %s: expr is required", c.ID)
	}
	if c.Unit != "" && !units[core.Unit(c.Unit)] {
		return fmt.Errorf("kpi %s: unknown unit %q", c.ID, c.Unit)
	}
	if c.DenominatorType != "" && !denominatorTypes[core.DenominatorType(c.DenominatorType)] {
		return fmt.Errorf("kpi %s: unknown denominator_type %q", c.ID, c.DenominatorType)
	}
	for _, s := range c.Settings {
		if _, ok := core.ParseSetting(s); !ok {
			return fmt.Errorf("kpi %s: unknown setting %q", c.ID, s)
		}
	}
	return nil
}

// ProjectConfig holds the configuration shared by every leapkpi entry point.
type ProjectConfig struct {
	StatePath string         `koanf:"state_path"`
	Workers   int            `koanf:"workers"`
	Facts     *FactsConfig   `koanf:"facts"`
	Outlier   *OutlierConfig `koanf:"outlier"`
	API       *APIConfig     `koanf:"api"`
	KPIs      []KPIConfig    `koanf:"kpis"`
}

// Validate checks every section of the project configuration.
func (c *ProjectConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Facts != nil {
		if err := c.Facts.Validate(); err != nil {
			return err
		}
	}
	if c.Outlier != nil {
		if err := c.Outlier.Validate(); err != nil {
			return err
		}
	}
	seen := make(map[string]bool, len(c.KPIs))
	for i := range c.KPIs {
		if err := c.KPIs[i].Validate(); err != nil {
			return err
		}
		if seen[c.KPIs[i].ID] {
			return fmt.Errorf("duplicate custom kpi id %q", c.KPIs[i].ID)
		}
		seen[c.KPIs[i].ID] = true
	}
	return nil
}
