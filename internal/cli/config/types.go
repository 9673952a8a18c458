// Package config provides configuration management for the leapkpi CLI.
//
// This package extends the shared configuration types from internal/config
// with CLI-specific fields. The shared section types are re-exported here
// via type aliases for convenience.
package config

import (
	sharedcfg "github.com/leapstack-labs/leapkpi/internal/config"
)

// FactsConfig is an alias for the shared fact source configuration.
type FactsConfig = sharedcfg.FactsConfig

// OutlierConfig is an alias for the shared outlier configuration.
type OutlierConfig = sharedcfg.OutlierConfig

// APIConfig is an alias for the shared API configuration.
type APIConfig = sharedcfg.APIConfig

// KPIConfig is an alias for the shared custom KPI configuration.
type KPIConfig = sharedcfg.KPIConfig

// Config holds all CLI configuration options.
type Config struct {
	StatePath    string         `koanf:"state_path"`
	LogLevel     string         `koanf:"log_level"`
	Verbose      bool           `koanf:"verbose"`
	OutputFormat string         `koanf:"output"`
	Workers      int            `koanf:"workers"`
	Facts        *FactsConfig   `koanf:"facts"`
	Outlier      *OutlierConfig `koanf:"outlier"`
	API          *APIConfig     `koanf:"api"`
	KPIs         []KPIConfig    `koanf:"kpis"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Project returns the shared view of the configuration.
func (c *Config) Project() *sharedcfg.ProjectConfig {
	return &sharedcfg.ProjectConfig{
		StatePath: c.StatePath,
		Workers:   c.Workers,
		Facts:     c.Facts,
		Outlier:   c.Outlier,
		API:       c.API,
		KPIs:      c.KPIs,
	}
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultStateFile = sharedcfg.DefaultStateFile
	DefaultWorkers   = sharedcfg.DefaultWorkers
	DefaultLogLevel  = "warn"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
