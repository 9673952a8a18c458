// Package engine orchestrates KPI calculation runs: it pulls facts, fans
// the per-facility calculation out over a worker pool, persists results
// and anomalies, then benchmarks the whole population.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapkpi/internal/calculator"
	"github.com/leapstack-labs/leapkpi/internal/facts"
	"github.com/leapstack-labs/leapkpi/internal/registry"
	"github.com/leapstack-labs/leapkpi/internal/state"
	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// Defaults applied by New for zero-valued Config fields.
const (
	DefaultWorkers          = 4
	DefaultOutlierWindow    = 6
	DefaultOutlierThreshold = 3.0
)

// minOutlierHistory is the fewest prior values an outlier check needs.
const minOutlierHistory = 3

// Engine runs calculations against a fact source and a state store.
type Engine struct {
	facts    facts.Source
	store    core.Store
	registry *registry.Registry
	calc     *calculator.Calculator
	logger   *slog.Logger

	workers          int
	outlierWindow    int
	outlierThreshold float64

	// ownsStore is set when New opened the store itself.
	ownsStore bool
}

// Config holds engine configuration.
type Config struct {
	// Facts supplies facilities and their facts. Required.
	Facts facts.Source
	// Store persists output. When nil a SQLite store is opened at StatePath.
	Store core.Store
	// StatePath is the SQLite path used when Store is nil (":memory:" if empty).
	StatePath string
	// Registry defines the KPIs; nil uses registry.Default().
	Registry *registry.Registry
	// Workers bounds concurrent facility calculations.
	Workers int
	// OutlierWindow is how many prior periods an outlier check looks at.
	OutlierWindow int
	// OutlierThreshold is the std-dev distance that flags an outlier.
	OutlierThreshold float64
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine. The returned engine closes the store on Close
// only when it opened it.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Facts == nil {
		return nil, errors.New("engine: fact source is required")
	}

	reg := cfg.Registry
	if reg == nil {
		reg = registry.Default()
	}

	e := &Engine{
		facts:            cfg.Facts,
		store:            cfg.Store,
		registry:         reg,
		calc:             calculator.New(reg),
		logger:           logger,
		workers:          cfg.Workers,
		outlierWindow:    cfg.OutlierWindow,
		outlierThreshold: cfg.OutlierThreshold,
	}
	if e.workers < 1 {
		e.workers = DefaultWorkers
	}
	if e.outlierWindow < minOutlierHistory {
		e.outlierWindow = DefaultOutlierWindow
	}
	if e.outlierThreshold <= 0 {
		e.outlierThreshold = DefaultOutlierThreshold
	}

	if e.store == nil {
		path := cfg.StatePath
		if path == "" {
			path = ":memory:"
		}
		store := state.NewSQLiteStore(logger)
		if err := store.Open(path); err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		if err := store.InitSchema(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize state schema: %w", err)
		}
		e.store = store
		e.ownsStore = true
	}

	logger.Debug("initialized engine",
		slog.Int("workers", e.workers),
		slog.Int("kpis", reg.Count()),
		slog.Int("outlier_window", e.outlierWindow))
	return e, nil
}

// Close releases the fact source and, when owned, the state store.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	var errs []error
	if err := e.facts.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close facts: %w", err))
	}
	if e.ownsStore {
		if err := e.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close state: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Registry returns the KPI registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Store returns the state store.
func (e *Engine) Store() core.Store {
	return e.store
}

// Facts returns the fact source.
func (e *Engine) Facts() facts.Source {
	return e.facts
}
