package core

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store lookups that match nothing.
var ErrNotFound = errors.New("not found")

// ErrUnknownFacility is returned when a facility id has no record.
var ErrUnknownFacility = errors.New("unknown facility")

// Store defines the interface for persisting calculation output.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Run operations
	CreateRun(ctx context.Context, periodID string) (*Run, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	CompleteRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// KPI result operations
	SaveResults(ctx context.Context, results []KPIResult) error
	GetResults(ctx context.Context, facilityID, periodID string) ([]KPIResult, error)
	ListResults(ctx context.Context, periodID, kpiID string) ([]KPIResult, error)
	KPIHistory(ctx context.Context, facilityID, kpiID string, limit int) ([]KPIResult, error)

	// Benchmark operations
	ReplaceBenchmarks(ctx context.Context, periodID string, benchmarks []Benchmark) error
	ListBenchmarks(ctx context.Context, periodID, kpiID string) ([]Benchmark, error)

	// Anomaly operations
	SaveAnomalies(ctx context.Context, facilityID, periodID string, anomalies []Anomaly) error
	ListAnomalies(ctx context.Context, facilityID, periodID string) ([]Anomaly, error)
}

// RunStatus represents the status of a calculation run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run represents one batch calculation over a period.
type Run struct {
	ID          string
	PeriodID    string
	Status      RunStatus
	Facilities  int
	Results     int
	Anomalies   int
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}
