package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/leapstack-labs/leapkpi/internal/benchmark"
	"github.com/leapstack-labs/leapkpi/internal/stats"
	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// Benchmarks returns the stored benchmarks of a period, optionally for
// one KPI.
func (e *Engine) Benchmarks(ctx context.Context, periodID, kpiID string) ([]core.Benchmark, error) {
	if _, err := core.ParsePeriod(periodID); err != nil {
		return nil, err
	}
	return e.store.ListBenchmarks(ctx, periodID, kpiID)
}

// Results returns the stored results of a facility and period.
func (e *Engine) Results(ctx context.Context, facilityID, periodID string) ([]core.KPIResult, error) {
	if _, err := core.ParsePeriod(periodID); err != nil {
		return nil, err
	}
	if _, err := e.facts.Facility(ctx, facilityID); err != nil {
		return nil, err
	}
	return e.store.GetResults(ctx, facilityID, periodID)
}

// Anomalies returns the stored anomalies of a facility and period.
func (e *Engine) Anomalies(ctx context.Context, facilityID, periodID string) ([]core.Anomaly, error) {
	if _, err := core.ParsePeriod(periodID); err != nil {
		return nil, err
	}
	if _, err := e.facts.Facility(ctx, facilityID); err != nil {
		return nil, err
	}
	return e.store.ListAnomalies(ctx, facilityID, periodID)
}

// Ranking is a facility's standing on one KPI across its cohorts.
type Ranking struct {
	FacilityID     string
	PeriodID       string
	KPIID          string
	Unit           core.Unit
	HigherIsBetter bool
	// Value is nil when the stored result is null; Scores is then empty.
	Value  *float64
	Scores []benchmark.CohortScore
}

// Rank scores a facility's stored KPI value against the stored benchmarks
// of every cohort it belongs to.
func (e *Engine) Rank(ctx context.Context, facilityID, periodID, kpiID string) (*Ranking, error) {
	if _, err := core.ParsePeriod(periodID); err != nil {
		return nil, err
	}
	def, ok := e.registry.Get(kpiID)
	if !ok {
		return nil, fmt.Errorf("kpi %s: %w", kpiID, core.ErrNotFound)
	}
	f, err := e.facts.Facility(ctx, facilityID)
	if err != nil {
		return nil, err
	}

	results, err := e.store.GetResults(ctx, facilityID, periodID)
	if err != nil {
		return nil, err
	}
	var result *core.KPIResult
	for i := range results {
		if results[i].KPIID == kpiID {
			result = &results[i]
			break
		}
	}
	if result == nil {
		return nil, fmt.Errorf("result %s for %s in %s: %w", kpiID, facilityID, periodID, core.ErrNotFound)
	}

	ranking := &Ranking{
		FacilityID:     facilityID,
		PeriodID:       periodID,
		KPIID:          kpiID,
		Unit:           def.Unit,
		HigherIsBetter: def.HigherIsBetter,
		Value:          result.Value,
	}
	if result.Value == nil {
		return ranking, nil
	}

	benchmarks, err := e.store.ListBenchmarks(ctx, periodID, kpiID)
	if err != nil {
		return nil, err
	}
	byCohort := benchmark.GetBenchmarksForFacility(benchmarks, f, kpiID)
	ranking.Scores = benchmark.Score(*result.Value, byCohort, def.HigherIsBetter)
	return ranking, nil
}

// TrendReport summarizes a facility's stored history of one KPI.
type TrendReport struct {
	FacilityID string
	KPIID      string
	History    []core.KPIResult
	Trend      stats.TrendResult
	Volatility float64
	Window     stats.WindowStats
}

// Trend fits a trend over the latest periods stored results of a KPI for a
// facility. Null results are kept in History but skipped by the statistics.
func (e *Engine) Trend(ctx context.Context, facilityID, kpiID string, periods int) (*TrendReport, error) {
	def, ok := e.registry.Get(kpiID)
	if !ok {
		return nil, fmt.Errorf("kpi %s: %w", kpiID, core.ErrNotFound)
	}
	if _, err := e.facts.Facility(ctx, facilityID); err != nil {
		return nil, err
	}

	history, err := e.store.KPIHistory(ctx, facilityID, kpiID, periods)
	if err != nil {
		return nil, err
	}
	var values []float64
	for _, h := range history {
		if h.Value != nil {
			values = append(values, *h.Value)
		}
	}

	return &TrendReport{
		FacilityID: facilityID,
		KPIID:      kpiID,
		History:    history,
		Trend:      stats.Trend(values, def.HigherIsBetter),
		Volatility: stats.Volatility(values),
		Window:     stats.Trailing(values, 0),
	}, nil
}

// Correlate computes the correlation between two KPIs across the
// facilities that have non-null stored values for both in the period.
func (e *Engine) Correlate(ctx context.Context, periodID, kpiX, kpiY string) (stats.CorrelationResult, error) {
	if _, err := core.ParsePeriod(periodID); err != nil {
		return stats.CorrelationResult{}, err
	}
	for _, id := range []string{kpiX, kpiY} {
		if _, ok := e.registry.Get(id); !ok {
			return stats.CorrelationResult{}, fmt.Errorf("kpi %s: %w", id, core.ErrNotFound)
		}
	}

	xs, err := e.valuesByFacility(ctx, periodID, kpiX)
	if err != nil {
		return stats.CorrelationResult{}, err
	}
	ys, err := e.valuesByFacility(ctx, periodID, kpiY)
	if err != nil {
		return stats.CorrelationResult{}, err
	}

	ids := make([]string, 0, len(xs))
	for id := range xs {
		if _, ok := ys[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	x := make([]float64, len(ids))
	y := make([]float64, len(ids))
	for i, id := range ids {
		x[i], y[i] = xs[id], ys[id]
	}
	return stats.Correlation(x, y), nil
}

func (e *Engine) valuesByFacility(ctx context.Context, periodID, kpiID string) (map[string]float64, error) {
	results, err := e.store.ListResults(ctx, periodID, kpiID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(results))
	for _, r := range results {
		if r.Value != nil {
			out[r.FacilityID] = *r.Value
		}
	}
	return out, nil
}
