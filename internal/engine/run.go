package engine

// run.go - batch calculation over every facility of a period

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapkpi/internal/benchmark"
	"github.com/leapstack-labs/leapkpi/internal/calculator"
	"github.com/leapstack-labs/leapkpi/internal/stats"
	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// facilityOutput is one worker's result. Workers write only their own slot.
type facilityOutput struct {
	facility core.Facility
	calc     calculator.Calculation
}

// Run computes every KPI for every facility in the period, persists the
// results and anomalies, and then benchmarks the persisted results. The
// returned run reflects the final stored state even when err is non-nil.
func (e *Engine) Run(ctx context.Context, periodID string) (*core.Run, error) {
	if _, err := core.ParsePeriod(periodID); err != nil {
		return nil, err
	}

	e.logger.Info("starting run", slog.String("period", periodID))

	run, err := e.store.CreateRun(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	e.logger.Debug("created run", slog.String("run_id", run.ID))

	runErr := e.execute(ctx, run)
	if runErr != nil {
		run.Status = core.RunStatusFailed
		if ctx.Err() != nil {
			run.Status = core.RunStatusCancelled
		}
		run.Error = runErr.Error()
		e.logger.Info("run failed", slog.String("run_id", run.ID), slog.String("error", runErr.Error()))
	} else {
		e.logger.Info("run completed",
			slog.String("run_id", run.ID),
			slog.Int("facilities", run.Facilities),
			slog.Int("results", run.Results),
			slog.Int("anomalies", run.Anomalies))
	}

	if err := e.store.CompleteRun(context.WithoutCancel(ctx), run); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to complete run: %w", err)
	}
	return run, runErr
}

func (e *Engine) execute(ctx context.Context, run *core.Run) error {
	facilities, err := e.facts.Facilities(ctx)
	if err != nil {
		return fmt.Errorf("failed to list facilities: %w", err)
	}

	outputs := make([]facilityOutput, len(facilities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, f := range facilities {
		g.Go(func() error {
			calc, err := e.calculate(gctx, f, run.PeriodID, nil)
			if err != nil {
				return err
			}
			outliers, err := e.detectOutliers(gctx, f.ID, run.PeriodID, calc.Results)
			if err != nil {
				return err
			}
			calc.Anomalies = append(calc.Anomalies, outliers...)
			outputs[i] = facilityOutput{facility: f, calc: calc}
			e.logger.Debug("calculated facility",
				slog.String("facility", f.ID),
				slog.Int("results", len(calc.Results)),
				slog.Int("anomalies", len(calc.Anomalies)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Persist only after every facility succeeded.
	var results []core.KPIResult
	for _, out := range outputs {
		results = append(results, out.calc.Results...)
	}
	if err := e.store.SaveResults(ctx, results); err != nil {
		return err
	}
	for _, out := range outputs {
		if err := e.store.SaveAnomalies(ctx, out.facility.ID, run.PeriodID, out.calc.Anomalies); err != nil {
			return err
		}
		run.Anomalies += len(out.calc.Anomalies)
	}
	run.Facilities = len(facilities)
	run.Results = len(results)

	// Benchmarks see the whole persisted period, including facilities
	// saved by earlier runs, and replace whatever the period held before.
	stored, err := e.store.ListResults(ctx, run.PeriodID, "")
	if err != nil {
		return err
	}
	benchmarks := benchmark.GenerateBenchmarks(stored, facilities, run.PeriodID)
	if err := e.store.ReplaceBenchmarks(ctx, run.PeriodID, benchmarks); err != nil {
		return err
	}
	e.logger.Debug("saved benchmarks", slog.Int("count", len(benchmarks)))
	return nil
}

// detectOutliers flags results that sit more than the threshold number of
// standard deviations from the facility's trailing mean for that KPI.
func (e *Engine) detectOutliers(ctx context.Context, facilityID, periodID string, results []core.KPIResult) ([]core.Anomaly, error) {
	var anomalies []core.Anomaly
	for _, r := range results {
		if r.Value == nil {
			continue
		}
		history, err := e.store.KPIHistory(ctx, facilityID, r.KPIID, 0)
		if err != nil {
			return nil, fmt.Errorf("history for %s/%s: %w", facilityID, r.KPIID, err)
		}

		var prior []float64
		for _, h := range history {
			if h.PeriodID < periodID && h.Value != nil {
				prior = append(prior, *h.Value)
			}
		}
		window := stats.Trailing(prior, e.outlierWindow)
		if window.Count < minOutlierHistory || window.StdDev == 0 {
			continue
		}

		deviation := math.Abs(*r.Value-window.Mean) / window.StdDev
		if deviation <= e.outlierThreshold {
			continue
		}
		anomalies = append(anomalies, core.Anomaly{
			FacilityID: facilityID,
			PeriodID:   periodID,
			KPIID:      r.KPIID,
			Type:       core.AnomalyKPIOutlier,
			Severity:   core.SeverityWarning,
			Message: fmt.Sprintf("%s is %.1f standard deviations from its trailing %d-period mean",
				r.KPIID, deviation, window.Count),
			Field:    r.KPIID,
			Expected: core.Float(window.Mean),
			Actual:   core.Float(*r.Value),
		})
	}
	return anomalies, nil
}
