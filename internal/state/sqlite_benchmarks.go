package state

import (
	"context"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapkpi/pkg/core"
)

type benchmarkRow struct {
	KPIID    string  `db:"kpi_id"`
	Cohort   string  `db:"cohort"`
	PeriodID string  `db:"period_id"`
	Count    int     `db:"count"`
	Mean     float64 `db:"mean"`
	Median   float64 `db:"median"`
	P10      float64 `db:"p10"`
	P25      float64 `db:"p25"`
	P75      float64 `db:"p75"`
	P90      float64 `db:"p90"`
	Min      float64 `db:"min"`
	Max      float64 `db:"max"`
	StdDev   float64 `db:"std_dev"`
	Updated  string  `db:"updated_at"`
}

// ReplaceBenchmarks swaps the stored benchmarks of a period for the given
// set in one transaction. Cohorts missing from benchmarks are removed, so an
// empty set clears the period.
func (s *SQLiteStore) ReplaceBenchmarks(ctx context.Context, periodID string, benchmarks []core.Benchmark) error {
	if s.db == nil {
		return errNotOpened
	}

	rows := make([]benchmarkRow, len(benchmarks))
	now := formatTime(time.Now())
	for i, b := range benchmarks {
		if b.PeriodID != periodID {
			return fmt.Errorf("benchmark %s/%s belongs to period %s, not %s", b.KPIID, b.Cohort, b.PeriodID, periodID)
		}
		st := b.Stats
		rows[i] = benchmarkRow{
			KPIID: b.KPIID, Cohort: b.Cohort, PeriodID: b.PeriodID,
			Count: st.Count, Mean: st.Mean, Median: st.Median,
			P10: st.P10, P25: st.P25, P75: st.P75, P90: st.P90,
			Min: st.Min, Max: st.Max, StdDev: st.StdDev,
			Updated: now,
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM benchmarks WHERE period_id = ?`, periodID); err != nil {
		return fmt.Errorf("failed to clear benchmarks for %s: %w", periodID, err)
	}
	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO benchmarks
			 (kpi_id, cohort, period_id, count, mean, median, p10, p25, p75, p90, min, max, std_dev, updated_at)
			 VALUES (:kpi_id, :cohort, :period_id, :count, :mean, :median, :p10, :p25, :p75, :p90, :min, :max, :std_dev, :updated_at)`,
			row,
		); err != nil {
			return fmt.Errorf("failed to save benchmark %s/%s: %w", row.KPIID, row.Cohort, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit benchmarks: %w", err)
	}
	return nil
}

// ListBenchmarks returns the benchmarks of a period ordered by KPI and
// cohort. An empty kpiID returns every KPI.
func (s *SQLiteStore) ListBenchmarks(ctx context.Context, periodID, kpiID string) ([]core.Benchmark, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	query := `SELECT * FROM benchmarks WHERE period_id = ?`
	args := []any{periodID}
	if kpiID != "" {
		query += ` AND kpi_id = ?`
		args = append(args, kpiID)
	}
	// "all" sorts ahead of the prefixed cohort keys.
	query += ` ORDER BY kpi_id, cohort != 'all', cohort`

	var rows []benchmarkRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list benchmarks: %w", err)
	}

	out := make([]core.Benchmark, len(rows))
	for i, row := range rows {
		out[i] = core.Benchmark{
			KPIID:    row.KPIID,
			Cohort:   row.Cohort,
			PeriodID: row.PeriodID,
			Stats: core.BenchmarkStats{
				Count: row.Count, Mean: row.Mean, Median: row.Median,
				P10: row.P10, P25: row.P25, P75: row.P75, P90: row.P90,
				Min: row.Min, Max: row.Max, StdDev: row.StdDev,
			},
		}
	}
	return out, nil
}
