package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/leapstack-labs/leapkpi/pkg/core"
)

type resultRow struct {
	FacilityID      string          `db:"facility_id"`
	PeriodID        string          `db:"period_id"`
	KPIID           string          `db:"kpi_id"`
	Value           sql.NullFloat64 `db:"value"`
	Numerator       float64         `db:"numerator"`
	Denominator     float64         `db:"denominator"`
	DenominatorType string          `db:"denominator_type"`
	PayerScope      string          `db:"payer_scope"`
	Unit            string          `db:"unit"`
	Warnings        string          `db:"warnings"`
}

const resultColumns = `facility_id, period_id, kpi_id, value, numerator, denominator,
	denominator_type, payer_scope, unit, warnings`

// SaveResults upserts results keyed by facility, period and KPI.
func (s *SQLiteStore) SaveResults(ctx context.Context, results []core.KPIResult) error {
	if s.db == nil {
		return errNotOpened
	}
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx,
		`INSERT OR REPLACE INTO kpi_results (`+resultColumns+`, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := formatTime(time.Now())
	for _, r := range results {
		warnings := r.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		encoded, err := json.Marshal(warnings)
		if err != nil {
			return fmt.Errorf("failed to encode warnings for %s: %w", r.KPIID, err)
		}
		var value sql.NullFloat64
		if r.Value != nil {
			value = sql.NullFloat64{Float64: *r.Value, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			r.FacilityID, r.PeriodID, r.KPIID, value, r.NumeratorValue, r.DenominatorValue,
			string(r.DenominatorType), r.PayerScope.String(), string(r.Unit), string(encoded), now,
		); err != nil {
			return fmt.Errorf("failed to save result %s/%s/%s: %w", r.FacilityID, r.PeriodID, r.KPIID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}
	s.logger.Debug("saved results", slog.Int("count", len(results)))
	return nil
}

// GetResults returns every stored KPI for one facility and period, by KPI id.
func (s *SQLiteStore) GetResults(ctx context.Context, facilityID, periodID string) ([]core.KPIResult, error) {
	return s.selectResults(ctx,
		`SELECT `+resultColumns+` FROM kpi_results
		 WHERE facility_id = ? AND period_id = ? ORDER BY kpi_id`,
		facilityID, periodID)
}

// ListResults returns the stored results of a period. An empty kpiID
// returns every KPI.
func (s *SQLiteStore) ListResults(ctx context.Context, periodID, kpiID string) ([]core.KPIResult, error) {
	if kpiID == "" {
		return s.selectResults(ctx,
			`SELECT `+resultColumns+` FROM kpi_results
			 WHERE period_id = ? ORDER BY kpi_id, facility_id`,
			periodID)
	}
	return s.selectResults(ctx,
		`SELECT `+resultColumns+` FROM kpi_results
		 WHERE period_id = ? AND kpi_id = ? ORDER BY facility_id`,
		periodID, kpiID)
}

// KPIHistory returns up to limit of the latest stored results of one KPI
// for a facility, oldest period first.
func (s *SQLiteStore) KPIHistory(ctx context.Context, facilityID, kpiID string, limit int) ([]core.KPIResult, error) {
	if limit <= 0 {
		limit = -1
	}
	results, err := s.selectResults(ctx,
		`SELECT `+resultColumns+` FROM kpi_results
		 WHERE facility_id = ? AND kpi_id = ? ORDER BY period_id DESC LIMIT ?`,
		facilityID, kpiID, limit)
	if err != nil {
		return nil, err
	}
	slices.Reverse(results)
	return results, nil
}

func (s *SQLiteStore) selectResults(ctx context.Context, query string, args ...any) ([]core.KPIResult, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	var rows []resultRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}

	results := make([]core.KPIResult, 0, len(rows))
	for _, row := range rows {
		r, err := convertResult(row)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func convertResult(row resultRow) (core.KPIResult, error) {
	r := core.KPIResult{
		FacilityID:       row.FacilityID,
		PeriodID:         row.PeriodID,
		KPIID:            row.KPIID,
		NumeratorValue:   row.Numerator,
		DenominatorValue: row.Denominator,
		DenominatorType:  core.DenominatorType(row.DenominatorType),
		PayerScope:       core.ParsePayerScope(row.PayerScope),
		Unit:             core.Unit(row.Unit),
	}
	if row.Value.Valid {
		r.Value = core.Float(row.Value.Float64)
	}
	if err := json.Unmarshal([]byte(row.Warnings), &r.Warnings); err != nil {
		return r, fmt.Errorf("invalid warnings for %s/%s/%s: %w", row.FacilityID, row.PeriodID, row.KPIID, err)
	}
	if len(r.Warnings) == 0 {
		r.Warnings = nil
	}
	return r, nil
}
