package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/leapkpi/pkg/core"
)

type anomalyRow struct {
	FacilityID string          `db:"facility_id"`
	PeriodID   string          `db:"period_id"`
	KPIID      string          `db:"kpi_id"`
	Type       string          `db:"type"`
	Severity   string          `db:"severity"`
	Message    string          `db:"message"`
	Field      string          `db:"field"`
	Expected   sql.NullFloat64 `db:"expected"`
	Actual     sql.NullFloat64 `db:"actual"`
}

// SaveAnomalies replaces the anomalies stored for a facility and period.
func (s *SQLiteStore) SaveAnomalies(ctx context.Context, facilityID, periodID string, anomalies []core.Anomaly) error {
	if s.db == nil {
		return errNotOpened
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM anomalies WHERE facility_id = ? AND period_id = ?`, facilityID, periodID,
	); err != nil {
		return fmt.Errorf("failed to clear anomalies: %w", err)
	}

	for _, a := range anomalies {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO anomalies (facility_id, period_id, kpi_id, type, severity, message, field, expected, actual)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			facilityID, periodID, a.KPIID, string(a.Type), a.Severity.String(), a.Message, a.Field,
			nullFloat(a.Expected), nullFloat(a.Actual),
		); err != nil {
			return fmt.Errorf("failed to save anomaly %s: %w", a.Type, err)
		}
	}

	return tx.Commit()
}

// ListAnomalies returns the anomalies of a facility and period in the
// order they were saved.
func (s *SQLiteStore) ListAnomalies(ctx context.Context, facilityID, periodID string) ([]core.Anomaly, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	var rows []anomalyRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT facility_id, period_id, kpi_id, type, severity, message, field, expected, actual
		 FROM anomalies WHERE facility_id = ? AND period_id = ? ORDER BY id`,
		facilityID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list anomalies: %w", err)
	}

	out := make([]core.Anomaly, 0, len(rows))
	for _, row := range rows {
		sev, ok := core.ParseSeverity(row.Severity)
		if !ok {
			return nil, fmt.Errorf("invalid severity %q", row.Severity)
		}
		a := core.Anomaly{
			FacilityID: row.FacilityID,
			PeriodID:   row.PeriodID,
			KPIID:      row.KPIID,
			Type:       core.AnomalyType(row.Type),
			Severity:   sev,
			Message:    row.Message,
			Field:      row.Field,
		}
		if row.Expected.Valid {
			a.Expected = core.Float(row.Expected.Float64)
		}
		if row.Actual.Valid {
			a.Actual = core.Float(row.Actual.Float64)
		}
		out = append(out, a)
	}
	return out, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
