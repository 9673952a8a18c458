package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapkpi/pkg/core"
)

type runRow struct {
	ID          string         `db:"id"`
	PeriodID    string         `db:"period_id"`
	Status      string         `db:"status"`
	Facilities  int            `db:"facilities"`
	Results     int            `db:"results"`
	Anomalies   int            `db:"anomalies"`
	StartedAt   string         `db:"started_at"`
	CompletedAt sql.NullString `db:"completed_at"`
	Error       sql.NullString `db:"error"`
}

const runColumns = `id, period_id, status, facilities, results, anomalies, started_at, completed_at, error`

// CreateRun records a new running calculation for a period.
func (s *SQLiteStore) CreateRun(ctx context.Context, periodID string) (*core.Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	run := &core.Run{
		ID:        generateID(),
		PeriodID:  periodID,
		Status:    core.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("period", periodID))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, period_id, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.PeriodID, string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*core.Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	var row runRow
	err := s.db.GetContext(ctx, &row, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return convertRun(row)
}

// CompleteRun stores the final status, counts and error of a run.
// A run still marked running is completed successfully.
func (s *SQLiteStore) CompleteRun(ctx context.Context, run *core.Run) error {
	if s.db == nil {
		return errNotOpened
	}

	if run.Status == "" || run.Status == core.RunStatusRunning {
		run.Status = core.RunStatusCompleted
	}
	now := time.Now().UTC()
	run.CompletedAt = &now

	var errMsg *string
	if run.Error != "" {
		errMsg = &run.Error
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, facilities = ?, results = ?, anomalies = ?, completed_at = ?, error = ?
		 WHERE id = ?`,
		string(run.Status), run.Facilities, run.Results, run.Anomalies, formatTime(now), errMsg, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", run.ID, core.ErrNotFound)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if limit <= 0 {
		limit = -1
	}

	var rows []runRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*core.Run, 0, len(rows))
	for _, row := range rows {
		run, err := convertRun(row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func convertRun(row runRow) (*core.Run, error) {
	started, err := parseTime(row.StartedAt)
	if err != nil {
		return nil, err
	}
	run := &core.Run{
		ID:         row.ID,
		PeriodID:   row.PeriodID,
		Status:     core.RunStatus(row.Status),
		Facilities: row.Facilities,
		Results:    row.Results,
		Anomalies:  row.Anomalies,
		StartedAt:  started,
		Error:      row.Error.String,
	}
	if row.CompletedAt.Valid {
		completed, err := parseTime(row.CompletedAt.String)
		if err != nil {
			return nil, err
		}
		run.CompletedAt = &completed
	}
	return run, nil
}
