package facts

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"
)

// LoadSeeds loads <table>.csv files from dir into the fact tables. Only the
// four known fact tables are loaded; other files are skipped. A missing
// directory is not an error.
func (s *SQLSource) LoadSeeds(ctx context.Context, dir string) (int, error) {
	if dir == "" {
		return 0, nil
	}

	s.logger.Debug("loading seeds", slog.String("seeds_dir", dir))

	loaded := 0
	for _, table := range seedTables {
		csvPath := filepath.Join(dir, table+".csv")
		if _, err := os.Stat(csvPath); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return loaded, fmt.Errorf("failed to stat seed %s: %w", csvPath, err)
		}

		s.logger.Debug("loading seed file", slog.String("table", table), slog.String("path", csvPath))

		if err := s.loadCSV(ctx, table, csvPath); err != nil {
			return loaded, fmt.Errorf("failed to load seed %s: %w", filepath.Base(csvPath), err)
		}
		loaded++
	}
	return loaded, nil
}

func (s *SQLSource) loadCSV(ctx context.Context, table, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	switch s.driver {
	case DriverPostgres:
		return s.copyCSV(ctx, table, absPath)
	default:
		// Columns load as VARCHAR so ids like 2024-01 are never sniffed as dates.
		query := fmt.Sprintf(
			"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto('%s', header=true, all_varchar=true)",
			table,
			strings.ReplaceAll(absPath, "'", "''"),
		)
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to load CSV: %w", err)
		}
		return nil
	}
}

// copyCSV recreates table with TEXT columns and streams the file through
// COPY FROM STDIN. Queries cast columns on read.
func (s *SQLSource) copyCSV(ctx context.Context, table, path string) error {
	file, err := os.Open(path) //nolint:gosec // path comes from the configured seeds directory
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	headers, err := csv.NewReader(file).Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	colDefs := make([]string, len(headers))
	for i, h := range headers {
		colDefs[i] = sanitizeIdentifier(h) + " TEXT"
	}
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(colDefs, ", "))); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to reset file: %w", err)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(driverConn any) error {
		pgxConn := driverConn.(*stdlib.Conn).Conn()
		copySQL := fmt.Sprintf("COPY %s FROM STDIN WITH (FORMAT csv, HEADER true)", table)
		_, err := pgxConn.PgConn().CopyFrom(ctx, file, copySQL)
		return err
	})
}

// sanitizeIdentifier makes a CSV header safe as a column name.
func sanitizeIdentifier(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = strings.NewReplacer(" ", "_", "-", "_", `"`, "").Replace(safe)
	return `"` + safe + `"`
}
