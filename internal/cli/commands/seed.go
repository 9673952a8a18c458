package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapkpi/internal/cli/output"
	"github.com/leapstack-labs/leapkpi/internal/facts"
	"github.com/spf13/cobra"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fact CSV files into the fact database",
		Long: `Load facilities.csv, finance_facts.csv, census_facts.csv and
occupancy_facts.csv from the seeds directory into the configured DuckDB
file or Postgres database, replacing the existing tables.

An in-memory DuckDB is seeded automatically by every command.`,
		Example: `  # Load seeds into a DuckDB file
  leapkpi seed --facts-dsn ./facts.duckdb

  # Load seeds into Postgres
  leapkpi seed --facts-driver postgres --facts-dsn "postgres://localhost/kpi"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd)
		},
	}

	return cmd
}

func runSeed(cmd *cobra.Command) error {
	cc := NewCommandContextWithoutEngine(cmd)
	fc := cc.Cfg.Facts
	if fc.Driver == facts.DriverMemory {
		return errors.New("the memory facts driver cannot be seeded")
	}
	if fc.SeedsDir == "" {
		return errors.New("no seeds directory configured")
	}

	ctx := commandContext(cmd)
	src, err := facts.OpenSQL(ctx, facts.Config{Driver: fc.Driver, DSN: fc.DSN, Logger: cc.Logger})
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	n, err := src.LoadSeeds(ctx, fc.SeedsDir)
	if err != nil {
		return err
	}
	cc.Logger.Info("seeded fact tables", slog.Int("tables", n), slog.String("driver", src.Driver()))

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{"seeds_dir": fc.SeedsDir, "driver": src.Driver(), "tables": n})
	}
	if n == 0 {
		r.Warning(fmt.Sprintf("no fact CSV files found in %s", fc.SeedsDir))
		return nil
	}
	r.Success(fmt.Sprintf("Loaded %d fact table(s) from %s", n, fc.SeedsDir))
	return nil
}
