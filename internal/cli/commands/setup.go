package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapkpi/internal/cli/config"
	"github.com/leapstack-labs/leapkpi/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapkpi/internal/config"
	"github.com/leapstack-labs/leapkpi/internal/engine"
	"github.com/leapstack-labs/leapkpi/internal/facts"
	"github.com/leapstack-labs/leapkpi/internal/registry"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(commandContext(cmd))

	eng, err := createEngine(commandContext(cmd), cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	cleanup := func() {
		if err := eng.Close(); err != nil {
			logger.Warn("failed to close engine", slog.String("error", err.Error()))
		}
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
	}, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need database access.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(commandContext(cmd))
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded (commands executed outside the root command).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	cfg := &config.Config{
		StatePath:    config.DefaultStateFile,
		LogLevel:     config.DefaultLogLevel,
		OutputFormat: config.DefaultOutput,
		Workers:      config.DefaultWorkers,
	}
	project := cfg.Project()
	project.ApplyDefaults()
	cfg.Facts, cfg.Outlier, cfg.API = project.Facts, project.Outlier, project.API
	return cfg
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func createEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	// Ensure state directory exists
	if cfg.StatePath != ":memory:" {
		stateDir := filepath.Dir(cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	src, err := openFacts(ctx, cfg.Facts, logger)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(engine.Config{
		Facts:            src,
		StatePath:        cfg.StatePath,
		Registry:         reg,
		Workers:          cfg.Workers,
		OutlierWindow:    cfg.Outlier.Window,
		OutlierThreshold: cfg.Outlier.Threshold,
		Logger:           logger,
	})
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return eng, nil
}

// buildRegistry returns the built-in catalog plus the configured custom KPIs.
func buildRegistry(cfg *config.Config) (*registry.Registry, error) {
	return intconfig.BuildRegistry(cfg.KPIs, nil)
}

// openFacts opens the configured fact source. An in-memory DuckDB has no
// data of its own, so the seeds are loaded into it on every open; file and
// Postgres databases are loaded explicitly with the seed command.
func openFacts(ctx context.Context, fc *config.FactsConfig, logger *slog.Logger) (facts.Source, error) {
	src, err := facts.Open(ctx, facts.Config{Driver: fc.Driver, DSN: fc.DSN, Logger: logger})
	if err != nil {
		return nil, err
	}

	if sqlSrc, ok := src.(*facts.SQLSource); ok && isEphemeral(fc) {
		n, err := sqlSrc.LoadSeeds(ctx, fc.SeedsDir)
		if err != nil {
			_ = src.Close()
			return nil, err
		}
		logger.Debug("loaded seeds", slog.Int("tables", n), slog.String("seeds_dir", fc.SeedsDir))
	}

	if fc.FacilitiesFile != "" {
		facilities, err := facts.LoadDirectory(fc.FacilitiesFile)
		if err != nil {
			_ = src.Close()
			return nil, err
		}
		src = facts.WithDirectory(src, facilities)
	}
	return src, nil
}

func isEphemeral(fc *config.FactsConfig) bool {
	return (fc.Driver == facts.DriverDuckDB || fc.Driver == "") && (fc.DSN == "" || fc.DSN == ":memory:")
}
