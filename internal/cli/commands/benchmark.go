package commands

import (
	"errors"

	"github.com/leapstack-labs/leapkpi/internal/cli/output"
	"github.com/leapstack-labs/leapkpi/pkg/core"
	"github.com/spf13/cobra"
)

// BenchmarkOptions holds options for the benchmark command.
type BenchmarkOptions struct {
	Period string
	KPI    string
	Cohort string
}

// NewBenchmarkCommand creates the benchmark command.
func NewBenchmarkCommand() *cobra.Command {
	opts := &BenchmarkOptions{}

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Show stored cohort benchmarks for a period",
		Long: `Show the percentile distribution of each KPI across cohorts: all
facilities, and facilities sharing a state, region or setting.

Benchmarks are built by run; this command only reads them.`,
		Example: `  # Every KPI
  leapkpi benchmark --period 2024-01

  # One KPI, state cohorts only
  leapkpi benchmark --period 2024-01 --kpi total_revenue_ppd --cohort state`,
		Aliases: []string{"bench"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBenchmark(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Period, "period", "p", "", "Period (YYYY-MM)")
	cmd.Flags().StringVarP(&opts.KPI, "kpi", "k", "", "Restrict to one KPI")
	cmd.Flags().StringVar(&opts.Cohort, "cohort", "", "Restrict to a cohort kind (all|state|region|setting)")
	_ = cmd.MarkFlagRequired("period")
	_ = cmd.RegisterFlagCompletionFunc("cohort", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"all", "state", "region", "setting"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runBenchmark(cmd *cobra.Command, opts *BenchmarkOptions) error {
	if opts.Period == "" {
		return errors.New("--period is required")
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	benchmarks, err := cc.Engine.Benchmarks(commandContext(cmd), opts.Period, opts.KPI)
	if err != nil {
		return err
	}
	benchmarks = filterCohort(benchmarks, opts.Cohort)

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.NewBenchmarkInfos(benchmarks))
	default:
		units := make(map[string]core.Unit)
		for _, def := range cc.Engine.Registry().All() {
			units[def.ID] = def.Unit
		}
		renderBenchmarks(r, opts.Period, benchmarks, units)
		return nil
	}
}

func filterCohort(benchmarks []core.Benchmark, kind string) []core.Benchmark {
	if kind == "" {
		return benchmarks
	}
	out := make([]core.Benchmark, 0, len(benchmarks))
	for _, b := range benchmarks {
		if core.CohortKind(b.Cohort) == kind {
			out = append(out, b)
		}
	}
	return out
}
