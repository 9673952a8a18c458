package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapkpi/internal/cli/output"
	"github.com/leapstack-labs/leapkpi/pkg/core"
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Period string
	All    bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Calculate, benchmark and store KPIs for a period",
		Long: `Calculate every KPI for every facility in a period, store the results
and anomalies, and rebuild the period's cohort benchmarks.

Runs are idempotent: re-running a period replaces its stored values.
Use --all to run every period with facts, oldest first, so outlier
detection sees each period's history.`,
		Example: `  # Run one period
  leapkpi run --period 2024-01

  # Run every period
  leapkpi run --all

  # Run with JSON output for CI/CD integration
  leapkpi run --period 2024-01 -o json`,
		Aliases: []string{"build"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Period, "period", "p", "", "Period to run (YYYY-MM)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Run every period with facts")
	cmd.MarkFlagsMutuallyExclusive("period", "all")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	if opts.Period == "" && !opts.All {
		return errors.New("either --period or --all is required")
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := commandContext(cmd)
	eng := cc.Engine
	r := cc.Renderer

	periods := []string{opts.Period}
	if opts.All {
		periods, err = eng.Facts().Periods(ctx)
		if err != nil {
			return err
		}
		if len(periods) == 0 {
			return errors.New("no periods with facts found")
		}
	}

	startTime := time.Now()
	runs := make([]output.RunInfo, 0, len(periods))
	var runErr error
	for _, period := range periods {
		run, err := eng.Run(ctx, period)
		if run != nil {
			runs = append(runs, output.NewRunInfo(run))
		}
		if err != nil {
			runErr = fmt.Errorf("run %s failed: %w", period, err)
			break
		}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(runs); err != nil {
			return err
		}
	default:
		renderRuns(r, runs, time.Since(startTime))
	}
	return runErr
}

func renderRuns(r *output.Renderer, runs []output.RunInfo, elapsed time.Duration) {
	r.Header(1, "Runs")
	for _, run := range runs {
		detail := fmt.Sprintf("%d facilities, %d results, %d anomalies", run.Facilities, run.Results, run.Anomalies)
		r.StatusLine(run.PeriodID, run.Status, detail)
		if run.Error != "" {
			r.Error(run.Error)
		}
	}
	r.Println()
	if failed(runs) {
		r.Muted(fmt.Sprintf("Stopped after %s", elapsed.Round(time.Millisecond)))
		return
	}
	r.Success(fmt.Sprintf("Completed %d period(s) in %s", len(runs), elapsed.Round(time.Millisecond)))
}

func failed(runs []output.RunInfo) bool {
	for _, run := range runs {
		if run.Status != string(core.RunStatusCompleted) {
			return true
		}
	}
	return false
}
