package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapkpi/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "runs",
		Short:   "List recent runs",
		Example: `  leapkpi runs --limit 5`,
		Aliases: []string{"history"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")

	return cmd
}

func runRuns(cmd *cobra.Command, limit int) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	runs, err := cc.Engine.Store().ListRuns(commandContext(cmd), limit)
	if err != nil {
		return err
	}
	infos := make([]output.RunInfo, len(runs))
	for i, run := range runs {
		infos[i] = output.NewRunInfo(run)
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(infos)
	}

	r.Header(1, fmt.Sprintf("Runs (%d)", len(infos)))
	if len(infos) == 0 {
		r.Muted("No runs yet.")
		return nil
	}
	t := output.Table{
		Headers:    []string{"ID", "Period", "Status", "Facilities", "Results", "Anomalies", "Started", "Error"},
		RightAlign: []int{3, 4, 5},
	}
	for _, run := range infos {
		t.Rows = append(t.Rows, []string{
			run.ID, run.PeriodID, run.Status,
			fmt.Sprintf("%d", run.Facilities),
			fmt.Sprintf("%d", run.Results),
			fmt.Sprintf("%d", run.Anomalies),
			run.StartedAt, run.Error,
		})
	}
	r.Table(t)
	return nil
}
