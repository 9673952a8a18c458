package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapkpi/internal/cli/output"
	"github.com/leapstack-labs/leapkpi/internal/engine"
	"github.com/spf13/cobra"
)

// TrendOptions holds options for the trend command.
type TrendOptions struct {
	Facility string
	KPI      string
	Periods  int
}

// NewTrendCommand creates the trend command.
func NewTrendCommand() *cobra.Command {
	opts := &TrendOptions{}

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show a facility's KPI history and trend",
		Long: `Fit a least-squares trend over a facility's stored history of one KPI
and classify it as improving, declining or stable.`,
		Example: `  leapkpi trend --facility F1 --kpi total_revenue_ppd
  leapkpi trend --facility F1 --kpi nursing_cost_ppd --periods 6`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrend(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Facility, "facility", "f", "", "Facility id")
	cmd.Flags().StringVarP(&opts.KPI, "kpi", "k", "", "KPI id")
	cmd.Flags().IntVarP(&opts.Periods, "periods", "n", 12, "Number of latest periods")
	_ = cmd.MarkFlagRequired("facility")
	_ = cmd.MarkFlagRequired("kpi")

	return cmd
}

func runTrend(cmd *cobra.Command, opts *TrendOptions) error {
	if opts.Facility == "" || opts.KPI == "" {
		return errors.New("--facility and --kpi are required")
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := cc.Engine.Trend(commandContext(cmd), opts.Facility, opts.KPI, opts.Periods)
	if err != nil {
		return err
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.TrendOutput{
			FacilityID: report.FacilityID,
			KPIID:      report.KPIID,
			Direction:  string(report.Trend.Direction),
			Slope:      report.Trend.Slope,
			Mean:       report.Trend.Mean,
			StdDev:     report.Window.StdDev,
			Volatility: report.Volatility,
			History:    output.NewResultInfos(report.History),
		})
	}
	renderTrend(r, report)
	return nil
}

func renderTrend(r *output.Renderer, report *engine.TrendReport) {
	r.Header(1, fmt.Sprintf("%s trend for %s", report.KPIID, report.FacilityID))
	if len(report.History) == 0 {
		r.Muted("No stored history. Run some periods first.")
		return
	}

	unit := report.History[0].Unit
	r.KeyValue("Direction", string(report.Trend.Direction))
	r.KeyValue("Slope per period", output.FormatFloat(report.Trend.Slope, unit))
	r.KeyValue("Mean", output.FormatFloat(report.Trend.Mean, unit))
	r.KeyValue("Std dev", output.FormatFloat(report.Window.StdDev, unit))
	r.KeyValue("Volatility", output.FormatNumber(report.Volatility))
	r.Println()

	t := output.Table{Headers: []string{"Period", "Value"}, RightAlign: []int{1}}
	for _, h := range report.History {
		t.Rows = append(t.Rows, []string{h.PeriodID, output.FormatValue(h.Value, h.Unit)})
	}
	r.Table(t)
}
