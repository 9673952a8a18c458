package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapkpi/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewCorrelateCommand creates the correlate command.
func NewCorrelateCommand() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "correlate <kpi-x> <kpi-y>",
		Short: "Correlate two KPIs across facilities",
		Long: `Compute Pearson's r between two KPIs over every facility with stored,
non-null values for both in the period. Descriptive only.`,
		Example: `  leapkpi correlate contract_labor_pct operating_margin --period 2024-01`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorrelate(cmd, period, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", "", "Period (YYYY-MM)")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}

func runCorrelate(cmd *cobra.Command, period, kpiX, kpiY string) error {
	if period == "" {
		return errors.New("--period is required")
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := cc.Engine.Correlate(commandContext(cmd), period, kpiX, kpiY)
	if err != nil {
		return err
	}
	out := output.NewCorrelationOutput(period, kpiX, kpiY, res)

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}
	r.Header(1, fmt.Sprintf("%s vs %s (%s)", kpiX, kpiY, period))
	r.KeyValue("Facilities", fmt.Sprintf("%d", out.N))
	r.KeyValue("r", output.FormatNumber(out.R))
	r.KeyValue("Strength", out.Strength)
	r.KeyValue("Direction", out.Direction)
	return nil
}
