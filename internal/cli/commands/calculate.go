package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapkpi/internal/calculator"
	"github.com/leapstack-labs/leapkpi/internal/cli/output"
	"github.com/spf13/cobra"
)

// CalculateOptions holds options for the calculate command.
type CalculateOptions struct {
	Facility string
	Period   string
	KPIs     []string
	Save     bool
}

// NewCalculateCommand creates the calculate command.
func NewCalculateCommand() *cobra.Command {
	opts := &CalculateOptions{}

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate KPIs for one facility and period",
		Long: `Calculate KPIs for a single facility from the current facts.

Nothing is stored unless --save is given. Saved results replace the
facility's stored results for the period but do not rebuild benchmarks;
use run for that.`,
		Example: `  # Every KPI for the facility's setting
  leapkpi calculate --facility F1 --period 2024-01

  # Selected KPIs as JSON
  leapkpi calculate --facility F1 --period 2024-01 --kpi total_revenue_ppd,operating_margin -o json`,
		Aliases: []string{"calc"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalculate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Facility, "facility", "f", "", "Facility id")
	cmd.Flags().StringVarP(&opts.Period, "period", "p", "", "Period (YYYY-MM)")
	cmd.Flags().StringSliceVarP(&opts.KPIs, "kpi", "k", nil, "Comma-separated KPI ids (default: all for the setting)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Store the results and anomalies")
	_ = cmd.MarkFlagRequired("facility")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}

func runCalculate(cmd *cobra.Command, opts *CalculateOptions) error {
	if opts.Facility == "" || opts.Period == "" {
		return errors.New("--facility and --period are required")
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := commandContext(cmd)
	calc, err := cc.Engine.Calculate(ctx, opts.Facility, opts.Period, trimAll(opts.KPIs))
	if err != nil {
		return err
	}

	if opts.Save {
		store := cc.Engine.Store()
		if err := store.SaveResults(ctx, calc.Results); err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}
		if err := store.SaveAnomalies(ctx, opts.Facility, opts.Period, calc.Anomalies); err != nil {
			return fmt.Errorf("failed to save anomalies: %w", err)
		}
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.CalculationOutput{
			FacilityID:   opts.Facility,
			PeriodID:     opts.Period,
			Denominators: output.NewDenominatorInfo(calc.Denominators),
			Results:      output.NewResultInfos(calc.Results),
			Anomalies:    output.NewAnomalyInfos(calc.Anomalies),
			Saved:        opts.Save,
		})
	default:
		renderCalculation(r, opts, calc)
		return nil
	}
}

func renderCalculation(r *output.Renderer, opts *CalculateOptions, calc calculator.Calculation) {
	r.Header(1, fmt.Sprintf("KPIs for %s (%s)", opts.Facility, opts.Period))
	renderDenominators(r, calc.Denominators)
	r.Println()
	renderResults(r, calc.Results)
	renderAnomalies(r, output.NewAnomalyInfos(calc.Anomalies))
	if opts.Save {
		r.Success(fmt.Sprintf("Saved %d results", len(calc.Results)))
	}
}

// trimAll drops blanks from a comma-separated flag value.
func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
