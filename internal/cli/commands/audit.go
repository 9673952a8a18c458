package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapkpi/internal/cli/output"
	"github.com/leapstack-labs/leapkpi/pkg/core"
	"github.com/spf13/cobra"
)

// AuditOptions holds options for the audit command.
type AuditOptions struct {
	Facility string
	Period   string
	Strict   bool
}

// NewAuditCommand creates the audit command.
func NewAuditCommand() *cobra.Command {
	opts := &AuditOptions{}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check a facility's census denominators",
		Long: `Resolve a facility's denominators from the current census facts and
check them: skilled days must not exceed resident days, and payer day
buckets must add up to the resident day total.

With --strict the command fails when any error-severity anomaly is found.`,
		Example: `  leapkpi audit --facility F1 --period 2024-01
  leapkpi audit --facility F1 --period 2024-01 --strict`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAudit(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Facility, "facility", "f", "", "Facility id")
	cmd.Flags().StringVarP(&opts.Period, "period", "p", "", "Period (YYYY-MM)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Exit non-zero on error-severity anomalies")
	_ = cmd.MarkFlagRequired("facility")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}

func runAudit(cmd *cobra.Command, opts *AuditOptions) error {
	if opts.Facility == "" || opts.Period == "" {
		return errors.New("--facility and --period are required")
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := cc.Engine.Audit(commandContext(cmd), opts.Facility, opts.Period)
	if err != nil {
		return err
	}

	r := cc.Renderer
	anomalies := output.NewAnomalyInfos(report.Anomalies)
	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(output.AuditOutput{
			FacilityID:   opts.Facility,
			PeriodID:     opts.Period,
			Denominators: output.NewDenominatorInfo(report.Denominators),
			Anomalies:    anomalies,
		}); err != nil {
			return err
		}
	} else {
		r.Header(1, fmt.Sprintf("Audit of %s (%s)", opts.Facility, opts.Period))
		renderDenominators(r, report.Denominators)
		r.Println()
		renderAnomalies(r, anomalies)
		if len(anomalies) == 0 {
			r.Success("Denominators reconcile")
		}
	}

	if opts.Strict {
		if n := countSeverity(report.Anomalies, core.SeverityError); n > 0 {
			return fmt.Errorf("audit found %d error anomalies", n)
		}
	}
	return nil
}

func countSeverity(anomalies []core.Anomaly, s core.Severity) int {
	n := 0
	for _, a := range anomalies {
		if a.Severity == s {
			n++
		}
	}
	return n
}
