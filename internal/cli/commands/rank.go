package commands

import (
	"errors"

	"github.com/leapstack-labs/leapkpi/internal/cli/output"
	"github.com/spf13/cobra"
)

// RankOptions holds options for the rank command.
type RankOptions struct {
	Facility string
	Period   string
	KPI      string
}

// NewRankCommand creates the rank command.
func NewRankCommand() *cobra.Command {
	opts := &RankOptions{}

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank a facility's KPI against its cohorts",
		Long: `Place a facility's stored KPI value within each cohort it belongs to,
as an interpolated percentile rank and a performance label. Ranks
account for whether higher or lower values are better.`,
		Example: `  leapkpi rank --facility F1 --period 2024-01 --kpi total_revenue_ppd`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRank(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Facility, "facility", "f", "", "Facility id")
	cmd.Flags().StringVarP(&opts.Period, "period", "p", "", "Period (YYYY-MM)")
	cmd.Flags().StringVarP(&opts.KPI, "kpi", "k", "", "KPI id")
	for _, name := range []string{"facility", "period", "kpi"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runRank(cmd *cobra.Command, opts *RankOptions) error {
	if opts.Facility == "" || opts.Period == "" || opts.KPI == "" {
		return errors.New("--facility, --period and --kpi are required")
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ranking, err := cc.Engine.Rank(commandContext(cmd), opts.Facility, opts.Period, opts.KPI)
	if err != nil {
		return err
	}

	out := output.RankingOutput{
		FacilityID:     ranking.FacilityID,
		PeriodID:       ranking.PeriodID,
		KPIID:          ranking.KPIID,
		Unit:           string(ranking.Unit),
		HigherIsBetter: ranking.HigherIsBetter,
		Value:          ranking.Value,
		Scores:         output.NewScoreInfos(ranking.Scores),
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}
	renderRanking(r, out)
	return nil
}
