package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapkpi/internal/cli/output"
	"github.com/leapstack-labs/leapkpi/pkg/core"
	"github.com/spf13/cobra"
)

// NewKPIsCommand creates the kpis command.
func NewKPIsCommand() *cobra.Command {
	var setting string

	cmd := &cobra.Command{
		Use:   "kpis",
		Short: "List the KPI catalog",
		Long: `List the built-in KPIs and any custom KPIs defined in leapkpi.yaml,
with their unit, denominator, payer scope and direction.`,
		Example: `  # Every KPI
  leapkpi kpis

  # KPIs computed for assisted living
  leapkpi kpis --setting ALF`,
		Aliases: []string{"list"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKPIs(cmd, setting)
		},
	}

	cmd.Flags().StringVar(&setting, "setting", "", "Only KPIs for a setting (SNF|ALF|ILF|MC)")

	return cmd
}

func runKPIs(cmd *cobra.Command, setting string) error {
	cc := NewCommandContextWithoutEngine(cmd)

	reg, err := buildRegistry(cc.Cfg)
	if err != nil {
		return err
	}

	defs := reg.All()
	if setting != "" {
		s, ok := core.ParseSetting(setting)
		if !ok {
			return fmt.Errorf("unknown setting %q", setting)
		}
		defs = reg.ForSetting(s)
	}
	kpis := output.NewKPIInfos(defs)

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(kpis)
	}
	renderKPIs(r, kpis)
	return nil
}
