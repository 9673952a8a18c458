package commands

// render.go - text and markdown rendering shared by the KPI commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapkpi/internal/cli/output"
	"github.com/leapstack-labs/leapkpi/pkg/core"
)

func renderDenominators(r *output.Renderer, d core.Denominators) {
	r.Header(2, "Denominators")
	r.KeyValue("Resident days", output.FormatNumber(d.ResidentDays))
	r.KeyValue("Skilled days", output.FormatNumber(d.SkilledDays))
	r.KeyValue("Vent days", output.FormatNumber(d.VentDays))
	if d.OccupiedUnits != nil {
		r.KeyValue("Occupied units", output.FormatNumber(*d.OccupiedUnits))
	}

	payers := make([]string, 0, len(d.PayerDays))
	for p := range d.PayerDays {
		payers = append(payers, string(p))
	}
	sort.Strings(payers)
	for _, p := range payers {
		r.KeyValue(p+" days", output.FormatNumber(d.PayerDays[core.PayerCategory(p)]))
	}
}

func renderResults(r *output.Renderer, results []core.KPIResult) {
	r.Header(2, fmt.Sprintf("Results (%d)", len(results)))
	if len(results) == 0 {
		r.Muted("No results.")
		return
	}

	t := output.Table{
		Headers:    []string{"KPI", "Value", "Numerator", "Denominator", "Scope", "Warnings"},
		RightAlign: []int{1, 2, 3},
	}
	for _, res := range results {
		t.Rows = append(t.Rows, []string{
			res.KPIID,
			output.FormatValue(res.Value, res.Unit),
			output.FormatNumber(res.NumeratorValue),
			output.FormatNumber(res.DenominatorValue),
			res.PayerScope.String(),
			strings.Join(res.Warnings, "; "),
		})
	}
	r.Table(t)
}

func renderAnomalies(r *output.Renderer, anomalies []output.AnomalyInfo) {
	r.Header(2, fmt.Sprintf("Anomalies (%d)", len(anomalies)))
	if len(anomalies) == 0 {
		r.Muted("No anomalies.")
		return
	}

	t := output.Table{Headers: []string{"Severity", "Type", "Field", "Expected", "Actual", "Message"}}
	for _, a := range anomalies {
		t.Rows = append(t.Rows, []string{
			a.Severity,
			a.Type,
			a.Field,
			output.FormatValue(a.Expected, core.UnitNumber),
			output.FormatValue(a.Actual, core.UnitNumber),
			a.Message,
		})
	}
	r.Table(t)
}

func renderBenchmarks(r *output.Renderer, periodID string, benchmarks []core.Benchmark, units map[string]core.Unit) {
	r.Header(1, fmt.Sprintf("Benchmarks for %s", periodID))
	if len(benchmarks) == 0 {
		r.Muted("No benchmarks stored for this period. Run it first.")
		return
	}

	t := output.Table{
		Headers:    []string{"KPI", "Cohort", "N", "P10", "P25", "Median", "P75", "P90", "Mean", "Std Dev"},
		RightAlign: []int{2, 3, 4, 5, 6, 7, 8, 9},
	}
	for _, b := range benchmarks {
		unit := units[b.KPIID]
		s := b.Stats
		t.Rows = append(t.Rows, []string{
			b.KPIID,
			b.Cohort,
			fmt.Sprintf("%d", s.Count),
			output.FormatFloat(s.P10, unit),
			output.FormatFloat(s.P25, unit),
			output.FormatFloat(s.Median, unit),
			output.FormatFloat(s.P75, unit),
			output.FormatFloat(s.P90, unit),
			output.FormatFloat(s.Mean, unit),
			output.FormatFloat(s.StdDev, unit),
		})
	}
	r.Table(t)
}

func renderRanking(r *output.Renderer, rk output.RankingOutput) {
	unit := core.Unit(rk.Unit)
	r.Header(1, fmt.Sprintf("%s for %s (%s)", rk.KPIID, rk.FacilityID, rk.PeriodID))
	r.KeyValue("Value", output.FormatValue(rk.Value, unit))
	direction := "lower is better"
	if rk.HigherIsBetter {
		direction = "higher is better"
	}
	r.KeyValue("Direction", direction)
	r.Println()

	if len(rk.Scores) == 0 {
		r.Muted("No cohort benchmarks to rank against.")
		return
	}

	styles := r.Styles()
	t := output.Table{
		Headers:    []string{"Cohort", "Percentile", "Label", "Cohort N", "Cohort Median"},
		RightAlign: []int{1, 3, 4},
	}
	for _, s := range rk.Scores {
		label := s.Label
		if r.EffectiveMode() == output.ModeText {
			label = styles.Label(s.Label).Render(s.Label)
		}
		t.Rows = append(t.Rows, []string{
			s.Cohort,
			output.FormatNumber(s.Rank),
			label,
			fmt.Sprintf("%d", s.Count),
			output.FormatFloat(s.Median, unit),
		})
	}
	r.Table(t)
}

func renderKPIs(r *output.Renderer, kpis []output.KPIInfo) {
	r.Header(1, fmt.Sprintf("KPIs (%d total)", len(kpis)))
	t := output.Table{Headers: []string{"ID", "Name", "Kind", "Unit", "Denominator", "Scope", "Better", "Settings"}}
	for _, k := range kpis {
		better := "lower"
		if k.HigherIsBetter {
			better = "higher"
		}
		settings := "all"
		if len(k.Settings) > 0 {
			settings = strings.Join(k.Settings, ", ")
		}
		t.Rows = append(t.Rows, []string{k.ID, k.Name, k.Kind, k.Unit, k.DenominatorType, k.PayerScope, better, settings})
	}
	r.Table(t)
}
