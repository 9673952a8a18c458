package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapkpi/internal/registry"
	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// denominatorSections orders the catalog page.
var denominatorSections = []struct {
	Type  core.DenominatorType
	Title string
}{
	{core.DenominatorResidentDays, "Per Patient Day"},
	{core.DenominatorSkilledDays, "Per Skilled Day"},
	{core.DenominatorPayerDays, "Per Payer Day"},
	{core.DenominatorOccupiedUnits, "Per Occupied Unit"},
	{core.DenominatorVentDays, "Per Vent Day"},
	{core.DenominatorNone, "Margins and Mix"},
}

// generateKPIDocs writes the built-in KPI catalog and numerator sources.
func generateKPIDocs(outDir string) error {
	log.Printf("Generating KPI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	reg := registry.Default()
	if err := writePage(outDir, "index.md", kpiCatalog(reg)); err != nil {
		return err
	}
	return writePage(outDir, "sources.md", numeratorSources(reg))
}

func kpiCatalog(reg *registry.Registry) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter("KPI Catalog", "Built-in KPIs computed by LeapKPI")
	w.GeneratedMarker()

	w.Header(1, "KPI Catalog")
	w.Paragraph(fmt.Sprintf("LeapKPI ships with %d KPIs. Custom KPIs are declared under `kpis` in `leapkpi.yaml`.", reg.Count()))

	grouped := make(map[core.DenominatorType][]registry.Definition)
	for _, def := range reg.All() {
		grouped[def.DenominatorType] = append(grouped[def.DenominatorType], def)
	}

	for _, section := range denominatorSections {
		defs := grouped[section.Type]
		if len(defs) == 0 {
			continue
		}
		sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })

		w.Header(2, section.Title)
		rows := make([][]string, 0, len(defs))
		for _, def := range defs {
			rows = append(rows, []string{
				InlineCode(def.ID),
				def.Name,
				describeFormula(def),
				string(def.Unit),
				def.PayerScope.String(),
				better(def.HigherIsBetter),
				settings(def.Settings),
			})
		}
		w.Table([]string{"ID", "Name", "Formula", "Unit", "Payer Scope", "Better", "Settings"}, rows)
	}
	return w
}

func numeratorSources(reg *registry.Registry) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter("Numerator Sources", "Finance fact filters behind KPI numerators")
	w.GeneratedMarker()

	w.Header(1, "Numerator Sources")
	w.Paragraph("Each numerator key sums the finance facts matching its filters. Empty filters match anything; matching ignores case.")

	keys := make(map[string]bool)
	for _, def := range reg.All() {
		for _, key := range registry.Keys(def.Formula) {
			keys[key] = true
		}
	}
	sorted := make([]string, 0, len(keys))
	for key := range keys {
		sorted = append(sorted, key)
	}
	sort.Strings(sorted)

	var rows [][]string
	for _, key := range sorted {
		src, ok := reg.Source(key)
		if !ok {
			continue
		}
		payers := make([]string, len(src.Payers))
		for i, p := range src.Payers {
			payers[i] = string(p)
		}
		rows = append(rows, []string{
			InlineCode(key),
			orDash(src.AccountCategory),
			orDash(src.AccountSubcategory),
			orDash(src.Department),
			orDash(strings.Join(payers, ", ")),
		})
	}
	w.Table([]string{"Key", "Category", "Subcategory", "Department", "Payers"}, rows)
	return w
}

func describeFormula(def registry.Definition) string {
	switch f := def.Formula.(type) {
	case registry.Ratio:
		s := fmt.Sprintf("%s / %s", InlineCode(f.Numerator), def.DenominatorType)
		if f.Multiplier != 0 && f.Multiplier != 1 {
			s += fmt.Sprintf(" × %g", f.Multiplier)
		}
		return s
	case registry.Margin:
		return fmt.Sprintf("(%s − %s) / %s × 100", InlineCode(f.Revenue), strings.Join(f.Costs, " − "), InlineCode(f.Revenue))
	case registry.Composite:
		return fmt.Sprintf("f(%s)", strings.Join(f.Inputs, ", "))
	default:
		return def.Formula.Kind()
	}
}

func better(higher bool) string {
	if higher {
		return "higher"
	}
	return "lower"
}

func settings(ss []core.Setting) string {
	if len(ss) == 0 {
		return "all"
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return strings.Join(out, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
