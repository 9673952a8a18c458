package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/leapstack-labs/leapkpi/internal/config"
)

// ConfigField documents one leapkpi.yaml key.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
	Section     string
}

func configSchema() []ConfigField {
	return []ConfigField{
		{Name: "state_path", Type: "string", Default: config.DefaultStateFile, Description: "SQLite state database", Section: "project"},
		{Name: "workers", Type: "int", Default: strconv.Itoa(config.DefaultWorkers), Description: "Facilities calculated concurrently during a run", Section: "project"},
		{Name: "log_level", Type: "string", Default: "warn", Description: "debug, info, warn or error", Section: "project"},
		{Name: "output", Type: "string", Default: "auto", Description: "auto, text, markdown or json", Section: "project"},

		{Name: "facts.driver", Type: "string", Default: config.DefaultFactsDriver, Description: "duckdb, postgres or memory", Section: "facts"},
		{Name: "facts.dsn", Type: "string", Description: "DuckDB file (empty for in-memory) or Postgres URL", Section: "facts"},
		{Name: "facts.seeds_dir", Type: "string", Default: config.DefaultSeedsDir, Description: "Directory of <table>.csv seed files", Section: "facts"},
		{Name: "facts.facilities_file", Type: "string", Description: "YAML facility directory overriding the facilities table", Section: "facts"},

		{Name: "outlier.window", Type: "int", Default: strconv.Itoa(config.DefaultOutlierWindow), Description: "Prior periods compared against", Section: "outlier"},
		{Name: "outlier.threshold", Type: "float", Default: strconv.FormatFloat(config.DefaultOutlierThreshold, 'g', -1, 64), Description: "Standard deviations from the trailing mean that flag a value", Section: "outlier"},

		{Name: "api.addr", Type: "string", Default: config.DefaultAPIAddr, Description: "Listen address of `leapkpi serve`", Section: "api"},
	}
}

// generateConfigDocs writes the configuration reference.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating configuration docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "LeapKPI configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("LeapKPI is configured via `leapkpi.yaml` in your project root. Values of the form `${VAR}` are expanded from the environment.")

	fields := configSchema()
	for _, section := range []struct{ key, title string }{
		{"project", "Project Settings"},
		{"facts", "Fact Source"},
		{"outlier", "Outlier Detection"},
		{"api", "HTTP API"},
	} {
		w.Header(2, section.title)
		var rows [][]string
		for _, f := range fields {
			if f.Section != section.key {
				continue
			}
			rows = append(rows, []string{InlineCode(f.Name), f.Type, InlineCode(orDash(f.Default)), f.Description})
		}
		w.Table([]string{"Field", "Type", "Default", "Description"}, rows)
	}

	w.Header(2, "Custom KPIs")
	w.Paragraph("Composite KPIs are Starlark expressions over numerator sums and denominators:")
	w.CodeBlock("yaml", `kpis:
  - id: therapy_to_nursing
    name: Therapy to Nursing Cost Ratio
    expr: therapy_cost / nursing_cost * 100
    inputs: [therapy_cost, nursing_cost]
    unit: percentage
    higher_is_better: false
    settings: [SNF]`)

	w.Header(2, "Example")
	w.CodeBlock("yaml", `state_path: .leapkpi/state.db
facts:
  driver: postgres
  dsn: ${FACTS_DATABASE_URL}
outlier:
  window: 6
  threshold: 3
api:
  addr: :8088`)

	return writePage(outDir, "configuration.md", w)
}
