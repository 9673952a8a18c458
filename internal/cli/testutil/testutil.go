// Package testutil builds sample projects and output assertions for CLI tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// SampleConfig is the leapkpi.yaml written by SetupTestProject.
const SampleConfig = `state_path: .leapkpi/state.db
facts:
  driver: duckdb
  seeds_dir: seeds
outlier:
  window: 3
`

// samplePPD is the revenue per patient day of each sample facility.
var samplePPD = []struct {
	id, name, state, region string
	ppd                     float64
}{
	{"F1", "Oak Grove", "OH", "Midwest", 300},
	{"F2", "Maple Court", "OH", "Midwest", 350},
	{"F3", "Pine Ridge", "MI", "Midwest", 400},
	{"F4", "Cedar Hills", "TX", "South", 500},
}

// SampleResidentDays is the resident days of every sample facility.
const SampleResidentDays = 3000

// SetupTestProject creates a temporary project with a leapkpi.yaml and fact
// seeds for the given periods. Each facility earns its revenue per patient
// day on 3000 resident days, 20% of them Medicare A.
func SetupTestProject(t *testing.T, periods ...string) string {
	t.Helper()

	tmpDir := t.TempDir()
	seedsDir := filepath.Join(tmpDir, "seeds")
	if err := os.MkdirAll(seedsDir, 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", seedsDir, err)
	}

	var facilities, finance, census strings.Builder
	facilities.WriteString("facility_id,name,state,region,setting\n")
	finance.WriteString("facility_id,period_id,account_category,account_subcategory,department,payer_category,amount,denominator_type,source_file\n")
	census.WriteString("facility_id,period_id,payer_category,days,is_skilled,is_vent,source_file\n")

	for _, f := range samplePPD {
		fmt.Fprintf(&facilities, "%s,%s,%s,%s,SNF\n", f.id, f.name, f.state, f.region)
		for _, period := range periods {
			revenue := SampleResidentDays * f.ppd
			rows := []struct {
				category, subcategory, department, payer string
				amount                                   float64
			}{
				{"revenue", "", "", "MEDICARE_A", revenue * 0.4},
				{"revenue", "", "", "MEDICAID", revenue * 0.6},
				{"expense", "wages", "nursing", "", revenue * 0.5},
				{"expense", "contract_labor", "nursing", "", revenue * 0.1},
				{"expense", "", "therapy", "", revenue * 0.1},
				{"expense", "", "administration", "", revenue * 0.1},
			}
			for _, r := range rows {
				fmt.Fprintf(&finance, "%s,%s,%s,%s,%s,%s,%.2f,resident_days,gl.csv\n",
					f.id, period, r.category, r.subcategory, r.department, r.payer, r.amount)
			}
			skilled := SampleResidentDays * 0.2
			fmt.Fprintf(&census, "%s,%s,MEDICARE_A,%.0f,true,false,census.csv\n", f.id, period, skilled)
			fmt.Fprintf(&census, "%s,%s,MEDICAID,%.0f,false,false,census.csv\n", f.id, period, SampleResidentDays-skilled)
		}
	}

	files := map[string]string{
		filepath.Join(tmpDir, "leapkpi.yaml"):        SampleConfig,
		filepath.Join(seedsDir, "facilities.csv"):    facilities.String(),
		filepath.Join(seedsDir, "finance_facts.csv"): finance.String(),
		filepath.Join(seedsDir, "census_facts.csv"):  census.String(),
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create %s: %v", path, err)
		}
	}

	return tmpDir
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI fails when s carries terminal escape sequences.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	assert.NotRegexp(t, ansiEscape, s, "output contains ANSI escapes")
}

// AssertContains fails when s lacks want.
func AssertContains(t *testing.T, s, want string) {
	t.Helper()
	assert.Contains(t, s, want)
}

// AssertValidMarkdown checks that code fences are closed and no heading is
// empty.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fences := strings.Count(md, "```")
	assert.Zero(t, fences%2, "unbalanced code fences: %d", fences)

	for n, line := range strings.Split(md, "\n") {
		heading := strings.TrimSpace(line)
		if strings.HasPrefix(heading, "#") {
			assert.NotEmpty(t, strings.TrimLeft(heading, "# "), "empty heading on line %d", n+1)
		}
	}
}
