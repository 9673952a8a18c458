package core

import "strings"

// BenchmarkStats summarizes the distribution of one KPI across a cohort.
// Percentiles use linear interpolation; StdDev is the population form.
type BenchmarkStats struct {
	Count  int
	Mean   float64
	Median float64
	P10    float64
	P25    float64
	P75    float64
	P90    float64
	Min    float64
	Max    float64
	StdDev float64
}

// Benchmark is the stats of one KPI for one cohort and period.
type Benchmark struct {
	KPIID    string
	Cohort   string
	PeriodID string
	Stats    BenchmarkStats
}

// Cohort keys.
const (
	CohortAll = "all"

	cohortState   = "state:"
	cohortRegion  = "region:"
	cohortSetting = "setting:"
)

// StateCohort returns the cohort key for facilities in state.
func StateCohort(state string) string { return cohortState + state }

// RegionCohort returns the cohort key for facilities in region.
func RegionCohort(region string) string { return cohortRegion + region }

// SettingCohort returns the cohort key for facilities of a setting.
func SettingCohort(s Setting) string { return cohortSetting + string(s) }

// CohortKind returns the dimension of a cohort key ("all", "state", ...).
func CohortKind(cohort string) string {
	if kind, _, ok := strings.Cut(cohort, ":"); ok {
		return kind
	}
	return cohort
}
