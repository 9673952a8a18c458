package benchmark

import (
	"math"
	"sort"

	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// minCohortFacilities is the smallest population a non-"all" cohort is
// published for. A single-facility benchmark would reveal that facility's value.
const minCohortFacilities = 2

// GenerateBenchmarks computes one benchmark per KPI for cohort "all" and one
// per distinct state, region and setting with at least two contributing
// facilities. Only results for periodID with a finite value contribute; a
// facility reported twice for the same KPI counts once (last wins). Output
// is ordered by KPI id, then "all", then cohort key.
func GenerateBenchmarks(results []core.KPIResult, facilities []core.Facility, periodID string) []core.Benchmark {
	byID := make(map[string]core.Facility, len(facilities))
	for _, f := range facilities {
		byID[f.ID] = f
	}

	// kpi → facility → value
	values := make(map[string]map[string]float64)
	for _, r := range results {
		if r.PeriodID != periodID || r.Value == nil || math.IsNaN(*r.Value) || math.IsInf(*r.Value, 0) {
			continue
		}
		if values[r.KPIID] == nil {
			values[r.KPIID] = make(map[string]float64)
		}
		values[r.KPIID][r.FacilityID] = *r.Value
	}

	kpiIDs := make([]string, 0, len(values))
	for id := range values {
		kpiIDs = append(kpiIDs, id)
	}
	sort.Strings(kpiIDs)

	var out []core.Benchmark
	for _, kpiID := range kpiIDs {
		cohorts := make(map[string][]float64)
		facilityIDs := make([]string, 0, len(values[kpiID]))
		for id := range values[kpiID] {
			facilityIDs = append(facilityIDs, id)
		}
		sort.Strings(facilityIDs)

		for _, id := range facilityIDs {
			v := values[kpiID][id]
			for _, cohort := range cohortsOf(byID[id]) {
				cohorts[cohort] = append(cohorts[cohort], v)
			}
		}

		if s := CalculateBenchmarkStats(cohorts[core.CohortAll]); s != nil {
			out = append(out, core.Benchmark{KPIID: kpiID, Cohort: core.CohortAll, PeriodID: periodID, Stats: *s})
		}

		keys := make([]string, 0, len(cohorts))
		for key := range cohorts {
			if key != core.CohortAll {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			if len(cohorts[key]) < minCohortFacilities {
				continue
			}
			if s := CalculateBenchmarkStats(cohorts[key]); s != nil {
				out = append(out, core.Benchmark{KPIID: kpiID, Cohort: key, PeriodID: periodID, Stats: *s})
			}
		}
	}
	return out
}

// cohortsOf returns every cohort f belongs to. Blank attributes are skipped.
func cohortsOf(f core.Facility) []string {
	cohorts := []string{core.CohortAll}
	if f.State != "" {
		cohorts = append(cohorts, core.StateCohort(f.State))
	}
	if f.Region != "" {
		cohorts = append(cohorts, core.RegionCohort(f.Region))
	}
	if f.Setting != "" {
		cohorts = append(cohorts, core.SettingCohort(f.Setting))
	}
	return cohorts
}

// GetBenchmarksForFacility returns the stats of kpiID for each cohort
// facility belongs to, keyed by cohort. Cohorts that were suppressed are absent.
func GetBenchmarksForFacility(benchmarks []core.Benchmark, facility core.Facility, kpiID string) map[string]core.BenchmarkStats {
	member := make(map[string]bool)
	for _, c := range cohortsOf(facility) {
		member[c] = true
	}

	out := make(map[string]core.BenchmarkStats)
	for _, b := range benchmarks {
		if b.KPIID == kpiID && member[b.Cohort] {
			out[b.Cohort] = b.Stats
		}
	}
	return out
}
