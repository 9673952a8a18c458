// Package benchmark computes cohort statistics for KPI values across a
// facility population and scores individual values against them.
package benchmark

import (
	"math"
	"sort"

	"github.com/leapstack-labs/leapkpi/internal/stats"
	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// CalculateBenchmarkStats summarizes values. NaN and infinite entries are
// discarded first; nil is returned when nothing remains.
func CalculateBenchmarkStats(values []float64) *core.BenchmarkStats {
	sorted := stats.Finite(values)
	if len(sorted) == 0 {
		return nil
	}
	sort.Float64s(sorted)

	return &core.BenchmarkStats{
		Count:  len(sorted),
		Mean:   stats.Mean(sorted),
		Median: Percentile(sorted, 50),
		P10:    Percentile(sorted, 10),
		P25:    Percentile(sorted, 25),
		P75:    Percentile(sorted, 75),
		P90:    Percentile(sorted, 90),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		StdDev: stats.PopulationStdDev(sorted),
	}
}

// Percentile returns the p-th percentile of an ascending slice by linear
// interpolation at index (p/100)·(n−1).
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	i := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(i))
	hi := int(math.Ceil(i))
	if lo == hi {
		return sorted[lo]
	}
	frac := i - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Values extracts the non-nil values of results.
func Values(results []core.KPIResult) []float64 {
	out := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Value != nil {
			out = append(out, *r.Value)
		}
	}
	return out
}
