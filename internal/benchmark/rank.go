package benchmark

import (
	"sort"

	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// Performance labels.
const (
	LabelTopQuartile    = "Top Quartile"
	LabelAboveMedian    = "Above Median"
	LabelBelowMedian    = "Below Median"
	LabelBottomQuartile = "Bottom Quartile"
)

type anchor struct {
	value float64
	rank  float64
}

// GetPercentileRank maps value to [0,100] by interpolating linearly between
// the quartile anchors (min,0) (p25,25) (median,50) (p75,75) (max,100).
// Values at or beyond the extremes clamp. A flat segment between two equal
// anchors returns the lower anchor's rank.
func GetPercentileRank(value float64, s core.BenchmarkStats) float64 {
	if value <= s.Min {
		return 0
	}
	if value >= s.Max {
		return 100
	}

	anchors := [...]anchor{
		{s.Min, 0},
		{s.P25, 25},
		{s.Median, 50},
		{s.P75, 75},
		{s.Max, 100},
	}
	for i := 1; i < len(anchors); i++ {
		lo, hi := anchors[i-1], anchors[i]
		if value > hi.value {
			continue
		}
		if hi.value == lo.value {
			return lo.rank
		}
		return lo.rank + (value-lo.value)/(hi.value-lo.value)*(hi.rank-lo.rank)
	}
	return 100
}

// GetPerformanceLabel classifies a percentile rank. For metrics where lower
// is better the rank is inverted first.
func GetPerformanceLabel(rank float64, higherIsBetter bool) string {
	if !higherIsBetter {
		rank = 100 - rank
	}
	switch {
	case rank >= 75:
		return LabelTopQuartile
	case rank >= 50:
		return LabelAboveMedian
	case rank >= 25:
		return LabelBelowMedian
	default:
		return LabelBottomQuartile
	}
}

// CohortScore is a value's standing within one cohort.
type CohortScore struct {
	Cohort string
	Rank   float64
	Label  string
	Stats  core.BenchmarkStats
}

// Score ranks value against each cohort in byCohort, ordered with "all"
// first and the rest by cohort key.
func Score(value float64, byCohort map[string]core.BenchmarkStats, higherIsBetter bool) []CohortScore {
	keys := make([]string, 0, len(byCohort))
	for k := range byCohort {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if (keys[i] == core.CohortAll) != (keys[j] == core.CohortAll) {
			return keys[i] == core.CohortAll
		}
		return keys[i] < keys[j]
	})

	scores := make([]CohortScore, 0, len(keys))
	for _, k := range keys {
		rank := GetPercentileRank(value, byCohort[k])
		scores = append(scores, CohortScore{
			Cohort: k,
			Rank:   rank,
			Label:  GetPerformanceLabel(rank, higherIsBetter),
			Stats:  byCohort[k],
		})
	}
	return scores
}
