// Package stats provides the descriptive statistics shared by the
// calculator's quality checks, the benchmark engine and trend reporting.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of x, or 0 for an empty slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// PopulationStdDev returns sqrt(mean((x−mean)²)), dividing by n rather than
// n−1. Returns 0 for an empty slice.
func PopulationStdDev(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(stat.Moment(2, x, nil))
}

// Volatility is the coefficient of variation as a percentage:
// population std dev / |mean| × 100. Defined as 0 when the mean is 0.
func Volatility(x []float64) float64 {
	m := Mean(x)
	if m == 0 {
		return 0
	}
	return PopulationStdDev(x) / math.Abs(m) * 100
}

// Finite returns the values of x that are neither NaN nor infinite.
func Finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// WindowStats summarizes a trailing window of observations.
type WindowStats struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Trailing summarizes the last window finite values of x (all of them when
// window <= 0).
func Trailing(x []float64, window int) WindowStats {
	vals := Finite(x)
	if window > 0 && len(vals) > window {
		vals = vals[len(vals)-window:]
	}
	if len(vals) == 0 {
		return WindowStats{}
	}
	return WindowStats{
		Count:  len(vals),
		Mean:   Mean(vals),
		StdDev: PopulationStdDev(vals),
		Min:    floats.Min(vals),
		Max:    floats.Max(vals),
	}
}
