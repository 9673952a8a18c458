package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TrendDirection classifies a series over time.
type TrendDirection string

// Trend directions.
const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// stableFraction is the slope, relative to |mean|, below which a series is stable.
const stableFraction = 0.02

// TrendResult is an OLS trend over an ordered series.
type TrendResult struct {
	Slope     float64
	Mean      float64
	Direction TrendDirection
}

// Trend fits an ordinary-least-squares line against index position. The
// series is stable when |slope| < 2% of |mean|; otherwise it is improving
// when the slope moves in the metric's good direction.
func Trend(values []float64, higherIsBetter bool) TrendResult {
	ys := Finite(values)
	res := TrendResult{Mean: Mean(ys), Direction: TrendStable}
	if len(ys) < 2 {
		return res
	}

	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	res.Slope = slope

	if math.Abs(slope) < stableFraction*math.Abs(res.Mean) || slope == 0 {
		return res
	}
	if (slope > 0) == higherIsBetter {
		res.Direction = TrendImproving
	} else {
		res.Direction = TrendDeclining
	}
	return res
}
