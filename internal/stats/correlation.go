package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Strength classifies the magnitude of a correlation.
type Strength string

// Correlation strengths by |r|.
const (
	StrengthStrong   Strength = "strong"
	StrengthModerate Strength = "moderate"
	StrengthWeak     Strength = "weak"
	StrengthNone     Strength = "none"
)

// Direction classifies the sign of a correlation.
type Direction string

// Correlation directions.
const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionNone     Direction = "none"
)

// minPairs is the fewest paired observations a correlation is computed from.
const minPairs = 3

// CorrelationResult is a Pearson correlation with its classification.
type CorrelationResult struct {
	R         float64
	N         int
	Strength  Strength
	Direction Direction
}

// Correlation computes Pearson's r over the pairs of x and y where both
// values are finite. Fewer than three pairs or a constant series yields a
// neutral result with Strength and Direction "none".
func Correlation(x, y []float64) CorrelationResult {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if isFinite(x[i]) && isFinite(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}

	res := CorrelationResult{N: len(xs), Strength: StrengthNone, Direction: DirectionNone}
	if len(xs) < minPairs || stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return res
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return res
	}
	res.R = r
	res.Strength = classifyStrength(r)
	res.Direction = classifyDirection(r)
	return res
}

func classifyStrength(r float64) Strength {
	switch abs := math.Abs(r); {
	case abs >= 0.7:
		return StrengthStrong
	case abs >= 0.4:
		return StrengthModerate
	case abs >= 0.2:
		return StrengthWeak
	default:
		return StrengthNone
	}
}

// classifyDirection leaves a dead zone of ±0.1 around zero.
func classifyDirection(r float64) Direction {
	switch {
	case r > 0.1:
		return DirectionPositive
	case r < -0.1:
		return DirectionNegative
	default:
		return DirectionNone
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
