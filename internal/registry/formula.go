package registry

import (
	"fmt"

	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// Formula is the closed set of KPI kinds. The calculator dispatches on the
// concrete type; new kinds are added here, not by matching on KPI ids.
type Formula interface {
	// Kind returns a short label for listings ("ratio", "margin", "composite").
	Kind() string
	formula()
}

// Ratio is numerator / denominator × Multiplier, where the denominator comes
// from the definition's DenominatorType and PayerScope.
type Ratio struct {
	Numerator  string
	Multiplier float64
}

// Margin is (revenue − Σcosts) / revenue × 100. The definition's
// DenominatorType is a label only.
type Margin struct {
	Revenue string
	Costs   []string
}

// Composite computes a value from named aggregates with a custom function.
type Composite struct {
	Inputs []string
	Fn     CompositeFunc
}

// CompositeFunc computes a composite KPI.
type CompositeFunc func(id string, in Inputs) Outcome

// Outcome is the result of a composite formula. A nil Value means the KPI
// cannot be computed and Warnings explain why. Numerator and Denominator are
// the operands the value was derived from, recorded for audit; they stay
// zero for formulas with no single quotient.
type Outcome struct {
	Value       *float64
	Numerator   float64
	Denominator float64
	Warnings    []string
}

// Quotient returns the outcome of num / den × scale, or a zero-denominator
// warning when den is zero. The operands are recorded either way.
func Quotient(id string, num, den, scale float64) Outcome {
	out := Outcome{Numerator: num, Denominator: den}
	if den == 0 {
		out.Warnings = []string{ZeroDenominatorWarning(id)}
		return out
	}
	out.Value = core.Float(num / den * scale)
	return out
}

// Unavailable returns an outcome with no value and the given warning.
func Unavailable(warning string) Outcome {
	return Outcome{Warnings: []string{warning}}
}

// Inputs are the resolved values a composite formula may read.
type Inputs struct {
	// Values holds aggregates for input keys that had at least one fact.
	Values       map[string]float64
	Denominators core.Denominators
	Occupancy    *core.OccupancyFact
	DaysInMonth  int
}

// Value returns the aggregate for key and whether any facts matched.
func (in Inputs) Value(key string) (float64, bool) {
	v, ok := in.Values[key]
	return v, ok
}

func (Ratio) Kind() string     { return "ratio" }
func (Margin) Kind() string    { return "margin" }
func (Composite) Kind() string { return "composite" }

func (Ratio) formula()     {}
func (Margin) formula()    {}
func (Composite) formula() {}

// Keys returns the numerator source keys a formula reads.
func Keys(f Formula) []string {
	switch f := f.(type) {
	case Ratio:
		return []string{f.Numerator}
	case Margin:
		return append([]string{f.Revenue}, f.Costs...)
	case Composite:
		return f.Inputs
	default:
		return nil
	}
}

// Percent returns a CompositeFunc computing part / whole × 100 from two
// aggregates. Census data is not consulted.
func Percent(part, whole string) CompositeFunc {
	return func(id string, in Inputs) Outcome {
		p, okPart := in.Value(part)
		w, okWhole := in.Value(whole)
		if !okPart || !okWhole {
			out := Unavailable(NoDataWarning(id))
			out.Numerator, out.Denominator = p, w
			return out
		}
		return Quotient(id, p, w, 100)
	}
}

// NoDataWarning is the warning attached when a KPI's numerator has no facts.
func NoDataWarning(id string) string { return fmt.Sprintf("No data for %s", id) }

// ZeroDenominatorWarning is the warning attached when a KPI divides by zero.
func ZeroDenominatorWarning(id string) string { return fmt.Sprintf("Denominator is zero for %s", id) }
