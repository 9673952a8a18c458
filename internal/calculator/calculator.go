// Package calculator computes KPI values for one facility and period from
// finance facts and resolved denominators.
//
// Calculation is a pure function of its inputs: no I/O, no shared mutable
// state, and data-quality problems come back as warnings and anomalies
// rather than errors.
package calculator

import (
	"github.com/leapstack-labs/leapkpi/internal/denominator"
	"github.com/leapstack-labs/leapkpi/internal/registry"
	"github.com/leapstack-labs/leapkpi/pkg/core"
	"github.com/shopspring/decimal"
)

// Request is the input for one facility and period.
type Request struct {
	FacilityID string
	PeriodID   string
	// Setting selects the default KPI set when KPIIDs is empty.
	Setting core.Setting
	// KPIIDs restricts the calculation; unknown ids are skipped.
	KPIIDs  []string
	Finance []core.FinanceFact
	Census  []core.CensusFact
	// Denominators, when set, are used instead of resolving Census.
	Denominators *core.Denominators
	Occupancy    []core.OccupancyFact
	// DaysInMonth defaults to the calendar length of the period.
	DaysInMonth int
}

// Calculation is the output for one facility and period.
type Calculation struct {
	Denominators core.Denominators
	Results      []core.KPIResult
	Anomalies    []core.Anomaly
}

// Calculator evaluates registry definitions.
type Calculator struct {
	registry *registry.Registry
}

// New creates a calculator over r. A nil registry uses registry.Default().
func New(r *registry.Registry) *Calculator {
	if r == nil {
		r = registry.Default()
	}
	return &Calculator{registry: r}
}

// Registry returns the registry the calculator evaluates.
func (c *Calculator) Registry() *registry.Registry {
	return c.registry
}

// CalculateAllKPIs computes every requested KPI. The only error is a
// malformed period id; sparse or missing data yields nil values with
// warnings.
func (c *Calculator) CalculateAllKPIs(req Request) (Calculation, error) {
	period, err := core.ParsePeriod(req.PeriodID)
	if err != nil {
		return Calculation{}, err
	}
	days := req.DaysInMonth
	if days <= 0 {
		days = period.DaysInMonth()
	}

	var (
		d         core.Denominators
		anomalies []core.Anomaly
	)
	if req.Denominators != nil {
		d = *req.Denominators
		anomalies = denominator.Validate(d)
	} else {
		d, anomalies = denominator.Resolve(req.Census, req.FacilityID, req.PeriodID)
	}

	occ := findOccupancy(req.Occupancy, req.FacilityID, req.PeriodID)
	if d.OccupiedUnits == nil && (req.Setting == "" || req.Setting.IsSeniorLiving()) {
		d = denominator.WithOccupancy(d, occ, days)
	}

	finance := scopeFacts(req.Finance, req.FacilityID, req.PeriodID)
	defs := c.definitions(req)
	results := make([]core.KPIResult, 0, len(defs))
	for _, def := range defs {
		res := c.calculate(def, finance, d, occ, days)
		res.FacilityID, res.PeriodID = req.FacilityID, req.PeriodID
		results = append(results, res)
	}

	return Calculation{Denominators: d, Results: results, Anomalies: anomalies}, nil
}

// definitions returns the requested definitions in request order, or the
// setting's default set.
func (c *Calculator) definitions(req Request) []registry.Definition {
	if len(req.KPIIDs) == 0 {
		return c.registry.ForSetting(req.Setting)
	}
	seen := make(map[string]bool, len(req.KPIIDs))
	defs := make([]registry.Definition, 0, len(req.KPIIDs))
	for _, id := range req.KPIIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if def, ok := c.registry.Get(id); ok {
			defs = append(defs, def)
		}
	}
	return defs
}

func (c *Calculator) calculate(def registry.Definition, finance []core.FinanceFact, d core.Denominators, occ *core.OccupancyFact, days int) core.KPIResult {
	res := core.KPIResult{
		KPIID:           def.ID,
		DenominatorType: def.DenominatorType,
		PayerScope:      def.PayerScope,
		Unit:            def.Unit,
	}

	switch f := def.Formula.(type) {
	case registry.Ratio:
		c.ratio(&res, f, def, finance, d)
	case registry.Margin:
		c.margin(&res, f, def, finance)
	case registry.Composite:
		c.composite(&res, f, def, finance, d, occ, days)
	}
	return res
}

func (c *Calculator) ratio(res *core.KPIResult, f registry.Ratio, def registry.Definition, finance []core.FinanceFact, d core.Denominators) {
	num, found := c.numerator(finance, f.Numerator, def.PayerScope)
	den := 1.0
	if def.DenominatorType != core.DenominatorNone {
		den = GetDenominatorValue(d, def.DenominatorType, def.PayerScope)
	}
	res.NumeratorValue = num
	res.DenominatorValue = den

	if den == 0 {
		res.Warnings = append(res.Warnings, registry.ZeroDenominatorWarning(def.ID))
	}
	if !found {
		res.Warnings = append(res.Warnings, registry.NoDataWarning(def.ID))
	}
	if den == 0 || !found {
		return
	}

	mult := f.Multiplier
	if mult == 0 {
		mult = 1
	}
	res.Value = core.Float(num / den * mult)
}

func (c *Calculator) margin(res *core.KPIResult, f registry.Margin, def registry.Definition, finance []core.FinanceFact) {
	revenue, revenueFound := c.numerator(finance, f.Revenue, def.PayerScope)

	var costs float64
	costsFound := false
	for _, key := range f.Costs {
		v, ok := c.numerator(finance, key, def.PayerScope)
		costs += v
		costsFound = costsFound || ok
	}

	res.NumeratorValue = revenue - costs
	res.DenominatorValue = revenue

	if revenueFound && revenue == 0 {
		res.Warnings = append(res.Warnings, registry.ZeroDenominatorWarning(def.ID))
	}
	if !revenueFound || !costsFound {
		res.Warnings = append(res.Warnings, registry.NoDataWarning(def.ID))
	}
	if !revenueFound || !costsFound || revenue == 0 {
		return
	}
	res.Value = core.Float((revenue - costs) / revenue * 100)
}

func (c *Calculator) composite(res *core.KPIResult, f registry.Composite, def registry.Definition, finance []core.FinanceFact, d core.Denominators, occ *core.OccupancyFact, days int) {
	in := registry.Inputs{
		Values:       make(map[string]float64, len(f.Inputs)),
		Denominators: d,
		Occupancy:    occ,
		DaysInMonth:  days,
	}
	for _, key := range f.Inputs {
		if v, ok := c.numerator(finance, key, def.PayerScope); ok {
			in.Values[key] = v
		}
	}

	out := f.Fn(def.ID, in)
	res.Value = out.Value
	res.NumeratorValue = out.Numerator
	res.DenominatorValue = out.Denominator
	if out.Numerator == 0 && out.Denominator == 0 && def.DenominatorType != core.DenominatorNone {
		res.DenominatorValue = GetDenominatorValue(d, def.DenominatorType, def.PayerScope)
	}
	res.Warnings = append(res.Warnings, out.Warnings...)
}

func (c *Calculator) numerator(finance []core.FinanceFact, key string, scope core.PayerScope) (float64, bool) {
	source, ok := c.registry.Source(key)
	if !ok {
		return 0, false
	}
	return sumMatching(finance, source, scope)
}

// GetDenominatorValue returns the denominator of type t. For payer_days the
// scope's payers are summed; the all scope falls back to resident days.
func GetDenominatorValue(d core.Denominators, t core.DenominatorType, scope core.PayerScope) float64 {
	switch t {
	case core.DenominatorResidentDays:
		return d.ResidentDays
	case core.DenominatorSkilledDays:
		return d.SkilledDays
	case core.DenominatorVentDays:
		return d.VentDays
	case core.DenominatorOccupiedUnits:
		if d.OccupiedUnits == nil {
			return 0
		}
		return *d.OccupiedUnits
	case core.DenominatorPayerDays:
		members := scope.Members()
		if members == nil {
			return d.ResidentDays
		}
		return d.PayerDaysFor(members)
	default:
		return 0
	}
}

// NumeratorValue sums the facts of facility and period matching source.
// When scope names specific payers, only facts tagged with one of them count.
// The boolean is false when no fact matched.
func NumeratorValue(facts []core.FinanceFact, source registry.NumeratorSource, facilityID, periodID string, scope core.PayerScope) (float64, bool) {
	return sumMatching(scopeFacts(facts, facilityID, periodID), source, scope)
}

func sumMatching(facts []core.FinanceFact, source registry.NumeratorSource, scope core.PayerScope) (float64, bool) {
	total := decimal.Zero
	found := false
	for _, f := range facts {
		if !source.Matches(f) || !inScope(f, scope) {
			continue
		}
		total = total.Add(f.Amount)
		found = true
	}
	v, _ := total.Float64()
	return v, found
}

func inScope(f core.FinanceFact, scope core.PayerScope) bool {
	if scope.Kind != core.ScopePayers {
		return true
	}
	if f.PayerCategory == nil {
		return false
	}
	for _, p := range scope.Payers {
		if p == *f.PayerCategory {
			return true
		}
	}
	return false
}

func scopeFacts(facts []core.FinanceFact, facilityID, periodID string) []core.FinanceFact {
	out := make([]core.FinanceFact, 0, len(facts))
	for _, f := range facts {
		if f.FacilityID == facilityID && f.PeriodID == periodID {
			out = append(out, f)
		}
	}
	return out
}

func findOccupancy(facts []core.OccupancyFact, facilityID, periodID string) *core.OccupancyFact {
	for i := range facts {
		if facts[i].FacilityID == facilityID && facts[i].PeriodID == periodID {
			return &facts[i]
		}
	}
	return nil
}
