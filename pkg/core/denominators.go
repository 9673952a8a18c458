package core

// DenominatorType names the census quantity a KPI divides by.
type DenominatorType string

// Denominator types.
const (
	DenominatorResidentDays  DenominatorType = "resident_days"
	DenominatorSkilledDays   DenominatorType = "skilled_days"
	DenominatorVentDays      DenominatorType = "vent_days"
	DenominatorOccupiedUnits DenominatorType = "occupied_units"
	DenominatorPayerDays     DenominatorType = "payer_days"
	DenominatorNone          DenominatorType = "none"
)

// Denominators are the canonical census totals for one facility and period.
// They are recomputed from facts, never mutated.
type Denominators struct {
	FacilityID   string
	PeriodID     string
	ResidentDays float64
	SkilledDays  float64
	VentDays     float64
	// OccupiedUnits is only known for senior-living settings.
	OccupiedUnits *float64
	PayerDays     map[PayerCategory]float64
}

// PayerDaysFor sums the day buckets of the given payers.
func (d Denominators) PayerDaysFor(payers []PayerCategory) float64 {
	var total float64
	for _, p := range payers {
		total += d.PayerDays[p]
	}
	return total
}
