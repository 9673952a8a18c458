package core

import "github.com/shopspring/decimal"

// FinanceFact is one imported general-ledger line for a facility and period.
// Facts are immutable once imported.
type FinanceFact struct {
	FacilityID         string
	PeriodID           string
	AccountCategory    string
	AccountSubcategory string
	Department         string
	// PayerCategory is nil for lines that are not payer-specific (most expenses).
	PayerCategory   *PayerCategory
	Amount          decimal.Decimal
	DenominatorType DenominatorType
	SourceFile      string
}

// CensusFact is a day count for one payer at a facility and period.
// Days may be fractional.
type CensusFact struct {
	FacilityID    string
	PeriodID      string
	PayerCategory PayerCategory
	Days          float64
	IsSkilled     bool
	IsVent        bool
	SourceFile    string
}

// OccupancyFact is a monthly occupancy snapshot. Senior-living settings only;
// at most one per facility and period.
type OccupancyFact struct {
	FacilityID           string
	PeriodID             string
	OperationalBeds      float64
	LicensedBeds         float64
	TotalPatientDays     float64
	TotalUnitDays        float64
	SecondOccupantDays   float64
	OperationalOccupancy *float64
}
