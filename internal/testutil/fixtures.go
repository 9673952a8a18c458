package testutil

import (
	"github.com/leapstack-labs/leapkpi/pkg/core"
	"github.com/shopspring/decimal"
)

// FactOption customizes a finance fact built by Finance.
type FactOption func(*core.FinanceFact)

// WithPayer tags the fact with a payer category.
func WithPayer(p core.PayerCategory) FactOption {
	return func(f *core.FinanceFact) { f.PayerCategory = &p }
}

// WithSubcategory sets the account subcategory.
func WithSubcategory(s string) FactOption {
	return func(f *core.FinanceFact) { f.AccountSubcategory = s }
}

// WithDepartment sets the department.
func WithDepartment(d string) FactOption {
	return func(f *core.FinanceFact) { f.Department = d }
}

// Finance builds a finance fact.
func Finance(facilityID, periodID, category string, amount float64, opts ...FactOption) core.FinanceFact {
	f := core.FinanceFact{
		FacilityID:      facilityID,
		PeriodID:        periodID,
		AccountCategory: category,
		Amount:          decimal.NewFromFloat(amount),
		DenominatorType: core.DenominatorResidentDays,
		SourceFile:      "fixture",
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Census builds a census fact. Skilled is derived from the payer.
func Census(facilityID, periodID string, payer core.PayerCategory, days float64) core.CensusFact {
	return core.CensusFact{
		FacilityID:    facilityID,
		PeriodID:      periodID,
		PayerCategory: payer,
		Days:          days,
		IsSkilled:     payer.IsSkilled(),
		SourceFile:    "fixture",
	}
}

// Dataset is a complete set of facts for a population of facilities.
type Dataset struct {
	Facilities []core.Facility
	Finance    []core.FinanceFact
	Census     []core.CensusFact
	Occupancy  []core.OccupancyFact
}

// SkilledNursingFacility returns finance and census facts for one SNF period.
// Revenue scales with resident days so total_revenue_ppd equals revenuePPD.
func SkilledNursingFacility(facilityID, periodID string, residentDays, revenuePPD float64) ([]core.FinanceFact, []core.CensusFact) {
	skilled := residentDays * 0.2
	medicaid := residentDays - skilled

	revenue := residentDays * revenuePPD
	finance := []core.FinanceFact{
		Finance(facilityID, periodID, "revenue", revenue*0.4, WithPayer(core.PayerMedicareA)),
		Finance(facilityID, periodID, "revenue", revenue*0.6, WithPayer(core.PayerMedicaid)),
		Finance(facilityID, periodID, "expense", revenue*0.5, WithDepartment("nursing"), WithSubcategory("wages")),
		Finance(facilityID, periodID, "expense", revenue*0.1, WithDepartment("nursing"), WithSubcategory("contract_labor")),
		Finance(facilityID, periodID, "expense", revenue*0.1, WithDepartment("therapy")),
		Finance(facilityID, periodID, "expense", revenue*0.1, WithDepartment("administration")),
	}
	census := []core.CensusFact{
		Census(facilityID, periodID, core.PayerMedicareA, skilled),
		Census(facilityID, periodID, core.PayerMedicaid, medicaid),
	}
	return finance, census
}

// SampleDataset returns four SNFs across two states for periodID with
// total_revenue_ppd of 300, 350, 400 and 500.
func SampleDataset(periodID string) Dataset {
	ds := Dataset{
		Facilities: []core.Facility{
			{ID: "F1", Name: "Oak Grove", State: "OH", Region: "Midwest", Setting: core.SettingSNF},
			{ID: "F2", Name: "Maple Court", State: "OH", Region: "Midwest", Setting: core.SettingSNF},
			{ID: "F3", Name: "Pine Ridge", State: "MI", Region: "Midwest", Setting: core.SettingSNF},
			{ID: "F4", Name: "Cedar Hills", State: "TX", Region: "South", Setting: core.SettingSNF},
		},
	}
	ppd := map[string]float64{"F1": 300, "F2": 350, "F3": 400, "F4": 500}
	for _, f := range ds.Facilities {
		fin, cen := SkilledNursingFacility(f.ID, periodID, 3000, ppd[f.ID])
		ds.Finance = append(ds.Finance, fin...)
		ds.Census = append(ds.Census, cen...)
	}
	return ds
}
