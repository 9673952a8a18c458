package registry

import (
	"strings"

	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// Account categories used by the built-in numerator sources.
const (
	CategoryRevenue    = "revenue"
	CategoryExpense    = "expense"
	CategoryStatistics = "statistics"
)

// NumeratorSource maps a numerator key to the finance facts it sums.
// Empty filter fields match anything; matching is case-insensitive.
type NumeratorSource struct {
	Key                string
	AccountCategory    string
	AccountSubcategory string
	Department         string
	// Payers restricts the source to payer-tagged facts of these payers.
	Payers []core.PayerCategory
}

// Matches reports whether f belongs to the source, ignoring facility and period.
func (s NumeratorSource) Matches(f core.FinanceFact) bool {
	if !matchField(s.AccountCategory, f.AccountCategory) ||
		!matchField(s.AccountSubcategory, f.AccountSubcategory) ||
		!matchField(s.Department, f.Department) {
		return false
	}
	if len(s.Payers) == 0 {
		return true
	}
	return f.PayerCategory != nil && containsPayer(s.Payers, *f.PayerCategory)
}

func matchField(want, got string) bool {
	return want == "" || strings.EqualFold(want, strings.TrimSpace(got))
}

func containsPayer(payers []core.PayerCategory, p core.PayerCategory) bool {
	for _, q := range payers {
		if q == p {
			return true
		}
	}
	return false
}

var (
	skilledNursing = []core.Setting{core.SettingSNF}
	seniorLiving   = []core.Setting{core.SettingALF, core.SettingILF, core.SettingMC}
)

func defaultSources() []NumeratorSource {
	return []NumeratorSource{
		{Key: "total_revenue", AccountCategory: CategoryRevenue},
		{Key: "total_expense", AccountCategory: CategoryExpense},
		{Key: "skilled_revenue", AccountCategory: CategoryRevenue, Payers: core.SkilledPayers},
		{Key: "vent_revenue", AccountCategory: CategoryRevenue, AccountSubcategory: "ventilator"},
		{Key: "nursing_cost", AccountCategory: CategoryExpense, Department: "nursing"},
		{Key: "contract_labor_cost", AccountCategory: CategoryExpense, Department: "nursing", AccountSubcategory: "contract_labor"},
		{Key: "nursing_hours", AccountCategory: CategoryStatistics, AccountSubcategory: "nursing_hours"},
		{Key: "therapy_cost", AccountCategory: CategoryExpense, Department: "therapy"},
		{Key: "ancillary_cost", AccountCategory: CategoryExpense, Department: "ancillary"},
		{Key: "dietary_cost", AccountCategory: CategoryExpense, Department: "dietary"},
		{Key: "admin_cost", AccountCategory: CategoryExpense, Department: "administration"},
	}
}

func ppd(id, name, numerator string, unit core.Unit, higherIsBetter bool) Definition {
	return Definition{
		ID:              id,
		Name:            name,
		Formula:         Ratio{Numerator: numerator, Multiplier: 1},
		DenominatorType: core.DenominatorResidentDays,
		PayerScope:      core.AllPayerScope(),
		Unit:            unit,
		HigherIsBetter:  higherIsBetter,
		Settings:        skilledNursing,
	}
}

func psd(id, name, numerator string, higherIsBetter bool) Definition {
	return Definition{
		ID:              id,
		Name:            name,
		Formula:         Ratio{Numerator: numerator, Multiplier: 1},
		DenominatorType: core.DenominatorSkilledDays,
		PayerScope:      core.SkilledPayerScope(),
		Unit:            core.UnitCurrency,
		HigherIsBetter:  higherIsBetter,
		Settings:        skilledNursing,
	}
}

func payerRevenue(id, name string, payers ...core.PayerCategory) Definition {
	return Definition{
		ID:              id,
		Name:            name,
		Formula:         Ratio{Numerator: "total_revenue", Multiplier: 1},
		DenominatorType: core.DenominatorPayerDays,
		PayerScope:      core.PayersScope(payers...),
		Unit:            core.UnitCurrency,
		HigherIsBetter:  true,
		Settings:        skilledNursing,
	}
}

func perUnit(id, name, numerator string, higherIsBetter bool) Definition {
	return Definition{
		ID:              id,
		Name:            name,
		Formula:         Ratio{Numerator: numerator, Multiplier: 1},
		DenominatorType: core.DenominatorOccupiedUnits,
		PayerScope:      core.AllPayerScope(),
		Unit:            core.UnitCurrency,
		HigherIsBetter:  higherIsBetter,
		Settings:        seniorLiving,
	}
}

func defaultDefinitions() []Definition {
	return []Definition{
		ppd("total_revenue_ppd", "Total Revenue PPD", "total_revenue", core.UnitCurrency, true),
		ppd("total_expense_ppd", "Total Expense PPD", "total_expense", core.UnitCurrency, false),
		ppd("nursing_cost_ppd", "Nursing Cost PPD", "nursing_cost", core.UnitCurrency, false),
		ppd("nursing_hours_ppd", "Nursing Hours PPD", "nursing_hours", core.UnitHours, true),
		ppd("dietary_cost_ppd", "Dietary Cost PPD", "dietary_cost", core.UnitCurrency, false),
		ppd("admin_cost_ppd", "Administrative Cost PPD", "admin_cost", core.UnitCurrency, false),
		psd("therapy_cost_psd", "Therapy Cost PSD", "therapy_cost", false),
		psd("ancillary_cost_psd", "Ancillary Cost PSD", "ancillary_cost", false),
		psd("skilled_revenue_psd", "Skilled Revenue PSD", "skilled_revenue", true),
		payerRevenue("medicare_a_revenue_ppd", "Medicare A Revenue PPD", core.PayerMedicareA),
		payerRevenue("medicare_advantage_revenue_ppd", "Medicare Advantage Revenue PPD", core.PayerMedicareAdvantage),
		payerRevenue("medicaid_revenue_ppd", "Medicaid Revenue PPD", core.PayerMedicaid, core.PayerManagedMedicaid),
		payerRevenue("private_pay_revenue_ppd", "Private Pay Revenue PPD", core.PayerPrivatePay),
		{
			ID:              "vent_revenue_per_vent_day",
			Name:            "Vent Revenue per Vent Day",
			Formula:         Ratio{Numerator: "vent_revenue", Multiplier: 1},
			DenominatorType: core.DenominatorVentDays,
			PayerScope:      core.AllPayerScope(),
			Unit:            core.UnitCurrency,
			HigherIsBetter:  true,
			Settings:        skilledNursing,
		},
		{
			ID:              "contract_labor_pct",
			Name:            "Contract Labor %",
			Formula:         Composite{Inputs: []string{"contract_labor_cost", "nursing_cost"}, Fn: Percent("contract_labor_cost", "nursing_cost")},
			DenominatorType: core.DenominatorNone,
			PayerScope:      core.AllPayerScope(),
			Unit:            core.UnitPercentage,
			HigherIsBetter:  false,
			Settings:        skilledNursing,
		},
		{
			ID:              "operating_margin",
			Name:            "Operating Margin",
			Formula:         Margin{Revenue: "total_revenue", Costs: []string{"total_expense"}},
			DenominatorType: core.DenominatorNone,
			PayerScope:      core.AllPayerScope(),
			Unit:            core.UnitPercentage,
			HigherIsBetter:  true,
		},
		{
			ID:              "skilled_margin",
			Name:            "Skilled Margin",
			Formula:         Margin{Revenue: "skilled_revenue", Costs: []string{"therapy_cost", "ancillary_cost"}},
			DenominatorType: core.DenominatorSkilledDays,
			PayerScope:      core.SkilledPayerScope(),
			Unit:            core.UnitPercentage,
			HigherIsBetter:  true,
			Settings:        skilledNursing,
		},
		{
			ID:              "skilled_mix",
			Name:            "Skilled Mix",
			Formula:         Composite{Fn: skilledMix},
			DenominatorType: core.DenominatorResidentDays,
			PayerScope:      core.SkilledPayerScope(),
			Unit:            core.UnitPercentage,
			HigherIsBetter:  true,
			Settings:        skilledNursing,
		},
		{
			ID:              "average_daily_census",
			Name:            "Average Daily Census",
			Formula:         Composite{Fn: averageDailyCensus},
			DenominatorType: core.DenominatorNone,
			PayerScope:      core.AllPayerScope(),
			Unit:            core.UnitNumber,
			HigherIsBetter:  true,
		},
		perUnit("revenue_per_occupied_unit", "Revenue per Occupied Unit", "total_revenue", true),
		perUnit("expense_per_occupied_unit", "Expense per Occupied Unit", "total_expense", false),
		{
			ID:              "occupancy_pct",
			Name:            "Occupancy %",
			Formula:         Composite{Fn: occupancyPct},
			DenominatorType: core.DenominatorNone,
			PayerScope:      core.AllPayerScope(),
			Unit:            core.UnitPercentage,
			HigherIsBetter:  true,
			Settings:        seniorLiving,
		},
		{
			ID:              "second_occupant_pct",
			Name:            "Second Occupant %",
			Formula:         Composite{Fn: secondOccupantPct},
			DenominatorType: core.DenominatorNone,
			PayerScope:      core.AllPayerScope(),
			Unit:            core.UnitPercentage,
			HigherIsBetter:  true,
			Settings:        []core.Setting{core.SettingALF, core.SettingMC},
		},
	}
}

func skilledMix(id string, in Inputs) Outcome {
	d := in.Denominators
	return Quotient(id, d.SkilledDays, d.ResidentDays, 100)
}

func averageDailyCensus(id string, in Inputs) Outcome {
	days := float64(in.DaysInMonth)
	if days < 0 {
		days = 0
	}
	if days > 0 && in.Denominators.ResidentDays == 0 {
		out := Unavailable(NoDataWarning(id))
		out.Denominator = days
		return out
	}
	return Quotient(id, in.Denominators.ResidentDays, days, 1)
}

// occupancyPct prefers unit days over operational bed capacity and falls back
// to the reported operational occupancy (already a percentage).
func occupancyPct(id string, in Inputs) Outcome {
	occ := in.Occupancy
	if occ == nil {
		return Unavailable(NoDataWarning(id))
	}
	capacity := occ.OperationalBeds * float64(in.DaysInMonth)
	if capacity <= 0 && occ.OperationalOccupancy != nil {
		op := *occ.OperationalOccupancy
		return Outcome{Value: core.Float(op), Numerator: op, Denominator: 100}
	}
	return Quotient(id, occ.TotalUnitDays, max(capacity, 0), 100)
}

func secondOccupantPct(id string, in Inputs) Outcome {
	occ := in.Occupancy
	if occ == nil {
		return Unavailable(NoDataWarning(id))
	}
	return Quotient(id, occ.SecondOccupantDays, occ.TotalUnitDays, 100)
}
