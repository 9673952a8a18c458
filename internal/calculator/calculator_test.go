package calculator

import (
	"testing"

	"github.com/leapstack-labs/leapkpi/internal/registry"
	"github.com/leapstack-labs/leapkpi/internal/testutil"
	"github.com/leapstack-labs/leapkpi/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	facility = "F1"
	period   = "2024-01"
)

func resultByID(t *testing.T, calc Calculation, id string) core.KPIResult {
	t.Helper()
	for _, r := range calc.Results {
		if r.KPIID == id {
			return r
		}
	}
	t.Fatalf("no result for %s", id)
	return core.KPIResult{}
}

func TestCalculateAllKPIs_RatioExactDivision(t *testing.T) {
	c := New(nil)
	calc, err := c.CalculateAllKPIs(Request{
		FacilityID: facility,
		PeriodID:   period,
		KPIIDs:     []string{"total_revenue_ppd"},
		Finance:    []core.FinanceFact{testutil.Finance(facility, period, "revenue", 500000)},
		Census:     []core.CensusFact{testutil.Census(facility, period, core.PayerMedicaid, 500)},
	})
	require.NoError(t, err)
	require.Len(t, calc.Results, 1)

	r := calc.Results[0]
	require.NotNil(t, r.Value)
	assert.Equal(t, 1000.0, *r.Value)
	assert.Equal(t, 500000.0, r.NumeratorValue)
	assert.Equal(t, 500.0, r.DenominatorValue)
	assert.Equal(t, core.DenominatorResidentDays, r.DenominatorType)
	assert.Equal(t, core.UnitCurrency, r.Unit)
	assert.Equal(t, facility, r.FacilityID)
	assert.Equal(t, period, r.PeriodID)
	assert.Empty(t, r.Warnings)
	assert.Empty(t, calc.Anomalies)
}

func TestCalculateAllKPIs_ContractLaborIndependentOfCensus(t *testing.T) {
	c := New(nil)
	finance := []core.FinanceFact{
		testutil.Finance(facility, period, "expense", 120000, testutil.WithDepartment("nursing"), testutil.WithSubcategory("wages")),
		testutil.Finance(facility, period, "expense", 30000, testutil.WithDepartment("nursing"), testutil.WithSubcategory("contract_labor")),
	}

	calc, err := c.CalculateAllKPIs(Request{
		FacilityID: facility,
		PeriodID:   period,
		KPIIDs:     []string{"contract_labor_pct"},
		Finance:    finance,
	})
	require.NoError(t, err)

	r := resultByID(t, calc, "contract_labor_pct")
	require.NotNil(t, r.Value)
	assert.InDelta(t, 20.0, *r.Value, 1e-9)
	assert.Equal(t, core.UnitPercentage, r.Unit)
	assert.Empty(t, r.Warnings)

	// The stored operands reproduce the value.
	assert.Equal(t, 30000.0, r.NumeratorValue)
	assert.Equal(t, 150000.0, r.DenominatorValue)
	assert.InDelta(t, *r.Value, r.NumeratorValue/r.DenominatorValue*100, 1e-9)
}

func TestCalculateAllKPIs_CensusCompositesRecordOperands(t *testing.T) {
	c := New(nil)
	calc, err := c.CalculateAllKPIs(Request{
		FacilityID: facility,
		PeriodID:   period,
		KPIIDs:     []string{"skilled_mix", "average_daily_census"},
		Census: []core.CensusFact{
			testutil.Census(facility, period, core.PayerMedicareA, 620),
			testutil.Census(facility, period, core.PayerMedicaid, 2480),
		},
	})
	require.NoError(t, err)

	tests := []struct {
		id       string
		want     float64
		num, den float64
	}{
		{"skilled_mix", 20, 620, 3100},
		{"average_daily_census", 100, 3100, 31},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r := resultByID(t, calc, tt.id)
			require.NotNil(t, r.Value)
			assert.InDelta(t, tt.want, *r.Value, 1e-9)
			assert.Equal(t, tt.num, r.NumeratorValue)
			assert.Equal(t, tt.den, r.DenominatorValue)
		})
	}
}

func TestCalculateAllKPIs_OperatingMargin(t *testing.T) {
	c := New(nil)
	calc, err := c.CalculateAllKPIs(Request{
		FacilityID: facility,
		PeriodID:   period,
		KPIIDs:     []string{"operating_margin"},
		Finance: []core.FinanceFact{
			testutil.Finance(facility, period, "revenue", 500000),
			testutil.Finance(facility, period, "expense", 400000, testutil.WithDepartment("nursing")),
		},
	})
	require.NoError(t, err)

	r := resultByID(t, calc, "operating_margin")
	require.NotNil(t, r.Value)
	assert.InDelta(t, 20.0, *r.Value, 1e-9)
	assert.Equal(t, 100000.0, r.NumeratorValue)
	assert.Equal(t, 500000.0, r.DenominatorValue)
}

func TestCalculateAllKPIs_SkilledMargin(t *testing.T) {
	c := New(nil)
	calc, err := c.CalculateAllKPIs(Request{
		FacilityID: facility,
		PeriodID:   period,
		KPIIDs:     []string{"skilled_margin"},
		Finance: []core.FinanceFact{
			testutil.Finance(facility, period, "revenue", 200000, testutil.WithPayer(core.PayerMedicareA)),
			testutil.Finance(facility, period, "revenue", 50000, testutil.WithPayer(core.PayerCommercial)),
			testutil.Finance(facility, period, "revenue", 900000, testutil.WithPayer(core.PayerMedicaid)),
			testutil.Finance(facility, period, "expense", 40000, testutil.WithDepartment("therapy")),
			testutil.Finance(facility, period, "expense", 10000, testutil.WithDepartment("ancillary")),
		},
	})
	require.NoError(t, err)

	r := resultByID(t, calc, "skilled_margin")
	require.NotNil(t, r.Value)
	assert.InDelta(t, 80.0, *r.Value, 1e-9)
}

func TestCalculateAllKPIs_EmptyCensus(t *testing.T) {
	c := New(nil)
	finance, _ := testutil.SkilledNursingFacility(facility, period, 3000, 400)

	calc, err := c.CalculateAllKPIs(Request{
		FacilityID: facility,
		PeriodID:   period,
		Setting:    core.SettingSNF,
		Finance:    finance,
	})
	require.NoError(t, err)

	missing := 0
	for _, a := range calc.Anomalies {
		if a.Type == core.AnomalyMissingData {
			missing++
		}
	}
	assert.Equal(t, 1, missing, "missing_data recorded once")

	checked := 0
	for _, def := range c.Registry().ForSetting(core.SettingSNF) {
		if def.DenominatorType != core.DenominatorResidentDays && def.DenominatorType != core.DenominatorSkilledDays {
			continue
		}
		if _, isMargin := def.Formula.(registry.Margin); isMargin {
			continue
		}
		r := resultByID(t, calc, def.ID)
		assert.Nil(t, r.Value, def.ID)
		assert.Contains(t, r.Warnings, "Denominator is zero for "+def.ID)
		checked++
	}
	assert.NotZero(t, checked)

	// Margins do not divide by census and still compute.
	margin := resultByID(t, calc, "operating_margin")
	assert.NotNil(t, margin.Value)
}

func TestCalculateAllKPIs_NoFactsAtAll(t *testing.T) {
	c := New(nil)
	calc, err := c.CalculateAllKPIs(Request{FacilityID: facility, PeriodID: period, Setting: core.SettingSNF})
	require.NoError(t, err)

	assert.NotEmpty(t, calc.Results)
	for _, r := range calc.Results {
		assert.Nil(t, r.Value, r.KPIID)
		assert.NotEmpty(t, r.Warnings, r.KPIID)
	}
}

func TestCalculateAllKPIs_NoNumeratorData(t *testing.T) {
	c := New(nil)
	calc, err := c.CalculateAllKPIs(Request{
		FacilityID: facility,
		PeriodID:   period,
		KPIIDs:     []string{"dietary_cost_ppd"},
		Census:     []core.CensusFact{testutil.Census(facility, period, core.PayerMedicaid, 100)},
	})
	require.NoError(t, err)

	r := calc.Results[0]
	assert.Nil(t, r.Value)
	assert.Equal(t, []string{"No data for dietary_cost_ppd"}, r.Warnings)
	assert.Equal(t, 100.0, r.DenominatorValue)
}

func TestCalculateAllKPIs_UnknownKPISkipped(t *testing.T) {
	c := New(nil)
	calc, err := c.CalculateAllKPIs(Request{
		FacilityID: facility,
		PeriodID:   period,
		KPIIDs:     []string{"does_not_exist", "skilled_mix", "skilled_mix"},
		Census:     []core.CensusFact{testutil.Census(facility, period, core.PayerMedicareA, 25), testutil.Census(facility, period, core.PayerMedicaid, 75)},
	})
	require.NoError(t, err)
	require.Len(t, calc.Results, 1)
	assert.Equal(t, "skilled_mix", calc.Results[0].KPIID)
	require.NotNil(t, calc.Results[0].Value)
	assert.InDelta(t, 25.0, *calc.Results[0].Value, 1e-9)
}

func TestCalculateAllKPIs_InvalidPeriod(t *testing.T) {
	_, err := New(nil).CalculateAllKPIs(Request{FacilityID: facility, PeriodID: "January"})
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
}

func TestCalculateAllKPIs_PayerScopedNumerator(t *testing.T) {
	c := New(nil)
	calc, err := c.CalculateAllKPIs(Request{
		FacilityID: facility,
		PeriodID:   period,
		KPIIDs:     []string{"medicare_a_revenue_ppd", "medicaid_revenue_ppd"},
		Finance: []core.FinanceFact{
			testutil.Finance(facility, period, "revenue", 60000, testutil.WithPayer(core.PayerMedicareA)),
			testutil.Finance(facility, period, "revenue", 40000, testutil.WithPayer(core.PayerMedicaid)),
			testutil.Finance(facility, period, "revenue", 10000, testutil.WithPayer(core.PayerManagedMedicaid)),
			testutil.Finance(facility, period, "revenue", 999999),
		},
		Census: []core.CensusFact{
			testutil.Census(facility, period, core.PayerMedicareA, 100),
			testutil.Census(facility, period, core.PayerMedicaid, 150),
			testutil.Census(facility, period, core.PayerManagedMedicaid, 50),
		},
	})
	require.NoError(t, err)

	medicare := resultByID(t, calc, "medicare_a_revenue_ppd")
	require.NotNil(t, medicare.Value)
	assert.InDelta(t, 600.0, *medicare.Value, 1e-9)

	medicaid := resultByID(t, calc, "medicaid_revenue_ppd")
	require.NotNil(t, medicaid.Value)
	assert.InDelta(t, 250.0, *medicaid.Value, 1e-9)
	assert.Equal(t, 200.0, medicaid.DenominatorValue)
}

func TestCalculateAllKPIs_SeniorLivingOccupancy(t *testing.T) {
	c := New(nil)
	calc, err := c.CalculateAllKPIs(Request{
		FacilityID: facility,
		PeriodID:   period,
		Setting:    core.SettingALF,
		Finance:    []core.FinanceFact{testutil.Finance(facility, period, "revenue", 450000)},
		Census:     []core.CensusFact{testutil.Census(facility, period, core.PayerPrivatePay, 2790)},
		Occupancy: []core.OccupancyFact{
			{FacilityID: facility, PeriodID: period, OperationalBeds: 100, TotalUnitDays: 2790, SecondOccupantDays: 93},
			{FacilityID: "F2", PeriodID: period, OperationalBeds: 10, TotalUnitDays: 1},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, calc.Denominators.OccupiedUnits)
	assert.InDelta(t, 90.0, *calc.Denominators.OccupiedUnits, 1e-9)

	perUnit := resultByID(t, calc, "revenue_per_occupied_unit")
	require.NotNil(t, perUnit.Value)
	assert.InDelta(t, 5000.0, *perUnit.Value, 1e-9)

	occupancy := resultByID(t, calc, "occupancy_pct")
	require.NotNil(t, occupancy.Value)
	assert.InDelta(t, 90.0, *occupancy.Value, 1e-9)

	for _, r := range calc.Results {
		assert.NotEqual(t, "skilled_mix", r.KPIID, "SNF-only KPIs are not in the ALF set")
	}
}

func TestCalculateAllKPIs_PreResolvedDenominators(t *testing.T) {
	c := New(nil)
	d := core.Denominators{FacilityID: facility, PeriodID: period, ResidentDays: 100, SkilledDays: 150, PayerDays: map[core.PayerCategory]float64{core.PayerMedicaid: 100}}

	calc, err := c.CalculateAllKPIs(Request{
		FacilityID:   facility,
		PeriodID:     period,
		KPIIDs:       []string{"total_revenue_ppd"},
		Finance:      []core.FinanceFact{testutil.Finance(facility, period, "revenue", 1000)},
		Census:       []core.CensusFact{testutil.Census(facility, period, core.PayerMedicaid, 999)},
		Denominators: &d,
	})
	require.NoError(t, err)

	require.NotNil(t, calc.Results[0].Value)
	assert.InDelta(t, 10.0, *calc.Results[0].Value, 1e-9)
	require.Len(t, calc.Anomalies, 1)
	assert.Equal(t, core.AnomalySkilledExceedsTotal, calc.Anomalies[0].Type)
}

func TestCalculateAllKPIs_Deterministic(t *testing.T) {
	c := New(nil)
	finance, census := testutil.SkilledNursingFacility(facility, period, 3100, 420)
	req := Request{FacilityID: facility, PeriodID: period, Setting: core.SettingSNF, Finance: finance, Census: census}

	a, err := c.CalculateAllKPIs(req)
	require.NoError(t, err)
	b, err := c.CalculateAllKPIs(req)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	adc := resultByID(t, a, "average_daily_census")
	require.NotNil(t, adc.Value)
	assert.InDelta(t, 100.0, *adc.Value, 1e-9)
}

func TestGetDenominatorValue(t *testing.T) {
	units := 42.0
	d := core.Denominators{
		ResidentDays:  1000,
		SkilledDays:   200,
		VentDays:      30,
		OccupiedUnits: &units,
		PayerDays: map[core.PayerCategory]float64{
			core.PayerMedicareA: 150,
			core.PayerVA:        50,
			core.PayerMedicaid:  800,
		},
	}

	tests := []struct {
		name  string
		typ   core.DenominatorType
		scope core.PayerScope
		want  float64
	}{
		{"resident days", core.DenominatorResidentDays, core.AllPayerScope(), 1000},
		{"skilled days", core.DenominatorSkilledDays, core.SkilledPayerScope(), 200},
		{"vent days", core.DenominatorVentDays, core.AllPayerScope(), 30},
		{"occupied units", core.DenominatorOccupiedUnits, core.AllPayerScope(), 42},
		{"payer days listed", core.DenominatorPayerDays, core.PayersScope(core.PayerMedicareA, core.PayerMedicaid), 950},
		{"payer days skilled", core.DenominatorPayerDays, core.SkilledPayerScope(), 200},
		{"payer days all", core.DenominatorPayerDays, core.AllPayerScope(), 1000},
		{"none", core.DenominatorNone, core.AllPayerScope(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetDenominatorValue(d, tt.typ, tt.scope))
		})
	}

	assert.Zero(t, GetDenominatorValue(core.Denominators{}, core.DenominatorOccupiedUnits, core.AllPayerScope()))
}

func TestNumeratorValue(t *testing.T) {
	source := registry.NumeratorSource{Key: "revenue", AccountCategory: "revenue"}
	facts := []core.FinanceFact{
		testutil.Finance(facility, period, "revenue", 0.1),
		testutil.Finance(facility, period, "revenue", 0.2),
		testutil.Finance(facility, period, "revenue", -0.05, testutil.WithPayer(core.PayerMedicaid)),
		testutil.Finance("F2", period, "revenue", 100),
		testutil.Finance(facility, "2024-02", "revenue", 100),
	}

	v, ok := NumeratorValue(facts, source, facility, period, core.AllPayerScope())
	assert.True(t, ok)
	assert.Equal(t, 0.25, v, "decimal summation is exact")

	v, ok = NumeratorValue(facts, source, facility, period, core.PayersScope(core.PayerMedicaid))
	assert.True(t, ok)
	assert.Equal(t, -0.05, v)

	_, ok = NumeratorValue(facts, source, facility, period, core.PayersScope(core.PayerVA))
	assert.False(t, ok)

	_, ok = NumeratorValue(nil, source, facility, period, core.AllPayerScope())
	assert.False(t, ok)
}
