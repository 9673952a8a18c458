package denominator

import (
	"testing"

	"github.com/leapstack-labs/leapkpi/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func census(payer core.PayerCategory, days float64) core.CensusFact {
	return core.CensusFact{FacilityID: "F1", PeriodID: "2024-01", PayerCategory: payer, Days: days}
}

func anomalyTypes(anomalies []core.Anomaly) []core.AnomalyType {
	types := make([]core.AnomalyType, len(anomalies))
	for i, a := range anomalies {
		types[i] = a.Type
	}
	return types
}

func TestResolve(t *testing.T) {
	facts := []core.CensusFact{
		census(core.PayerMedicareA, 300),
		census(core.PayerMedicareAdvantage, 100.5),
		census(core.PayerMedicaid, 1200),
		census(core.PayerPrivatePay, 150),
		census(core.PayerVA, 10),
		census(core.PayerMedicareA, 20),
		{FacilityID: "F1", PeriodID: "2024-01", PayerCategory: core.PayerMedicaid, Days: 30, IsVent: true},
	}

	d, anomalies := Resolve(facts, "F1", "2024-01")

	assert.Empty(t, anomalies)
	assert.Equal(t, "F1", d.FacilityID)
	assert.Equal(t, "2024-01", d.PeriodID)
	assert.InDelta(t, 1810.5, d.ResidentDays, 1e-9)
	assert.InDelta(t, 430.5, d.SkilledDays, 1e-9)
	assert.InDelta(t, 30, d.VentDays, 1e-9)
	assert.InDelta(t, 320, d.PayerDays[core.PayerMedicareA], 1e-9)
	assert.InDelta(t, 1230, d.PayerDays[core.PayerMedicaid], 1e-9)
	assert.Len(t, d.PayerDays, len(core.AllPayers))
	assert.Nil(t, d.OccupiedUnits)
}

func TestResolve_IgnoresForeignAndUnknownFacts(t *testing.T) {
	facts := []core.CensusFact{
		census(core.PayerMedicaid, 100),
		{FacilityID: "F2", PeriodID: "2024-01", PayerCategory: core.PayerMedicaid, Days: 999},
		{FacilityID: "F1", PeriodID: "2023-12", PayerCategory: core.PayerMedicaid, Days: 999},
		census("TRICARE", 50),
	}

	d, anomalies := Resolve(facts, "F1", "2024-01")

	assert.Empty(t, anomalies)
	assert.InDelta(t, 100, d.ResidentDays, 1e-9)
	assert.NotContains(t, d.PayerDays, core.PayerCategory("TRICARE"))
}

func TestResolve_VentDaysRegardlessOfPayer(t *testing.T) {
	facts := []core.CensusFact{
		{FacilityID: "F1", PeriodID: "2024-01", PayerCategory: "UNKNOWN", Days: 5, IsVent: true},
		{FacilityID: "F1", PeriodID: "2024-01", PayerCategory: core.PayerMedicareA, Days: 7, IsVent: true},
	}

	d, _ := Resolve(facts, "F1", "2024-01")
	assert.InDelta(t, 12, d.VentDays, 1e-9)
	assert.InDelta(t, 7, d.ResidentDays, 1e-9)
}

func TestResolve_MissingData(t *testing.T) {
	d, anomalies := Resolve(nil, "F1", "2024-01")

	require.Len(t, anomalies, 1)
	assert.Equal(t, core.AnomalyMissingData, anomalies[0].Type)
	assert.Equal(t, core.SeverityWarning, anomalies[0].Severity)
	assert.Zero(t, d.ResidentDays)
	assert.Zero(t, d.SkilledDays)
	assert.Zero(t, d.VentDays)
}

func TestResolve_Idempotent(t *testing.T) {
	facts := []core.CensusFact{
		census(core.PayerMedicareA, 33.3),
		census(core.PayerCommercial, 12.1),
		census(core.PayerHospice, 7),
	}

	d1, a1 := Resolve(facts, "F1", "2024-01")
	d2, a2 := Resolve(facts, "F1", "2024-01")
	assert.Equal(t, d1, d2)
	assert.Equal(t, a1, a2)
}

func TestResolve_SkilledNeverExceedsResident(t *testing.T) {
	sets := [][]core.CensusFact{
		{census(core.PayerMedicareA, 10)},
		{census(core.PayerMedicareA, 10), census(core.PayerMedicaid, 90)},
		{census(core.PayerISNP, 0.25), census(core.PayerOther, 0)},
	}
	for _, facts := range sets {
		d, anomalies := Resolve(facts, "F1", "2024-01")
		assert.LessOrEqual(t, d.SkilledDays, d.ResidentDays)
		assert.NotContains(t, anomalyTypes(anomalies), core.AnomalySkilledExceedsTotal)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		d    core.Denominators
		want []core.AnomalyType
	}{
		{
			name: "consistent",
			d: core.Denominators{ResidentDays: 100, SkilledDays: 40, PayerDays: map[core.PayerCategory]float64{
				core.PayerMedicareA: 40, core.PayerMedicaid: 60,
			}},
			want: []core.AnomalyType{},
		},
		{
			name: "skilled exceeds total",
			d: core.Denominators{ResidentDays: 100, SkilledDays: 140, PayerDays: map[core.PayerCategory]float64{
				core.PayerMedicaid: 100,
			}},
			want: []core.AnomalyType{core.AnomalySkilledExceedsTotal},
		},
		{
			name: "payer days off by more than one day",
			d: core.Denominators{ResidentDays: 100, PayerDays: map[core.PayerCategory]float64{
				core.PayerMedicaid: 98.5,
			}},
			want: []core.AnomalyType{core.AnomalyPayerDaysMismatch},
		},
		{
			name: "payer days within tolerance",
			d: core.Denominators{ResidentDays: 100, PayerDays: map[core.PayerCategory]float64{
				core.PayerMedicaid: 99.2,
			}},
			want: []core.AnomalyType{},
		},
		{
			name: "skilled check needs positive resident days",
			d:    core.Denominators{ResidentDays: 0, SkilledDays: 5, PayerDays: map[core.PayerCategory]float64{}},
			want: []core.AnomalyType{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, append([]core.AnomalyType{}, anomalyTypes(Validate(tt.d))...))
		})
	}
}

func TestReconcile(t *testing.T) {
	d, _ := Resolve([]core.CensusFact{
		census(core.PayerMedicareA, 40),
		census(core.PayerMedicaid, 60),
	}, "F1", "2024-01")
	assert.Empty(t, Reconcile(d))

	d.SkilledDays += 0.005
	assert.Empty(t, Reconcile(d), "within tolerance")

	d.SkilledDays = 45
	anomalies := Reconcile(d)
	require.Len(t, anomalies, 1)
	a := anomalies[0]
	assert.Equal(t, core.AnomalyReconciliationMismatch, a.Type)
	assert.Equal(t, core.SeverityError, a.Severity)
	assert.InDelta(t, 40, *a.Expected, 1e-9)
	assert.InDelta(t, 45, *a.Actual, 1e-9)
}

func TestWithOccupancy(t *testing.T) {
	d := core.Denominators{FacilityID: "F1"}

	assert.Nil(t, WithOccupancy(d, nil, 31).OccupiedUnits)
	assert.Nil(t, WithOccupancy(d, &core.OccupancyFact{TotalUnitDays: 310}, 0).OccupiedUnits)

	got := WithOccupancy(d, &core.OccupancyFact{TotalUnitDays: 2790}, 31)
	require.NotNil(t, got.OccupiedUnits)
	assert.InDelta(t, 90, *got.OccupiedUnits, 1e-9)
	assert.Nil(t, d.OccupiedUnits, "input is not mutated")
}
