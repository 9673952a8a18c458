package core_test

import (
	"testing"

	"github.com/leapstack-labs/leapkpi/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayerCategory(t *testing.T) {
	tests := []struct {
		in   string
		want core.PayerCategory
		ok   bool
	}{
		{"MEDICARE_A", core.PayerMedicareA, true},
		{"medicare advantage", core.PayerMedicareAdvantage, true},
		{" private-pay ", core.PayerPrivatePay, true},
		{"blue cross", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := core.ParsePayerCategory(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSkilledPayers(t *testing.T) {
	for _, p := range []core.PayerCategory{core.PayerMedicareA, core.PayerMedicareAdvantage, core.PayerCommercial, core.PayerVA, core.PayerISNP} {
		assert.True(t, p.IsSkilled(), p)
	}
	for _, p := range []core.PayerCategory{core.PayerMedicaid, core.PayerManagedMedicaid, core.PayerPrivatePay, core.PayerHospice, core.PayerManagedCare, core.PayerOther} {
		assert.False(t, p.IsSkilled(), p)
	}
}

func TestPayerScope_RoundTrip(t *testing.T) {
	scopes := []core.PayerScope{
		core.AllPayerScope(),
		core.SkilledPayerScope(),
		core.PayersScope(core.PayerMedicareA, core.PayerMedicaid),
	}
	for _, s := range scopes {
		t.Run(s.String(), func(t *testing.T) {
			assert.Equal(t, s, core.ParsePayerScope(s.String()))
		})
	}
	assert.Equal(t, "payers:MEDICARE_A+MEDICAID", scopes[2].String())
	assert.Nil(t, core.AllPayerScope().Members())
	assert.Equal(t, core.SkilledPayers, core.SkilledPayerScope().Members())
}

func TestParsePeriod(t *testing.T) {
	p, err := core.ParsePeriod("2024-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-02", p.String())
	assert.Equal(t, 29, p.DaysInMonth())
	assert.Equal(t, "2023-12", p.Previous(2).String())

	_, err = core.ParsePeriod("2024-13")
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
	_, err = core.ParsePeriod("Feb 2024")
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, "error", core.SeverityError.String())
	assert.Equal(t, "warning", core.SeverityWarning.String())

	s, ok := core.ParseSeverity("ERROR")
	assert.True(t, ok)
	assert.Equal(t, core.SeverityError, s)

	s, ok = core.ParseSeverity("fatal")
	assert.False(t, ok)
	assert.Equal(t, core.SeverityWarning, s)
}

func TestCohortKeys(t *testing.T) {
	assert.Equal(t, "state:OH", core.StateCohort("OH"))
	assert.Equal(t, "region:Midwest", core.RegionCohort("Midwest"))
	assert.Equal(t, "setting:SNF", core.SettingCohort(core.SettingSNF))
	assert.Equal(t, "state", core.CohortKind("state:OH"))
	assert.Equal(t, core.CohortAll, core.CohortKind(core.CohortAll))
}

func TestDenominators_PayerDaysFor(t *testing.T) {
	d := core.Denominators{PayerDays: map[core.PayerCategory]float64{
		core.PayerMedicareA: 100,
		core.PayerMedicaid:  250.5,
	}}
	assert.InDelta(t, 350.5, d.PayerDaysFor([]core.PayerCategory{core.PayerMedicareA, core.PayerMedicaid, core.PayerVA}), 1e-9)
}
