package facts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapkpi/internal/testutil"
	"github.com/leapstack-labs/leapkpi/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySource(t *testing.T) {
	ctx := context.Background()
	ds := testutil.SampleDataset("2024-01")

	m := NewMemorySource(ds.Facilities...)
	m.AddFinance(ds.Finance...)
	m.AddCensus(ds.Census...)
	m.AddCensus(testutil.Census("F1", "2023-12", core.PayerMedicaid, 10))
	m.AddOccupancy(core.OccupancyFact{FacilityID: "F1", PeriodID: "2024-01", TotalUnitDays: 5})

	facilities, err := m.Facilities(ctx)
	require.NoError(t, err)
	require.Len(t, facilities, 4)
	assert.Equal(t, "F1", facilities[0].ID)

	f, err := m.Facility(ctx, "F3")
	require.NoError(t, err)
	assert.Equal(t, "MI", f.State)

	_, err = m.Facility(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrUnknownFacility)

	fin, err := m.FinanceFacts(ctx, "F1", "2024-01")
	require.NoError(t, err)
	assert.NotEmpty(t, fin)
	for _, f := range fin {
		assert.Equal(t, "F1", f.FacilityID)
	}

	census, err := m.CensusFacts(ctx, "F1", "2023-12")
	require.NoError(t, err)
	assert.Len(t, census, 1)

	occ, err := m.OccupancyFacts(ctx, "F1", "2024-01")
	require.NoError(t, err)
	assert.Len(t, occ, 1)

	periods, err := m.Periods(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-12", "2024-01"}, periods)

	assert.NoError(t, m.Close())
}

func TestOpen_Memory(t *testing.T) {
	src, err := Open(context.Background(), Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemorySource{}, src)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported facts driver")
}

func writeSeeds(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"facilities.csv": `facility_id,name,state,region,setting
F1,Oak Grove,OH,Midwest,SNF
F2,Maple Court,OH,Midwest,snf
F3,Birch House,MI,Midwest,ALF
`,
		"finance_facts.csv": `facility_id,period_id,account_category,account_subcategory,department,payer_category,amount,denominator_type,source_file
F1,2024-01,revenue,,,MEDICARE_A,300000.10,resident_days,jan.xlsx
F1,2024-01,revenue,,,Medicaid,200000.20,resident_days,jan.xlsx
F1,2024-01,expense,wages,nursing,,150000.00,resident_days,jan.xlsx
F2,2024-01,revenue,,,,90000,resident_days,jan.xlsx
`,
		"census_facts.csv": `facility_id,period_id,payer_category,days,is_skilled,is_vent,source_file
F1,2024-01,MEDICARE_A,100.5,true,false,census.xlsx
F1,2024-01,MEDICAID,399.5,false,true,census.xlsx
F1,2024-01,TRICARE,3,false,false,census.xlsx
F2,2024-02,MEDICAID,10,false,false,census.xlsx
`,
		"occupancy_facts.csv": `facility_id,period_id,operational_beds,licensed_beds,total_patient_days,total_unit_days,second_occupant_days,operational_occupancy
F3,2024-01,100,110,2800,2790,31,
`,
		"notes.csv": "a,b\n1,2\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func openSeeded(t *testing.T) *SQLSource {
	t.Helper()
	ctx := context.Background()

	src, err := OpenSQL(ctx, Config{Driver: DriverDuckDB, DSN: ":memory:", Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	n, err := src.LoadSeeds(ctx, writeSeeds(t))
	require.NoError(t, err)
	require.Equal(t, 4, n, "only fact tables are loaded")
	return src
}

func TestSQLSource_DuckDBSeeds(t *testing.T) {
	ctx := context.Background()
	src := openSeeded(t)

	facilities, err := src.Facilities(ctx)
	require.NoError(t, err)
	require.Len(t, facilities, 3)
	assert.Equal(t, core.Facility{ID: "F1", Name: "Oak Grove", State: "OH", Region: "Midwest", Setting: core.SettingSNF}, facilities[0])
	assert.Equal(t, core.SettingSNF, facilities[1].Setting, "setting is normalized")

	f, err := src.Facility(ctx, "F3")
	require.NoError(t, err)
	assert.Equal(t, core.SettingALF, f.Setting)

	_, err = src.Facility(ctx, "F9")
	assert.ErrorIs(t, err, core.ErrUnknownFacility)

	fin, err := src.FinanceFacts(ctx, "F1", "2024-01")
	require.NoError(t, err)
	require.Len(t, fin, 3)
	var withPayer int
	for _, f := range fin {
		if f.PayerCategory != nil {
			withPayer++
			assert.True(t, f.PayerCategory.IsValid())
		}
		assert.Equal(t, "jan.xlsx", f.SourceFile)
	}
	assert.Equal(t, 2, withPayer)

	census, err := src.CensusFacts(ctx, "F1", "2024-01")
	require.NoError(t, err)
	require.Len(t, census, 3)
	var days float64
	var vent int
	for _, c := range census {
		days += c.Days
		if c.IsVent {
			vent++
		}
	}
	assert.InDelta(t, 503.0, days, 1e-9)
	assert.Equal(t, 1, vent)

	occ, err := src.OccupancyFacts(ctx, "F3", "2024-01")
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, 2790.0, occ[0].TotalUnitDays)
	assert.Nil(t, occ[0].OperationalOccupancy)

	periods, err := src.Periods(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01", "2024-02"}, periods)
}

func TestSQLSource_ExactAmounts(t *testing.T) {
	src := openSeeded(t)

	fin, err := src.FinanceFacts(context.Background(), "F1", "2024-01")
	require.NoError(t, err)

	total := fin[0].Amount
	for _, f := range fin[1:] {
		total = total.Add(f.Amount)
	}
	assert.Equal(t, "650000.3", total.String())
}

func TestSQLSource_MissingOccupancyTable(t *testing.T) {
	ctx := context.Background()
	src, err := OpenSQL(ctx, Config{Driver: DriverDuckDB})
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	occ, err := src.OccupancyFacts(ctx, "F1", "2024-01")
	require.NoError(t, err)
	assert.Empty(t, occ)
}

func TestLoadSeeds_NoDirectory(t *testing.T) {
	ctx := context.Background()
	src, err := OpenSQL(ctx, Config{Driver: DriverDuckDB})
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	n, err := src.LoadSeeds(ctx, filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = src.LoadSeeds(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}
