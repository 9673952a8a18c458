package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapkpi/internal/benchmark"
	"github.com/leapstack-labs/leapkpi/internal/facts"
	"github.com/leapstack-labs/leapkpi/internal/stats"
	"github.com/leapstack-labs/leapkpi/internal/testutil"
	"github.com/leapstack-labs/leapkpi/pkg/core"
)

const period = "2024-01"

func sampleSource(periodID string) *facts.MemorySource {
	ds := testutil.SampleDataset(periodID)
	src := facts.NewMemorySource(ds.Facilities...)
	src.AddFinance(ds.Finance...)
	src.AddCensus(ds.Census...)
	return src
}

func newTestEngine(t *testing.T, src facts.Source) *Engine {
	t.Helper()
	e, err := New(Config{Facts: src, Workers: 2, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestNew(t *testing.T) {
	t.Run("requires facts", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err)
	})

	t.Run("applies defaults", func(t *testing.T) {
		e2, err := New(Config{Facts: facts.NewMemorySource()})
		require.NoError(t, err)
		defer func() { _ = e2.Close() }()

		assert.Equal(t, DefaultWorkers, e2.workers)
		assert.Equal(t, DefaultOutlierWindow, e2.outlierWindow)
		assert.InDelta(t, DefaultOutlierThreshold, e2.outlierThreshold, 1e-9)
		assert.True(t, e2.ownsStore)
		assert.Positive(t, e2.Registry().Count())
	})

	t.Run("invalid state path", func(t *testing.T) {
		_, err := New(Config{Facts: facts.NewMemorySource(), StatePath: "/nonexistent/dir/state.db"})
		require.Error(t, err)
	})
}

func TestEngine_Run(t *testing.T) {
	e := newTestEngine(t, sampleSource(period))
	ctx := context.Background()

	run, err := e.Run(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
	assert.Equal(t, 4, run.Facilities)
	assert.Positive(t, run.Results)

	stored, err := e.Store().GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Results, stored.Results)
	require.NotNil(t, stored.CompletedAt)

	results, err := e.Store().ListResults(ctx, period, "")
	require.NoError(t, err)
	assert.Len(t, results, run.Results)

	revenue, err := e.Store().ListResults(ctx, period, "total_revenue_ppd")
	require.NoError(t, err)
	require.Len(t, revenue, 4)
	require.NotNil(t, revenue[0].Value)
	assert.InDelta(t, 300, *revenue[0].Value, 1e-6)

	benchmarks, err := e.Benchmarks(ctx, period, "total_revenue_ppd")
	require.NoError(t, err)

	byCohort := make(map[string]core.BenchmarkStats)
	for _, b := range benchmarks {
		byCohort[b.Cohort] = b.Stats
	}
	require.Contains(t, byCohort, core.CohortAll)
	assert.Equal(t, 4, byCohort[core.CohortAll].Count)
	assert.InDelta(t, 375, byCohort[core.CohortAll].Median, 1e-6)
	assert.InDelta(t, 387.5, byCohort[core.CohortAll].Mean, 1e-6)
	assert.Equal(t, 2, byCohort[core.StateCohort("OH")].Count)
	assert.Equal(t, 3, byCohort[core.RegionCohort("Midwest")].Count)
	assert.Equal(t, 4, byCohort[core.SettingCohort(core.SettingSNF)].Count)
	assert.NotContains(t, byCohort, core.StateCohort("MI"))
	assert.NotContains(t, byCohort, core.StateCohort("TX"))
	assert.NotContains(t, byCohort, core.RegionCohort("South"))
}

func TestEngine_RunIsIdempotent(t *testing.T) {
	e := newTestEngine(t, sampleSource(period))
	ctx := context.Background()

	first, err := e.Run(ctx, period)
	require.NoError(t, err)
	second, err := e.Run(ctx, period)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	results, err := e.Store().ListResults(ctx, period, "")
	require.NoError(t, err)
	assert.Len(t, results, second.Results)

	runs, err := e.Store().ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestEngine_RunInvalidPeriod(t *testing.T) {
	e := newTestEngine(t, sampleSource(period))

	run, err := e.Run(context.Background(), "2024-13")
	require.ErrorIs(t, err, core.ErrInvalidPeriod)
	assert.Nil(t, run)

	runs, err := e.Store().ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

type failingSource struct {
	*facts.MemorySource
	facility string
}

var errSourceDown = errors.New("source down")

func (f failingSource) FinanceFacts(ctx context.Context, facilityID, periodID string) ([]core.FinanceFact, error) {
	if facilityID == f.facility {
		return nil, errSourceDown
	}
	return f.MemorySource.FinanceFacts(ctx, facilityID, periodID)
}

func TestEngine_RunFailure(t *testing.T) {
	e := newTestEngine(t, failingSource{MemorySource: sampleSource(period), facility: "F3"})
	ctx := context.Background()

	run, err := e.Run(ctx, period)
	require.ErrorIs(t, err, errSourceDown)
	require.NotNil(t, run)
	assert.Equal(t, core.RunStatusFailed, run.Status)

	stored, err := e.Store().GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "source down")

	// Nothing is persisted when any facility fails.
	results, err := e.Store().ListResults(ctx, period, "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_Calculate(t *testing.T) {
	e := newTestEngine(t, sampleSource(period))
	ctx := context.Background()

	tests := []struct {
		name     string
		facility string
		period   string
		kpis     []string
		wantErr  error
		wantLen  int
	}{
		{name: "selected kpis", facility: "F1", period: period, kpis: []string{"total_revenue_ppd", "nursing_cost_ppd"}, wantLen: 2},
		{name: "unknown kpi skipped", facility: "F1", period: period, kpis: []string{"total_revenue_ppd", "no_such_kpi"}, wantLen: 1},
		{name: "unknown facility", facility: "F9", period: period, wantErr: core.ErrUnknownFacility},
		{name: "invalid period", facility: "F1", period: "January", wantErr: core.ErrInvalidPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := e.Calculate(ctx, tt.facility, tt.period, tt.kpis)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, calc.Results, tt.wantLen)
			assert.InDelta(t, 3000, calc.Denominators.ResidentDays, 1e-9)
		})
	}

	// Calculate never writes.
	results, err := e.Store().ListResults(ctx, period, "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_Rank(t *testing.T) {
	e := newTestEngine(t, sampleSource(period))
	ctx := context.Background()
	_, err := e.Run(ctx, period)
	require.NoError(t, err)

	tests := []struct {
		name      string
		facility  string
		wantLabel string
		wantRank  float64
		cohorts   []string
	}{
		{
			name:      "highest revenue",
			facility:  "F4",
			wantLabel: benchmark.LabelTopQuartile,
			wantRank:  100,
			cohorts:   []string{core.CohortAll, core.SettingCohort(core.SettingSNF)},
		},
		{
			name:      "lowest revenue",
			facility:  "F1",
			wantLabel: benchmark.LabelBottomQuartile,
			wantRank:  0,
			cohorts: []string{
				core.CohortAll,
				core.RegionCohort("Midwest"),
				core.SettingCohort(core.SettingSNF),
				core.StateCohort("OH"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranking, err := e.Rank(ctx, tt.facility, period, "total_revenue_ppd")
			require.NoError(t, err)
			require.NotNil(t, ranking.Value)
			assert.True(t, ranking.HigherIsBetter)

			var cohorts []string
			for _, s := range ranking.Scores {
				cohorts = append(cohorts, s.Cohort)
			}
			assert.Equal(t, tt.cohorts, cohorts)
			assert.InDelta(t, tt.wantRank, ranking.Scores[0].Rank, 1e-6)
			assert.Equal(t, tt.wantLabel, ranking.Scores[0].Label)
		})
	}

	t.Run("unknown kpi", func(t *testing.T) {
		_, err := e.Rank(ctx, "F1", period, "no_such_kpi")
		require.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("no stored result", func(t *testing.T) {
		_, err := e.Rank(ctx, "F1", "2023-12", "total_revenue_ppd")
		require.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("unknown facility", func(t *testing.T) {
		_, err := e.Rank(ctx, "F9", period, "total_revenue_ppd")
		require.ErrorIs(t, err, core.ErrUnknownFacility)
	})
}

func TestEngine_RerunDropsSuppressedCohorts(t *testing.T) {
	src := sampleSource(period)
	e := newTestEngine(t, src)
	ctx := context.Background()

	_, err := e.Run(ctx, period)
	require.NoError(t, err)
	before, err := e.Benchmarks(ctx, period, "total_revenue_ppd")
	require.NoError(t, err)
	require.Contains(t, cohortsOf(before), core.StateCohort("OH"))

	// F2 leaves Ohio, so F1 is the only facility left in state:OH.
	src.AddFacility(core.Facility{ID: "F2", Name: "Maple Court", State: "IN", Region: "Midwest", Setting: core.SettingSNF})
	_, err = e.Run(ctx, period)
	require.NoError(t, err)

	after, err := e.Benchmarks(ctx, period, "total_revenue_ppd")
	require.NoError(t, err)
	assert.NotContains(t, cohortsOf(after), core.StateCohort("OH"))
	assert.NotContains(t, cohortsOf(after), core.StateCohort("IN"))
	assert.Contains(t, cohortsOf(after), core.RegionCohort("Midwest"))

	ranking, err := e.Rank(ctx, "F1", period, "total_revenue_ppd")
	require.NoError(t, err)
	for _, s := range ranking.Scores {
		assert.NotEqual(t, core.StateCohort("OH"), s.Cohort)
	}
}

func cohortsOf(benchmarks []core.Benchmark) []string {
	out := make([]string, len(benchmarks))
	for i, b := range benchmarks {
		out[i] = b.Cohort
	}
	return out
}

func TestEngine_Audit(t *testing.T) {
	e := newTestEngine(t, sampleSource(period))
	ctx := context.Background()

	report, err := e.Audit(ctx, "F1", period)
	require.NoError(t, err)
	assert.InDelta(t, 3000, report.Denominators.ResidentDays, 1e-9)
	assert.InDelta(t, 600, report.Denominators.SkilledDays, 1e-9)
	assert.Empty(t, report.Anomalies)

	report, err = e.Audit(ctx, "F9", period)
	require.ErrorIs(t, err, core.ErrUnknownFacility)
	assert.Nil(t, report)
}

// seriesSource holds one SNF with total_revenue_ppd given per period.
func seriesSource(ppd map[string]float64) *facts.MemorySource {
	f := core.Facility{ID: "F1", Name: "Oak Grove", State: "OH", Region: "Midwest", Setting: core.SettingSNF}
	src := facts.NewMemorySource(f)
	for p, v := range ppd {
		fin, cen := testutil.SkilledNursingFacility(f.ID, p, 3000, v)
		src.AddFinance(fin...)
		src.AddCensus(cen...)
	}
	return src
}

func TestEngine_OutlierDetection(t *testing.T) {
	periods := []string{"2023-10", "2023-11", "2023-12", "2024-01"}
	e := newTestEngine(t, seriesSource(map[string]float64{
		"2023-10": 300, "2023-11": 310, "2023-12": 290, "2024-01": 500,
	}))
	ctx := context.Background()

	for _, p := range periods {
		_, err := e.Run(ctx, p)
		require.NoError(t, err)
	}

	outliers := func(p string) []core.Anomaly {
		anomalies, err := e.Anomalies(ctx, "F1", p)
		require.NoError(t, err)
		var out []core.Anomaly
		for _, a := range anomalies {
			if a.Type == core.AnomalyKPIOutlier {
				out = append(out, a)
			}
		}
		return out
	}

	// Two prior periods are not enough history.
	assert.Empty(t, outliers("2023-12"))

	found := outliers("2024-01")
	var revenue *core.Anomaly
	for i := range found {
		if found[i].KPIID == "total_revenue_ppd" {
			revenue = &found[i]
		}
	}
	require.NotNil(t, revenue, "expected a total_revenue_ppd outlier")
	assert.Equal(t, core.SeverityWarning, revenue.Severity)
	require.NotNil(t, revenue.Expected)
	assert.InDelta(t, 300, *revenue.Expected, 1e-6)
	assert.InDelta(t, 500, *revenue.Actual, 1e-6)

	// Ratios that never moved have no spread and are never flagged.
	for _, a := range found {
		assert.NotEqual(t, "skilled_mix", a.KPIID)
	}
}

func TestEngine_Trend(t *testing.T) {
	ppd := map[string]float64{"2023-10": 300, "2023-11": 310, "2023-12": 320, "2024-01": 330}
	e := newTestEngine(t, seriesSource(ppd))
	ctx := context.Background()
	for _, p := range []string{"2023-10", "2023-11", "2023-12", "2024-01"} {
		_, err := e.Run(ctx, p)
		require.NoError(t, err)
	}

	report, err := e.Trend(ctx, "F1", "total_revenue_ppd", 12)
	require.NoError(t, err)
	require.Len(t, report.History, 4)
	assert.Equal(t, "2023-10", report.History[0].PeriodID)
	assert.Equal(t, stats.TrendImproving, report.Trend.Direction)
	assert.InDelta(t, 10, report.Trend.Slope, 1e-6)
	assert.InDelta(t, 315, report.Trend.Mean, 1e-6)
	assert.Positive(t, report.Volatility)

	// Rising cost is bad news.
	cost, err := e.Trend(ctx, "F1", "nursing_cost_ppd", 12)
	require.NoError(t, err)
	assert.Equal(t, stats.TrendDeclining, cost.Trend.Direction)

	_, err = e.Trend(ctx, "F1", "no_such_kpi", 12)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestEngine_Correlate(t *testing.T) {
	e := newTestEngine(t, sampleSource(period))
	ctx := context.Background()
	_, err := e.Run(ctx, period)
	require.NoError(t, err)

	res, err := e.Correlate(ctx, period, "total_revenue_ppd", "nursing_cost_ppd")
	require.NoError(t, err)
	assert.Equal(t, 4, res.N)
	assert.InDelta(t, 1, res.R, 1e-9)
	assert.Equal(t, stats.StrengthStrong, res.Strength)
	assert.Equal(t, stats.DirectionPositive, res.Direction)

	_, err = e.Correlate(ctx, "2024-1", "total_revenue_ppd", "nursing_cost_ppd")
	require.ErrorIs(t, err, core.ErrInvalidPeriod)
}
