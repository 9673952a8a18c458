package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapkpi/internal/cli/output"
	"github.com/leapstack-labs/leapkpi/internal/engine"
	"github.com/leapstack-labs/leapkpi/internal/facts"
	"github.com/leapstack-labs/leapkpi/internal/testutil"
)

const period = "2024-01"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ds := testutil.SampleDataset(period)
	src := facts.NewMemorySource(ds.Facilities...)
	src.AddFinance(ds.Finance...)
	src.AddCensus(ds.Census...)

	eng, err := engine.New(engine.Config{Facts: src, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	return New(Config{Engine: eng, Version: "test", Logger: testutil.NewTestLogger(t)})
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) Response[T] {
	t.Helper()
	var resp Response[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/v1/health")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	resp := decode[map[string]string](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "available", resp.Data["status"])
	assert.Equal(t, "test", resp.Data["version"])
}

func TestListKPIs(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/v1/kpis")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[[]output.KPIInfo](t, rec)
	require.NotEmpty(t, resp.Data)
	ids := make([]string, len(resp.Data))
	for i, k := range resp.Data {
		ids[i] = k.ID
	}
	assert.Contains(t, ids, "total_revenue_ppd")
	assert.IsIncreasing(t, ids)
}

func TestRunAndQuery(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/runs/"+period)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	run := decode[output.RunInfo](t, rec)
	assert.Equal(t, "completed", run.Data.Status)
	assert.Equal(t, 4, run.Data.Facilities)

	t.Run("results", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/v1/facilities/F1/periods/"+period+"/results")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[[]output.ResultInfo](t, rec)
		var found bool
		for _, r := range resp.Data {
			if r.KPIID == "total_revenue_ppd" {
				found = true
				require.NotNil(t, r.Value)
				assert.InDelta(t, 300.0, *r.Value, 1e-9)
			}
		}
		assert.True(t, found)
	})

	t.Run("anomalies", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/v1/facilities/F1/periods/"+period+"/anomalies")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("benchmarks for one kpi", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/v1/benchmarks/"+period+"?kpi=total_revenue_ppd")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[[]output.BenchmarkInfo](t, rec)
		require.NotEmpty(t, resp.Data)
		for _, b := range resp.Data {
			assert.Equal(t, "total_revenue_ppd", b.KPIID)
		}
		assert.Equal(t, "all", resp.Data[0].Cohort)
		assert.Equal(t, 4, resp.Data[0].Count)
	})

	t.Run("rank", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/v1/facilities/F4/periods/"+period+"/rank/total_revenue_ppd")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[output.RankingOutput](t, rec)
		require.NotEmpty(t, resp.Data.Scores)
		assert.Equal(t, "all", resp.Data.Scores[0].Cohort)
		assert.Equal(t, "Top Quartile", resp.Data.Scores[0].Label)
	})

	t.Run("runs", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/v1/runs/?limit=5")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[[]output.RunInfo](t, rec)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, run.Data.ID, resp.Data[0].ID)
	})
}

func TestErrorStatus(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/v1/runs/"+period).Code)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"invalid period in results", http.MethodGet, "/v1/facilities/F1/periods/2024-13/results", http.StatusBadRequest},
		{"invalid period in run", http.MethodPost, "/v1/runs/January", http.StatusBadRequest},
		{"invalid period in benchmarks", http.MethodGet, "/v1/benchmarks/24-01", http.StatusBadRequest},
		{"unknown facility results", http.MethodGet, "/v1/facilities/F9/periods/" + period + "/results", http.StatusNotFound},
		{"unknown facility anomalies", http.MethodGet, "/v1/facilities/F9/periods/" + period + "/anomalies", http.StatusNotFound},
		{"unknown facility rank", http.MethodGet, "/v1/facilities/F9/periods/" + period + "/rank/total_revenue_ppd", http.StatusNotFound},
		{"unknown kpi rank", http.MethodGet, "/v1/facilities/F1/periods/" + period + "/rank/no_such_kpi", http.StatusNotFound},
		{"invalid limit", http.MethodGet, "/v1/runs/?limit=ten", http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/v1/nothing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/v1/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
