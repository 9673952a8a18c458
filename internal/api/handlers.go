package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/leapkpi/internal/cli/output"
	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnknownFacility), errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	}
	writeError(w, status, err.Error())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, "", map[string]string{
		"status":  "available",
		"version": s.version,
	})
}

func (s *Server) handleListKPIs(w http.ResponseWriter, _ *http.Request) {
	kpis := output.NewKPIInfos(s.engine.Registry().All())
	writeData(w, http.StatusOK, "", kpis)
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.engine.Results(r.Context(), chi.URLParam(r, "facility"), chi.URLParam(r, "period"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", output.NewResultInfos(results))
}

func (s *Server) handleGetAnomalies(w http.ResponseWriter, r *http.Request) {
	anomalies, err := s.engine.Anomalies(r.Context(), chi.URLParam(r, "facility"), chi.URLParam(r, "period"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", output.NewAnomalyInfos(anomalies))
}

func (s *Server) handleGetBenchmarks(w http.ResponseWriter, r *http.Request) {
	benchmarks, err := s.engine.Benchmarks(r.Context(), chi.URLParam(r, "period"), r.URL.Query().Get("kpi"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", output.NewBenchmarkInfos(benchmarks))
}

func (s *Server) handleGetRank(w http.ResponseWriter, r *http.Request) {
	ranking, err := s.engine.Rank(r.Context(),
		chi.URLParam(r, "facility"), chi.URLParam(r, "period"), chi.URLParam(r, "kpi"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", output.RankingOutput{
		FacilityID:     ranking.FacilityID,
		PeriodID:       ranking.PeriodID,
		KPIID:          ranking.KPIID,
		Unit:           string(ranking.Unit),
		HigherIsBetter: ranking.HigherIsBetter,
		Value:          ranking.Value,
		Scores:         output.NewScoreInfos(ranking.Scores),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = l
	}

	runs, err := s.engine.Store().ListRuns(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	infos := make([]output.RunInfo, len(runs))
	for i, run := range runs {
		infos[i] = output.NewRunInfo(run)
	}
	writeData(w, http.StatusOK, "", infos)
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.engine.Run(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "run completed", output.NewRunInfo(run))
}
