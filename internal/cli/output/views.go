package output

import (
	"sort"
	"time"

	"github.com/leapstack-labs/leapkpi/internal/benchmark"
	"github.com/leapstack-labs/leapkpi/internal/registry"
	"github.com/leapstack-labs/leapkpi/internal/stats"
	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// JSON views of domain values. Values keep full precision.

// ResultInfo is the JSON view of a KPI result.
type ResultInfo struct {
	FacilityID      string   `json:"facility_id"`
	PeriodID        string   `json:"period_id"`
	KPIID           string   `json:"kpi_id"`
	Value           *float64 `json:"value"`
	Numerator       float64  `json:"numerator"`
	Denominator     float64  `json:"denominator"`
	DenominatorType string   `json:"denominator_type"`
	PayerScope      string   `json:"payer_scope"`
	Unit            string   `json:"unit"`
	Warnings        []string `json:"warnings"`
}

// NewResultInfo converts a result.
func NewResultInfo(r core.KPIResult) ResultInfo {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return ResultInfo{
		FacilityID:      r.FacilityID,
		PeriodID:        r.PeriodID,
		KPIID:           r.KPIID,
		Value:           r.Value,
		Numerator:       r.NumeratorValue,
		Denominator:     r.DenominatorValue,
		DenominatorType: string(r.DenominatorType),
		PayerScope:      r.PayerScope.String(),
		Unit:            string(r.Unit),
		Warnings:        warnings,
	}
}

// NewResultInfos converts results.
func NewResultInfos(results []core.KPIResult) []ResultInfo {
	out := make([]ResultInfo, len(results))
	for i, r := range results {
		out[i] = NewResultInfo(r)
	}
	return out
}

// AnomalyInfo is the JSON view of an anomaly.
type AnomalyInfo struct {
	FacilityID string   `json:"facility_id"`
	PeriodID   string   `json:"period_id"`
	KPIID      string   `json:"kpi_id,omitempty"`
	Type       string   `json:"type"`
	Severity   string   `json:"severity"`
	Message    string   `json:"message"`
	Field      string   `json:"field,omitempty"`
	Expected   *float64 `json:"expected,omitempty"`
	Actual     *float64 `json:"actual,omitempty"`
}

// NewAnomalyInfos converts anomalies.
func NewAnomalyInfos(anomalies []core.Anomaly) []AnomalyInfo {
	out := make([]AnomalyInfo, len(anomalies))
	for i, a := range anomalies {
		out[i] = AnomalyInfo{
			FacilityID: a.FacilityID,
			PeriodID:   a.PeriodID,
			KPIID:      a.KPIID,
			Type:       string(a.Type),
			Severity:   a.Severity.String(),
			Message:    a.Message,
			Field:      a.Field,
			Expected:   a.Expected,
			Actual:     a.Actual,
		}
	}
	return out
}

// DenominatorInfo is the JSON view of resolved denominators.
type DenominatorInfo struct {
	ResidentDays  float64            `json:"resident_days"`
	SkilledDays   float64            `json:"skilled_days"`
	VentDays      float64            `json:"vent_days"`
	OccupiedUnits *float64           `json:"occupied_units,omitempty"`
	PayerDays     map[string]float64 `json:"payer_days"`
}

// NewDenominatorInfo converts denominators.
func NewDenominatorInfo(d core.Denominators) DenominatorInfo {
	payers := make(map[string]float64, len(d.PayerDays))
	for p, days := range d.PayerDays {
		payers[string(p)] = days
	}
	return DenominatorInfo{
		ResidentDays:  d.ResidentDays,
		SkilledDays:   d.SkilledDays,
		VentDays:      d.VentDays,
		OccupiedUnits: d.OccupiedUnits,
		PayerDays:     payers,
	}
}

// CalculationOutput is the JSON output of a single-facility calculation.
type CalculationOutput struct {
	FacilityID   string          `json:"facility_id"`
	PeriodID     string          `json:"period_id"`
	Denominators DenominatorInfo `json:"denominators"`
	Results      []ResultInfo    `json:"results"`
	Anomalies    []AnomalyInfo   `json:"anomalies"`
	Saved        bool            `json:"saved"`
}

// AuditOutput is the JSON output of a denominator audit.
type AuditOutput struct {
	FacilityID   string          `json:"facility_id"`
	PeriodID     string          `json:"period_id"`
	Denominators DenominatorInfo `json:"denominators"`
	Anomalies    []AnomalyInfo   `json:"anomalies"`
}

// BenchmarkInfo is the JSON view of a benchmark.
type BenchmarkInfo struct {
	KPIID    string  `json:"kpi_id"`
	Cohort   string  `json:"cohort"`
	PeriodID string  `json:"period_id"`
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	P10      float64 `json:"p10"`
	P25      float64 `json:"p25"`
	P75      float64 `json:"p75"`
	P90      float64 `json:"p90"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	StdDev   float64 `json:"std_dev"`
}

// NewBenchmarkInfos converts benchmarks.
func NewBenchmarkInfos(benchmarks []core.Benchmark) []BenchmarkInfo {
	out := make([]BenchmarkInfo, len(benchmarks))
	for i, b := range benchmarks {
		s := b.Stats
		out[i] = BenchmarkInfo{
			KPIID: b.KPIID, Cohort: b.Cohort, PeriodID: b.PeriodID,
			Count: s.Count, Mean: s.Mean, Median: s.Median,
			P10: s.P10, P25: s.P25, P75: s.P75, P90: s.P90,
			Min: s.Min, Max: s.Max, StdDev: s.StdDev,
		}
	}
	return out
}

// RunInfo is the JSON view of a run.
type RunInfo struct {
	ID          string  `json:"id"`
	PeriodID    string  `json:"period_id"`
	Status      string  `json:"status"`
	Facilities  int     `json:"facilities"`
	Results     int     `json:"results"`
	Anomalies   int     `json:"anomalies"`
	StartedAt   string  `json:"started_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// NewRunInfo converts a run.
func NewRunInfo(run *core.Run) RunInfo {
	info := RunInfo{
		ID:         run.ID,
		PeriodID:   run.PeriodID,
		Status:     string(run.Status),
		Facilities: run.Facilities,
		Results:    run.Results,
		Anomalies:  run.Anomalies,
		StartedAt:  run.StartedAt.Format(time.RFC3339),
		Error:      run.Error,
	}
	if run.CompletedAt != nil {
		s := run.CompletedAt.Format(time.RFC3339)
		info.CompletedAt = &s
	}
	return info
}

// ScoreInfo is a facility's standing in one cohort.
type ScoreInfo struct {
	Cohort string  `json:"cohort"`
	Rank   float64 `json:"percentile_rank"`
	Label  string  `json:"label"`
	Count  int     `json:"cohort_size"`
	Median float64 `json:"cohort_median"`
}

// RankingOutput is the JSON output of a facility ranking.
type RankingOutput struct {
	FacilityID     string      `json:"facility_id"`
	PeriodID       string      `json:"period_id"`
	KPIID          string      `json:"kpi_id"`
	Unit           string      `json:"unit"`
	HigherIsBetter bool        `json:"higher_is_better"`
	Value          *float64    `json:"value"`
	Scores         []ScoreInfo `json:"scores"`
}

// NewScoreInfos converts cohort scores.
func NewScoreInfos(scores []benchmark.CohortScore) []ScoreInfo {
	out := make([]ScoreInfo, len(scores))
	for i, s := range scores {
		out[i] = ScoreInfo{Cohort: s.Cohort, Rank: s.Rank, Label: s.Label, Count: s.Stats.Count, Median: s.Stats.Median}
	}
	return out
}

// KPIInfo is the JSON view of a KPI definition.
type KPIInfo struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Kind            string   `json:"kind"`
	Unit            string   `json:"unit"`
	DenominatorType string   `json:"denominator_type"`
	PayerScope      string   `json:"payer_scope"`
	HigherIsBetter  bool     `json:"higher_is_better"`
	Settings        []string `json:"settings"`
}

// NewKPIInfos converts definitions, ordered by id.
func NewKPIInfos(defs []registry.Definition) []KPIInfo {
	out := make([]KPIInfo, len(defs))
	for i, d := range defs {
		settings := make([]string, len(d.Settings))
		for j, s := range d.Settings {
			settings[j] = string(s)
		}
		out[i] = KPIInfo{
			ID:              d.ID,
			Name:            d.Name,
			Kind:            d.Formula.Kind(),
			Unit:            string(d.Unit),
			DenominatorType: string(d.DenominatorType),
			PayerScope:      d.PayerScope.String(),
			HigherIsBetter:  d.HigherIsBetter,
			Settings:        settings,
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TrendOutput is the JSON output of a trend report.
type TrendOutput struct {
	FacilityID string       `json:"facility_id"`
	KPIID      string       `json:"kpi_id"`
	Direction  string       `json:"direction"`
	Slope      float64      `json:"slope"`
	Mean       float64      `json:"mean"`
	StdDev     float64      `json:"std_dev"`
	Volatility float64      `json:"volatility"`
	History    []ResultInfo `json:"history"`
}

// CorrelationOutput is the JSON output of a KPI correlation.
type CorrelationOutput struct {
	PeriodID  string  `json:"period_id"`
	KPIX      string  `json:"kpi_x"`
	KPIY      string  `json:"kpi_y"`
	R         float64 `json:"r"`
	N         int     `json:"n"`
	Strength  string  `json:"strength"`
	Direction string  `json:"direction"`
}

// NewCorrelationOutput converts a correlation result.
func NewCorrelationOutput(periodID, kpiX, kpiY string, c stats.CorrelationResult) CorrelationOutput {
	return CorrelationOutput{
		PeriodID:  periodID,
		KPIX:      kpiX,
		KPIY:      kpiY,
		R:         c.R,
		N:         c.N,
		Strength:  string(c.Strength),
		Direction: string(c.Direction),
	}
}
