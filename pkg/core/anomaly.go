package core

// AnomalyType classifies a detected data-quality problem.
type AnomalyType string

// Anomaly types.
const (
	AnomalySkilledExceedsTotal    AnomalyType = "skilled_exceeds_total"
	AnomalyPayerDaysMismatch      AnomalyType = "payer_days_mismatch"
	AnomalyMissingData            AnomalyType = "missing_data"
	AnomalyReconciliationMismatch AnomalyType = "reconciliation_mismatch"
	AnomalyKPIOutlier             AnomalyType = "kpi_outlier"
)

// Anomaly is a data-quality finding for a facility and period.
// Expected and Actual are set for the comparison-based types.
type Anomaly struct {
	FacilityID string
	PeriodID   string
	KPIID      string
	Type       AnomalyType
	Severity   Severity
	Message    string
	// Field names the value the finding concerns, e.g. "skilled_days".
	Field    string
	Expected *float64
	Actual   *float64
}

// Float returns a pointer to v. Convenience for optional numeric fields.
func Float(v float64) *float64 { return &v }
