package engine

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapkpi/internal/calculator"
	"github.com/leapstack-labs/leapkpi/internal/denominator"
	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// Calculate computes KPIs for one facility without persisting anything.
// An empty kpiIDs computes every KPI that applies to the facility's setting.
func (e *Engine) Calculate(ctx context.Context, facilityID, periodID string, kpiIDs []string) (calculator.Calculation, error) {
	if _, err := core.ParsePeriod(periodID); err != nil {
		return calculator.Calculation{}, err
	}
	f, err := e.facts.Facility(ctx, facilityID)
	if err != nil {
		return calculator.Calculation{}, err
	}
	return e.calculate(ctx, f, periodID, kpiIDs)
}

func (e *Engine) calculate(ctx context.Context, f core.Facility, periodID string, kpiIDs []string) (calculator.Calculation, error) {
	finance, err := e.facts.FinanceFacts(ctx, f.ID, periodID)
	if err != nil {
		return calculator.Calculation{}, fmt.Errorf("finance facts for %s: %w", f.ID, err)
	}
	census, err := e.facts.CensusFacts(ctx, f.ID, periodID)
	if err != nil {
		return calculator.Calculation{}, fmt.Errorf("census facts for %s: %w", f.ID, err)
	}
	occupancy, err := e.facts.OccupancyFacts(ctx, f.ID, periodID)
	if err != nil {
		return calculator.Calculation{}, fmt.Errorf("occupancy facts for %s: %w", f.ID, err)
	}

	return e.calc.CalculateAllKPIs(calculator.Request{
		FacilityID: f.ID,
		PeriodID:   periodID,
		Setting:    f.Setting,
		KPIIDs:     kpiIDs,
		Finance:    finance,
		Census:     census,
		Occupancy:  occupancy,
	})
}

// AuditReport is the result of re-checking a facility's denominators.
type AuditReport struct {
	Denominators core.Denominators
	Anomalies    []core.Anomaly
}

// Audit resolves denominators from current census facts and runs both the
// validation and reconciliation checks on them.
func (e *Engine) Audit(ctx context.Context, facilityID, periodID string) (*AuditReport, error) {
	if _, err := core.ParsePeriod(periodID); err != nil {
		return nil, err
	}
	if _, err := e.facts.Facility(ctx, facilityID); err != nil {
		return nil, err
	}
	census, err := e.facts.CensusFacts(ctx, facilityID, periodID)
	if err != nil {
		return nil, fmt.Errorf("census facts for %s: %w", facilityID, err)
	}

	d, anomalies := denominator.Resolve(census, facilityID, periodID)
	anomalies = append(anomalies, denominator.Reconcile(d)...)
	return &AuditReport{Denominators: d, Anomalies: anomalies}, nil
}
