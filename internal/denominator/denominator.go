// Package denominator aggregates census facts into the canonical day counts
// KPIs divide by.
package denominator

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/leapkpi/pkg/core"
)

const (
	// payerDaysTolerance is the allowed gap between summed payer buckets and
	// resident days, in days.
	payerDaysTolerance = 1.0
	// reconcileTolerance is the allowed gap between stored and recomputed
	// skilled days.
	reconcileTolerance = 0.01
)

// Resolve aggregates the census facts of one facility and period into
// Denominators. Facts for other facilities or periods and facts with an
// unknown payer category are ignored. Findings are returned as anomalies in
// a fixed order; Resolve never fails.
func Resolve(facts []core.CensusFact, facilityID, periodID string) (core.Denominators, []core.Anomaly) {
	d := core.Denominators{
		FacilityID: facilityID,
		PeriodID:   periodID,
		PayerDays:  make(map[core.PayerCategory]float64, len(core.AllPayers)),
	}
	for _, p := range core.AllPayers {
		d.PayerDays[p] = 0
	}

	seen := 0
	for _, f := range facts {
		if f.FacilityID != facilityID || f.PeriodID != periodID {
			continue
		}
		seen++
		if f.IsVent {
			d.VentDays += f.Days
		}
		if _, ok := d.PayerDays[f.PayerCategory]; !ok {
			continue
		}
		d.PayerDays[f.PayerCategory] += f.Days
	}

	// Sum in canonical order so results are bit-for-bit repeatable.
	for _, p := range core.AllPayers {
		d.ResidentDays += d.PayerDays[p]
	}
	d.SkilledDays = skilledDays(d.PayerDays)

	if seen == 0 {
		return d, []core.Anomaly{missingData(d)}
	}
	return d, Validate(d)
}

func missingData(d core.Denominators) core.Anomaly {
	return core.Anomaly{
		FacilityID: d.FacilityID,
		PeriodID:   d.PeriodID,
		Type:       core.AnomalyMissingData,
		Severity:   core.SeverityWarning,
		Field:      "census",
		Message:    fmt.Sprintf("No census data for facility %s in period %s", d.FacilityID, d.PeriodID),
	}
}

// Validate checks the internal consistency of d: skilled days must not exceed
// resident days and the payer buckets must add up to resident days.
func Validate(d core.Denominators) []core.Anomaly {
	var anomalies []core.Anomaly

	if d.ResidentDays > 0 && d.SkilledDays > d.ResidentDays {
		anomalies = append(anomalies, core.Anomaly{
			FacilityID: d.FacilityID,
			PeriodID:   d.PeriodID,
			Type:       core.AnomalySkilledExceedsTotal,
			Severity:   core.SeverityError,
			Field:      "skilled_days",
			Message:    fmt.Sprintf("Skilled days (%.2f) exceed resident days (%.2f)", d.SkilledDays, d.ResidentDays),
			Expected:   core.Float(d.ResidentDays),
			Actual:     core.Float(d.SkilledDays),
		})
	}

	var bucketTotal float64
	for _, p := range core.AllPayers {
		bucketTotal += d.PayerDays[p]
	}
	if math.Abs(bucketTotal-d.ResidentDays) > payerDaysTolerance {
		anomalies = append(anomalies, core.Anomaly{
			FacilityID: d.FacilityID,
			PeriodID:   d.PeriodID,
			Type:       core.AnomalyPayerDaysMismatch,
			Severity:   core.SeverityWarning,
			Field:      "payer_days",
			Message:    fmt.Sprintf("Payer days total (%.2f) does not match resident days (%.2f)", bucketTotal, d.ResidentDays),
			Expected:   core.Float(d.ResidentDays),
			Actual:     core.Float(bucketTotal),
		})
	}

	return anomalies
}

// Reconcile recomputes skilled days from the payer buckets of an already
// resolved Denominators and reports a reconciliation_mismatch when the stored
// value disagrees. It is an audit check and is not part of Resolve.
func Reconcile(d core.Denominators) []core.Anomaly {
	recomputed := skilledDays(d.PayerDays)
	if math.Abs(recomputed-d.SkilledDays) <= reconcileTolerance {
		return nil
	}
	return []core.Anomaly{{
		FacilityID: d.FacilityID,
		PeriodID:   d.PeriodID,
		Type:       core.AnomalyReconciliationMismatch,
		Severity:   core.SeverityError,
		Field:      "skilled_days",
		Message:    fmt.Sprintf("Skilled days (%.2f) do not reconcile with skilled payer days (%.2f)", d.SkilledDays, recomputed),
		Expected:   core.Float(recomputed),
		Actual:     core.Float(d.SkilledDays),
	}}
}

// WithOccupancy returns a copy of d with OccupiedUnits derived from the
// occupancy snapshot (average units occupied over the month). A nil snapshot
// or a non-positive month length leaves OccupiedUnits unset.
func WithOccupancy(d core.Denominators, occ *core.OccupancyFact, daysInMonth int) core.Denominators {
	if occ == nil || daysInMonth <= 0 {
		return d
	}
	units := occ.TotalUnitDays / float64(daysInMonth)
	d.OccupiedUnits = &units
	return d
}

func skilledDays(buckets map[core.PayerCategory]float64) float64 {
	var total float64
	for _, p := range core.SkilledPayers {
		total += buckets[p]
	}
	return total
}
