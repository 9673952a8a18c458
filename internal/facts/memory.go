package facts

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// MemorySource serves facts held in memory.
type MemorySource struct {
	mu         sync.RWMutex
	facilities map[string]core.Facility
	finance    []core.FinanceFact
	census     []core.CensusFact
	occupancy  []core.OccupancyFact
}

// NewMemorySource creates a source over the given facilities.
func NewMemorySource(facilities ...core.Facility) *MemorySource {
	m := &MemorySource{facilities: make(map[string]core.Facility, len(facilities))}
	for _, f := range facilities {
		m.facilities[f.ID] = f
	}
	return m
}

// AddFacility registers or replaces a facility.
func (m *MemorySource) AddFacility(f core.Facility) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facilities[f.ID] = f
}

// AddFinance appends finance facts.
func (m *MemorySource) AddFinance(facts ...core.FinanceFact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finance = append(m.finance, facts...)
}

// AddCensus appends census facts.
func (m *MemorySource) AddCensus(facts ...core.CensusFact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.census = append(m.census, facts...)
}

// AddOccupancy appends occupancy snapshots.
func (m *MemorySource) AddOccupancy(facts ...core.OccupancyFact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.occupancy = append(m.occupancy, facts...)
}

// Facilities implements Source.
func (m *MemorySource) Facilities(_ context.Context) ([]core.Facility, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Facility, 0, len(m.facilities))
	for _, f := range m.facilities {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Facility implements Source.
func (m *MemorySource) Facility(_ context.Context, id string) (core.Facility, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.facilities[id]
	if !ok {
		return core.Facility{}, fmt.Errorf("%w: %s", core.ErrUnknownFacility, id)
	}
	return f, nil
}

// FinanceFacts implements Source.
func (m *MemorySource) FinanceFacts(_ context.Context, facilityID, periodID string) ([]core.FinanceFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.FinanceFact
	for _, f := range m.finance {
		if f.FacilityID == facilityID && f.PeriodID == periodID {
			out = append(out, f)
		}
	}
	return out, nil
}

// CensusFacts implements Source.
func (m *MemorySource) CensusFacts(_ context.Context, facilityID, periodID string) ([]core.CensusFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.CensusFact
	for _, f := range m.census {
		if f.FacilityID == facilityID && f.PeriodID == periodID {
			out = append(out, f)
		}
	}
	return out, nil
}

// OccupancyFacts implements Source.
func (m *MemorySource) OccupancyFacts(_ context.Context, facilityID, periodID string) ([]core.OccupancyFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.OccupancyFact
	for _, f := range m.occupancy {
		if f.FacilityID == facilityID && f.PeriodID == periodID {
			out = append(out, f)
		}
	}
	return out, nil
}

// Periods implements Source.
func (m *MemorySource) Periods(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	for _, f := range m.finance {
		seen[f.PeriodID] = true
	}
	for _, f := range m.census {
		seen[f.PeriodID] = true
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// Close implements Source.
func (m *MemorySource) Close() error { return nil }

var _ Source = (*MemorySource)(nil)
