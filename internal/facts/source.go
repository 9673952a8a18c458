// Package facts provides read access to imported facility facts: finance
// line items, census day counts and occupancy snapshots, plus the facility
// directory.
package facts

import (
	"context"

	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// Source supplies immutable, already-parsed facts scoped by facility and
// period. Implementations must be safe for concurrent use.
type Source interface {
	// Facilities returns every facility ordered by id.
	Facilities(ctx context.Context) ([]core.Facility, error)
	// Facility returns one facility or an error wrapping core.ErrUnknownFacility.
	Facility(ctx context.Context, id string) (core.Facility, error)
	FinanceFacts(ctx context.Context, facilityID, periodID string) ([]core.FinanceFact, error)
	CensusFacts(ctx context.Context, facilityID, periodID string) ([]core.CensusFact, error)
	OccupancyFacts(ctx context.Context, facilityID, periodID string) ([]core.OccupancyFact, error)
	// Periods returns every period with facts, ascending.
	Periods(ctx context.Context) ([]string, error)
	Close() error
}

// Driver names accepted by Open.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Table names read by SQLSource and written by LoadSeeds.
const (
	TableFacilities = "facilities"
	TableFinance    = "finance_facts"
	TableCensus     = "census_facts"
	TableOccupancy  = "occupancy_facts"
)

var seedTables = []string{TableFacilities, TableFinance, TableCensus, TableOccupancy}
