// Package state persists KPI results, benchmarks, anomalies and run
// history in SQLite.
//
// The store contract is core.Store; SQLiteStore is its only implementation.
// Results and benchmarks are keyed so that recomputing a period replaces
// the previous rows instead of accumulating them.
package state

import "github.com/leapstack-labs/leapkpi/pkg/core"

var _ core.Store = (*SQLiteStore)(nil)
