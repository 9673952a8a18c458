// Package core defines the shared language of the leapkpi system.
//
// This package contains:
//   - Input facts (FinanceFact, CensusFact, OccupancyFact)
//   - Derived values (Denominators, KPIResult, Benchmark, Anomaly)
//   - Business constants (payer categories, the skilled-payer set)
//   - Service interfaces (Store)
//
// The Golden Rule: pkg/core imports ONLY stdlib and value libraries.
// All other packages depend on core, not the reverse.
package core
