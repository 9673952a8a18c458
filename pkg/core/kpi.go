package core

import "strings"

// Unit is the display unit of a KPI value.
type Unit string

// KPI units.
const (
	UnitCurrency   Unit = "currency"
	UnitPercentage Unit = "percentage"
	UnitHours      Unit = "hours"
	UnitNumber     Unit = "number"
)

// PayerScopeKind selects which payers a KPI covers.
type PayerScopeKind string

// Payer scope kinds.
const (
	ScopeAll     PayerScopeKind = "all"
	ScopeSkilled PayerScopeKind = "skilled"
	ScopePayers  PayerScopeKind = "payers"
)

// PayerScope restricts a KPI to all payers, the skilled set, or a list.
type PayerScope struct {
	Kind   PayerScopeKind
	Payers []PayerCategory
}

// AllPayerScope covers every payer.
func AllPayerScope() PayerScope { return PayerScope{Kind: ScopeAll} }

// SkilledPayerScope covers SkilledPayers.
func SkilledPayerScope() PayerScope { return PayerScope{Kind: ScopeSkilled} }

// PayersScope covers exactly the given payers.
func PayersScope(payers ...PayerCategory) PayerScope {
	return PayerScope{Kind: ScopePayers, Payers: payers}
}

// Members returns the payers covered by the scope, or nil for ScopeAll.
func (s PayerScope) Members() []PayerCategory {
	switch s.Kind {
	case ScopeSkilled:
		return SkilledPayers
	case ScopePayers:
		return s.Payers
	default:
		return nil
	}
}

// String renders the scope as stored: "all", "skilled" or "payers:A+B".
func (s PayerScope) String() string {
	if s.Kind != ScopePayers {
		if s.Kind == "" {
			return string(ScopeAll)
		}
		return string(s.Kind)
	}
	names := make([]string, len(s.Payers))
	for i, p := range s.Payers {
		names[i] = string(p)
	}
	return string(ScopePayers) + ":" + strings.Join(names, "+")
}

// ParsePayerScope is the inverse of PayerScope.String.
func ParsePayerScope(s string) PayerScope {
	switch {
	case s == string(ScopeSkilled):
		return SkilledPayerScope()
	case strings.HasPrefix(s, string(ScopePayers)+":"):
		var payers []PayerCategory
		for _, name := range strings.Split(strings.TrimPrefix(s, string(ScopePayers)+":"), "+") {
			if p, ok := ParsePayerCategory(name); ok {
				payers = append(payers, p)
			}
		}
		return PayersScope(payers...)
	default:
		return AllPayerScope()
	}
}

// KPIResult is one computed KPI for a facility and period.
// Value is nil exactly when the denominator resolved to zero or the
// numerator data is absent; Warnings say which.
type KPIResult struct {
	FacilityID       string
	PeriodID         string
	KPIID            string
	Value            *float64
	NumeratorValue   float64
	DenominatorValue float64
	DenominatorType  DenominatorType
	PayerScope       PayerScope
	Unit             Unit
	Warnings         []string
}
