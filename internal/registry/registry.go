// Package registry provides the declarative KPI catalog.
// It maps KPI ids to their formula kind, denominator, payer scope and
// directionality, and numerator keys to the finance facts they sum.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// ErrDuplicate is returned when registering an id that already exists.
var ErrDuplicate = errors.New("already registered")

// Definition describes one KPI.
type Definition struct {
	ID              string
	Name            string
	Formula         Formula
	DenominatorType core.DenominatorType
	PayerScope      core.PayerScope
	Unit            core.Unit
	HigherIsBetter  bool
	// Settings lists the settings the KPI applies to; empty means all.
	Settings []core.Setting
}

// AppliesTo reports whether the KPI is computed for facilities of setting s.
func (d Definition) AppliesTo(s core.Setting) bool {
	if len(d.Settings) == 0 {
		return true
	}
	for _, setting := range d.Settings {
		if setting == s {
			return true
		}
	}
	return false
}

// Registry holds KPI definitions and numerator sources.
// It is safe for concurrent use; lookups vastly outnumber registrations.
type Registry struct {
	mu sync.RWMutex

	// byID maps KPI ids to definitions: "total_revenue_ppd" → Definition
	byID map[string]Definition

	// sources maps numerator keys to fact filters: "nursing_cost" → NumeratorSource
	sources map[string]NumeratorSource
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		byID:    make(map[string]Definition),
		sources: make(map[string]NumeratorSource),
	}
}

// Default returns a registry populated with the built-in sources and KPIs.
func Default() *Registry {
	r := New()
	for _, s := range defaultSources() {
		if err := r.RegisterSource(s); err != nil {
			panic(err)
		}
	}
	for _, d := range defaultDefinitions() {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a KPI definition. Every numerator key the formula reads must
// already have a source.
func (r *Registry) Register(def Definition) error {
	if def.ID == "" {
		return errors.New("kpi id is required")
	}
	if def.Formula == nil {
		return fmt.Errorf("kpi %s: formula is required", def.ID)
	}
	if c, ok := def.Formula.(Composite); ok && c.Fn == nil {
		return fmt.Errorf("kpi %s: composite formula has no function", def.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[def.ID]; ok {
		return fmt.Errorf("kpi %s: %w", def.ID, ErrDuplicate)
	}
	for _, key := range Keys(def.Formula) {
		if _, ok := r.sources[key]; !ok {
			return fmt.Errorf("kpi %s: unknown numerator source %q", def.ID, key)
		}
	}
	r.byID[def.ID] = def
	return nil
}

// RegisterSource adds a numerator source, replacing any source with the same key.
func (r *Registry) RegisterSource(s NumeratorSource) error {
	if s.Key == "" {
		return errors.New("numerator source key is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.Key] = s
	return nil
}

// Get returns the definition for id.
func (r *Registry) Get(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byID[id]
	return def, ok
}

// Source returns the numerator source for key.
func (r *Registry) Source(key string) (NumeratorSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[key]
	return s, ok
}

// All returns every definition sorted by id.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.byID))
	for _, def := range r.byID {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// ForSetting returns the definitions applicable to s, sorted by id.
// An empty setting returns every definition.
func (r *Registry) ForSetting(s core.Setting) []Definition {
	all := r.All()
	if s == "" {
		return all
	}
	out := all[:0]
	for _, def := range all {
		if def.AppliesTo(s) {
			out = append(out, def)
		}
	}
	return out
}

// Count returns the number of registered KPIs.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
