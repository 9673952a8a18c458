package config

import (
	"fmt"

	"github.com/leapstack-labs/leapkpi/internal/registry"
	"github.com/leapstack-labs/leapkpi/internal/starlark"
	"github.com/leapstack-labs/leapkpi/pkg/core"
)

// Definition compiles the custom KPI into a registry definition. Syntax
// errors in the expression are reported here rather than at calculation.
func (c *KPIConfig) Definition(pool *starlark.ThreadPool) (registry.Definition, error) {
	if err := c.Validate(); err != nil {
		return registry.Definition{}, err
	}
	expr, err := starlark.Compile(c.ID, c.Expr)
	if err != nil {
		return registry.Definition{}, fmt.Errorf("kpi %s: %w", c.ID, err)
	}

	def := registry.Definition{
		ID:              c.ID,
		Name:            c.Name,
		Formula:         expr.Composite(c.Inputs, pool),
		DenominatorType: core.DenominatorNone,
		PayerScope:      core.AllPayerScope(),
		Unit:            core.UnitNumber,
		HigherIsBetter:  c.HigherIsBetter,
	}
	if def.Name == "" {
		def.Name = c.ID
	}
	if c.Unit != "" {
		def.Unit = core.Unit(c.Unit)
	}
	if c.DenominatorType != "" {
		def.DenominatorType = core.DenominatorType(c.DenominatorType)
	}
	for _, s := range c.Settings {
		setting, _ := core.ParseSetting(s)
		def.Settings = append(def.Settings, setting)
	}
	return def, nil
}

// BuildRegistry returns the built-in catalog extended with the custom KPIs.
func BuildRegistry(kpis []KPIConfig, pool *starlark.ThreadPool) (*registry.Registry, error) {
	reg := registry.Default()
	if len(kpis) > 0 && pool == nil {
		pool = starlark.NewThreadPool(len(kpis))
	}
	for i := range kpis {
		def, err := kpis[i].Definition(pool)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(def); err != nil {
			return nil, fmt.Errorf("kpi %s: %w", def.ID, err)
		}
	}
	return reg, nil
}
