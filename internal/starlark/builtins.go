package starlark

import (
	"fmt"

	"github.com/leapstack-labs/leapkpi/internal/registry"
	"github.com/leapstack-labs/leapkpi/pkg/core"
	"go.starlark.net/starlark"
)

// builtinNames are the globals every formula may reference.
var builtinNames = map[string]bool{
	"sum":           true,
	"denominator":   true,
	"days_in_month": true,
	"payer_days":    true,
}

const operandsKey = "leapkpi.operands"

// operandLog records what the builtins handed a formula during one
// evaluation: a missing aggregate or a zero-valued operand.
type operandLog struct {
	missing bool
	zero    bool
}

// note records v on the thread's operand log, if it carries one.
func note(thread *starlark.Thread, v starlark.Value) starlark.Value {
	log, ok := thread.Local(operandsKey).(*operandLog)
	if !ok {
		return v
	}
	switch v := v.(type) {
	case starlark.NoneType:
		log.missing = true
	case starlark.Float:
		if v == 0 {
			log.zero = true
		}
	}
	return v
}

// Predeclared returns the globals for evaluating a formula against in:
//
//	sum(key)          aggregate of a declared input, None when it has no facts
//	denominator(type) resolved denominator, e.g. denominator("resident_days")
//	days_in_month     calendar days in the period
//	payer_days(p)     day bucket of a payer category
func Predeclared(in registry.Inputs, inputs []string) starlark.StringDict {
	declared := make(map[string]bool, len(inputs))
	for _, key := range inputs {
		declared[key] = true
	}

	sum := starlark.NewBuiltin("sum", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var key string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &key); err != nil {
			return nil, err
		}
		if !declared[key] {
			return nil, fmt.Errorf("%s: %q is not a declared input", b.Name(), key)
		}
		v, ok := in.Value(key)
		if !ok {
			return note(thread, starlark.None), nil
		}
		return note(thread, starlark.Float(v)), nil
	})

	denominator := starlark.NewBuiltin("denominator", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
			return nil, err
		}
		d := in.Denominators
		switch core.DenominatorType(name) {
		case core.DenominatorResidentDays:
			return note(thread, starlark.Float(d.ResidentDays)), nil
		case core.DenominatorSkilledDays:
			return note(thread, starlark.Float(d.SkilledDays)), nil
		case core.DenominatorVentDays:
			return note(thread, starlark.Float(d.VentDays)), nil
		case core.DenominatorOccupiedUnits:
			return note(thread, FromFloat(d.OccupiedUnits)), nil
		default:
			return nil, fmt.Errorf("%s: unknown denominator %q", b.Name(), name)
		}
	})

	payerDays := starlark.NewBuiltin("payer_days", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
			return nil, err
		}
		p, ok := core.ParsePayerCategory(name)
		if !ok {
			return nil, fmt.Errorf("%s: unknown payer category %q", b.Name(), name)
		}
		return note(thread, starlark.Float(in.Denominators.PayerDays[p])), nil
	})

	return starlark.StringDict{
		"sum":           sum,
		"denominator":   denominator,
		"days_in_month": starlark.MakeInt(in.DaysInMonth),
		"payer_days":    payerDays,
	}
}
