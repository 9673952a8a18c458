package starlark

import (
	"fmt"

	"go.starlark.net/starlark"
)

// ToFloat converts a numeric Starlark result to a Go float.
// None converts to nil; non-numeric values are an error.
func ToFloat(v starlark.Value) (*float64, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Float:
		f := float64(val)
		return &f, nil
	case starlark.Int:
		f := float64(val.Float())
		return &f, nil
	case starlark.Bool:
		return nil, fmt.Errorf("expected number, got bool")
	default:
		return nil, fmt.Errorf("expected number, got %s", v.Type())
	}
}

// FromFloat converts an optional float to Starlark, nil becoming None.
func FromFloat(f *float64) starlark.Value {
	if f == nil {
		return starlark.None
	}
	return starlark.Float(*f)
}
