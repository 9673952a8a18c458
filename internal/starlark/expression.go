// Package starlark evaluates operator-defined KPI formulas written as
// Starlark expressions.
package starlark

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapkpi/internal/registry"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const resultVar = "__kpi__"

// Expression is a compiled formula. It is immutable and safe to evaluate
// from many goroutines.
type Expression struct {
	ID     string
	Source string
	prog   *starlark.Program
}

// Compile parses and resolves expr once. Unknown globals and syntax errors
// are reported here rather than at evaluation time.
func Compile(id, expr string) (*Expression, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, &EvalError{File: id, Expr: expr, Message: "empty expression"}
	}
	if _, err := syntax.ParseExpr(id, expr, 0); err != nil { //nolint:staticcheck // SA1019: will migrate to FileOptions.ParseExpr later
		return nil, &EvalError{File: id, Expr: expr, Message: err.Error()}
	}
	src := resultVar + " = (" + expr + ")\n"
	_, prog, err := starlark.SourceProgramOptions(&syntax.FileOptions{}, id, src, func(name string) bool {
		return builtinNames[name]
	})
	if err != nil {
		return nil, &EvalError{File: id, Expr: expr, Message: err.Error()}
	}
	return &Expression{ID: id, Source: expr, prog: prog}, nil
}

// Eval runs the expression against in. A None result yields nil.
func (e *Expression) Eval(thread *starlark.Thread, in registry.Inputs, inputs []string) (*float64, error) {
	v, _, err := e.eval(thread, in, inputs)
	return v, err
}

func (e *Expression) eval(thread *starlark.Thread, in registry.Inputs, inputs []string) (*float64, operandLog, error) {
	log := &operandLog{}
	thread.SetLocal(operandsKey, log)
	defer thread.SetLocal(operandsKey, nil)

	globals, err := e.prog.Init(thread, Predeclared(in, inputs))
	if err != nil {
		return nil, *log, &EvalError{File: e.ID, Expr: e.Source, Message: err.Error(), Err: err}
	}
	v, err := ToFloat(globals[resultVar])
	if err != nil {
		return nil, *log, &EvalError{File: e.ID, Expr: e.Source, Message: err.Error(), Err: err}
	}
	return v, *log, nil
}

// Composite wraps the expression as a registry formula. Evaluation failures
// become warnings with a nil value; they never abort a calculation. A
// runtime failure after a builtin produced None reads as missing data, and
// one after a builtin produced zero reads as a zero denominator.
func (e *Expression) Composite(inputs []string, pool *ThreadPool) registry.Composite {
	if pool == nil {
		pool = NewThreadPool(0)
	}
	return registry.Composite{
		Inputs: inputs,
		Fn: func(id string, in registry.Inputs) registry.Outcome {
			thread := pool.Acquire(id)
			defer pool.Release(thread)

			v, log, err := e.eval(thread, in, inputs)
			var runtimeErr *starlark.EvalError
			switch {
			case err != nil && errors.As(err, &runtimeErr) && log.missing:
				return registry.Unavailable(registry.NoDataWarning(id))
			case err != nil && errors.As(err, &runtimeErr) && log.zero:
				return registry.Unavailable(registry.ZeroDenominatorWarning(id))
			case err != nil:
				return registry.Unavailable(fmt.Sprintf("Formula error for %s: %v", id, err))
			case v == nil:
				return registry.Unavailable(registry.NoDataWarning(id))
			}
			return registry.Outcome{Value: v}
		},
	}
}

// EvalError represents an error compiling or evaluating a formula.
type EvalError struct {
	File    string
	Expr    string
	Message string
	Err     error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s: error evaluating %q: %s", e.File, e.Expr, e.Message)
}

func (e *EvalError) Unwrap() error { return e.Err }
