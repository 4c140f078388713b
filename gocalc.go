// Package gocalc is a small expression language with numbers, variables,
// first-class functions, blocks, switches and while loops.
//
// A program is tokenized, parsed into an AST and evaluated by a tree walker
// against a flat environment of bindings. Assignments write into that
// environment; functions capture a snapshot of it.
//
// # Quick Start
//
//	// Simple evaluation
//	v, err := gocalc.Eval("[sq = fn x -> x * x; sq(7)]", nil)
//
//	// Keep bindings between programs
//	env := types.NewEnvironment()
//	gocalc.Eval("rate = 0.2", env)
//	v, err = gocalc.Eval("100 * rate", env)
//
//	// Compile once, evaluate many times
//	expr, err := gocalc.Compile("{ x < 0 -> 0 - x, 1 -> x }")
//	ev := evaluator.New(evaluator.WithTimeout(time.Second))
//	v, err = ev.Eval(ctx, expr, types.Environment{"x": types.Number(-3)})
//
// # More Information
//
//   - Parser: github.com/sandrolain/gocalc/pkg/parser
//   - Evaluator: github.com/sandrolain/gocalc/pkg/evaluator
//   - Types: github.com/sandrolain/gocalc/pkg/types
//   - Sandboxed evaluation: github.com/sandrolain/gocalc/pkg/sandbox
package gocalc

import (
	"context"
	"fmt"

	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/parser"
	"github.com/sandrolain/gocalc/pkg/types"
)

// Version returns the current version of gocalc.
func Version() string {
	return "v0.1.0-dev"
}

// Compile parses a program for repeated evaluation.
// The result is safe for concurrent use.
func Compile(source string, opts ...parser.CompileOption) (*types.Expression, error) {
	return parser.Compile(source, opts...)
}

// MustCompile is like Compile but panics if the program cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(source string) *types.Expression {
	expr, err := Compile(source)
	if err != nil {
		panic(fmt.Sprintf("gocalc: Compile(%q): %v", source, err))
	}
	return expr
}

// Eval compiles and evaluates source against env, which receives every
// assignment the program makes. A nil env evaluates in a fresh, discarded
// environment.
//
// There is no default timeout: a non-terminating program runs until it is
// cancelled, so pass evaluator.WithTimeout or use EvalWithContext when the
// source is untrusted.
func Eval(source string, env types.Environment, opts ...evaluator.EvalOption) (types.Value, error) {
	return EvalWithContext(context.Background(), source, env, opts...)
}

// EvalWithContext evaluates source with a custom context.
func EvalWithContext(ctx context.Context, source string, env types.Environment, opts ...evaluator.EvalOption) (types.Value, error) {
	return evaluator.New(opts...).EvalSource(ctx, source, env)
}
