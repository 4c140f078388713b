// Package types defines the core type system for gocalc.
//
// This package contains type definitions for:
//   - Expression: Compiled programs
//   - ASTNode: Abstract Syntax Tree nodes
//   - Value: Runtime values (Number, Function, Vector, Null)
//   - Environment: Flat variable bindings
//   - Error types: Structured errors with codes
package types

// Expression represents a compiled gocalc program.
//
// An Expression can be evaluated multiple times against different
// environments by passing it to [evaluator.Evaluator.Eval]. The tree is never
// modified after parsing, so it is safe for concurrent use.
type Expression struct {
	ast    *ASTNode
	source string
	arena  *NodeArena
}

// NewExpression creates a new Expression from an AST.
func NewExpression(ast *ASTNode, source string) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
	}
}

// WithArena attaches the arena the AST was allocated from, keeping it alive
// as long as the Expression is reachable.
func (e *Expression) WithArena(arena *NodeArena) *Expression {
	e.arena = arena
	return e
}

// AST returns the Abstract Syntax Tree of the expression.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the original source code of the expression.
func (e *Expression) Source() string {
	return e.source
}

// String returns a string representation of the expression.
func (e *Expression) String() string {
	return e.source
}
