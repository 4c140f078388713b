// Package parser implements the gocalc lexer and parser.
//
// The parser is hand-written: precedence climbing for binary operators and
// recursive descent for every other form. It walks a token slice with a
// forward-only cursor and never backtracks.
//
// # Grammar
//
// From lowest to highest precedence, left-associative at each level:
//
//	comparison := addSub ( ( '==' | '<' | '>' | '<=' | '>=' ) addSub )*
//	addSub     := mulDiv ( ( '+' | '-' ) mulDiv )*
//	mulDiv     := call ( ( '*' | '/' | '%' ) call )*
//	call       := leaf ( '(' argList? ')' )*
//	leaf       := number | '(' expr ')' | identifier [ '=' expr ]
//	            | 'fn' params '->' expr | 'while' expr expr
//	            | '[' expr ( ';' expr )* ']'
//	            | '{' expr '->' expr ( ',' expr '->' expr )* '}'
//
// # Example
//
//	expr, err := parser.Parse("[a = 5; a + 2]")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast := expr.AST()
package parser

import (
	"github.com/sandrolain/gocalc/pkg/types"
)

// Parse tokenizes and parses source and returns the compiled Expression.
//
// Example:
//
//	expr, err := parser.Parse("(fn x -> x * x)(4)")
//	if err != nil {
//	    fmt.Printf("Parse error: %v\n", err)
//	    return
//	}
func Parse(source string) (*types.Expression, error) {
	return Compile(source)
}

// Compile is Parse with options.
func Compile(source string, opts ...CompileOption) (*types.Expression, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens, opts...)
	node, err := p.Parse()
	if err != nil {
		return nil, err
	}
	return types.NewExpression(node, source).WithArena(p.arena), nil
}

// ParseTokens parses a token sequence into a single expression.
func ParseTokens(tokens []Token, opts ...CompileOption) (*types.ASTNode, error) {
	return NewParser(tokens, opts...).Parse()
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// Strict rejects tokens left over after the first complete expression.
	// By default they are ignored.
	Strict bool
	// MaxDepth limits recursion depth to prevent stack overflow.
	MaxDepth int
}

// WithStrict enables or disables rejection of trailing tokens.
func WithStrict(enable bool) CompileOption {
	return func(opts *CompileOptions) {
		opts.Strict = enable
	}
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}
