package parser

import (
	"fmt"
	"strconv"

	"github.com/sandrolain/gocalc/pkg/types"
)

// Parser implements a recursive descent parser for gocalc programs.
// Binary operators are handled by precedence climbing over the binding
// powers returned by [types.Operator.Precedence].
type Parser struct {
	tokens  []Token
	index   int
	current Token
	depth   int
	arena   *types.NodeArena
	opts    CompileOptions
}

// NewParser creates a new parser over the given token sequence.
func NewParser(tokens []Token, opts ...CompileOption) *Parser {
	options := CompileOptions{
		Strict:   false,
		MaxDepth: 1000,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		tokens: tokens,
		arena:  types.NewNodeArena(),
		opts:   options,
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses one expression and returns its root AST node.
func (p *Parser) Parse() (*types.ASTNode, error) {
	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.opts.Strict && p.current.Type != TokenEOF {
		return nil, p.error(types.ErrTrailingTokens, fmt.Sprintf("Unexpected token after expression: %s", describe(p.current)))
	}

	return node, nil
}

// advance moves to the next token. Past the end, current is TokenEOF.
func (p *Parser) advance() {
	if p.index < len(p.tokens) {
		p.current = p.tokens[p.index]
		p.index++
		return
	}
	p.current = Token{Type: TokenEOF}
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType, context string) error {
	if p.current.Type != tt {
		return p.error(types.ErrExpectedToken, fmt.Sprintf("Expected %s %s, found %s", strconv.Quote(tt.String()), context, describe(p.current)))
	}
	p.advance()
	return nil
}

// error creates a parser error. Running out of tokens always reports
// ErrUnexpectedEnd so callers can tell incomplete input from wrong input.
func (p *Parser) error(code types.ErrorCode, message string) error {
	if p.current.Type == TokenEOF {
		return types.NewError(types.ErrUnexpectedEnd, message)
	}
	return types.NewError(code, message).WithToken(p.current.String())
}

// describe renders a token for error messages.
func describe(t Token) string {
	if t.Type == TokenEOF {
		return "end of input"
	}
	return strconv.Quote(t.String())
}

func (p *Parser) enter() error {
	p.depth++
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return types.Errorf(types.ErrNestingTooDeep, "expression nested deeper than %d levels", p.opts.MaxDepth)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// parseExpression parses an expression whose binary operators bind tighter than rbp.
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseCall()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := binaryOperators[p.current.Type]
		if !ok || op.Precedence() <= rbp {
			return left, nil
		}
		p.advance()

		// Equal precedence stops the recursion, which keeps each level left-associative
		right, err := p.parseExpression(op.Precedence())
		if err != nil {
			return nil, err
		}

		node := p.arena.Alloc(types.NodeBinary)
		node.Operator = op
		node.LHS = left
		node.RHS = right
		left = node
	}
}

// parseCall parses a leaf followed by any number of argument lists: f(x)(y).
func (p *Parser) parseCall() (*types.ASTNode, error) {
	left, err := p.parseLeaf()
	if err != nil {
		return nil, err
	}

	for p.current.Type == TokenParenOpen {
		left, err = p.parseArguments(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parseArguments parses '(' argList? ')' applied to callee.
func (p *Parser) parseArguments(callee *types.ASTNode) (*types.ASTNode, error) {
	p.advance() // Skip '('

	node := p.arena.Alloc(types.NodeCall)
	node.LHS = callee

	if p.current.Type == TokenParenClose {
		p.advance()
		return node, nil
	}

	for {
		arg, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Arguments = append(node.Arguments, arg)

		switch p.current.Type {
		case TokenComma:
			p.advance()
		case TokenParenClose:
			p.advance()
			return node, nil
		default:
			return nil, p.error(types.ErrExpectedToken, fmt.Sprintf("Expected \",\" or \")\" after an argument, found %s", describe(p.current)))
		}
	}
}

// parseLeaf parses every form that does not start with an operand.
func (p *Parser) parseLeaf() (*types.ASTNode, error) {
	switch p.current.Type {
	case TokenNumber:
		return p.parseNumber()
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenIdentifier:
		return p.parseIdentifier()
	case TokenFunction:
		return p.parseFunction()
	case TokenWhile:
		return p.parseWhile()
	case TokenBracketOpen:
		return p.parseBlock()
	case TokenBraceOpen:
		return p.parseSwitch()
	default:
		return nil, p.error(types.ErrUnexpectedToken, fmt.Sprintf("Unexpected token: %s", describe(p.current)))
	}
}

// parseNumber parses a number literal.
func (p *Parser) parseNumber() (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeNumber)
	node.Number = p.current.Number
	p.advance()
	return node, nil
}

// parseGrouping parses a parenthesized expression. No node is created for
// the parentheses themselves.
func (p *Parser) parseGrouping() (*types.ASTNode, error) {
	p.advance() // Skip '('

	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenParenClose, "to close parenthesis"); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseIdentifier parses a variable reference or an assignment.
// The assigned value is a full expression, so a = 1 + 2 binds the whole sum
// and a = b = c nests to the right.
func (p *Parser) parseIdentifier() (*types.ASTNode, error) {
	name := p.current.Name
	p.advance()

	if p.current.Type != TokenAssign {
		node := p.arena.Alloc(types.NodeVariable)
		node.Name = name
		return node, nil
	}
	p.advance() // Skip '='

	value, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeAssign)
	node.Name = name
	node.RHS = value
	return node, nil
}

// parseFunction parses a function literal: fn a, b -> body.
func (p *Parser) parseFunction() (*types.ASTNode, error) {
	p.advance() // Skip 'fn'

	params := []string{}
	for p.current.Type == TokenIdentifier {
		params = append(params, p.current.Name)
		p.advance()
		if p.current.Type != TokenComma {
			break
		}
		p.advance()
	}

	if err := p.expect(TokenArrow, "after function parameters"); err != nil {
		return nil, err
	}

	body, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeFunction)
	node.Params = params
	node.RHS = body
	return node, nil
}

// parseWhile parses while cond body. The body is the next complete
// expression; nothing separates it from the condition.
func (p *Parser) parseWhile() (*types.ASTNode, error) {
	p.advance() // Skip 'while'

	condition, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	body, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeWhile)
	node.LHS = condition
	node.RHS = body
	return node, nil
}

// parseBlock parses a code block: [ a; b; c ].
func (p *Parser) parseBlock() (*types.ASTNode, error) {
	p.advance() // Skip '['

	node := p.arena.Alloc(types.NodeBlock)
	for {
		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Expressions = append(node.Expressions, expr)

		if p.current.Type != TokenSemicolon {
			break
		}
		p.advance() // Skip ';'
	}

	if err := p.expect(TokenBracketClose, "to close code block"); err != nil {
		return nil, err
	}
	return node, nil
}

// parseSwitch parses a switch: { cond -> expr, cond -> expr }.
func (p *Parser) parseSwitch() (*types.ASTNode, error) {
	p.advance() // Skip '{'

	node := p.arena.Alloc(types.NodeSwitch)
	for {
		condition, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		if err := p.expect(TokenArrow, "after switch condition"); err != nil {
			return nil, err
		}

		branch, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		node.Expressions = append(node.Expressions, condition)
		node.Branches = append(node.Branches, branch)

		if p.current.Type != TokenComma {
			break
		}
		p.advance() // Skip ','
	}

	if err := p.expect(TokenBraceClose, "to close switch"); err != nil {
		return nil, err
	}
	return node, nil
}
