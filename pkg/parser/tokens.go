package parser

import (
	"strings"

	"github.com/sandrolain/gocalc/pkg/types"
)

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF   TokenType = iota // end of input; never part of a Tokenize result
	TokenError                  // lexical fault; see Lexer.Error

	// Literals
	TokenNumber     // 123, 4.5, .5
	TokenIdentifier // name

	// Keywords
	TokenFunction // fn
	TokenWhile    // while

	// Grouping symbols
	TokenParenOpen    // (
	TokenParenClose   // )
	TokenBracketOpen  // [
	TokenBracketClose // ]
	TokenBraceOpen    // {
	TokenBraceClose   // }

	// Punctuation
	TokenSemicolon // ;
	TokenComma     // ,
	TokenAmpersand // &
	TokenArrow     // ->
	TokenAssign    // =

	// Arithmetic operators
	TokenPlus  // +
	TokenMinus // -
	TokenMult  // *
	TokenDiv   // /
	TokenMod   // %

	// Comparison operators
	TokenEqual        // ==
	TokenLess         // <
	TokenGreater      // >
	TokenLessEqual    // <=
	TokenGreaterEqual // >=
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenNumber:
		return "(number)"
	case TokenIdentifier:
		return "(identifier)"
	case TokenFunction:
		return "fn"
	case TokenWhile:
		return "while"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenBracketOpen:
		return "["
	case TokenBracketClose:
		return "]"
	case TokenBraceOpen:
		return "{"
	case TokenBraceClose:
		return "}"
	case TokenSemicolon:
		return ";"
	case TokenComma:
		return ","
	case TokenAmpersand:
		return "&"
	case TokenArrow:
		return "->"
	case TokenAssign:
		return "="
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenMult:
		return "*"
	case TokenDiv:
		return "/"
	case TokenMod:
		return "%"
	case TokenEqual:
		return "=="
	case TokenLess:
		return "<"
	case TokenGreater:
		return ">"
	case TokenLessEqual:
		return "<="
	case TokenGreaterEqual:
		return ">="
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token. Tokens carry no position information.
type Token struct {
	Type   TokenType // Type of the token
	Number float64   // Payload of TokenNumber
	Name   string    // Payload of TokenIdentifier
}

// String returns the canonical source rendering of the token.
// Lexing the rendering yields the same token again.
func (t Token) String() string {
	switch t.Type {
	case TokenNumber:
		return types.FormatNumber(t.Number)
	case TokenIdentifier:
		return t.Name
	default:
		return t.Type.String()
	}
}

// Render joins the canonical renderings of tokens with single spaces.
// Tokenize(Render(tokens)) reproduces tokens.
func Render(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// symbols1 maps single-character symbols to token types.
var symbols1 = [...]TokenType{
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMult,
	'/': TokenDiv,
	'%': TokenMod,
	'(': TokenParenOpen,
	')': TokenParenClose,
	'[': TokenBracketOpen,
	']': TokenBracketClose,
	'{': TokenBraceOpen,
	'}': TokenBraceClose,
	';': TokenSemicolon,
	',': TokenComma,
	'&': TokenAmpersand,
	'=': TokenAssign,
	'<': TokenLess,
	'>': TokenGreater,
}

// runeTokenType pairs a rune with its corresponding token type.
type runeTokenType struct {
	r  rune
	tt TokenType
}

// symbols2 maps two-character symbol sequences to token types.
// The key is the first character of the sequence.
var symbols2 = [...][]runeTokenType{
	'-': {{'>', TokenArrow}},
	'=': {{'=', TokenEqual}},
	'<': {{'=', TokenLessEqual}},
	'>': {{'=', TokenGreaterEqual}},
}

const (
	symbol1Count = rune(len(symbols1))
	symbol2Count = rune(len(symbols2))
)

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns TokenEOF if the rune is not a valid symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return TokenEOF
	}
	return symbols1[r]
}

// lookupSymbol2 returns possible two-character symbol completions.
// Returns nil if the rune cannot start a two-character symbol.
func lookupSymbol2(r rune) []runeTokenType {
	if r < 0 || r >= symbol2Count {
		return nil
	}
	return symbols2[r]
}

// lookupKeyword returns the token type for a keyword.
// Returns TokenEOF if the string is not a recognized keyword.
func lookupKeyword(s string) TokenType {
	switch s {
	case "fn":
		return TokenFunction
	case "while":
		return TokenWhile
	default:
		return TokenEOF
	}
}

// binaryOperators maps operator tokens to AST operators.
var binaryOperators = map[TokenType]types.Operator{
	TokenPlus:         types.OpAdd,
	TokenMinus:        types.OpSub,
	TokenMult:         types.OpMul,
	TokenDiv:          types.OpDiv,
	TokenMod:          types.OpMod,
	TokenEqual:        types.OpEqual,
	TokenLess:         types.OpLess,
	TokenGreater:      types.OpGreater,
	TokenLessEqual:    types.OpLessEqual,
	TokenGreaterEqual: types.OpGreaterEqual,
}
