package parser_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/sandrolain/gocalc/pkg/parser"
	"github.com/sandrolain/gocalc/pkg/types"
)

type lexerTestCase struct {
	name     string
	input    string
	expected []parser.Token
	errCode  types.ErrorCode // non-empty expects a lexical error with this code
}

func num(v float64) parser.Token { return parser.Token{Type: parser.TokenNumber, Number: v} }

func ident(n string) parser.Token { return parser.Token{Type: parser.TokenIdentifier, Name: n} }

func sym(tt parser.TokenType) parser.Token { return parser.Token{Type: tt} }

func TestLexerOperators(t *testing.T) {
	tests := []lexerTestCase{
		{
			name:  "arithmetic",
			input: "+ - * / %",
			expected: []parser.Token{
				sym(parser.TokenPlus), sym(parser.TokenMinus), sym(parser.TokenMult),
				sym(parser.TokenDiv), sym(parser.TokenMod),
			},
		},
		{
			name:  "two character symbols",
			input: "-> == <= >=",
			expected: []parser.Token{
				sym(parser.TokenArrow), sym(parser.TokenEqual),
				sym(parser.TokenLessEqual), sym(parser.TokenGreaterEqual),
			},
		},
		{
			name:  "one character fallbacks",
			input: "- = < >",
			expected: []parser.Token{
				sym(parser.TokenMinus), sym(parser.TokenAssign),
				sym(parser.TokenLess), sym(parser.TokenGreater),
			},
		},
		{
			name:  "no whitespace",
			input: "a<=b->c==d",
			expected: []parser.Token{
				ident("a"), sym(parser.TokenLessEqual), ident("b"), sym(parser.TokenArrow),
				ident("c"), sym(parser.TokenEqual), ident("d"),
			},
		},
		{
			name:  "grouping and punctuation",
			input: "()[]{};,&",
			expected: []parser.Token{
				sym(parser.TokenParenOpen), sym(parser.TokenParenClose),
				sym(parser.TokenBracketOpen), sym(parser.TokenBracketClose),
				sym(parser.TokenBraceOpen), sym(parser.TokenBraceClose),
				sym(parser.TokenSemicolon), sym(parser.TokenComma), sym(parser.TokenAmpersand),
			},
		},
		{
			name:  "triple equals",
			input: "===",
			expected: []parser.Token{
				sym(parser.TokenEqual), sym(parser.TokenAssign),
			},
		},
	}

	runLexerTests(t, tests)
}

func TestLexerNumbers(t *testing.T) {
	tests := []lexerTestCase{
		{name: "integer", input: "42", expected: []parser.Token{num(42)}},
		{name: "decimal", input: "3.25", expected: []parser.Token{num(3.25)}},
		{name: "leading dot", input: ".5", expected: []parser.Token{num(0.5)}},
		{name: "trailing dot", input: "7.", expected: []parser.Token{num(7)}},
		{name: "adjacent identifier", input: "2x", expected: []parser.Token{num(2), ident("x")}},
		{name: "no exponent syntax", input: "1e5", expected: []parser.Token{num(1), ident("e5")}},
		{name: "second dot", input: "12.34.56", errCode: types.ErrSecondDot},
		{name: "lone dot", input: ".", errCode: types.ErrInvalidNumber},
		{name: "error after valid tokens", input: "1 + 1..2", errCode: types.ErrSecondDot},
	}

	runLexerTests(t, tests)
}

func TestLexerOverflow(t *testing.T) {
	src := "1"
	for i := 0; i < 400; i++ {
		src += "0"
	}
	tokens, err := parser.Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if len(tokens) != 1 || !math.IsInf(tokens[0].Number, 1) {
		t.Errorf("Tokenize() = %v, want a single +Inf number", tokens)
	}
}

func TestLexerIdentifiers(t *testing.T) {
	tests := []lexerTestCase{
		{
			name:     "letters and digits",
			input:    "abc xyz123 a1b2c3",
			expected: []parser.Token{ident("abc"), ident("xyz123"), ident("a1b2c3")},
		},
		{
			name:     "underscores",
			input:    "_ _tmp snake_case",
			expected: []parser.Token{ident("_"), ident("_tmp"), ident("snake_case")},
		},
		{
			name:     "keywords",
			input:    "fn while",
			expected: []parser.Token{sym(parser.TokenFunction), sym(parser.TokenWhile)},
		},
		{
			name:     "keyword prefixes are identifiers",
			input:    "fnx whiles fn_",
			expected: []parser.Token{ident("fnx"), ident("whiles"), ident("fn_")},
		},
		{
			name:     "unicode letters",
			input:    "π λx",
			expected: []parser.Token{ident("π"), ident("λx")},
		},
	}

	runLexerTests(t, tests)
}

func TestLexerLenient(t *testing.T) {
	tests := []lexerTestCase{
		{name: "unknown symbols dropped", input: "1 @ 2 # $", expected: []parser.Token{num(1), num(2)}},
		{name: "only unknown symbols", input: "!?~`", expected: nil},
		{name: "empty", input: "", expected: nil},
		{name: "whitespace", input: " \t\n\r\v", expected: nil},
		{name: "unknown symbol splits identifiers", input: "a!b", expected: []parser.Token{ident("a"), ident("b")}},
	}

	runLexerTests(t, tests)
}

func TestLexerErrorToken(t *testing.T) {
	l := parser.NewLexer("1.2.3 + 4")
	if tok := l.Next(); tok.Type != parser.TokenError {
		t.Fatalf("Next() = %v, want error token", tok)
	}
	err := l.Error()
	if !types.IsCode(err, types.ErrSecondDot) {
		t.Fatalf("Error() = %v, want %s", err, types.ErrSecondDot)
	}
	if got := err.Error(); got != "L0101: found second dot in a number" {
		t.Errorf("Error() message = %q", got)
	}
	if tok := l.Next(); tok.Type != parser.TokenEOF {
		t.Errorf("Next() after error = %v, want EOF", tok)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	sources := []string{
		"[a = 5; a + 2]",
		"(fn x -> x * x)(4)",
		"{1 == 2 -> 10, 1 == 1 -> 20}",
		"[i = 0; while i < 3 [i = i + 1]; i]",
		"a<=b>=c&d%e",
		".5 0.125 100 1e 12.",
		"fn a, b -> a - b",
		"π = 3.14159",
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			tokens, err := parser.Tokenize(src)
			if err != nil {
				t.Fatalf("Tokenize(%q) error = %v", src, err)
			}
			rendered := parser.Render(tokens)
			again, err := parser.Tokenize(rendered)
			if err != nil {
				t.Fatalf("Tokenize(%q) error = %v", rendered, err)
			}
			if !reflect.DeepEqual(tokens, again) {
				t.Errorf("re-lexing %q gave %v, want %v", rendered, again, tokens)
			}
		})
	}
}

func runLexerTests(t *testing.T, tests []lexerTestCase) {
	t.Helper()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tokens, err := parser.Tokenize(test.input)

			if test.errCode != "" {
				if err == nil {
					t.Fatalf("expected %s error, got tokens %v", test.errCode, tokens)
				}
				if !types.IsCode(err, test.errCode) {
					t.Fatalf("got error %v, want code %s", err, test.errCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(tokens) != len(test.expected) {
				t.Fatalf("got %d tokens, want %d\nGot: %v\nWant: %v",
					len(tokens), len(test.expected), tokens, test.expected)
			}
			for i, tok := range tokens {
				if tok != test.expected[i] {
					t.Errorf("token %d: got %#v, want %#v", i, tok, test.expected[i])
				}
			}
		})
	}
}
