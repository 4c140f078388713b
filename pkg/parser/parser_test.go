package parser_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/sandrolain/gocalc/pkg/parser"
	"github.com/sandrolain/gocalc/pkg/types"
)

// Tree builders keep the expectations readable.
var (
	n    = types.NewNumber
	v    = types.NewVariable
	bin  = types.NewBinary
	call = types.NewCall
)

func fn(body *types.ASTNode, params ...string) *types.ASTNode {
	if params == nil {
		params = []string{}
	}
	return types.NewFunction(params, body)
}

func parse(t *testing.T, src string, opts ...parser.CompileOption) *types.ASTNode {
	t.Helper()
	expr, err := parser.Compile(src, opts...)
	if err != nil {
		t.Fatalf("Compile(%q) error = %v", src, err)
	}
	return expr.AST()
}

func parseError(t *testing.T, src string, opts ...parser.CompileOption) error {
	t.Helper()
	_, err := parser.Compile(src, opts...)
	if err == nil {
		t.Fatalf("Compile(%q) succeeded, want an error", src)
	}
	return err
}

func TestParseStructure(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want *types.ASTNode
	}{
		{"number", "42", n(42)},
		{"variable", "abc", v("abc")},
		{"precedence", "1 + 2 * 3", bin(types.OpAdd, n(1), bin(types.OpMul, n(2), n(3)))},
		{"left associative", "1 - 2 - 3", bin(types.OpSub, bin(types.OpSub, n(1), n(2)), n(3))},
		{"comparison loosest", "1 + 2 < 3 * 4", bin(types.OpLess, bin(types.OpAdd, n(1), n(2)), bin(types.OpMul, n(3), n(4)))},
		{"comparisons chain left", "1 < 2 == 1", bin(types.OpEqual, bin(types.OpLess, n(1), n(2)), n(1))},
		{"modulo with multiply", "7 % 3 * 2", bin(types.OpMul, bin(types.OpMod, n(7), n(3)), n(2))},
		{"grouping", "(1 + 2) * 3", bin(types.OpMul, bin(types.OpAdd, n(1), n(2)), n(3))},
		{"assignment takes full expression", "a = 1 + 2", types.NewAssign("a", bin(types.OpAdd, n(1), n(2)))},
		{"assignment nests right", "a = b = c", types.NewAssign("a", types.NewAssign("b", v("c")))},
		{"assignment as right operand", "1 + a = 2", bin(types.OpAdd, n(1), types.NewAssign("a", n(2)))},
		{"function", "fn x, y -> x + y", fn(bin(types.OpAdd, v("x"), v("y")), "x", "y")},
		{"nullary function", "fn -> 1", fn(n(1))},
		{"function body takes full expression", "fn x -> x < 1", fn(bin(types.OpLess, v("x"), n(1)), "x")},
		{"immediate call", "(fn x -> x * x)(4)", call(fn(bin(types.OpMul, v("x"), v("x")), "x"), n(4))},
		{"call binds tighter than operators", "f(1) * 2", bin(types.OpMul, call(v("f"), n(1)), n(2))},
		{"chained calls", "f(1)(2, 3)", call(call(v("f"), n(1)), n(2), n(3))},
		{"chained after empty call", "f()(1)", call(call(v("f")), n(1))},
		{"argument expressions", "f(a = 1, 2 + 3)", call(v("f"), types.NewAssign("a", n(1)), bin(types.OpAdd, n(2), n(3)))},
		{"number callee", "1(2)", call(n(1), n(2))},
		{"block", "[a = 5; a + 2]", types.NewBlock(types.NewAssign("a", n(5)), bin(types.OpAdd, v("a"), n(2)))},
		{"single statement block", "[1]", types.NewBlock(n(1))},
		{"switch", "{1 == 2 -> 10, 1 == 1 -> 20}", types.NewSwitch(
			[]*types.ASTNode{bin(types.OpEqual, n(1), n(2)), bin(types.OpEqual, n(1), n(1))},
			[]*types.ASTNode{n(10), n(20)},
		)},
		{"while", "while i < 3 [i = i + 1]", types.NewWhile(
			bin(types.OpLess, v("i"), n(3)),
			types.NewBlock(types.NewAssign("i", bin(types.OpAdd, v("i"), n(1)))),
		)},
		{"while body is one expression", "while a b + 1", types.NewWhile(v("a"), bin(types.OpAdd, v("b"), n(1)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parse(t, tt.src)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Compile(%q)\n got: %s\nwant: %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		code    types.ErrorCode
		message string // substring of the error message
	}{
		{"empty input", "", types.ErrUnexpectedEnd, "end of input"},
		{"only unknown symbols", "@@", types.ErrUnexpectedEnd, "end of input"},
		{"missing paren", "(1 + 2", types.ErrUnexpectedEnd, `Expected ")" to close parenthesis`},
		{"missing bracket", "[1; 2", types.ErrUnexpectedEnd, `Expected "]" to close code block`},
		{"wrong bracket", "[1; 2)", types.ErrExpectedToken, `found ")"`},
		{"missing brace", "{1 -> 2", types.ErrUnexpectedEnd, `Expected "}" to close switch`},
		{"missing switch arrow", "{1 2}", types.ErrExpectedToken, `Expected "->" after switch condition`},
		{"missing function arrow", "fn x y", types.ErrExpectedToken, `Expected "->" after function parameters`},
		{"missing argument separator", "f(1 2)", types.ErrExpectedToken, `Expected "," or ")" after an argument`},
		{"unclosed arguments", "f(1,", types.ErrUnexpectedEnd, "end of input"},
		{"leading operator", "+ 1", types.ErrUnexpectedToken, `Unexpected token: "+"`},
		{"dangling operator", "1 +", types.ErrUnexpectedEnd, "end of input"},
		{"empty block", "[]", types.ErrUnexpectedToken, `Unexpected token: "]"`},
		{"empty switch", "{}", types.ErrUnexpectedToken, `Unexpected token: "}"`},
		{"while without body", "while 1", types.ErrUnexpectedEnd, "end of input"},
		{"while condition swallows call", "while f (1)", types.ErrUnexpectedEnd, "end of input"},
		{"lexical error", "1.2.3", types.ErrSecondDot, "second dot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseError(t, tt.src)
			if !types.IsCode(err, tt.code) {
				t.Fatalf("got %v, want code %s", err, tt.code)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not mention %q", err, tt.message)
			}
		})
	}
}

func TestParseTrailingTokens(t *testing.T) {
	got := parse(t, "1 2 3")
	if !reflect.DeepEqual(got, n(1)) {
		t.Errorf("lenient parse = %s, want 1", got)
	}

	err := parseError(t, "1 2 3", parser.WithStrict(true))
	if !types.IsCode(err, types.ErrTrailingTokens) {
		t.Errorf("strict parse error = %v, want %s", err, types.ErrTrailingTokens)
	}

	if _, err := parser.Compile("[1; 2]", parser.WithStrict(true)); err != nil {
		t.Errorf("strict parse of a complete program failed: %v", err)
	}
}

func TestParseMaxDepth(t *testing.T) {
	deep := strings.Repeat("(", 50) + "1" + strings.Repeat(")", 50)

	if _, err := parser.Compile(deep); err != nil {
		t.Fatalf("default depth rejected %d levels: %v", 50, err)
	}

	err := parseError(t, deep, parser.WithMaxDepth(10))
	if !types.IsCode(err, types.ErrNestingTooDeep) {
		t.Errorf("got %v, want %s", err, types.ErrNestingTooDeep)
	}
}

func TestParseTokens(t *testing.T) {
	tokens := []parser.Token{
		{Type: parser.TokenIdentifier, Name: "a"},
		{Type: parser.TokenPlus},
		{Type: parser.TokenNumber, Number: 1},
	}
	got, err := parser.ParseTokens(tokens)
	if err != nil {
		t.Fatal(err)
	}
	if want := bin(types.OpAdd, v("a"), n(1)); !reflect.DeepEqual(got, want) {
		t.Errorf("ParseTokens() = %s, want %s", got, want)
	}
}

func TestCompileKeepsSource(t *testing.T) {
	src := "[x = 1; x]"
	expr, err := parser.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if expr.Source() != src || expr.String() != src {
		t.Errorf("Source() = %q, String() = %q, want %q", expr.Source(), expr.String(), src)
	}
}

// TestASTStringRoundTrip checks that rendering a parsed tree and parsing the
// rendering again gives the same tree.
func TestASTStringRoundTrip(t *testing.T) {
	sources := []string{
		"1 + 2 * 3",
		"(1 + 2) * 3",
		"1 - (2 - 3)",
		"(a = 1) + 2",
		"1 + (a = 2)",
		"(fn x -> x)(1)",
		"(fn -> fn y -> y)()(2)",
		"f(1)(2, fn a, b -> a)",
		"[x = 1; f = fn -> x; x = 2; f()]",
		"{a < 1 -> 2, 1 -> fn -> 3}",
		"while (i = i - 1) [s = s + i]",
		"while i < 3 i = i + 1",
		"(while 0 1) + 1",
		"(1 < 2) < 3",
		"1 < (2 < 3)",
		"x % 2 == 0",
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			first := parse(t, src)
			rendered := first.String()
			second := parse(t, rendered, parser.WithStrict(true))
			if !reflect.DeepEqual(first, second) {
				t.Errorf("round trip changed the tree\nsource:   %s\nrendered: %s\nreparsed: %s", src, rendered, second)
			}
		})
	}
}
