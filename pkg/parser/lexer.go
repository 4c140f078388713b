package parser

import (
	"errors"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/gocalc/pkg/types"
)

const eof = -1

// Lexer converts gocalc source into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
//
// Whitespace is never significant and there is no comment syntax. Characters
// that cannot start any token are skipped silently: the lexer is lenient by
// intent and never fails on an unknown symbol.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Tokenize converts source into the full token sequence.
// There is no explicit end marker: the sequence simply ends.
func Tokenize(source string) ([]Token, error) {
	l := NewLexer(source)
	var tokens []Token
	for {
		t := l.Next()
		switch t.Type {
		case TokenEOF:
			return tokens, nil
		case TokenError:
			return nil, l.Error()
		}
		tokens = append(tokens, t)
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
// On a lexical fault it returns TokenError and the fault is available from Error.
func (l *Lexer) Next() Token {
	for {
		l.skipWhitespace()

		ch := l.nextRune()
		if ch == eof {
			return l.eof()
		}

		// Check for two-character symbols first (e.g., ->, ==, <=)
		if rts := lookupSymbol2(ch); rts != nil {
			for _, rt := range rts {
				if l.acceptRune(rt.r) {
					return l.newToken(rt.tt)
				}
			}
		}

		// Check for single-character symbols
		if tt := lookupSymbol1(ch); tt != TokenEOF {
			return l.newToken(tt)
		}

		// Number literals, including a leading dot (.5)
		if isDigit(ch) || ch == '.' {
			l.backup()
			return l.scanNumber()
		}

		// Identifiers and keywords
		if isIdentStart(ch) {
			l.backup()
			return l.scanIdentifier()
		}

		// Anything else is dropped.
		l.ignore()
	}
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanNumber reads a maximal run of digits with at most one dot.
func (l *Lexer) scanNumber() Token {
	dot := false
	for {
		ch := l.nextRune()
		if ch == '.' {
			if dot {
				return l.error(types.NewError(types.ErrSecondDot, "found second dot in a number"))
			}
			dot = true
			continue
		}
		if !isDigit(ch) {
			l.backup()
			break
		}
	}

	text := l.input[l.start:l.current]
	// Out-of-range literals saturate to infinity
	value, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return l.error(types.NewError(types.ErrInvalidNumber, "invalid number literal "+strconv.Quote(text)).WithCause(err))
	}

	t := l.newToken(TokenNumber)
	t.Number = value
	return t
}

// scanIdentifier reads an identifier or keyword.
// Identifiers contain letters, digits and underscores and do not start with a digit.
func (l *Lexer) scanIdentifier() Token {
	for {
		ch := l.nextRune()
		if !isIdentStart(ch) && !isDigit(ch) {
			l.backup()
			break
		}
	}

	text := l.input[l.start:l.current]
	if tt := lookupKeyword(text); tt != TokenEOF {
		return l.newToken(tt)
	}

	t := l.newToken(TokenIdentifier)
	t.Name = text
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{Type: TokenEOF}
}

func (l *Lexer) error(err *types.Error) Token {
	l.err = err.WithToken(l.input[l.start:l.current])
	l.start = l.current
	return Token{Type: TokenError}
}

func (l *Lexer) newToken(tt TokenType) Token {
	l.width = 0
	l.start = l.current
	return Token{Type: tt}
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
	l.width = 0
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

func (l *Lexer) skipWhitespace() {
	l.acceptAll(unicode.IsSpace)
	l.ignore()
}

// Character classification functions

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}
