package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a gocalc error code.
type ErrorCode string

// Error codes, grouped by the stage that raises them.
const (
	// L0xxx: Lexer errors
	ErrSecondDot     ErrorCode = "L0101"
	ErrInvalidNumber ErrorCode = "L0102"

	// S0xxx: Parser/Syntax errors
	ErrUnexpectedToken ErrorCode = "S0201"
	ErrExpectedToken   ErrorCode = "S0202"
	ErrUnexpectedEnd   ErrorCode = "S0203"
	ErrTrailingTokens  ErrorCode = "S0204"
	ErrNestingTooDeep  ErrorCode = "S0301"

	// T0xxx: Type errors
	ErrLeftOperand  ErrorCode = "T2001"
	ErrRightOperand ErrorCode = "T2002"

	// D0xxx: Evaluation errors
	ErrInvokeNonFunction ErrorCode = "D1002"
	ErrCancelled         ErrorCode = "D1004"
	ErrStackOverflow     ErrorCode = "D3020"
	ErrSwitchMismatch    ErrorCode = "D3070"

	// U0xxx: Runtime errors
	ErrUndefinedVariable ErrorCode = "U1001"
)

// Error represents a structured gocalc error.
type Error struct {
	Code    ErrorCode
	Message string
	Token   string
	Err     error
}

// NewError creates a new gocalc error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new gocalc error with a formatted message.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// IsCode reports whether err, or any error it wraps, is a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
