package types

import (
	"strconv"
	"strings"
)

// ValueKind identifies the variant of a runtime value.
type ValueKind uint8

// Runtime value kinds.
const (
	KindNull ValueKind = iota
	KindNumber
	KindFunction
	KindVector
)

// String returns the name of the kind.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindFunction:
		return "function"
	case KindVector:
		return "vector"
	default:
		return "unknown"
	}
}

// Value is a runtime value produced by evaluating an AST node.
// The set of implementations is closed: Number, *Function, Vector and Null.
type Value interface {
	Kind() ValueKind
	String() string
	value()
}

// Number is a numeric value.
type Number float64

// Kind implements Value.
func (Number) Kind() ValueKind { return KindNumber }

// String renders the number in its shortest exact form.
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

func (Number) value() {}

// Function is a function value. Captured is a snapshot of the environment the
// function was defined in.
//
// Neither Body nor Captured is mutated after creation, so a *Function can be
// shared freely: every copy observes the same parameters, body and bindings.
type Function struct {
	Params   []string
	Body     *ASTNode
	Captured Environment
}

// Kind implements Value.
func (*Function) Kind() ValueKind { return KindFunction }

// String renders the function signature.
func (f *Function) String() string {
	return "<function(" + strings.Join(f.Params, ", ") + ")>"
}

func (*Function) value() {}

// Vector is an ordered sequence of values.
// No expression currently produces one; it is kept for hosts that build values directly.
type Vector []Value

// Kind implements Value.
func (Vector) Kind() ValueKind { return KindVector }

// String renders the vector elements.
func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, item := range v {
		if item == nil {
			parts[i] = "null"
			continue
		}
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (Vector) value() {}

// Null is the absent value: the result of while loops, empty blocks and unmatched switches.
type Null struct{}

// NullValue is the singleton value used for null.
var NullValue = Null{}

// Kind implements Value.
func (Null) Kind() ValueKind { return KindNull }

// String returns "null".
func (Null) String() string { return "null" }

// MarshalJSON implements json.Marshaler for Null.
// This ensures that Null serializes to JSON null instead of {}.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func (Null) value() {}

// Truthy converts a value to a boolean for loop conditions.
// Null is false, a Number is false only when it is exactly zero, everything else is true.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, Null:
		return false
	case Number:
		return val != 0
	default:
		return true
	}
}
