package types

import (
	"fmt"
	"sort"
)

// Environment maps variable names to values. It is a single flat scope:
// there is no parent chain. Functions capture a Clone of it, and calls build
// a fresh one with Overlay.
type Environment map[string]Value

// NewEnvironment creates an empty environment.
func NewEnvironment() Environment {
	return make(Environment)
}

// Get looks up a variable.
func (e Environment) Get(name string) (Value, bool) {
	v, ok := e[name]
	return v, ok
}

// Set binds a variable, overwriting any previous binding.
func (e Environment) Set(name string, value Value) {
	e[name] = value
}

// Clone returns an independent copy of the environment.
func (e Environment) Clone() Environment {
	out := make(Environment, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Overlay returns a new environment holding the receiver's bindings with each
// layer applied on top in order; later layers win on name collisions.
// Neither the receiver nor the layers are modified.
func (e Environment) Overlay(layers ...Environment) Environment {
	size := len(e)
	for _, l := range layers {
		size += len(l)
	}
	out := make(Environment, size)
	for k, v := range e {
		out[k] = v
	}
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}

// Names returns the bound names in sorted order.
func (e Environment) Names() []string {
	names := make([]string, 0, len(e))
	for k := range e {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// String returns a string representation of the environment.
func (e Environment) String() string {
	return fmt.Sprintf("Environment{bindings=%d}", len(e))
}
