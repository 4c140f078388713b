package evaluator

import (
	"context"

	"github.com/sandrolain/gocalc/pkg/types"
)

// evalSwitch evaluates conditions in order and returns the branch paired
// with the first one that matches. Remaining conditions are not evaluated.
// No match yields null.
func (e *Evaluator) evalSwitch(ctx context.Context, node *types.ASTNode, env types.Environment) (types.Value, error) {
	if len(node.Expressions) != len(node.Branches) {
		return nil, types.Errorf(types.ErrSwitchMismatch, "switch has %d conditions but %d branches",
			len(node.Expressions), len(node.Branches))
	}

	for i, condition := range node.Expressions {
		value, err := e.evalNode(ctx, condition, env)
		if err != nil {
			return nil, err
		}
		if caseMatches(value) {
			return e.evalNode(ctx, node.Branches[i], env)
		}
	}

	return types.NullValue, nil
}

// caseMatches reports whether a switch condition selects its branch: a
// non-zero number or any function. Null and vectors never match, which is
// stricter than types.Truthy.
func caseMatches(v types.Value) bool {
	switch val := v.(type) {
	case types.Number:
		return val != 0
	case *types.Function:
		return true
	default:
		return false
	}
}

// evalWhile runs the body while the condition is truthy. The body's value is
// discarded and the loop itself yields null.
func (e *Evaluator) evalWhile(ctx context.Context, node *types.ASTNode, env types.Environment) (types.Value, error) {
	iterations := 0
	for {
		condition, err := e.evalNode(ctx, node.LHS, env)
		if err != nil {
			return nil, err
		}
		if !types.Truthy(condition) {
			break
		}

		if _, err := e.evalNode(ctx, node.RHS, env); err != nil {
			return nil, err
		}
		iterations++
	}

	if e.opts.Debug {
		e.logger.Debug("while loop finished", "iterations", iterations)
	}

	return types.NullValue, nil
}
