package evaluator

import (
	"context"
	"fmt"

	"github.com/sandrolain/gocalc/pkg/types"
)

type recurseDepthKey struct{}

// getRecurseDepthPtr returns the call depth counter from the context, or nil when depth is not limited.
func getRecurseDepthPtr(ctx context.Context) *int {
	if p, ok := ctx.Value(recurseDepthKey{}).(*int); ok {
		return p
	}
	return nil
}

// withNewRecurseDepthPtr returns a context that carries a fresh depth counter pointer.
// Call this once at the start of each top-level evaluation.
func withNewRecurseDepthPtr(ctx context.Context) context.Context {
	d := 0
	return context.WithValue(ctx, recurseDepthKey{}, &d)
}

// evalNode evaluates an AST node against env.
// The same env is threaded through every sub-evaluation of one scope, so an
// assignment is visible to every sibling evaluated after it.
func (e *Evaluator) evalNode(ctx context.Context, node *types.ASTNode, env types.Environment) (types.Value, error) {
	// Check context cancellation
	select {
	case <-ctx.Done():
		return nil, types.NewError(types.ErrCancelled, "evaluation cancelled").WithCause(ctx.Err())
	default:
	}

	if node == nil {
		return nil, fmt.Errorf("invalid expression: nil node")
	}

	// Debug logging
	if e.opts.Debug {
		depth := 0
		if p := getRecurseDepthPtr(ctx); p != nil {
			depth = *p
		}
		e.logger.Debug("evaluating node",
			"type", node.Type,
			"depth", depth)
	}

	// Dispatch based on node type
	switch node.Type {
	case types.NodeNumber:
		return types.Number(node.Number), nil
	case types.NodeVariable:
		return e.evalVariable(node, env)
	case types.NodeBinary:
		return e.evalBinary(ctx, node, env)
	case types.NodeBlock:
		return e.evalBlock(ctx, node, env)
	case types.NodeAssign:
		return e.evalAssign(ctx, node, env)
	case types.NodeFunction:
		return e.evalFunction(node, env)
	case types.NodeCall:
		return e.evalCall(ctx, node, env)
	case types.NodeSwitch:
		return e.evalSwitch(ctx, node, env)
	case types.NodeWhile:
		return e.evalWhile(ctx, node, env)
	default:
		return nil, fmt.Errorf("unsupported node type: %s", node.Type)
	}
}

// evalVariable looks a name up. Unbound names are an error, never a default value.
func (e *Evaluator) evalVariable(node *types.ASTNode, env types.Environment) (types.Value, error) {
	value, ok := env.Get(node.Name)
	if !ok {
		return nil, types.Errorf(types.ErrUndefinedVariable, "Undefined variable: %s", node.Name).WithToken(node.Name)
	}
	return value, nil
}

// evalBlock evaluates statements in order and returns the last result.
// An empty block yields null.
func (e *Evaluator) evalBlock(ctx context.Context, node *types.ASTNode, env types.Environment) (types.Value, error) {
	var result types.Value = types.NullValue
	for _, stmt := range node.Expressions {
		var err error
		result, err = e.evalNode(ctx, stmt, env)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// evalAssign binds the value in env itself, not in a copy, and returns it.
func (e *Evaluator) evalAssign(ctx context.Context, node *types.ASTNode, env types.Environment) (types.Value, error) {
	value, err := e.evalNode(ctx, node.RHS, env)
	if err != nil {
		return nil, err
	}
	env.Set(node.Name, value)
	return value, nil
}

// kindOf names the kind of a possibly nil value for error messages.
func kindOf(v types.Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}
