package evaluator

import (
	"context"

	"github.com/sandrolain/gocalc/pkg/types"
)

// evalFunction creates a function value without evaluating the body.
// The function keeps a snapshot of env: later assignments in the defining
// scope are not seen through the capture.
func (e *Evaluator) evalFunction(node *types.ASTNode, env types.Environment) (types.Value, error) {
	return &types.Function{
		Params:   node.Params,
		Body:     node.RHS,
		Captured: env.Clone(),
	}, nil
}

// evalCall invokes a function value.
//
// The invocation environment is built in three layers, later layers winning:
//  1. the caller's environment as it was before the arguments were evaluated
//  2. the function's captured environment
//  3. the parameters bound to the evaluated arguments
//
// Arguments are evaluated in order against the caller's own environment and
// may assign into it. Missing arguments leave their parameters unbound; extra
// arguments are evaluated and dropped. Nothing the body assigns is visible to
// the caller afterwards.
func (e *Evaluator) evalCall(ctx context.Context, node *types.ASTNode, env types.Environment) (types.Value, error) {
	callee, err := e.evalNode(ctx, node.LHS, env)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(*types.Function)
	if !ok {
		return nil, types.Errorf(types.ErrInvokeNonFunction, "cannot call a %s value", kindOf(callee)).WithToken(kindOf(callee))
	}

	local := env.Overlay(fn.Captured)

	args := make([]types.Value, 0, len(node.Arguments))
	for _, argNode := range node.Arguments {
		arg, err := e.evalNode(ctx, argNode, env)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	for i, name := range fn.Params {
		if i >= len(args) {
			break
		}
		local.Set(name, args[i])
	}

	if p := getRecurseDepthPtr(ctx); p != nil {
		*p++
		defer func() { *p-- }()
		if *p > e.opts.MaxDepth {
			return nil, types.Errorf(types.ErrStackOverflow, "maximum call depth of %d exceeded", e.opts.MaxDepth)
		}
	}

	if e.opts.Debug {
		e.logger.Debug("calling function",
			"params", len(fn.Params),
			"args", len(args))
	}

	return e.evalNode(ctx, fn.Body, local)
}
