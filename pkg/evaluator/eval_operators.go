package evaluator

import (
	"context"
	"math"

	"github.com/sandrolain/gocalc/pkg/types"
)

// evalBinary evaluates both operands and applies the operator.
// The right operand is evaluated only once the left one is known to be a number.
func (e *Evaluator) evalBinary(ctx context.Context, node *types.ASTNode, env types.Environment) (types.Value, error) {
	left, err := e.evalNode(ctx, node.LHS, env)
	if err != nil {
		return nil, err
	}
	lf, ok := left.(types.Number)
	if !ok {
		return nil, types.NewError(types.ErrLeftOperand, "left operand not a number").WithToken(kindOf(left))
	}

	right, err := e.evalNode(ctx, node.RHS, env)
	if err != nil {
		return nil, err
	}
	rf, ok := right.(types.Number)
	if !ok {
		return nil, types.NewError(types.ErrRightOperand, "right operand not a number").WithToken(kindOf(right))
	}

	return types.Number(applyOperator(node.Operator, float64(lf), float64(rf))), nil
}

// applyOperator computes op over two numbers. Comparisons yield 1 or 0.
// Arithmetic follows IEEE-754: x/0 is ±Inf and % is math.Mod.
func applyOperator(op types.Operator, l, r float64) float64 {
	switch op {
	case types.OpAdd:
		return l + r
	case types.OpSub:
		return l - r
	case types.OpMul:
		return l * r
	case types.OpDiv:
		return l / r
	case types.OpMod:
		return math.Mod(l, r)
	case types.OpEqual:
		return boolToNumber(l == r)
	case types.OpLess:
		return boolToNumber(l < r)
	case types.OpGreater:
		return boolToNumber(l > r)
	case types.OpLessEqual:
		return boolToNumber(l <= r)
	case types.OpGreaterEqual:
		return boolToNumber(l >= r)
	default:
		// Unreachable for parsed trees: the parser only builds the operators above.
		return 0
	}
}

func boolToNumber(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
