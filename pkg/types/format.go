package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FormatNumber renders a float in the shortest form that reads back to the same value.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// String renders the node as source text, adding only the parentheses needed
// to keep the tree shape when the text is parsed again.
//
// A while body that itself starts with '(' cannot be told apart from a call
// on the condition, so such trees do not survive a round trip.
func (n *ASTNode) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *ASTNode) write(b *strings.Builder) {
	if n == nil {
		b.WriteString("<nil>")
		return
	}

	switch n.Type {
	case NodeNumber:
		b.WriteString(FormatNumber(n.Number))
	case NodeVariable:
		b.WriteString(n.Name)
	case NodeBinary:
		prec := n.Operator.Precedence()
		writeGrouped(b, n.LHS, openEnded(n.LHS) || (n.LHS != nil && n.LHS.Type == NodeBinary && n.LHS.Operator.Precedence() < prec))
		b.WriteByte(' ')
		b.WriteString(string(n.Operator))
		b.WriteByte(' ')
		writeGrouped(b, n.RHS, n.RHS != nil && n.RHS.Type == NodeBinary && n.RHS.Operator.Precedence() <= prec)
	case NodeBlock:
		b.WriteByte('[')
		for i, stmt := range n.Expressions {
			if i > 0 {
				b.WriteString("; ")
			}
			stmt.write(b)
		}
		b.WriteByte(']')
	case NodeAssign:
		b.WriteString(n.Name)
		b.WriteString(" = ")
		n.RHS.write(b)
	case NodeFunction:
		b.WriteString("fn ")
		if len(n.Params) > 0 {
			b.WriteString(strings.Join(n.Params, ", "))
			b.WriteByte(' ')
		}
		b.WriteString("-> ")
		n.RHS.write(b)
	case NodeCall:
		writeGrouped(b, n.LHS, openEnded(n.LHS) || (n.LHS != nil && n.LHS.Type == NodeBinary))
		b.WriteByte('(')
		for i, arg := range n.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			arg.write(b)
		}
		b.WriteByte(')')
	case NodeSwitch:
		b.WriteByte('{')
		for i := 0; i < len(n.Expressions) && i < len(n.Branches); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			n.Expressions[i].write(b)
			b.WriteString(" -> ")
			n.Branches[i].write(b)
		}
		b.WriteByte('}')
	case NodeWhile:
		b.WriteString("while ")
		writeGrouped(b, n.LHS, openEnded(n.LHS))
		b.WriteByte(' ')
		n.RHS.write(b)
	default:
		b.WriteString("<" + string(n.Type) + ">")
	}
}

func writeGrouped(b *strings.Builder, n *ASTNode, group bool) {
	if group {
		b.WriteByte('(')
	}
	n.write(b)
	if group {
		b.WriteByte(')')
	}
}

// openEnded reports whether the rendering of n ends in a full expression,
// so that anything written after it would be swallowed by n.
func openEnded(n *ASTNode) bool {
	if n == nil {
		return false
	}
	switch n.Type {
	case NodeAssign, NodeFunction, NodeWhile:
		return true
	case NodeBinary:
		return openEnded(n.RHS)
	default:
		return false
	}
}

type nodeJSON struct {
	Type       NodeType   `json:"type"`
	Value      *float64   `json:"value,omitempty"`
	Name       string     `json:"name,omitempty"`
	Operator   Operator   `json:"operator,omitempty"`
	Params     []string   `json:"params,omitempty"`
	Left       *ASTNode   `json:"left,omitempty"`
	Right      *ASTNode   `json:"right,omitempty"`
	Expr       *ASTNode   `json:"expr,omitempty"`
	Callee     *ASTNode   `json:"callee,omitempty"`
	Arguments  []*ASTNode `json:"arguments,omitempty"`
	Statements []*ASTNode `json:"statements,omitempty"`
	Conditions []*ASTNode `json:"conditions,omitempty"`
	Branches   []*ASTNode `json:"branches,omitempty"`
	Condition  *ASTNode   `json:"condition,omitempty"`
	Body       *ASTNode   `json:"body,omitempty"`
}

// MarshalJSON emits only the fields that are meaningful for the node type.
func (n *ASTNode) MarshalJSON() ([]byte, error) {
	out := nodeJSON{Type: n.Type}
	switch n.Type {
	case NodeNumber:
		v := n.Number
		out.Value = &v
	case NodeVariable:
		out.Name = n.Name
	case NodeBinary:
		out.Operator = n.Operator
		out.Left = n.LHS
		out.Right = n.RHS
	case NodeBlock:
		out.Statements = n.Expressions
	case NodeAssign:
		out.Name = n.Name
		out.Expr = n.RHS
	case NodeFunction:
		out.Params = n.Params
		out.Body = n.RHS
	case NodeCall:
		out.Callee = n.LHS
		out.Arguments = n.Arguments
	case NodeSwitch:
		out.Conditions = n.Expressions
		out.Branches = n.Branches
	case NodeWhile:
		out.Condition = n.LHS
		out.Body = n.RHS
	}
	return json.Marshal(out)
}
