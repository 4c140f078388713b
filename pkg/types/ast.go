package types

// NodeType identifies the type of an AST node.
type NodeType string

// AST node types.
const (
	NodeNumber   NodeType = "number"   // 1, 2.5, .5
	NodeBinary   NodeType = "binary"   // +, -, *, /, %, ==, <, >, <=, >=
	NodeVariable NodeType = "variable" // name
	NodeBlock    NodeType = "block"    // [ a; b; c ]
	NodeAssign   NodeType = "assign"   // name = expr
	NodeFunction NodeType = "function" // fn a, b -> expr
	NodeCall     NodeType = "call"     // callee(args)
	NodeSwitch   NodeType = "switch"   // { cond -> expr, ... }
	NodeWhile    NodeType = "while"    // while cond body
)

// Operator is the operator of a binary node.
type Operator string

// Binary operators.
const (
	OpAdd          Operator = "+"
	OpSub          Operator = "-"
	OpMul          Operator = "*"
	OpDiv          Operator = "/"
	OpMod          Operator = "%"
	OpEqual        Operator = "=="
	OpLess         Operator = "<"
	OpGreater      Operator = ">"
	OpLessEqual    Operator = "<="
	OpGreaterEqual Operator = ">="
)

// Precedence returns the binding power of the operator.
// Higher values bind more tightly; unknown operators return 0.
func (op Operator) Precedence() int {
	switch op {
	case OpEqual, OpLess, OpGreater, OpLessEqual, OpGreaterEqual:
		return 40
	case OpAdd, OpSub:
		return 50
	case OpMul, OpDiv, OpMod:
		return 60
	default:
		return 0
	}
}

// ASTNode represents a node in the Abstract Syntax Tree.
//
// A node exclusively owns its children. Which fields are meaningful depends on Type:
//
//	number    Number
//	binary    Operator, LHS, RHS
//	variable  Name
//	block     Expressions
//	assign    Name, RHS
//	function  Params, RHS (body)
//	call      LHS (callee), Arguments
//	switch    Expressions (conditions), Branches
//	while     LHS (condition), RHS (body)
type ASTNode struct {
	Type     NodeType
	Number   float64
	Name     string
	Operator Operator

	// Relations
	LHS         *ASTNode
	RHS         *ASTNode
	Params      []string
	Arguments   []*ASTNode
	Expressions []*ASTNode
	Branches    []*ASTNode
}

// NewASTNode creates a new AST node of the specified type.
// Prefer NodeArena.Alloc when parsing to reduce per-node heap allocations.
func NewASTNode(nodeType NodeType) *ASTNode {
	return &ASTNode{Type: nodeType}
}

// NewNumber creates a number literal node.
func NewNumber(value float64) *ASTNode {
	return &ASTNode{Type: NodeNumber, Number: value}
}

// NewBinary creates a binary operator node.
func NewBinary(op Operator, lhs, rhs *ASTNode) *ASTNode {
	return &ASTNode{Type: NodeBinary, Operator: op, LHS: lhs, RHS: rhs}
}

// NewVariable creates a variable reference node.
func NewVariable(name string) *ASTNode {
	return &ASTNode{Type: NodeVariable, Name: name}
}

// NewBlock creates a code block node.
func NewBlock(statements ...*ASTNode) *ASTNode {
	return &ASTNode{Type: NodeBlock, Expressions: statements}
}

// NewAssign creates an assignment node.
func NewAssign(name string, value *ASTNode) *ASTNode {
	return &ASTNode{Type: NodeAssign, Name: name, RHS: value}
}

// NewFunction creates a function literal node.
func NewFunction(params []string, body *ASTNode) *ASTNode {
	return &ASTNode{Type: NodeFunction, Params: params, RHS: body}
}

// NewCall creates a function call node.
func NewCall(callee *ASTNode, args ...*ASTNode) *ASTNode {
	return &ASTNode{Type: NodeCall, LHS: callee, Arguments: args}
}

// NewSwitch creates a switch node. conditions[i] pairs with branches[i].
func NewSwitch(conditions, branches []*ASTNode) *ASTNode {
	return &ASTNode{Type: NodeSwitch, Expressions: conditions, Branches: branches}
}

// NewWhile creates a while loop node.
func NewWhile(condition, body *ASTNode) *ASTNode {
	return &ASTNode{Type: NodeWhile, LHS: condition, RHS: body}
}

// arenaChunkSize is the number of ASTNode values pre-allocated per arena chunk.
const arenaChunkSize = 64

// NodeArena is a bump-pointer allocator for ASTNode values.
//
// The arena pre-allocates fixed-size chunks of ASTNode structs and returns
// pointers into them, so a typical program needs a single chunk allocation.
//
// # Lifetime
//
// The arena MUST stay alive as long as any pointer returned by Alloc is
// reachable. Attaching the arena to the [Expression] achieves this.
//
// # Thread safety
//
// NodeArena is NOT thread-safe. Each parse owns its own arena.
type NodeArena struct {
	chunks [][]ASTNode
	pos    int // next free index in the last chunk
}

// NewNodeArena allocates an arena pre-warmed with one initial chunk.
func NewNodeArena() *NodeArena {
	return &NodeArena{
		chunks: [][]ASTNode{make([]ASTNode, arenaChunkSize)},
	}
}

// Alloc returns a pointer to a zero-valued ASTNode inside the arena with Type set.
func (a *NodeArena) Alloc(nodeType NodeType) *ASTNode {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]ASTNode, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Type = nodeType
	return n
}

// Len returns the number of nodes allocated so far.
func (a *NodeArena) Len() int {
	return (len(a.chunks)-1)*arenaChunkSize + a.pos
}
