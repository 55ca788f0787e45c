// Package ast defines the abstract syntax tree produced by pkg/parser and
// consumed by the verifier, the IR builder, and the reference interpreter.
package ast

// Position identifies a source location for diagnostics.
type Position struct {
	Line   int
	Column int
}

// Program is the root node: a DECLARE block followed by a command sequence.
type Program struct {
	Declarations []Declaration
	Commands     []Command
}

// Declaration is either a ScalarDecl or an ArrayDecl.
type Declaration interface {
	declNode()
	Name() string
	Pos() Position
}

// ScalarDecl declares a single integer variable.
type ScalarDecl struct {
	Ident    string
	Position Position
}

func (d *ScalarDecl) declNode()      {}
func (d *ScalarDecl) Name() string   { return d.Ident }
func (d *ScalarDecl) Pos() Position  { return d.Position }

// ArrayDecl declares a fixed-range array with an arbitrary (possibly negative)
// index base. Lo may be greater than Hi in the source; the verifier is
// responsible for rejecting that as BadArrayBounds.
type ArrayDecl struct {
	Ident    string
	Lo, Hi   int64
	Position Position
}

func (d *ArrayDecl) declNode()     {}
func (d *ArrayDecl) Name() string  { return d.Ident }
func (d *ArrayDecl) Pos() Position { return d.Position }

// ValueKind distinguishes the four value productions of the grammar:
// num | ident | ident(ident) | ident(num).
type ValueKind int

const (
	ValNum ValueKind = iota
	ValIdent
	ValArrayByIdent
	ValArrayByNum
)

// Value is a leaf operand: a literal, a scalar reference, or an array
// element reference indexed by a variable or by a literal.
type Value struct {
	Kind      ValueKind
	Num       int64  // ValNum, or the literal index for ValArrayByNum
	Name      string // ValIdent, ValArrayByIdent, ValArrayByNum: the (array) name
	IndexName string // ValArrayByIdent: the index variable's name
	Position  Position
}

func (v Value) Pos() Position { return v.Position }

// BinOp is an arithmetic operator.
type BinOp int

const (
	OpPlus BinOp = iota
	OpMinus
	OpTimes
	OpDiv
	OpMod
)

// Expr is either a bare Value or a binary combination of two Values.
// The grammar never nests expressions more deeply than one operator.
type Expr struct {
	IsBinary bool
	Value    Value // used when !IsBinary
	Op       BinOp // used when IsBinary
	Left     Value
	Right    Value
	Position Position
}

func (e Expr) Pos() Position { return e.Position }

// RelOp is a relational operator appearing in a condition.
type RelOp int

const (
	RelEq RelOp = iota
	RelNeq
	RelLt
	RelGt
	RelLe
	RelGe
)

// Condition compares two values.
type Condition struct {
	Op       RelOp
	Left     Value
	Right    Value
	Position Position
}

func (c Condition) Pos() Position { return c.Position }

// LValue is a writable target: a scalar or an array element (by variable or
// literal index), or — syntactically, since the grammar's target position
// accepts the same `num | ident | ...` shape as any other value — a bare
// literal. A literal target parses but is never writable; the verifier
// rejects it as WriteToNonLvalue (spec §9 open question: "a literal cannot
// be the target of ASSIGN/READ"). FOR iterators are likewise never a valid
// LValue target in a well-formed program; the verifier rejects those too.
type LValue struct {
	IsLiteral bool  // true: this "target" is a bare numeric literal
	LitNum    int64 // set when IsLiteral

	IsArray   bool
	Name      string
	IndexName string    // set when IsArray && index is a variable
	IndexNum  int64     // set when IsArray && index is a literal
	IndexKind ValueKind // ValIdent or ValNum, meaningful only when IsArray
	Position  Position
}

func (l LValue) Pos() Position { return l.Position }

// Command is one statement of the command sequence.
type Command interface {
	cmdNode()
	Pos() Position
}

// AssignCmd is `lvalue ASSIGN expr`.
type AssignCmd struct {
	Target   LValue
	Expr     Expr
	Position Position
}

func (c *AssignCmd) cmdNode()       {}
func (c *AssignCmd) Pos() Position  { return c.Position }

// IfCmd is `IF cond THEN commands [ELSE commands] ENDIF`.
type IfCmd struct {
	Cond     Condition
	Then     []Command
	Else     []Command // nil when there is no ELSE branch
	Position Position
}

func (c *IfCmd) cmdNode()      {}
func (c *IfCmd) Pos() Position { return c.Position }

// WhileCmd is `WHILE cond DO commands ENDWHILE`.
type WhileCmd struct {
	Cond     Condition
	Body     []Command
	Position Position
}

func (c *WhileCmd) cmdNode()      {}
func (c *WhileCmd) Pos() Position { return c.Position }

// DoWhileCmd is `DO commands WHILE cond ENDDO` — the body runs once before
// the condition is ever tested.
type DoWhileCmd struct {
	Body     []Command
	Cond     Condition
	Position Position
}

func (c *DoWhileCmd) cmdNode()      {}
func (c *DoWhileCmd) Pos() Position { return c.Position }

// ForCmd is `FOR ident FROM from (TO|DOWNTO) to DO commands ENDFOR`.
// Bounds are evaluated once at loop entry (spec: bounds frozen).
type ForCmd struct {
	Iterator string
	From     Value
	To       Value
	Down     bool
	Body     []Command
	Position Position
}

func (c *ForCmd) cmdNode()      {}
func (c *ForCmd) Pos() Position { return c.Position }

// ReadCmd is `READ lvalue`.
type ReadCmd struct {
	Target   LValue
	Position Position
}

func (c *ReadCmd) cmdNode()      {}
func (c *ReadCmd) Pos() Position { return c.Position }

// WriteCmd is `WRITE value-or-expr`.
type WriteCmd struct {
	Expr     Expr
	Position Position
}

func (c *WriteCmd) cmdNode()      {}
func (c *WriteCmd) Pos() Position { return c.Position }
