// ast.go — syntax tree for storier scripts. Pure data: the parser builds it,
// the interpreter walks it, nothing here has behavior beyond position access.
package storier

// Node is anything with a source position (1-based line, 0-based column).
type Node interface {
	Pos() (line, col int)
}

// Expr is the expression side of the tree.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the statement side of the tree.
type Stmt interface {
	Node
	stmtNode()
}

// Program is an ordered sequence of top-level statements.
type Program struct {
	Stmts []Stmt
}

// ----- expressions -----

type IntLit struct {
	Value     int64
	Line, Col int
}

type FloatLit struct {
	Value     float64
	Line, Col int
}

type StrLit struct {
	Value     string
	Line, Col int
}

type BoolLit struct {
	Value     bool
	Line, Col int
}

// Ident is a variable reference.
type Ident struct {
	Name      string
	Line, Col int
}

// Unary is prefix "-" or "not".
type Unary struct {
	Op        string
	Operand   Expr
	Line, Col int
}

// Binary covers arithmetic, comparison and logical operators.
type Binary struct {
	Op        string
	LHS, RHS  Expr
	Line, Col int
}

// Call is name(args...). Callees are names, not arbitrary expressions.
type Call struct {
	Name      string
	Args      []Expr
	Line, Col int
}

func (e *IntLit) Pos() (int, int)   { return e.Line, e.Col }
func (e *FloatLit) Pos() (int, int) { return e.Line, e.Col }
func (e *StrLit) Pos() (int, int)   { return e.Line, e.Col }
func (e *BoolLit) Pos() (int, int)  { return e.Line, e.Col }
func (e *Ident) Pos() (int, int)    { return e.Line, e.Col }
func (e *Unary) Pos() (int, int)    { return e.Line, e.Col }
func (e *Binary) Pos() (int, int)   { return e.Line, e.Col }
func (e *Call) Pos() (int, int)     { return e.Line, e.Col }

func (*IntLit) exprNode()   {}
func (*FloatLit) exprNode() {}
func (*StrLit) exprNode()   {}
func (*BoolLit) exprNode()  {}
func (*Ident) exprNode()    {}
func (*Unary) exprNode()    {}
func (*Binary) exprNode()   {}
func (*Call) exprNode()     {}

// ----- statements -----

// ExprStmt is a bare expression evaluated for its side effects.
type ExprStmt struct {
	X         Expr
	Line, Col int
}

// VarDecl is `var name = init` or `let name = init`. The keyword is recorded
// but `let` carries no extra enforcement at runtime.
type VarDecl struct {
	Keyword   string // "var" or "let"
	Name      string
	Init      Expr
	Line, Col int
}

// Assign is `name = value` without a declaration keyword.
type Assign struct {
	Name      string
	Value     Expr
	Line, Col int
}

// ElifBranch is one `elif cond:` arm of an If.
type ElifBranch struct {
	Cond Expr
	Body []Stmt
}

type If struct {
	Cond      Expr
	Then      []Stmt
	Elifs     []ElifBranch
	Else      []Stmt // nil when absent
	Line, Col int
}

// For is `for name in range(start, end):` — the only iterable form.
// The range is half-open: [start, end).
type For struct {
	Var        string
	Start, End Expr
	Body       []Stmt
	Line, Col  int
}

// Param is a declared proc parameter. Type is documentation only; it is
// recorded verbatim and never checked.
type Param struct {
	Name string
	Type string
}

type ProcDecl struct {
	Name      string
	Params    []Param
	Body      []Stmt
	Line, Col int
}

// Return surfaces its value to the nearest call frame. Value may be nil for
// a bare `return`.
type Return struct {
	Value     Expr
	Line, Col int
}

func (s *ExprStmt) Pos() (int, int) { return s.Line, s.Col }
func (s *VarDecl) Pos() (int, int)  { return s.Line, s.Col }
func (s *Assign) Pos() (int, int)   { return s.Line, s.Col }
func (s *If) Pos() (int, int)       { return s.Line, s.Col }
func (s *For) Pos() (int, int)      { return s.Line, s.Col }
func (s *ProcDecl) Pos() (int, int) { return s.Line, s.Col }
func (s *Return) Pos() (int, int)   { return s.Line, s.Col }

func (*ExprStmt) stmtNode() {}
func (*VarDecl) stmtNode()  {}
func (*Assign) stmtNode()   {}
func (*If) stmtNode()       {}
func (*For) stmtNode()      {}
func (*ProcDecl) stmtNode() {}
func (*Return) stmtNode()   {}
