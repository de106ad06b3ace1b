// interpreter.go — runtime value model, environments and the tree-walking
// evaluator for storier scripts.
//
// The public surface is small:
//   • Value — tagged union over nil, bool, int64, float64, string, function.
//   • Env — name→Value frame with a parent link forming the scope chain.
//   • Interp — one independent runtime instance: a persistent Global
//     environment plus the table of host-registered native functions.
//     Multiple instances in one process are fully isolated.
//
// Evaluation discipline: every fallible operation returns (Value, error);
// failures are *RuntimeError values carrying a 1-based line and 0-based
// column. There is no recovery and no partial continuation — the first error
// aborts the current evaluation — but the process keeps running and the host
// decides what to do with the error.
//
// Numeric semantics: all arithmetic and comparison operators coerce both
// operands to float64 before computing, so arithmetic always yields a num
// value (3 + 4 is 7.0, never int 7). Booleans coerce as 1/0; strings and
// functions do not coerce and are operand errors.
//
// Scoping: only user-function calls create a new frame. Blocks (if/for
// bodies) execute in the frame of their surrounding statement sequence. A
// call frame's parent is the CALLER's environment, not the environment where
// the proc was declared; scripts rely on this caller-visibility, so it is
// load-bearing even though it looks like a defect.
package storier

import (
	"fmt"
	"math"
	"strconv"
)

////////////////////////////////////////////////////////////////////////////////
//                              VALUES
////////////////////////////////////////////////////////////////////////////////

// ValueTag enumerates all runtime kinds a Value may hold.
type ValueTag int

const (
	VTNil  ValueTag = iota // nil (no payload)
	VTBool                 // bool
	VTInt                  // int64
	VTNum                  // float64
	VTStr                  // string
	VTFun                  // *Fun (native or user-defined)
)

// Value is the universal runtime carrier. Tag determines which Go type Data
// holds (see ValueTag).
type Value struct {
	Tag  ValueTag
	Data interface{}
}

// Nil is the singleton nil Value.
var Nil = Value{Tag: VTNil}

// Primitive constructors.
func Bool(b bool) Value   { return Value{Tag: VTBool, Data: b} }
func Int(n int64) Value   { return Value{Tag: VTInt, Data: n} }
func Num(f float64) Value { return Value{Tag: VTNum, Data: f} }
func Str(s string) Value  { return Value{Tag: VTStr, Data: s} }

// FunVal wraps *Fun into a Value (Tag=VTFun).
func FunVal(f *Fun) Value { return Value{Tag: VTFun, Data: f} }

// String renders a human-friendly debug representation.
func (v Value) String() string {
	switch v.Tag {
	case VTNil:
		return "nil"
	case VTBool:
		return fmt.Sprintf("%v", v.Data.(bool))
	case VTInt:
		return strconv.FormatInt(v.Data.(int64), 10)
	case VTNum:
		return strconv.FormatFloat(v.Data.(float64), 'g', -1, 64)
	case VTStr:
		return fmt.Sprintf("%q", v.Data.(string))
	case VTFun:
		f := v.Data.(*Fun)
		if f.NativeName != "" {
			return fmt.Sprintf("<native %s>", f.NativeName)
		}
		return "<proc>"
	default:
		return "<unknown>"
	}
}

func typeName(v Value) string {
	switch v.Tag {
	case VTNil:
		return "nil"
	case VTBool:
		return "bool"
	case VTInt:
		return "int"
	case VTNum:
		return "num"
	case VTStr:
		return "str"
	case VTFun:
		return "proc"
	default:
		return "unknown"
	}
}

// Fun represents a callable. Exactly one of the two shapes is populated:
// natives carry NativeName and are dispatched through the Interp's native
// table; user procs carry Params and Body.
type Fun struct {
	Params     []Param
	Body       []Stmt
	NativeName string // non-empty for registered natives
}

// NativeFn is the implementation signature for host-registered functions.
// It receives the CALLER's environment and the evaluated arguments in order,
// and returns one Value. A returned error aborts the current evaluation.
type NativeFn func(env *Env, args []Value) (Value, error)

////////////////////////////////////////////////////////////////////////////////
//                              ENVIRONMENTS
////////////////////////////////////////////////////////////////////////////////

// Env is an environment frame with a parent link. Lookups walk parent-ward.
type Env struct {
	parent *Env
	table  map[string]Value
}

// NewEnv creates a new frame with the given parent (which may be nil).
func NewEnv(parent *Env) *Env { return &Env{parent: parent, table: make(map[string]Value)} }

// Define binds name to v in the current frame, unconditionally overwriting
// any existing binding in this frame. It never searches ancestors.
func (e *Env) Define(name string, v Value) {
	e.table[name] = v
}

// Get retrieves the nearest visible binding for name or returns an error.
func (e *Env) Get(name string) (Value, error) {
	if v, ok := e.table[name]; ok {
		return v, nil
	}
	if e.parent != nil {
		return e.parent.Get(name)
	}
	return Value{}, fmt.Errorf("undefined variable: %s", name)
}

// Set updates the nearest existing binding of name. If no binding exists
// anywhere in the chain, the name is created in THIS frame — assignment
// without prior declaration is legal and scopes to the innermost frame.
func (e *Env) Set(name string, v Value) {
	for f := e; f != nil; f = f.parent {
		if _, ok := f.table[name]; ok {
			f.table[name] = v
			return
		}
	}
	e.table[name] = v
}

////////////////////////////////////////////////////////////////////////////////
//                              ERRORS
////////////////////////////////////////////////////////////////////////////////

// RuntimeError is an execution-time failure with a source position.
// Line is 1-based, Col is 0-based (the renderer in errors.go shifts it).
type RuntimeError struct {
	Line int
	Col  int
	Msg  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("RUNTIME ERROR at %d:%d: %s", e.Line, e.Col+1, e.Msg)
}

func rtErrAt(n Node, format string, args ...interface{}) *RuntimeError {
	line, col := n.Pos()
	return &RuntimeError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

////////////////////////////////////////////////////////////////////////////////
//                              INTERPRETER
////////////////////////////////////////////////////////////////////////////////

// Interp is one independent runtime instance. Global lives for the lifetime
// of the instance and is shared by all event executions; call-local frames
// are children created per user-proc invocation and discarded on return.
type Interp struct {
	Global *Env

	native map[string]NativeFn
	events map[string]*Program
}

// NewInterp constructs an empty runtime: a fresh Global environment, no
// natives, no events.
func NewInterp() *Interp {
	return &Interp{
		Global: NewEnv(nil),
		native: make(map[string]NativeFn),
		events: make(map[string]*Program),
	}
}

// RegisterNative installs a host function under a case-sensitive name,
// visible to scripts as an ordinary identifier.
func (ip *Interp) RegisterNative(name string, fn NativeFn) {
	ip.native[name] = fn
	ip.Global.Define(name, FunVal(&Fun{NativeName: name}))
}

// EvalSource parses and executes src in a fresh child of Global: declarations
// land in the throwaway child and Global stays unchanged unless the script
// assigns to an existing global. Returns the value of the last top-level
// expression statement, or Nil.
func (ip *Interp) EvalSource(src string) (Value, error) {
	prog, err := Parse(src)
	if err != nil {
		return Nil, err
	}
	return ip.ExecProgram(prog, NewEnv(ip.Global))
}

// EvalPersistentSource parses and executes src directly in Global
// (REPL-style): declarations persist across calls.
func (ip *Interp) EvalPersistentSource(src string) (Value, error) {
	prog, err := Parse(src)
	if err != nil {
		return Nil, err
	}
	return ip.ExecProgram(prog, ip.Global)
}

// ExecProgram runs a parsed program against the given environment. A
// top-level `return` stops execution; its value is discarded.
func (ip *Interp) ExecProgram(p *Program, env *Env) (Value, error) {
	_, last, err := ip.execStmts(p.Stmts, env)
	return last, err
}

////////////////////////////////////////////////////////////////////////////////
//                          STATEMENT EXECUTION
////////////////////////////////////////////////////////////////////////////////

// ctrl carries early-return control flow up through blocks and loops until
// the nearest call frame catches it.
type ctrl struct {
	ret bool
	val Value
}

// execStmts runs a statement sequence. The returned Value is the value of
// the last expression statement executed at this level (Nil otherwise),
// which gives REPLs something to echo.
func (ip *Interp) execStmts(stmts []Stmt, env *Env) (ctrl, Value, error) {
	last := Nil
	for _, s := range stmts {
		c, v, err := ip.execStmt(s, env)
		if err != nil {
			return ctrl{}, Nil, err
		}
		if c.ret {
			return c, last, nil
		}
		if _, ok := s.(*ExprStmt); ok {
			last = v
		}
	}
	return ctrl{}, last, nil
}

func (ip *Interp) execStmt(s Stmt, env *Env) (ctrl, Value, error) {
	switch st := s.(type) {
	case *ExprStmt:
		v, err := ip.eval(st.X, env)
		if err != nil {
			return ctrl{}, Nil, err
		}
		return ctrl{}, v, nil

	case *VarDecl:
		v, err := ip.eval(st.Init, env)
		if err != nil {
			return ctrl{}, Nil, err
		}
		env.Define(st.Name, v)
		return ctrl{}, Nil, nil

	case *Assign:
		v, err := ip.eval(st.Value, env)
		if err != nil {
			return ctrl{}, Nil, err
		}
		env.Set(st.Name, v)
		return ctrl{}, Nil, nil

	case *If:
		cond, err := ip.eval(st.Cond, env)
		if err != nil {
			return ctrl{}, Nil, err
		}
		if truthy(cond) {
			c, _, err := ip.execStmts(st.Then, env)
			return c, Nil, err
		}
		for _, arm := range st.Elifs {
			cond, err := ip.eval(arm.Cond, env)
			if err != nil {
				return ctrl{}, Nil, err
			}
			if truthy(cond) {
				c, _, err := ip.execStmts(arm.Body, env)
				return c, Nil, err
			}
		}
		if st.Else != nil {
			c, _, err := ip.execStmts(st.Else, env)
			return c, Nil, err
		}
		return ctrl{}, Nil, nil

	case *For:
		startV, err := ip.eval(st.Start, env)
		if err != nil {
			return ctrl{}, Nil, err
		}
		endV, err := ip.eval(st.End, env)
		if err != nil {
			return ctrl{}, Nil, err
		}
		start, ok := toInt(startV)
		if !ok {
			return ctrl{}, Nil, rtErrAt(st.Start, "range start must be numeric, got %s", typeName(startV))
		}
		end, ok := toInt(endV)
		if !ok {
			return ctrl{}, Nil, rtErrAt(st.End, "range end must be numeric, got %s", typeName(endV))
		}
		for i := start; i < end; i++ {
			env.Define(st.Var, Int(i))
			c, _, err := ip.execStmts(st.Body, env)
			if err != nil {
				return ctrl{}, Nil, err
			}
			if c.ret {
				return c, Nil, nil
			}
		}
		return ctrl{}, Nil, nil

	case *ProcDecl:
		env.Define(st.Name, FunVal(&Fun{Params: st.Params, Body: st.Body}))
		return ctrl{}, Nil, nil

	case *Return:
		v := Nil
		if st.Value != nil {
			var err error
			v, err = ip.eval(st.Value, env)
			if err != nil {
				return ctrl{}, Nil, err
			}
		}
		return ctrl{ret: true, val: v}, Nil, nil

	default:
		return ctrl{}, Nil, rtErrAt(s, "unknown statement")
	}
}

////////////////////////////////////////////////////////////////////////////////
//                          EXPRESSION EVALUATION
////////////////////////////////////////////////////////////////////////////////

func (ip *Interp) eval(e Expr, env *Env) (Value, error) {
	switch x := e.(type) {
	case *IntLit:
		return Int(x.Value), nil
	case *FloatLit:
		return Num(x.Value), nil
	case *StrLit:
		return Str(x.Value), nil
	case *BoolLit:
		return Bool(x.Value), nil

	case *Ident:
		v, err := env.Get(x.Name)
		if err != nil {
			return Nil, rtErrAt(x, "undefined variable: %s", x.Name)
		}
		return v, nil

	case *Unary:
		operand, err := ip.eval(x.Operand, env)
		if err != nil {
			return Nil, err
		}
		switch x.Op {
		case "-":
			f, ok := toNum(operand)
			if !ok {
				return Nil, rtErrAt(x, "unsupported operand for '-': %s", typeName(operand))
			}
			return Num(-f), nil
		case "not":
			return Bool(!truthy(operand)), nil
		}
		return Nil, rtErrAt(x, "unknown unary operator: %s", x.Op)

	case *Binary:
		return ip.evalBinary(x, env)

	case *Call:
		return ip.evalCall(x, env)
	}
	line, col := e.Pos()
	return Nil, &RuntimeError{Line: line, Col: col, Msg: "unknown expression"}
}

func (ip *Interp) evalBinary(x *Binary, env *Env) (Value, error) {
	// Logical operators short-circuit: the right operand is not evaluated
	// when the left already decides the result.
	if x.Op == "and" || x.Op == "or" {
		lhs, err := ip.eval(x.LHS, env)
		if err != nil {
			return Nil, err
		}
		if x.Op == "and" && !truthy(lhs) {
			return Bool(false), nil
		}
		if x.Op == "or" && truthy(lhs) {
			return Bool(true), nil
		}
		rhs, err := ip.eval(x.RHS, env)
		if err != nil {
			return Nil, err
		}
		return Bool(truthy(rhs)), nil
	}

	lhs, err := ip.eval(x.LHS, env)
	if err != nil {
		return Nil, err
	}
	rhs, err := ip.eval(x.RHS, env)
	if err != nil {
		return Nil, err
	}
	lf, ok := toNum(lhs)
	if !ok {
		return Nil, rtErrAt(x.LHS, "unsupported operand for '%s': %s", x.Op, typeName(lhs))
	}
	rf, ok := toNum(rhs)
	if !ok {
		return Nil, rtErrAt(x.RHS, "unsupported operand for '%s': %s", x.Op, typeName(rhs))
	}

	switch x.Op {
	case "+":
		return Num(lf + rf), nil
	case "-":
		return Num(lf - rf), nil
	case "*":
		return Num(lf * rf), nil
	case "/":
		return Num(lf / rf), nil
	case "%":
		return Num(math.Mod(lf, rf)), nil
	case "==":
		return Bool(lf == rf), nil
	case "!=":
		return Bool(lf != rf), nil
	case "<":
		return Bool(lf < rf), nil
	case "<=":
		return Bool(lf <= rf), nil
	case ">":
		return Bool(lf > rf), nil
	case ">=":
		return Bool(lf >= rf), nil
	}
	return Nil, rtErrAt(x, "unknown operator: %s", x.Op)
}

// evalCall resolves the callee name in the caller's environment, evaluates
// arguments left to right, then dispatches. Natives receive the caller's
// environment; user procs get a fresh frame whose parent is the CALLER's
// environment (see the package comment on scoping).
func (ip *Interp) evalCall(x *Call, env *Env) (Value, error) {
	callee, err := env.Get(x.Name)
	if err != nil {
		return Nil, rtErrAt(x, "undefined function: %s", x.Name)
	}
	if callee.Tag != VTFun {
		return Nil, rtErrAt(x, "not a function: %s", x.Name)
	}
	f := callee.Data.(*Fun)

	args := make([]Value, len(x.Args))
	for i, a := range x.Args {
		v, err := ip.eval(a, env)
		if err != nil {
			return Nil, err
		}
		args[i] = v
	}

	if f.NativeName != "" {
		impl, ok := ip.native[f.NativeName]
		if !ok {
			return Nil, rtErrAt(x, "unknown native: %s", f.NativeName)
		}
		res, err := impl(env, args)
		if err != nil {
			if re, ok := err.(*RuntimeError); ok {
				return Nil, re
			}
			return Nil, rtErrAt(x, "%s: %s", x.Name, err.Error())
		}
		return res, nil
	}

	if len(args) > len(f.Params) {
		return Nil, rtErrAt(x, "too many arguments in call to %s: got %d, want %d",
			x.Name, len(args), len(f.Params))
	}
	frame := NewEnv(env)
	for i, p := range f.Params {
		if i < len(args) {
			frame.Define(p.Name, args[i])
		} else {
			frame.Define(p.Name, Nil) // missing trailing arguments bind to nil
		}
	}
	c, _, err := ip.execStmts(f.Body, frame)
	if err != nil {
		return Nil, err
	}
	if c.ret {
		return c.val, nil
	}
	return Nil, nil
}

////////////////////////////////////////////////////////////////////////////////
//                              COERCIONS
////////////////////////////////////////////////////////////////////////////////

// truthy: nil and false are false; zero int/num and the empty string are
// false; everything else, including every function value, is true.
func truthy(v Value) bool {
	switch v.Tag {
	case VTNil:
		return false
	case VTBool:
		return v.Data.(bool)
	case VTInt:
		return v.Data.(int64) != 0
	case VTNum:
		return v.Data.(float64) != 0
	case VTStr:
		return v.Data.(string) != ""
	default:
		return true
	}
}

// toNum coerces a value for arithmetic/comparison: ints and nums pass
// through, booleans become 1/0, everything else refuses.
func toNum(v Value) (float64, bool) {
	switch v.Tag {
	case VTInt:
		return float64(v.Data.(int64)), true
	case VTNum:
		return v.Data.(float64), true
	case VTBool:
		if v.Data.(bool) {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// toInt coerces a range bound to an integer (floats truncate).
func toInt(v Value) (int64, bool) {
	switch v.Tag {
	case VTInt:
		return v.Data.(int64), true
	case VTNum:
		return int64(v.Data.(float64)), true
	case VTBool:
		if v.Data.(bool) {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
