// parser.go — recursive-descent statement parser and Pratt expression parser
// for storier scripts.
//
// The parser consumes the token stream produced by the indentation-sensitive
// lexer (see lexer.go) and builds the tree defined in ast.go.
//
// Statement dispatch keys off the literal text of a leading ID token (`var`,
// `let`, `if`, `for`, `proc`, `return`), falling back to one-token lookahead
// for `=` to tell an assignment from a bare expression statement. Expressions
// use precedence climbing via lbp(); `true`, `false` and `not` are ordinary
// ID tokens special-cased during prefix parsing, and `and`/`or` are ID tokens
// with infix binding power.
//
// Blocks are introduced by a trailing ':' plus NEWLINE and delimited by one
// INDENT at the start and one matching DEDENT at the end.
//
// The first structural mismatch is fatal; there is no error recovery and no
// multi-error reporting.
package storier

import "fmt"

// ParseError is a fatal syntax error at the offending token.
// Line is 1-based, Col is 0-based (the renderer in errors.go shifts it).
// AtEOF marks errors caused by running out of input, which interactive hosts
// treat as "keep typing" rather than a hard failure.
type ParseError struct {
	Line  int
	Col   int
	Msg   string
	AtEOF bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d:%d: %s", e.Line, e.Col+1, e.Msg)
}

// IsIncomplete reports whether err is a parse error caused by truncated
// input (an unfinished block or expression at end of source).
func IsIncomplete(err error) bool {
	pe, ok := err.(*ParseError)
	return ok && pe.AtEOF
}

// Parse tokenizes and parses a complete source string.
func Parse(src string) (*Program, error) {
	toks, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses an already-scanned token stream (EOF-terminated).
func ParseTokens(toks []Token) (*Program, error) {
	p := &parser{toks: toks}
	return p.program()
}

type parser struct {
	toks []Token
	i    int
}

// ─────────────────────────── token basics & helpers ─────────────────────────

func (p *parser) atEnd() bool { return p.peek().Type == EOF }

func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) peekN(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) match(tt ...TokenType) bool {
	if p.atEnd() {
		return false
	}
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) need(t TokenType, msg string) (Token, error) {
	if p.match(t) {
		return p.prev(), nil
	}
	return Token{}, p.errAt(p.peek(), msg)
}

func (p *parser) errAt(t Token, msg string) error {
	return &ParseError{Line: t.Line, Col: t.Col, Msg: msg, AtEOF: p.atTrailingEnd(t)}
}

// atTrailingEnd reports whether t lies in the stream's trailing run of line
// and block closers (NEWLINE, DEDENT, EOF). The lexer synthesizes those when
// the input stops, so an error on one of them means the source ended early:
// a nested open block fails at a trailing DEDENT and a truncated expression
// at the final NEWLINE, not at EOF itself. An error with real tokens still
// ahead is a hard failure regardless of t's type.
func (p *parser) atTrailingEnd(t Token) bool {
	switch t.Type {
	case EOF:
		return true
	case NEWLINE, DEDENT:
	default:
		return false
	}
	for i := p.i; i < len(p.toks); i++ {
		switch p.toks[i].Type {
		case NEWLINE, DEDENT, EOF:
		default:
			return false
		}
	}
	return true
}

// isKw reports whether t is an ID token with exactly the given text.
func isKw(t Token, text string) bool { return t.Type == ID && t.Lexeme == text }

// ───────────────────────── precedence / associativity ──────────────────────

// unaryBP is the binding ceiling for prefix '-' and 'not': tighter than every
// binary operator.
const unaryBP = 60

// lbp returns the left binding power and canonical operator name for an
// infix token. All binary operators are left-associative.
func lbp(t Token) (int, string, bool) {
	switch t.Type {
	case MULT:
		return 50, "*", true
	case DIV:
		return 50, "/", true
	case MOD:
		return 50, "%", true
	case PLUS:
		return 40, "+", true
	case MINUS:
		return 40, "-", true
	case EQ:
		return 30, "==", true
	case NEQ:
		return 30, "!=", true
	case LESS:
		return 30, "<", true
	case LESS_EQ:
		return 30, "<=", true
	case GREATER:
		return 30, ">", true
	case GREATER_EQ:
		return 30, ">=", true
	case ID:
		switch t.Lexeme {
		case "and":
			return 20, "and", true
		case "or":
			return 10, "or", true
		}
	}
	return 0, "", false
}

// ───────────────────────────── program / blocks ─────────────────────────────

func (p *parser) program() (*Program, error) {
	prog := &Program{}
	for !p.atEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		if err := p.terminator(s); err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, s)
	}
	return prog, nil
}

// terminator consumes the NEWLINE that ends a statement line. Statements that
// end in a block already consumed their NEWLINE inside the block, so for
// those the next statement may follow directly.
func (p *parser) terminator(s Stmt) error {
	if p.match(NEWLINE) {
		return nil
	}
	if p.atEnd() || p.peek().Type == DEDENT {
		return nil
	}
	switch s.(type) {
	case *If, *For, *ProcDecl:
		return nil
	}
	return p.errAt(p.peek(), "expected newline")
}

// block parses ':' NEWLINE INDENT stmt* DEDENT.
func (p *parser) block() ([]Stmt, error) {
	if _, err := p.need(COLON, "expected ':'"); err != nil {
		return nil, err
	}
	if _, err := p.need(NEWLINE, "expected newline after ':'"); err != nil {
		return nil, err
	}
	if _, err := p.need(INDENT, "expected indented block"); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for !p.atEnd() && p.peek().Type != DEDENT {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		if err := p.terminator(s); err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.need(DEDENT, "expected end of block"); err != nil {
		return nil, err
	}
	return stmts, nil
}

// ───────────────────────────── statements ───────────────────────────────────

func (p *parser) statement() (Stmt, error) {
	t := p.peek()
	if t.Type == ID {
		switch t.Lexeme {
		case "var", "let":
			return p.varDecl()
		case "if":
			return p.ifStmt()
		case "for":
			return p.forStmt()
		case "proc":
			return p.procDecl()
		case "return":
			return p.returnStmt()
		}
		if p.peekN(1).Type == ASSIGN {
			return p.assign()
		}
	}
	x, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	line, col := x.Pos()
	return &ExprStmt{X: x, Line: line, Col: col}, nil
}

func (p *parser) varDecl() (Stmt, error) {
	kw := p.peek()
	p.i++
	name, err := p.need(ID, fmt.Sprintf("expected identifier after '%s'", kw.Lexeme))
	if err != nil {
		return nil, err
	}
	if _, err := p.need(ASSIGN, "expected '=' in declaration"); err != nil {
		return nil, err
	}
	init, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	return &VarDecl{Keyword: kw.Lexeme, Name: name.Lexeme, Init: init, Line: kw.Line, Col: kw.Col}, nil
}

func (p *parser) assign() (Stmt, error) {
	name := p.peek()
	p.i++ // name
	p.i++ // '='
	val, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	return &Assign{Name: name.Lexeme, Value: val, Line: name.Line, Col: name.Col}, nil
}

func (p *parser) ifStmt() (Stmt, error) {
	kw := p.peek()
	p.i++
	cond, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	then, err := p.block()
	if err != nil {
		return nil, err
	}
	node := &If{Cond: cond, Then: then, Line: kw.Line, Col: kw.Col}
	for isKw(p.peek(), "elif") {
		p.i++
		c, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		node.Elifs = append(node.Elifs, ElifBranch{Cond: c, Body: body})
	}
	if isKw(p.peek(), "else") {
		p.i++
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		node.Else = body
	}
	return node, nil
}

// forStmt parses the single recognized loop form:
// `for <ident> in range(<expr>, <expr>):`
func (p *parser) forStmt() (Stmt, error) {
	kw := p.peek()
	p.i++
	name, err := p.need(ID, "expected loop variable after 'for'")
	if err != nil {
		return nil, err
	}
	in, err := p.need(ID, "expected 'in'")
	if err != nil {
		return nil, err
	}
	if in.Lexeme != "in" {
		return nil, p.errAt(in, "expected 'in'")
	}
	rng, err := p.need(ID, "expected 'range'")
	if err != nil {
		return nil, err
	}
	if rng.Lexeme != "range" {
		return nil, p.errAt(rng, "expected 'range'")
	}
	if _, err := p.need(LROUND, "expected '(' after 'range'"); err != nil {
		return nil, err
	}
	start, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(COMMA, "expected ',' in range"); err != nil {
		return nil, err
	}
	end, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RROUND, "expected ')' after range"); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &For{Var: name.Lexeme, Start: start, End: end, Body: body, Line: kw.Line, Col: kw.Col}, nil
}

// procDecl parses `proc name(a: int, b: str): ...`. Parameter type names are
// recorded verbatim and never checked.
func (p *parser) procDecl() (Stmt, error) {
	kw := p.peek()
	p.i++
	name, err := p.need(ID, "expected proc name")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(LROUND, "expected '(' after proc name"); err != nil {
		return nil, err
	}
	var params []Param
	if p.peek().Type != RROUND {
		for {
			pn, err := p.need(ID, "expected parameter name")
			if err != nil {
				return nil, err
			}
			if _, err := p.need(COLON, "expected ':' after parameter name"); err != nil {
				return nil, err
			}
			pt, err := p.need(ID, "expected parameter type")
			if err != nil {
				return nil, err
			}
			params = append(params, Param{Name: pn.Lexeme, Type: pt.Lexeme})
			if !p.match(COMMA) {
				break
			}
		}
	}
	if _, err := p.need(RROUND, "expected ')' after parameters"); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ProcDecl{Name: name.Lexeme, Params: params, Body: body, Line: kw.Line, Col: kw.Col}, nil
}

func (p *parser) returnStmt() (Stmt, error) {
	kw := p.peek()
	p.i++
	node := &Return{Line: kw.Line, Col: kw.Col}
	switch p.peek().Type {
	case NEWLINE, DEDENT, EOF:
		return node, nil
	}
	val, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	node.Value = val
	return node, nil
}

// ───────────────────────────── expressions ──────────────────────────────────

// expr is the precedence-climbing core. minBP is exclusive: an infix operator
// is consumed only while its binding power is strictly greater, which makes
// every level left-associative.
func (p *parser) expr(minBP int) (Expr, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for {
		bp, op, ok := lbp(p.peek())
		if !ok || bp <= minBP {
			return left, nil
		}
		opTok := p.peek()
		p.i++
		right, err := p.expr(bp)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, LHS: left, RHS: right, Line: opTok.Line, Col: opTok.Col}
	}
}

func (p *parser) prefix() (Expr, error) {
	t := p.peek()
	switch t.Type {
	case INTEGER:
		p.i++
		return &IntLit{Value: t.Literal.(int64), Line: t.Line, Col: t.Col}, nil
	case NUMBER:
		p.i++
		return &FloatLit{Value: t.Literal.(float64), Line: t.Line, Col: t.Col}, nil
	case STRING:
		p.i++
		return &StrLit{Value: t.Literal.(string), Line: t.Line, Col: t.Col}, nil
	case MINUS:
		p.i++
		operand, err := p.expr(unaryBP)
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "-", Operand: operand, Line: t.Line, Col: t.Col}, nil
	case LROUND:
		p.i++
		inner, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RROUND, "expected ')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case ID:
		switch t.Lexeme {
		case "true", "false":
			p.i++
			return &BoolLit{Value: t.Lexeme == "true", Line: t.Line, Col: t.Col}, nil
		case "not":
			p.i++
			operand, err := p.expr(unaryBP)
			if err != nil {
				return nil, err
			}
			return &Unary{Op: "not", Operand: operand, Line: t.Line, Col: t.Col}, nil
		}
		p.i++
		if p.peek().Type == LROUND {
			return p.callArgs(t)
		}
		return &Ident{Name: t.Lexeme, Line: t.Line, Col: t.Col}, nil
	}
	return nil, p.errAt(t, "expected expression")
}

// callArgs parses '(' [expr (',' expr)*] ')' after a callee name.
func (p *parser) callArgs(callee Token) (Expr, error) {
	p.i++ // '('
	node := &Call{Name: callee.Lexeme, Line: callee.Line, Col: callee.Col}
	if p.peek().Type != RROUND {
		for {
			arg, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			node.Args = append(node.Args, arg)
			if !p.match(COMMA) {
				break
			}
		}
	}
	if _, err := p.need(RROUND, "expected ')' after arguments"); err != nil {
		return nil, err
	}
	return node, nil
}
