// lexer.go — indentation-sensitive scanner for storier scripts.
//
// The scanner turns a complete source string into a flat token stream.
// Indentation is significant: each logical (non-blank, non-comment) line is
// measured against an indent-width stack, and the scanner synthesizes INDENT
// and DEDENT tokens as the width grows and shrinks. Every logical line is
// terminated by exactly one NEWLINE token; blank lines and comment-only lines
// produce nothing.
//
// Keywords are NOT recognized here. `var`, `if`, `for`, `true`, `and` and the
// rest all come out as plain ID tokens; the parser disambiguates them by
// their literal text. This keeps the scanner small and lets identifiers and
// keywords share one code path.
package storier

import (
	"fmt"
	"strconv"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Layout
	NEWLINE // end of a logical line
	INDENT  // block opens (indent width pushed)
	DEDENT  // block closes (indent width popped)

	// Punctuation
	LROUND // "("
	RROUND // ")"
	COMMA  // ","
	COLON  // ":"

	// Operators
	PLUS
	MINUS
	MULT
	DIV
	MOD
	ASSIGN // "="
	EQ     // "=="
	NEQ    // "!="
	LESS
	LESS_EQ
	GREATER
	GREATER_EQ

	// Literals & identifiers
	ID
	STRING
	INTEGER
	NUMBER
)

// Token is a lexical token with optional literal value.
type Token struct {
	Type    TokenType
	Lexeme  string      // raw text slice
	Literal interface{} // parsed value for literals
	Line    int         // 1-based
	Col     int         // 0-based
}

// Lexer scans a storier source string into tokens.
type Lexer struct {
	src    string
	start  int // start index of current token
	cur    int // current index
	line   int // 1-based
	col    int // 0-based column within line
	tokens []Token

	indents []int // indent-width stack; always starts at [0]

	// precise token start position
	tokStartLine int
	tokStartCol  int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{
		src:     src,
		line:    1,
		col:     0,
		indents: []int{0},
	}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) addToken(tt TokenType, lit interface{}) Token {
	lex := l.src[l.start:l.cur]
	tok := Token{
		Type:    tt,
		Lexeme:  lex,
		Literal: lit,
		Line:    l.tokStartLine,
		Col:     l.tokStartCol,
	}
	l.tokens = append(l.tokens, tok)
	l.start = l.cur
	return tok
}

// addSynthetic emits a token with no lexeme at the current position
// (INDENT, DEDENT, NEWLINE at a comment or at EOF).
func (l *Lexer) addSynthetic(tt TokenType) Token {
	tok := Token{Type: tt, Line: l.line, Col: l.col}
	l.tokens = append(l.tokens, tok)
	return tok
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '_'
}

// ----- errors -----

// LexError is a fatal lexical error with a source position.
// Line is 1-based, Col is 0-based (the renderer in errors.go shifts it).
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("LEXICAL ERROR at %d:%d: %s", e.Line, e.Col+1, e.Msg)
}

func (l *Lexer) err(msg string) error {
	return &LexError{Line: l.line, Col: l.col, Msg: msg}
}

// ----- line layout -----

// skipSpaces eats spaces, tabs and carriage returns within a line.
func (l *Lexer) skipSpaces() {
	for {
		b, ok := l.peek()
		if !ok || (b != ' ' && b != '\t' && b != '\r') {
			return
		}
		l.advance()
	}
}

// skipToLineEnd eats everything up to (not including) the next '\n'.
func (l *Lexer) skipToLineEnd() {
	for {
		b, ok := l.peek()
		if !ok || b == '\n' {
			return
		}
		l.advance()
	}
}

// lineIsBlank reports whether the rest of the current line holds nothing but
// whitespace or a comment.
func (l *Lexer) lineIsBlank() bool {
	for n := 0; ; n++ {
		b, ok := l.peekN(n)
		if !ok || b == '\n' {
			return true
		}
		switch b {
		case ' ', '\t', '\r':
			continue
		case '#':
			return true
		default:
			return false
		}
	}
}

// beginLine measures the indentation of the upcoming logical line and emits
// INDENT/DEDENT tokens against the width stack. Blank and comment-only lines
// are consumed whole, without tokens. A dedent to a width that matches no
// stack entry is fatal.
func (l *Lexer) beginLine() error {
	for !l.isAtEnd() {
		l.skipSpaces()
		if l.lineIsBlank() {
			l.skipToLineEnd()
			l.advance() // consume '\n' (no-op at EOF)
			continue
		}
		width := l.col
		top := l.indents[len(l.indents)-1]
		switch {
		case width > top:
			l.indents = append(l.indents, width)
			l.addSynthetic(INDENT)
		case width < top:
			for width < l.indents[len(l.indents)-1] {
				l.indents = l.indents[:len(l.indents)-1]
				l.addSynthetic(DEDENT)
			}
			if width != l.indents[len(l.indents)-1] {
				return l.err(fmt.Sprintf("inconsistent indentation: width %d matches no open block", width))
			}
		}
		return nil
	}
	return nil
}

// ----- scanners -----

// scanString parses a quote-delimited string literal. No escape sequences:
// the bytes between the quotes are taken verbatim. Strings may not span
// lines.
func (l *Lexer) scanString(del byte) (string, error) {
	for {
		b, ok := l.peek()
		if !ok || b == '\n' {
			return "", l.err("string was not terminated")
		}
		l.advance()
		if b == del {
			return l.src[l.start+1 : l.cur-1], nil
		}
	}
}

// scanIdentifier parses [A-Za-z_][A-Za-z0-9_]*
func (l *Lexer) scanIdentifier() string {
	for {
		b, ok := l.peek()
		if !ok || !isAlphaNum(b) {
			break
		}
		l.advance()
	}
	return l.src[l.start:l.cur]
}

// scanNumber parses a decimal integer or, when a '.' is followed by a digit,
// a float with a fractional part.
func (l *Lexer) scanNumber() (TokenType, interface{}, error) {
	for {
		b, ok := l.peek()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
	}

	sawDot := false
	if b, ok := l.peek(); ok && b == '.' {
		if b2, ok2 := l.peekN(1); ok2 && isDigit(b2) {
			l.advance() // consume '.'
			sawDot = true
			for {
				b, ok := l.peek()
				if !ok || !isDigit(b) {
					break
				}
				l.advance()
			}
		}
	}

	lex := l.src[l.start:l.cur]
	if !sawDot {
		v, convErr := strconv.ParseInt(lex, 10, 64)
		if convErr != nil {
			return ILLEGAL, nil, l.err("invalid integer literal")
		}
		return INTEGER, v, nil
	}
	vf, convErr := strconv.ParseFloat(lex, 64)
	if convErr != nil {
		return ILLEGAL, nil, l.err("invalid float literal")
	}
	return NUMBER, vf, nil
}

// ----- main scanner -----

// scanToken scans one token within the current logical line. Leading
// whitespace must already be consumed. The bool result reports end-of-line.
func (l *Lexer) scanToken() (Token, bool, error) {
	l.tokStartLine = l.line
	l.tokStartCol = l.col
	l.start = l.cur

	b, ok := l.peek()
	if !ok {
		// Source ended without a trailing '\n': close the line anyway.
		return l.addSynthetic(NEWLINE), true, nil
	}
	if b == '#' {
		l.skipToLineEnd()
		tok := l.addSynthetic(NEWLINE)
		l.advance() // consume '\n'
		l.start = l.cur
		return tok, true, nil
	}
	if b == '\n' {
		tok := l.addSynthetic(NEWLINE)
		l.advance()
		l.start = l.cur
		return tok, true, nil
	}

	ch, _ := l.advance()

	switch ch {
	case '(':
		return l.addToken(LROUND, "("), false, nil
	case ')':
		return l.addToken(RROUND, ")"), false, nil
	case ',':
		return l.addToken(COMMA, ","), false, nil
	case ':':
		return l.addToken(COLON, ":"), false, nil
	case '+':
		return l.addToken(PLUS, "+"), false, nil
	case '-':
		return l.addToken(MINUS, "-"), false, nil
	case '*':
		return l.addToken(MULT, "*"), false, nil
	case '/':
		return l.addToken(DIV, "/"), false, nil
	case '%':
		return l.addToken(MOD, "%"), false, nil
	case '=':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(EQ, "=="), false, nil
		}
		return l.addToken(ASSIGN, "="), false, nil
	case '!':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(NEQ, "!="), false, nil
		}
		return Token{}, false, l.err("unexpected character: '!'")
	case '<':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(LESS_EQ, "<="), false, nil
		}
		return l.addToken(LESS, "<"), false, nil
	case '>':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(GREATER_EQ, ">="), false, nil
		}
		return l.addToken(GREATER, ">"), false, nil
	}

	if ch == '"' || ch == '\'' {
		text, err := l.scanString(ch)
		if err != nil {
			return Token{}, false, err
		}
		return l.addToken(STRING, text), false, nil
	}

	if isDigit(ch) {
		l.cur = l.start // rewind; scanNumber reads from the first digit
		l.col = l.tokStartCol
		tt, lit, err := l.scanNumber()
		if err != nil {
			return Token{}, false, err
		}
		return l.addToken(tt, lit), false, nil
	}

	if isAlpha(ch) {
		lex := l.scanIdentifier()
		return l.addToken(ID, lex), false, nil
	}

	return Token{}, false, l.err(fmt.Sprintf("unexpected character: %q", ch))
}

// Scan tokenizes the entire source and returns tokens (EOF included).
// Remaining open blocks are unwound with DEDENT tokens at end of input.
func (l *Lexer) Scan() ([]Token, error) {
	for {
		if err := l.beginLine(); err != nil {
			return nil, err
		}
		if l.isAtEnd() {
			break
		}
		for {
			l.skipSpaces()
			_, eol, err := l.scanToken()
			if err != nil {
				return nil, err
			}
			if eol {
				break
			}
		}
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.addSynthetic(DEDENT)
	}
	l.addSynthetic(EOF)
	return l.tokens, nil
}
