// errors_test.go
package storier

import (
	"errors"
	"strings"
	"testing"
)

func Test_Errors_WrapParseError_SnippetAndCaret(t *testing.T) {
	src := "var x = 1\nvar = 3\nvar y = 2\n"
	_, err := Parse(src)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	out := WrapErrorWithSource(err, src).Error()

	if !strings.Contains(out, "PARSE ERROR at 2:5") {
		t.Fatalf("header missing or misplaced:\n%s", out)
	}
	for _, want := range []string{
		"   1 | var x = 1",
		"   2 | var = 3",
		"   3 | var y = 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing context line %q in:\n%s", want, out)
		}
	}
	// Caret under the '=' in line 2 (column 5): 4 spaces of padding.
	if !strings.Contains(out, "     |     ^") {
		t.Fatalf("caret misplaced in:\n%s", out)
	}
}

func Test_Errors_WrapWithName_IncludesLabel(t *testing.T) {
	src := "x = \"oops\n"
	_, err := NewLexer(src).Scan()
	if err == nil {
		t.Fatalf("expected lex error")
	}
	out := WrapErrorWithName(err, "intro.str", src).Error()
	if !strings.Contains(out, "LEXICAL ERROR in intro.str at ") {
		t.Fatalf("label missing in:\n%s", out)
	}
}

func Test_Errors_WrapRuntimeError(t *testing.T) {
	src := "var a = 1\nmissing\n"
	_, err := NewInterp().EvalSource(src)
	if err == nil {
		t.Fatalf("expected runtime error")
	}
	out := WrapErrorWithSource(err, src).Error()
	if !strings.Contains(out, "RUNTIME ERROR at 2:1") {
		t.Fatalf("header missing in:\n%s", out)
	}
	if !strings.Contains(out, "   2 | missing") {
		t.Fatalf("offending line missing in:\n%s", out)
	}
}

func Test_Errors_WrapForeignError_PassesThrough(t *testing.T) {
	plain := errors.New("not ours")
	if got := WrapErrorWithSource(plain, "x = 1\n"); got != plain {
		t.Fatalf("foreign errors must pass through unchanged, got %v", got)
	}
}

func Test_Errors_CaretClampedToLine(t *testing.T) {
	// A position past the end of its line must not panic the renderer.
	err := &RuntimeError{Line: 1, Col: 80, Msg: "boom"}
	out := WrapErrorWithSource(err, "short\n").Error()
	if !strings.Contains(out, "^") {
		t.Fatalf("caret missing in:\n%s", out)
	}
}

func Test_Errors_PositionRendering_OneBasedColumns(t *testing.T) {
	le := &LexError{Line: 3, Col: 0, Msg: "m"}
	if !strings.Contains(le.Error(), "at 3:1") {
		t.Fatalf("LexError renders %q", le.Error())
	}
	pe := &ParseError{Line: 2, Col: 4, Msg: "m"}
	if !strings.Contains(pe.Error(), "at 2:5") {
		t.Fatalf("ParseError renders %q", pe.Error())
	}
	re := &RuntimeError{Line: 1, Col: 9, Msg: "m"}
	if !strings.Contains(re.Error(), "at 1:10") {
		t.Fatalf("RuntimeError renders %q", re.Error())
	}
}
