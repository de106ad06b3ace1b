// events_test.go
package storier

import (
	"strings"
	"testing"
)

func mustRegister(t *testing.T, ip *Interp, name, src string) {
	t.Helper()
	if err := ip.RegisterEventSource(name, src); err != nil {
		t.Fatalf("RegisterEventSource(%q): %v", name, err)
	}
}

func mustTrigger(t *testing.T, ip *Interp, name string) {
	t.Helper()
	if err := ip.TriggerEvent(name); err != nil {
		t.Fatalf("TriggerEvent(%q): %v", name, err)
	}
}

func globalNum(t *testing.T, ip *Interp, name string) float64 {
	t.Helper()
	v, err := ip.Global.Get(name)
	if err != nil {
		t.Fatalf("global %q: %v", name, err)
	}
	f, ok := toNum(v)
	if !ok {
		t.Fatalf("global %q is not numeric: %#v", name, v)
	}
	return f
}

func Test_Events_TriggerRunsAgainstGlobal(t *testing.T) {
	ip := NewInterp()
	mustRegister(t, ip, "update", "score = 5\n")
	mustTrigger(t, ip, "update")
	if got := globalNum(t, ip, "score"); got != 5 {
		t.Fatalf("want score 5, got %g", got)
	}
}

func Test_Events_VarResetsOnEveryTrigger(t *testing.T) {
	// `var` re-executes on every trigger, so x restarts at 0 each time while
	// the assignment-created `count` shows the value from the latest run.
	ip := NewInterp()
	mustRegister(t, ip, "tick", "var x = 0\nx = x + 1\ncount = x\n")
	mustTrigger(t, ip, "tick")
	if got := globalNum(t, ip, "count"); got != 1 {
		t.Fatalf("after 1st trigger: want 1, got %g", got)
	}
	mustTrigger(t, ip, "tick")
	if got := globalNum(t, ip, "count"); got != 1 {
		t.Fatalf("after 2nd trigger: want 1 again (var reset), got %g", got)
	}
}

func Test_Events_StatePersistsAcrossTriggers(t *testing.T) {
	ip := NewInterp()
	ip.SetGlobalInt("hits", 0)
	mustRegister(t, ip, "hit", "hits = hits + 1\n")
	mustTrigger(t, ip, "hit")
	mustTrigger(t, ip, "hit")
	mustTrigger(t, ip, "hit")
	if got := globalNum(t, ip, "hits"); got != 3 {
		t.Fatalf("want 3 hits, got %g", got)
	}
}

func Test_Events_StateSharedBetweenEvents(t *testing.T) {
	ip := NewInterp()
	mustRegister(t, ip, "setup", "base = 100\n")
	mustRegister(t, ip, "apply", "result = base + 1\n")
	mustTrigger(t, ip, "setup")
	mustTrigger(t, ip, "apply")
	if got := globalNum(t, ip, "result"); got != 101 {
		t.Fatalf("want 101, got %g", got)
	}
}

func Test_Events_UnregisteredTrigger_IsNoOp(t *testing.T) {
	ip := NewInterp()
	if err := ip.TriggerEvent("nothing"); err != nil {
		t.Fatalf("unregistered trigger should be a no-op, got %v", err)
	}
	if ip.HasEvent("nothing") {
		t.Fatalf("HasEvent reports phantom event")
	}
}

func Test_Events_ReRegisterOverwrites(t *testing.T) {
	ip := NewInterp()
	mustRegister(t, ip, "e", "mode = 1\n")
	mustRegister(t, ip, "e", "mode = 2\n")
	mustTrigger(t, ip, "e")
	if got := globalNum(t, ip, "mode"); got != 2 {
		t.Fatalf("want the later registration to win, got %g", got)
	}
}

func Test_Events_RegisterSource_ParseErrorRegistersNothing(t *testing.T) {
	ip := NewInterp()
	err := ip.RegisterEventSource("bad", "var = 3\n")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("want *ParseError, got %T: %v", err, err)
	}
	if ip.HasEvent("bad") {
		t.Fatalf("failed registration must not register")
	}
}

func Test_Events_TriggerError_Propagates(t *testing.T) {
	ip := NewInterp()
	mustRegister(t, ip, "boom", "explode()\n")
	err := ip.TriggerEvent("boom")
	if err == nil {
		t.Fatalf("expected runtime error")
	}
	if !strings.Contains(err.Error(), "undefined function") {
		t.Fatalf("error %q should mention the missing function", err.Error())
	}
}

func Test_Events_TriggerError_KeepsEarlierWrites(t *testing.T) {
	ip := NewInterp()
	mustRegister(t, ip, "partial", "progress = 1\nexplode()\nprogress = 2\n")
	if err := ip.TriggerEvent("partial"); err == nil {
		t.Fatalf("expected runtime error")
	}
	if got := globalNum(t, ip, "progress"); got != 1 {
		t.Fatalf("writes before the failure should stick, got %g", got)
	}
}

func Test_Events_SetGlobals_VisibleToScripts(t *testing.T) {
	ip := NewInterp()
	dt := 0.016
	ip.SetGlobalInt("frame", 7)
	ip.SetGlobalNum("dt", dt)
	ip.SetGlobalStr("scene", "intro")
	ip.SetGlobalBool("paused", false)

	mustRegister(t, ip, "step", `elapsed = frame * dt
var r = ""
if paused:
    r = "paused"
else:
    r = scene
label = r
`)
	mustTrigger(t, ip, "step")
	if got, want := globalNum(t, ip, "elapsed"), 7*dt; got != want {
		t.Fatalf("want elapsed %g, got %g", want, got)
	}
	v, err := ip.Global.Get("label")
	if err != nil || v.Tag != VTStr || v.Data.(string) != "intro" {
		t.Fatalf("want label \"intro\", got %#v (%v)", v, err)
	}

	// Host refreshes between triggers; the script sees the new values.
	ip.SetGlobalInt("frame", 8)
	mustTrigger(t, ip, "step")
	if got, want := globalNum(t, ip, "elapsed"), 8*dt; got != want {
		t.Fatalf("want refreshed elapsed %g, got %g", want, got)
	}
}

func Test_Events_NativesCallableFromTriggers(t *testing.T) {
	ip := NewInterp()
	calls := 0
	ip.RegisterNative("emit", func(env *Env, args []Value) (Value, error) {
		calls++
		return Nil, nil
	})
	mustRegister(t, ip, "draw", "emit()\nemit()\n")
	mustTrigger(t, ip, "draw")
	if calls != 2 {
		t.Fatalf("want 2 native calls, got %d", calls)
	}
}

func Test_Events_ProcDefinedInOneTrigger_UsableInNext(t *testing.T) {
	ip := NewInterp()
	mustRegister(t, ip, "define", "proc double(n: int):\n    return n * 2\n")
	mustRegister(t, ip, "use", "answer = double(21)\n")
	mustTrigger(t, ip, "define")
	mustTrigger(t, ip, "use")
	if got := globalNum(t, ip, "answer"); got != 42 {
		t.Fatalf("want 42, got %g", got)
	}
}
