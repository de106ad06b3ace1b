// events.go — named-program registry and host-facing global seeding.
//
// The host (the document/layout side of storier) parses script blocks, hangs
// each one on a logical event name, and triggers them by name — typically
// once per rendered frame. All triggers execute against the interpreter's
// single persistent Global environment, so state written by one trigger is
// visible to the next unless a var/let re-executes and overwrites it.
//
// Triggers are expected to be issued serially by the host; there is no
// reentrancy protection. A native that triggers another event nests evaluator
// calls on the same Global, which is shared, mutable and unsynchronized.
package storier

// RegisterEvent stores (or overwrites) the program under the event name.
func (ip *Interp) RegisterEvent(name string, p *Program) {
	ip.events[name] = p
}

// RegisterEventSource parses src and registers the result. The parse error,
// if any, is returned and nothing is registered.
func (ip *Interp) RegisterEventSource(name, src string) error {
	prog, err := Parse(src)
	if err != nil {
		return err
	}
	ip.RegisterEvent(name, prog)
	return nil
}

// HasEvent reports whether an event program is registered under name.
func (ip *Interp) HasEvent(name string) bool {
	_, ok := ip.events[name]
	return ok
}

// TriggerEvent executes the named program against the Global environment,
// discarding any resulting value. Triggering an unregistered name is a
// silent no-op. The first error aborts the trigger and is returned; the
// registry and Global keep whatever state the program wrote before failing.
func (ip *Interp) TriggerEvent(name string) error {
	prog, ok := ip.events[name]
	if !ok {
		return nil
	}
	_, err := ip.ExecProgram(prog, ip.Global)
	return err
}

// ----- host globals -----
//
// Well-known values the host refreshes between triggers (per-frame delta
// time, viewport size, frame counter, ...) appear to scripts as ordinary
// identifiers.

// SetGlobalInt binds an int value in the Global frame.
func (ip *Interp) SetGlobalInt(name string, v int64) { ip.Global.Define(name, Int(v)) }

// SetGlobalNum binds a float value in the Global frame.
func (ip *Interp) SetGlobalNum(name string, v float64) { ip.Global.Define(name, Num(v)) }

// SetGlobalStr binds a string value in the Global frame.
func (ip *Interp) SetGlobalStr(name string, v string) { ip.Global.Define(name, Str(v)) }

// SetGlobalBool binds a bool value in the Global frame.
func (ip *Interp) SetGlobalBool(name string, v bool) { ip.Global.Define(name, Bool(v)) }
