package directive

// Emitter builds the annotated output for one state machine.
//
// It keeps two regimes apart: the one its state machine last asked for
// and the one the firmware is actually running (Firmware).
// Directives already in the input, written by the slicer or by an
// earlier pass, move the firmware state through Observe. A directive is
// written only when the firmware does not already run the requested
// limits, so a strategy that re-applies its regime after an outside
// write restores it.
type Emitter struct {
	format  Formatter
	base    Regime
	hasBase bool
	active  Regime
	fw      Regime
	out     []string
	count   int
}

// NewEmitter returns an emitter with no base regime. Until SetBase is
// called Reset is a no-op.
func NewEmitter(f Formatter) *Emitter {
	return &Emitter{format: f}
}

// NewEmitterWithBase returns an emitter whose base regime is already known
// and active.
func NewEmitterWithBase(f Formatter, base Regime) *Emitter {
	e := NewEmitter(f)
	e.SetBase(base)
	return e
}

// SetBase records the regime to restore to. The first call wins; later
// calls return false and change nothing. The base also becomes the
// active regime, since the line that declared it set the firmware to it.
func (e *Emitter) SetBase(r Regime) bool {
	if e.hasBase {
		return false
	}
	e.base = r
	e.active = r
	e.fw = e.fw.Merge(r)
	e.hasBase = true
	return true
}

// Base returns the base regime and whether one is known.
func (e *Emitter) Base() (Regime, bool) { return e.base, e.hasBase }

// Firmware returns the limits the firmware is running at this point of
// the output. Limits nothing has set yet are absent from its Set mask.
func (e *Emitter) Firmware() Regime { return e.fw }

// Engaged reports whether a non-base regime is active.
func (e *Emitter) Engaged() bool {
	return e.hasBase && e.active != e.base
}

// Apply switches to target, writing a directive only if the firmware is
// not already running it. It reports whether a directive was written.
func (e *Emitter) Apply(target Regime, note string) bool {
	e.active = target
	if e.fw.Covers(target) {
		return false
	}
	e.out = append(e.out, e.format.Format(target, note))
	e.fw = e.fw.Merge(target)
	e.count++
	return true
}

// Reset restores the base regime if another one is active.
func (e *Emitter) Reset(note string) bool {
	if !e.Engaged() {
		return false
	}
	return e.Apply(e.base, note)
}

// Observe records a directive that was already in the input.
func (e *Emitter) Observe(r Regime) {
	e.fw = e.fw.Merge(r)
}

// Pass copies an input line to the output unchanged.
func (e *Emitter) Pass(line string) {
	e.out = append(e.out, line)
}

// Lines returns the output built so far.
func (e *Emitter) Lines() []string { return e.out }

// Count returns the number of directives written.
func (e *Emitter) Count() int { return e.count }
