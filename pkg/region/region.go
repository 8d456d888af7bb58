// Package region runs the region state machines that decide where
// velocity-limit directives go.
//
// Every annotator has the same shape: it may index the whole program
// first, then sees each line in order and may emit directives ahead of
// it, and finally closes whatever region is still open at end of input.
// Strategy captures that shape; Corner, Curve and TopSurface are its
// three instances.
package region

import (
	"klipper-postproc/pkg/directive"
	"klipper-postproc/pkg/gcode"
)

// Strategy is one region state machine.
type Strategy interface {
	// Name identifies the strategy in logs and results.
	Name() string
	// Begin resets per-run state and returns the emitter for this run.
	// lines is the whole program; streaming strategies ignore it.
	Begin(lines []gcode.Line) *directive.Emitter
	// Step handles one line. Directives it applies precede the line.
	Step(l gcode.Line, e *directive.Emitter)
	// Finish closes a region left open at end of input.
	Finish(e *directive.Emitter)
}

// Count is the number of directives one strategy wrote.
type Count struct {
	Strategy   string
	Directives int
}

// Result is the annotated program.
type Result struct {
	Lines  []string
	Counts []Count
}

// Directives returns the total number of directives written.
func (r Result) Directives() int {
	n := 0
	for _, c := range r.Counts {
		n += c.Directives
	}
	return n
}

// ParseAll parses every raw line.
func ParseAll(raw []string) []gcode.Line {
	lines := make([]gcode.Line, len(raw))
	for i, r := range raw {
		lines[i] = gcode.Parse(r)
	}
	return lines
}

// Annotate runs one strategy over a program.
func Annotate(raw []string, s Strategy) Result {
	lines := ParseAll(raw)
	e := s.Begin(lines)
	for _, l := range lines {
		s.Step(l, e)
		e.Pass(l.Raw)
		if r, ok := directive.Parse(l.Code); ok {
			e.Observe(r)
		}
	}
	s.Finish(e)
	return Result{
		Lines:  e.Lines(),
		Counts: []Count{{Strategy: s.Name(), Directives: e.Count()}},
	}
}

// Chain runs strategies one after another, each over the previous output.
// A later strategy sees the directives of earlier ones as part of its
// input: it never boosts over a reduced acceleration and restores
// whatever limits were in force when it took over.
func Chain(raw []string, strategies ...Strategy) Result {
	res := Result{Lines: raw}
	for _, s := range strategies {
		r := Annotate(res.Lines, s)
		res.Lines = r.Lines
		res.Counts = append(res.Counts, r.Counts...)
	}
	return res
}
