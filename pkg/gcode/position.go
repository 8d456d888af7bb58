package gcode

import "fmt"

// Position is the tracked machine position. Axes a move does not mention
// keep their previous value.
type Position struct {
	X, Y, Z, E float64
}

// Get returns the coordinate of one axis.
func (p Position) Get(a Axis) float64 {
	switch a {
	case X:
		return p.X
	case Y:
		return p.Y
	case Z:
		return p.Z
	case E:
		return p.E
	}
	return 0
}

func (p *Position) set(a Axis, v float64) {
	switch a {
	case X:
		p.X = v
	case Y:
		p.Y = v
	case Z:
		p.Z = v
	case E:
		p.E = v
	}
}

func (p Position) String() string {
	return fmt.Sprintf("X%.3f Y%.3f Z%.3f E%.5f", p.X, p.Y, p.Z, p.E)
}

// Tracker follows the toolhead through a program line by line.
//
// G90/G91 switch between absolute and relative coordinates and M82/M83
// do the same for E alone. As in Klipper, E is relative whenever either
// G91 or M83 is in effect.
// G92 re-bases the axes it names without moving.
type Tracker struct {
	cur, prev  Position
	absCoords  bool
	absExtrude bool
}

// NewTracker returns a tracker at the origin in absolute mode.
func NewTracker() *Tracker {
	return &Tracker{absCoords: true, absExtrude: true}
}

// Update applies one line. It returns true if the line was a move, in
// which case Previous is the position before it and Current after it.
func (t *Tracker) Update(l Line) bool {
	switch l.Command {
	case "G90":
		t.absCoords = true
		return false
	case "G91":
		t.absCoords = false
		return false
	case "M82":
		t.absExtrude = true
		return false
	case "M83":
		t.absExtrude = false
		return false
	case "G92":
		for _, a := range []Axis{X, Y, Z, E} {
			if v, ok := l.Axis(a); ok {
				t.cur.set(a, v)
			}
		}
		t.prev = t.cur
		return false
	}
	if !l.IsMotion() {
		return false
	}
	t.prev = t.cur
	for _, a := range []Axis{X, Y, Z, E} {
		v, ok := l.Axis(a)
		if !ok {
			continue
		}
		abs := t.absCoords
		if a == E {
			abs = t.absCoords && t.absExtrude
		}
		if abs {
			t.cur.set(a, v)
		} else {
			t.cur.set(a, t.cur.Get(a)+v)
		}
	}
	return true
}

// Current returns the position after the last applied line.
func (t *Tracker) Current() Position { return t.cur }

// Previous returns the position before the last move.
func (t *Tracker) Previous() Position { return t.prev }

