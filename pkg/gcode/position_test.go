package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func feed(t *Tracker, lines ...string) {
	for _, l := range lines {
		t.Update(Parse(l))
	}
}

func TestTrackerCarriesForward(t *testing.T) {
	tr := NewTracker()
	feed(tr, "G1 X10 Y20 Z0.2 E1")
	assert.Equal(t, Position{10, 20, 0.2, 1}, tr.Current())

	assert.True(t, tr.Update(Parse("G1 X15 E2")))
	assert.Equal(t, Position{15, 20, 0.2, 2}, tr.Current())
	assert.Equal(t, Position{10, 20, 0.2, 1}, tr.Previous())
}

func TestTrackerIgnoresNonMoves(t *testing.T) {
	tr := NewTracker()
	feed(tr, "G1 X1 Y1")
	assert.False(t, tr.Update(Parse("M117 X50")))
	assert.False(t, tr.Update(Parse(";G1 X50")))
	assert.Equal(t, Position{X: 1, Y: 1}, tr.Current())
}

func TestTrackerMalformedAxis(t *testing.T) {
	tr := NewTracker()
	feed(tr, "G1 X1 Y1", "G1 X.5 Y2")
	assert.Equal(t, Position{X: 1, Y: 2}, tr.Current())
}

func TestTrackerRelativeModes(t *testing.T) {
	tr := NewTracker()
	feed(tr, "G1 X10 Y10 E5", "G91", "G1 X1 Y-2 E0.5")
	assert.Equal(t, Position{X: 11, Y: 8, E: 5.5}, tr.Current())

	feed(tr, "G90", "M83", "G1 X0 E0.5")
	assert.Equal(t, Position{X: 0, Y: 8, E: 6}, tr.Current())

	feed(tr, "M82", "G1 E1")
	assert.Equal(t, 1.0, tr.Current().E)
}

func TestTrackerSetPosition(t *testing.T) {
	tr := NewTracker()
	feed(tr, "G1 X10 E20", "G92 E0")
	assert.Equal(t, Position{X: 10}, tr.Current())
	assert.Equal(t, tr.Current(), tr.Previous())

	feed(tr, "G92 X0 Y0", "G91", "G1 X2 Y3")
	assert.Equal(t, Position{X: 2, Y: 3}, tr.Current())
}

func TestArcUpdatesEndpoint(t *testing.T) {
	tr := NewTracker()
	feed(tr, "G1 X0 Y0", "G2 X10 Y10 I5 J5")
	assert.Equal(t, Position{X: 10, Y: 10}, tr.Current())
}
