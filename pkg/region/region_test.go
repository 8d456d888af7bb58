package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChainNearTopWallStaysReduced(t *testing.T) {
	in := program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
;LAYER:0
;TYPE:Outer wall
G1 X0 Y0
G1 X10 Y0
G1 X10 Y10
G2 X20 Y20 I5 J5
;TYPE:Top Surface
G1 X0 Y0
`)
	top := newTestTop(0)
	top.cfg.Markers.Wall = " wall"

	res := Chain(in, top, newTestCorner(t), newTestCurve())
	assert.Equal(t, program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
;LAYER:0
SET_VELOCITY_LIMIT ACCEL=500
;TYPE:Outer wall
G1 X0 Y0
G1 X10 Y0
SET_VELOCITY_LIMIT square_corner_velocity=100 ; ~90° corner
G1 X10 Y10
G2 X20 Y20 I5 J5
SET_VELOCITY_LIMIT ACCEL=3000
SET_VELOCITY_LIMIT square_corner_velocity=10 ; reset SCV
;TYPE:Top Surface
G1 X0 Y0
`), res.Lines)
	assert.Equal(t, []Count{
		{Strategy: "topsurface", Directives: 2},
		{Strategy: "corner", Directives: 2},
		{Strategy: "curve", Directives: 0},
	}, res.Counts)
	assert.Equal(t, 4, res.Directives())
}

func TestChainCurveRestoresCornerVelocity(t *testing.T) {
	in := program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
;TYPE:Outer wall
G1 X0 Y0
G1 X10 Y0
G1 X10 Y10
G2 X20 Y20 I5 J5
;TYPE:Internal infill
G1 X0 Y0
`)
	res := Chain(in, newTestTop(0), newTestCorner(t), newTestCurve())
	assert.Equal(t, program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
;TYPE:Outer wall
G1 X0 Y0
G1 X10 Y0
SET_VELOCITY_LIMIT square_corner_velocity=100 ; ~90° corner
G1 X10 Y10
SET_VELOCITY_LIMIT ACCEL=4000 SQUARE_CORNER_VELOCITY=10 ; post-curve-boost
G2 X20 Y20 I5 J5
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=100 ; reset after curve
SET_VELOCITY_LIMIT square_corner_velocity=10 ; reset SCV
;TYPE:Internal infill
G1 X0 Y0
`), res.Lines)
	assert.Equal(t, 4, res.Directives())
}

func TestChainNoStrategies(t *testing.T) {
	in := program("G1 X1 Y1\n")
	res := Chain(in)
	assert.Equal(t, in, res.Lines)
	assert.Zero(t, res.Directives())
}

func TestAnnotateEmpty(t *testing.T) {
	res := Annotate(nil, newTestCorner(t))
	assert.Empty(t, res.Lines)
	assert.Zero(t, res.Directives())
}
