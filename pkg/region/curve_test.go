package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const curveBaseline = "SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5"

func TestCurveBoostAtBreak(t *testing.T) {
	in := program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
G0 X0 Y0
G1 X10 Y0
G1 X20 Y0.5
G1 X30 Y1.5
G1 X40 Y3
G1 X50 Y5
G1 X50 Y15
G1 X40 Y15
`)
	res := Annotate(in, newTestCurve())
	assert.Equal(t, program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
G0 X0 Y0
G1 X10 Y0
G1 X20 Y0.5
G1 X30 Y1.5
G1 X40 Y3
G1 X50 Y5
SET_VELOCITY_LIMIT ACCEL=4000 SQUARE_CORNER_VELOCITY=10 ; post-curve-boost
G1 X50 Y15
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5 ; reset after curve
G1 X40 Y15
`), res.Lines)
	assert.Equal(t, 2, res.Directives())
}

func TestCurveShortRunNotBoosted(t *testing.T) {
	in := program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
G0 X0 Y0
G1 X10 Y0
G1 X20 Y0.5
G1 X30 Y1.5
G1 X30 Y11.5
`)
	res := Annotate(in, newTestCurve())
	assert.Equal(t, in, res.Lines)
}

func TestCurveFinalReset(t *testing.T) {
	in := program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
G0 X0 Y0
G1 X10 Y0
G1 X20 Y0.5
G1 X30 Y1.5
G1 X40 Y3
G1 X40 Y13
`)
	res := Annotate(in, newTestCurve())
	last := res.Lines[len(res.Lines)-1]
	assert.Equal(t, "SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5 ; final reset after curve", last)
	assert.Equal(t, 2, res.Directives())
}

func TestCurveArcBoostAndRestore(t *testing.T) {
	in := program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
G1 X0 Y0
G2 X10 Y10 I5 J5
G3 X20 Y0 I5 J-5

G1 X25 Y0
M106 S255
`)
	res := Annotate(in, newTestCurve())
	assert.Equal(t, program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
G1 X0 Y0
SET_VELOCITY_LIMIT ACCEL=4000 SQUARE_CORNER_VELOCITY=10 ; post-curve-boost
G2 X10 Y10 I5 J5
G3 X20 Y0 I5 J-5

G1 X25 Y0
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5 ; reset after curve
M106 S255
`), res.Lines)
}

func TestCurveNoBaselineNoDirectives(t *testing.T) {
	in := program(`
SET_VELOCITY_LIMIT ACCEL=2000 SQUARE_CORNER_VELOCITY=2 ; commented, not a baseline
SET_VELOCITY_LIMIT ACCEL=2000
G1 X0 Y0
G2 X10 Y10 I5 J5
G1 X10 Y20
G1 X10 Y30
G1 X10.1 Y40
G1 X10.3 Y50
G1 X20 Y50
`)
	res := Annotate(in, newTestCurve())
	assert.Equal(t, in, res.Lines)
	assert.Zero(t, res.Directives())
}

func TestCurveFirstBaselineWins(t *testing.T) {
	// The second full directive is not a baseline. It lowers ACCEL below
	// the first one, so the arc runs under a reduced regime.
	in := program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
SET_VELOCITY_LIMIT ACCEL=1000 SQUARE_CORNER_VELOCITY=1
G2 X10 Y10 I5 J5
M400
`)
	res := Annotate(in, newTestCurve())
	assert.Equal(t, in, res.Lines)
}

func TestCurveRestoresFirmwareState(t *testing.T) {
	in := program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
SET_VELOCITY_LIMIT ACCEL=3500 SQUARE_CORNER_VELOCITY=8
G2 X10 Y10 I5 J5
M400
`)
	res := Annotate(in, newTestCurve())
	assert.Equal(t, []string{
		"SET_VELOCITY_LIMIT ACCEL=4000 SQUARE_CORNER_VELOCITY=10",
		"SET_VELOCITY_LIMIT ACCEL=3500 SQUARE_CORNER_VELOCITY=8",
	}, directives(res.Lines)[2:])
}

func TestCurveHoldsOffUnderReducedAccel(t *testing.T) {
	in := program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
SET_VELOCITY_LIMIT ACCEL=500
G2 X10 Y10 I5 J5
SET_VELOCITY_LIMIT ACCEL=3000
G2 X20 Y20 I5 J5
M400
`)
	res := Annotate(in, newTestCurve())
	assert.Equal(t, program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
SET_VELOCITY_LIMIT ACCEL=500
G2 X10 Y10 I5 J5
SET_VELOCITY_LIMIT ACCEL=3000
SET_VELOCITY_LIMIT ACCEL=4000 SQUARE_CORNER_VELOCITY=10 ; post-curve-boost
G2 X20 Y20 I5 J5
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5 ; reset after curve
M400
`), res.Lines)
}

func TestCurveTravelEndsBoost(t *testing.T) {
	in := program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
G1 X0 Y0
G2 X10 Y10 I5 J5
G0 X50 Y50
G1 X60 Y50
`)
	res := Annotate(in, newTestCurve())
	assert.Equal(t, program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
G1 X0 Y0
SET_VELOCITY_LIMIT ACCEL=4000 SQUARE_CORNER_VELOCITY=10 ; post-curve-boost
G2 X10 Y10 I5 J5
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5 ; reset after curve
G0 X50 Y50
G1 X60 Y50
`), res.Lines)
}

func TestCurveShortSegmentsIgnored(t *testing.T) {
	// Segments at or below the minimum length are never classified, so
	// the zig-zag adds nothing to a run.
	in := program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
G0 X0 Y0
G1 X10 Y0
G1 X10.1 Y0.1
G1 X10 Y0.2
G1 X20 Y0.2
`)
	res := Annotate(in, newTestCurve())
	assert.Equal(t, in, res.Lines)
}

func TestCurveNonXYResetsDirection(t *testing.T) {
	// Without the reset the Z hop would leave a stale direction and the
	// 90 degree turn after it would count as a break of the 3-run.
	in := program(`
SET_VELOCITY_LIMIT ACCEL=3000 SQUARE_CORNER_VELOCITY=5
G0 X0 Y0
G1 X10 Y0
G1 X20 Y0.5
G1 X30 Y1.5
G1 X40 Y3
G1 Z0.6
G1 X40 Y13
`)
	res := Annotate(in, newTestCurve())
	assert.Equal(t, in, res.Lines)
}

func TestCurveBaselineCaseInsensitive(t *testing.T) {
	in := program(`
set_velocity_limit velocity=300 accel=2500 square_corner_velocity=6.5
G2 X10 Y10 I5 J5
M400
`)
	res := Annotate(in, newTestCurve())
	assert.Equal(t, []string{
		"SET_VELOCITY_LIMIT ACCEL=4000 SQUARE_CORNER_VELOCITY=10",
		"SET_VELOCITY_LIMIT ACCEL=2500 SQUARE_CORNER_VELOCITY=6.5",
	}, directives(res.Lines))
}

func TestCurveReusableAcrossRuns(t *testing.T) {
	in := program(curveBaseline + "\nG2 X1 Y1 I1 J0\n")
	c := newTestCurve()
	a := Annotate(in, c)
	b := Annotate(in, c)
	assert.Equal(t, a.Lines, b.Lines)
	assert.Equal(t, 2, b.Directives())
}
