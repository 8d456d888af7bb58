package region

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCornerRaisesAndRestores(t *testing.T) {
	in := program(`
;TYPE:Outer wall
G1 X0 Y0
G1 X10 Y0
G1 X10 Y10
G1 X0 Y10
G1 X10 Y10
;TYPE:Inner wall
G1 X5 Y5
`)
	res := Annotate(in, newTestCorner(t))
	assert.Equal(t, program(`
;TYPE:Outer wall
G1 X0 Y0
G1 X10 Y0
SET_VELOCITY_LIMIT square_corner_velocity=100 ; ~90° corner
G1 X10 Y10
G1 X0 Y10
SET_VELOCITY_LIMIT square_corner_velocity=10 ; ~180° corner
G1 X10 Y10
;TYPE:Inner wall
G1 X5 Y5
`), res.Lines)
	assert.Equal(t, 2, res.Directives())
}

func TestCornerResetOnRegionExit(t *testing.T) {
	in := program(`
;TYPE:Outer wall
G1 X0 Y0
G1 X10 Y0
G1 X10 Y10
;TYPE:Solid infill
G1 X0 Y0
`)
	res := Annotate(in, newTestCorner(t))
	assert.Equal(t, program(`
;TYPE:Outer wall
G1 X0 Y0
G1 X10 Y0
SET_VELOCITY_LIMIT square_corner_velocity=100 ; ~90° corner
G1 X10 Y10
SET_VELOCITY_LIMIT square_corner_velocity=10 ; reset SCV
;TYPE:Solid infill
G1 X0 Y0
`), res.Lines)
}

func TestCornerFinalReset(t *testing.T) {
	in := program(`
;TYPE:Outer wall
G1 X0 Y0
G1 X10 Y0
G1 X0 Y10
`)
	res := Annotate(in, newTestCorner(t))
	require.Len(t, res.Lines, 6)
	assert.Equal(t, "SET_VELOCITY_LIMIT square_corner_velocity=200 ; ~135° corner", res.Lines[3])
	assert.Equal(t, "SET_VELOCITY_LIMIT square_corner_velocity=10 ; final reset", res.Lines[5])
}

func TestCornerNoResetWhenDefault(t *testing.T) {
	in := program(`
;TYPE:Outer wall
G1 X0 Y0
G1 X10 Y0
G1 X20 Y0
`)
	res := Annotate(in, newTestCorner(t))
	assert.Equal(t, in, res.Lines)
	assert.Zero(t, res.Directives())
}

func TestCornerHistoryDoesNotCrossRegions(t *testing.T) {
	in := program(`
;TYPE:Outer wall
G1 X0 Y0
G1 X10 Y0
;TYPE:Inner wall
G1 X10 Y10
;TYPE:Outer wall
G1 X10 Y20
G1 X20 Y20
`)
	res := Annotate(in, newTestCorner(t))
	assert.Equal(t, in, res.Lines)
}

func TestCornerIgnoresOtherLines(t *testing.T) {
	in := program(`
;TYPE:Outer wall
G1 X0 Y0
G1 X10 Y0
G1 X10
G1 E-0.8
G0 X10 Y10
G10
G1 X20 Y0 ; continue
`)
	res := Annotate(in, newTestCorner(t))
	assert.Equal(t, in, res.Lines)
}

func TestCornerOutsideWallUntouched(t *testing.T) {
	in := program(`
;TYPE:Inner wall
G1 X0 Y0
G1 X10 Y0
G1 X10 Y10
`)
	assert.Equal(t, in, Annotate(in, newTestCorner(t)).Lines)
}

func TestCornerDeterministic(t *testing.T) {
	in := randomWalls(rand.New(rand.NewSource(7)), 400)
	c := newTestCorner(t)
	first := Annotate(in, c)
	second := Annotate(in, c)
	assert.Equal(t, first.Lines, second.Lines)
}

func TestCornerNoRedundantDirectives(t *testing.T) {
	in := randomWalls(rand.New(rand.NewSource(42)), 2000)
	res := Annotate(in, newTestCorner(t))
	ds := directives(res.Lines)
	require.NotEmpty(t, ds)
	for i := 1; i < len(ds); i++ {
		assert.NotEqual(t, ds[i-1], ds[i], "directive %d repeats the previous one", i)
	}
}

func TestCornerSingleClosingDirective(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		in := randomWalls(rand.New(rand.NewSource(seed)), 100)
		// Leave the program inside an outer wall.
		in = append(in, ";TYPE:Outer wall", "G1 X0 Y0", "G1 X10 Y0", "G1 X10 Y10")
		res := Annotate(in, newTestCorner(t))
		last := res.Lines[len(res.Lines)-1]
		assert.Equal(t, "SET_VELOCITY_LIMIT square_corner_velocity=10 ; final reset", last)
		assert.Equal(t, "G1 X10 Y10", res.Lines[len(res.Lines)-2])
	}
}

// randomWalls builds a program of rectilinear and diagonal moves split
// into outer and inner wall regions.
func randomWalls(r *rand.Rand, n int) []string {
	var sb strings.Builder
	x, y := 0, 0
	dirs := [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	for i := 0; i < n; i++ {
		if i%25 == 0 {
			if r.Intn(3) == 0 {
				sb.WriteString(";TYPE:Inner wall\n")
			} else {
				sb.WriteString(";TYPE:Outer wall\n")
			}
		}
		d := dirs[r.Intn(len(dirs))]
		step := 1 + r.Intn(5)
		x += d[0] * step
		y += d[1] * step
		fmt.Fprintf(&sb, "G1 X%d Y%d E%.3f\n", x, y, float64(i)*0.01)
	}
	return program(sb.String())
}
