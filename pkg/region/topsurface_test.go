package region

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"klipper-postproc/pkg/gcode"
)

func TestBuildLayerIndex(t *testing.T) {
	in := program(`
;TYPE:Top Surface
;LAYER:0
;LAYER:1
;LAYER:2
;LAYER:3
;TYPE:Top Surface
;LAYER:4
;LAYER:5
;TYPE:Top Surface
;LAYER:x
`)
	idx := BuildLayerIndex(ParseAll(in), gcode.DefaultMarkers(), 2)
	for _, n := range []int{1, 2, 3, 4, 5} {
		assert.True(t, idx.Near(n), "layer %d", n)
	}
	assert.False(t, idx.Near(0))
	assert.False(t, idx.Near(6))
	assert.False(t, idx.Near(-1))
	assert.True(t, idx.Near(4), "layer 5 top surface covers two layers below")
}

func TestTopSurfaceWalls(t *testing.T) {
	in := program(`
;LAYER:0
;TYPE:Wall-Outer
G1 X1 Y1
;TYPE:Fill
;LAYER:1
;TYPE:Wall-Outer
G1 X1 Y1
;TYPE:Wall-Inner
G1 X2 Y2
;TYPE:Fill
;LAYER:2
;TYPE:Top Surface
G1 X3 Y3
;TYPE:Wall-Outer
G1 X4 Y4
`)
	res := Annotate(in, newTestTop(1))
	assert.Equal(t, program(`
;LAYER:0
;TYPE:Wall-Outer
G1 X1 Y1
;TYPE:Fill
;LAYER:1
SET_VELOCITY_LIMIT ACCEL=500
;TYPE:Wall-Outer
G1 X1 Y1
;TYPE:Wall-Inner
G1 X2 Y2
SET_VELOCITY_LIMIT ACCEL=3000
;TYPE:Fill
;LAYER:2
;TYPE:Top Surface
G1 X3 Y3
SET_VELOCITY_LIMIT ACCEL=500
;TYPE:Wall-Outer
G1 X4 Y4
SET_VELOCITY_LIMIT ACCEL=3000
`), res.Lines)
}

func TestTopSurfaceLayerChangeClosesWall(t *testing.T) {
	in := program(`
;LAYER:1
;TYPE:Wall-Outer
G1 X1 Y1
;LAYER:2
;TYPE:Wall-Outer
G1 X2 Y2
;LAYER:3
;TYPE:Top Surface
`)
	res := Annotate(in, newTestTop(1))
	assert.Equal(t, program(`
;LAYER:1
;TYPE:Wall-Outer
G1 X1 Y1
;LAYER:2
SET_VELOCITY_LIMIT ACCEL=500
;TYPE:Wall-Outer
G1 X2 Y2
SET_VELOCITY_LIMIT ACCEL=3000
;LAYER:3
;TYPE:Top Surface
`), res.Lines)
}

func TestTopSurfaceNoTopNoDirectives(t *testing.T) {
	in := program(`
;LAYER:0
;TYPE:Wall-Outer
G1 X1 Y1
;TYPE:Fill
`)
	res := Annotate(in, newTestTop(2))
	assert.Equal(t, in, res.Lines)
}

func TestTopSurfaceMalformedLayerIgnored(t *testing.T) {
	in := program(`
;LAYER:0
;TYPE:Wall-Outer
;LAYER:oops
G1 X1 Y1
;TYPE:Top Surface
`)
	res := Annotate(in, newTestTop(0))
	assert.Equal(t, program(`
;LAYER:0
SET_VELOCITY_LIMIT ACCEL=500
;TYPE:Wall-Outer
;LAYER:oops
G1 X1 Y1
SET_VELOCITY_LIMIT ACCEL=3000
;TYPE:Top Surface
`), res.Lines)
}

func TestTopSurfaceOverridesProgramDirective(t *testing.T) {
	in := program(`
;LAYER:0
;TYPE:Wall-Outer
G1 X1 Y1
SET_VELOCITY_LIMIT ACCEL=2500
G1 X2 Y2
G1 X3 Y3
;TYPE:Top Surface
`)
	res := Annotate(in, newTestTop(0))
	assert.Equal(t, program(`
;LAYER:0
SET_VELOCITY_LIMIT ACCEL=500
;TYPE:Wall-Outer
G1 X1 Y1
SET_VELOCITY_LIMIT ACCEL=2500
SET_VELOCITY_LIMIT ACCEL=500
G1 X2 Y2
G1 X3 Y3
SET_VELOCITY_LIMIT ACCEL=3000
;TYPE:Top Surface
`), res.Lines)
}
