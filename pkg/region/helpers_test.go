package region

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"klipper-postproc/pkg/directive"
	"klipper-postproc/pkg/gcode"
	"klipper-postproc/pkg/quantize"
)

func program(s string) []string {
	return gcode.SplitLines(strings.TrimLeft(s, "\n"))
}

func newTestCorner(t *testing.T) *Corner {
	t.Helper()
	q, err := quantize.New(quantize.DefaultBuckets(), map[int]float64{45: 10, 90: 100, 135: 200, 180: 10})
	require.NoError(t, err)
	return NewCorner(CornerConfig{
		Default:   10,
		Quantizer: q,
		Markers:   gcode.DefaultMarkers(),
		Format:    directive.KlipperLower,
	})
}

func newTestCurve() *Curve {
	return NewCurve(CurveConfig{
		HighAccel:        4000,
		HighSCV:          10,
		AngleThreshold:   5,
		MinSegmentLength: 0.5,
		MinCurveLength:   3,
		Format:           directive.Klipper,
	})
}

func newTestTop(below int) *TopSurface {
	return NewTopSurface(TopSurfaceConfig{
		NearTopAccel:   500,
		DefaultAccel:   3000,
		LayersBelowTop: below,
		Markers:        gcode.DefaultMarkers(),
		Format:         directive.Klipper,
	})
}

// directives returns the value part of every emitted directive line.
func directives(lines []string) []string {
	var out []string
	for _, l := range lines {
		if strings.HasPrefix(l, "SET_VELOCITY_LIMIT") {
			if i := strings.IndexByte(l, ';'); i >= 0 {
				l = l[:i]
			}
			out = append(out, strings.TrimSpace(l))
		}
	}
	return out
}
