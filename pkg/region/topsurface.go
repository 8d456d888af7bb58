package region

import (
	"klipper-postproc/pkg/directive"
	"klipper-postproc/pkg/gcode"
)

// TopSurfaceConfig configures the near-top-surface wall annotator.
type TopSurfaceConfig struct {
	NearTopAccel float64
	DefaultAccel float64
	// LayersBelowTop is how many layers under a top surface layer also
	// count as near it.
	LayersBelowTop int
	Markers        gcode.Markers
	Format         directive.Formatter
}

// LayerIndex records which layers are at or just below a top surface.
// It is built once from the whole program and then only read.
type LayerIndex struct {
	near map[int]bool
}

// BuildLayerIndex scans the program for top surface markers. A top
// surface in layer n marks layers n-below .. n; negative layers are
// ignored. Lines before the first layer marker belong to layer -1.
func BuildLayerIndex(lines []gcode.Line, m gcode.Markers, below int) LayerIndex {
	idx := LayerIndex{near: make(map[int]bool)}
	layer := -1
	for _, l := range lines {
		if n, ok := m.LayerNumber(l.Raw); ok {
			layer = n
			continue
		}
		if m.IsTopSurface(l.Raw) {
			for off := 0; off <= below; off++ {
				if layer-off >= 0 {
					idx.near[layer-off] = true
				}
			}
		}
	}
	return idx
}

// Near reports whether layer is at or just below a top surface.
func (x LayerIndex) Near(layer int) bool { return x.near[layer] }

// TopSurface lowers acceleration for walls printed in layers at or just
// below a top surface. Later top surface markers affect earlier layers,
// so Begin indexes the whole program before any line is stepped.
type TopSurface struct {
	cfg TopSurfaceConfig

	index   LayerIndex
	layer   int
	inWall  bool
	holding bool
}

// NewTopSurface returns the top surface annotator.
func NewTopSurface(cfg TopSurfaceConfig) *TopSurface {
	return &TopSurface{cfg: cfg}
}

// Name implements Strategy.
func (t *TopSurface) Name() string { return "topsurface" }

// Begin implements Strategy. It builds the layer index over the whole
// program.
func (t *TopSurface) Begin(lines []gcode.Line) *directive.Emitter {
	t.index = BuildLayerIndex(lines, t.cfg.Markers, t.cfg.LayersBelowTop)
	t.layer = -1
	t.inWall = false
	t.holding = false
	return directive.NewEmitterWithBase(t.cfg.Format, directive.Accel(t.cfg.DefaultAccel))
}

func (t *TopSurface) nearTop() directive.Regime {
	return directive.Accel(t.cfg.NearTopAccel)
}

// Step implements Strategy. A directive already in the program that
// changes the acceleration inside a near-top wall is overridden again
// before the next move.
func (t *TopSurface) Step(l gcode.Line, e *directive.Emitter) {
	m := t.cfg.Markers
	if n, ok := m.LayerNumber(l.Raw); ok {
		// A wall left open by the previous layer ends here.
		e.Reset("")
		t.layer = n
		t.inWall = false
		t.holding = false
		return
	}
	switch {
	case m.IsWall(l.Raw):
		if t.index.Near(t.layer) && !t.holding {
			e.Apply(t.nearTop(), "")
			t.holding = true
		}
		t.inWall = true
	case m.IsType(l.Raw) && t.inWall:
		e.Reset("")
		t.inWall = false
		t.holding = false
	case t.holding && l.IsMotion():
		e.Apply(t.nearTop(), "")
	}
}

// Finish implements Strategy.
func (t *TopSurface) Finish(e *directive.Emitter) {
	e.Reset("")
}
