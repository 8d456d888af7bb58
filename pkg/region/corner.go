package region

import (
	"fmt"

	"klipper-postproc/pkg/directive"
	"klipper-postproc/pkg/gcode"
	"klipper-postproc/pkg/geom"
	"klipper-postproc/pkg/quantize"
)

// CornerConfig configures the outer-wall corner velocity annotator.
type CornerConfig struct {
	// Default is the square corner velocity outside tuned corners.
	Default   float64
	Quantizer *quantize.Quantizer
	Markers   gcode.Markers
	Format    directive.Formatter
}

// Corner sets the square corner velocity inside outer walls from the
// sharpness of each corner.
//
// States are Outside and InsideOuterWall. Vector history never crosses
// a region boundary, so the first segment of a wall decides nothing.
type Corner struct {
	cfg CornerConfig

	inWall  bool
	hasLast bool
	lastX   float64
	lastY   float64
	hasVec  bool
	vec     geom.Vec2
}

// NewCorner returns the corner annotator.
func NewCorner(cfg CornerConfig) *Corner {
	return &Corner{cfg: cfg}
}

// Name implements Strategy.
func (c *Corner) Name() string { return "corner" }

// Begin implements Strategy. The default corner velocity is assumed to be
// in force at the start of the program.
func (c *Corner) Begin(_ []gcode.Line) *directive.Emitter {
	c.inWall = false
	c.resetHistory()
	return directive.NewEmitterWithBase(c.cfg.Format, directive.SCV(c.cfg.Default))
}

func (c *Corner) resetHistory() {
	c.hasLast = false
	c.hasVec = false
	c.vec = geom.Vec2{}
}

// Step implements Strategy. Only G1 moves with both X and Y inside an
// outer wall are classified; every region marker clears the history.
func (c *Corner) Step(l gcode.Line, e *directive.Emitter) {
	m := c.cfg.Markers
	if m.IsOuterWall(l.Raw) {
		c.inWall = true
		c.resetHistory()
		return
	}
	if m.IsType(l.Raw) {
		if c.inWall {
			e.Reset("reset SCV")
		}
		c.inWall = false
		c.resetHistory()
		return
	}
	if !c.inWall || l.Kind != gcode.KindLinear || !l.HasBothXY() {
		return
	}

	x, _ := l.Axis(gcode.X)
	y, _ := l.Axis(gcode.Y)
	if c.hasLast {
		v := geom.Between(c.lastX, c.lastY, x, y)
		if c.hasVec {
			angle := geom.RoundDegrees(geom.Angle(c.vec, v))
			bucket, target := c.cfg.Quantizer.Target(angle)
			e.Apply(directive.SCV(target), fmt.Sprintf("~%d° corner", bucket))
		}
		c.vec = v
		c.hasVec = true
	}
	c.lastX, c.lastY = x, y
	c.hasLast = true
}

// Finish implements Strategy.
func (c *Corner) Finish(e *directive.Emitter) {
	e.Reset("final reset")
}
