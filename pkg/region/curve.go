package region

import (
	"klipper-postproc/pkg/directive"
	"klipper-postproc/pkg/gcode"
	"klipper-postproc/pkg/geom"
	"klipper-postproc/pkg/quantize"
)

// CurveConfig configures the curve-run boost annotator.
type CurveConfig struct {
	HighAccel float64
	HighSCV   float64
	// AngleThreshold is the largest turn, in degrees, that still extends a
	// curve run.
	AngleThreshold float64
	// MinSegmentLength ignores segments too short to carry a direction.
	MinSegmentLength float64
	// MinCurveLength is the number of smooth segments that make a run.
	MinCurveLength int
	Format         directive.Formatter
}

// Segment is one buffered smooth segment of a curve run.
type Segment struct {
	Line string
	End  gcode.Position
}

// Curve raises acceleration and corner velocity through long runs of
// nearly collinear segments and through arc moves, and restores the
// limits that were in force when the boost started.
//
// The baseline is the first SET_VELOCITY_LIMIT in the program that sets
// both ACCEL and SQUARE_CORNER_VELOCITY and carries no comment.
// Commented directives are annotations, ours included, and never become
// the baseline. Without a baseline nothing is boosted, and while the
// firmware runs an acceleration below the baseline's, a reduced regime
// is in force and is left alone.
//
// A boost ends at the first line that is not a G1, G2 or G3 move. Every
// directive is such a line, so no outside write lands inside a boost.
type Curve struct {
	cfg CurveConfig

	tracker    *gcode.Tracker
	hasPrevVec bool
	prevVec    geom.Vec2
	buffer     []Segment
	boosted    bool
	restore    directive.Regime
}

// NewCurve returns the curve annotator.
func NewCurve(cfg CurveConfig) *Curve {
	return &Curve{cfg: cfg}
}

// Name implements Strategy.
func (c *Curve) Name() string { return "curve" }

// Begin implements Strategy. The baseline is only known once its line
// is reached, so the emitter starts without one.
func (c *Curve) Begin(_ []gcode.Line) *directive.Emitter {
	c.tracker = gcode.NewTracker()
	c.hasPrevVec = false
	c.buffer = c.buffer[:0]
	c.boosted = false
	c.restore = directive.Regime{}
	return directive.NewEmitter(c.cfg.Format)
}

// canBoost reports whether a boost may start at this point.
func (c *Curve) canBoost(e *directive.Emitter) bool {
	base, ok := e.Base()
	if !ok || c.boosted {
		return false
	}
	fw := e.Firmware()
	return fw.Set&directive.LimitAccel == 0 || fw.Accel >= base.Accel
}

func (c *Curve) startBoost(e *directive.Emitter) {
	base, _ := e.Base()
	c.restore = base.Merge(e.Firmware())
	c.boosted = true
	e.Apply(directive.AccelSCV(c.cfg.HighAccel, c.cfg.HighSCV), "post-curve-boost")
}

func (c *Curve) endBoost(e *directive.Emitter, note string) {
	if !c.boosted {
		return
	}
	c.boosted = false
	e.Apply(c.restore, note)
}

// Step implements Strategy.
func (c *Curve) Step(l gcode.Line, e *directive.Emitter) {
	if l.Kind == gcode.KindBlank {
		return
	}
	if l.Command == "SET_VELOCITY_LIMIT" && !l.HasComment {
		if r, ok := directive.Parse(l.Code); ok && r.Set == directive.LimitAccel|directive.LimitSCV {
			e.SetBase(r)
		}
	}

	switch l.Kind {
	case gcode.KindArc:
		if c.canBoost(e) {
			c.startBoost(e)
		}
	case gcode.KindLinear:
	default:
		c.endBoost(e, "reset after curve")
		c.buffer = c.buffer[:0]
	}

	c.tracker.Update(l)
	if l.Kind != gcode.KindLinear || !l.HasXY() {
		c.hasPrevVec = false
		return
	}

	prev, cur := c.tracker.Previous(), c.tracker.Current()
	v := geom.Between(prev.X, prev.Y, cur.X, cur.Y)
	if c.hasPrevVec && v.Len() > c.cfg.MinSegmentLength {
		if quantize.Smooth(geom.Angle(c.prevVec, v), c.cfg.AngleThreshold) {
			c.buffer = append(c.buffer, Segment{Line: l.Raw, End: cur})
		} else {
			if len(c.buffer) >= c.cfg.MinCurveLength {
				if c.canBoost(e) {
					c.startBoost(e)
				}
			} else {
				c.endBoost(e, "reset after curve")
			}
			c.buffer = c.buffer[:0]
		}
	}
	c.prevVec = v
	c.hasPrevVec = true
}

// Finish implements Strategy.
func (c *Curve) Finish(e *directive.Emitter) {
	c.endBoost(e, "final reset after curve")
}
