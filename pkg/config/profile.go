package config

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"

	"klipper-postproc/pkg/directive"
	perrors "klipper-postproc/pkg/errors"
	"klipper-postproc/pkg/gcode"
	"klipper-postproc/pkg/log"
	"klipper-postproc/pkg/quantize"
	"klipper-postproc/pkg/region"
)

// Section names
const (
	SectionCorner  = "CornerVelocity"
	SectionCurve   = "CurveBoost"
	SectionTop     = "Acceleration"
	SectionMarkers = "Markers"
)

// CornerProfile holds the outer-wall corner velocity settings.
type CornerProfile struct {
	Default float64
	// Table maps a quantized corner angle to its square corner velocity.
	Table map[int]float64
}

// CurveProfile holds the curve-run boost settings.
type CurveProfile struct {
	HighAccel        float64
	HighSCV          float64
	AngleThreshold   float64
	MinSegmentLength float64
	MinCurveLength   int
}

// TopProfile holds the near-top-surface wall acceleration settings.
type TopProfile struct {
	NearTopAccel   float64
	DefaultAccel   float64
	LayersBelowTop int
}

// Profile is the complete set of tunables for every annotator.
type Profile struct {
	Corner  CornerProfile
	Curve   CurveProfile
	Top     TopProfile
	Markers gcode.Markers
}

// DefaultProfile returns the built-in tunables.
func DefaultProfile() Profile {
	return Profile{
		Corner: CornerProfile{
			Default: 10,
			Table:   map[int]float64{45: 10, 90: 100, 135: 200, 180: 10},
		},
		Curve: CurveProfile{
			HighAccel:        4000,
			HighSCV:          10,
			AngleThreshold:   5,
			MinSegmentLength: 0.5,
			MinCurveLength:   3,
		},
		Top: TopProfile{
			NearTopAccel:   500,
			DefaultAccel:   3000,
			LayersBelowTop: 2,
		},
		Markers: gcode.DefaultMarkers(),
	}
}

func ptr[T any](v T) *T { return &v }

// FromConfig builds a profile from c. Missing sections and options keep
// their defaults.
func FromConfig(c *Config) (Profile, error) {
	p := DefaultProfile()
	var err error

	if sec := c.GetSectionOptional(SectionCorner); sec != nil {
		if p.Corner.Default, err = sec.Float("default_scv",
			Bounds{Min: ptr(0.0)}, p.Corner.Default); err != nil {
			return p, err
		}
		for _, opt := range sec.Prefixed("scv_") {
			bucket, convErr := strconv.Atoi(strings.TrimPrefix(opt, "scv_"))
			if convErr != nil || bucket < 0 || bucket > 180 {
				return p, ErrInvalidValue(sec.Name(), opt, opt, "scv_<angle> with an angle between 0 and 180")
			}
			v, err := sec.Float(opt, Bounds{Min: ptr(0.0)})
			if err != nil {
				return p, err
			}
			p.Corner.Table[bucket] = v
		}
	}

	if sec := c.GetSectionOptional(SectionCurve); sec != nil {
		cp := &p.Curve
		if cp.HighAccel, err = sec.Float("high_accel",
			Bounds{Above: ptr(0.0)}, cp.HighAccel); err != nil {
			return p, err
		}
		if cp.HighSCV, err = sec.Float("high_scv",
			Bounds{Min: ptr(0.0)}, cp.HighSCV); err != nil {
			return p, err
		}
		if cp.AngleThreshold, err = sec.Float("angle_threshold_deg",
			Bounds{Above: ptr(0.0), Max: ptr(180.0)}, cp.AngleThreshold); err != nil {
			return p, err
		}
		if cp.MinSegmentLength, err = sec.Float("min_segment_length",
			Bounds{Min: ptr(0.0)}, cp.MinSegmentLength); err != nil {
			return p, err
		}
		if cp.MinCurveLength, err = sec.Int("min_curve_length",
			Bounds{Min: ptr(1.0)}, cp.MinCurveLength); err != nil {
			return p, err
		}
	}

	if sec := c.GetSectionOptional(SectionTop); sec != nil {
		tp := &p.Top
		if tp.NearTopAccel, err = sec.Float("near_top_surface_accel",
			Bounds{Above: ptr(0.0)}, tp.NearTopAccel); err != nil {
			return p, err
		}
		if tp.DefaultAccel, err = sec.Float("default_accel",
			Bounds{Above: ptr(0.0)}, tp.DefaultAccel); err != nil {
			return p, err
		}
		if tp.LayersBelowTop, err = sec.Int("layers_below_top",
			Bounds{Min: ptr(0.0)}, tp.LayersBelowTop); err != nil {
			return p, err
		}
	}

	if sec := c.GetSectionOptional(SectionMarkers); sec != nil {
		m := &p.Markers
		for _, f := range []struct {
			option string
			dst    *string
		}{
			{"type_prefix", &m.TypePrefix},
			{"outer_wall", &m.OuterWall},
			{"wall", &m.Wall},
			{"top_surface", &m.TopSurface},
			{"layer", &m.Layer},
		} {
			v, err := sec.Get(f.option, *f.dst)
			if err != nil {
				return p, err
			}
			if v == "" {
				return p, NewConfigError(sec.Name(), f.option, "marker must not be empty")
			}
			*f.dst = v
		}
	}
	return p, nil
}

// LoadProfile reads the profile at path. An empty path yields the
// defaults. When optional is set a missing file also yields the
// defaults; otherwise it is an error. Unrecognised options are logged
// as warnings.
func LoadProfile(path string, optional bool, logger *log.Logger) (Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	c, err := LoadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no profile at %s, using defaults", path)
			return DefaultProfile(), nil
		}
		var ce *ConfigError
		if errors.As(err, &ce) {
			return Profile{}, ce.HostError(path)
		}
		return Profile{}, perrors.Wrap(err, perrors.ErrConfigLoad, "cannot load profile").SetFile(path)
	}

	p, err := FromConfig(c)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			return Profile{}, ce.HostError(path)
		}
		return Profile{}, err
	}

	for _, opt := range c.UnusedOptions() {
		logger.WithField("file", path).Warn("unknown option %s", opt)
	}
	for _, name := range c.UnusedSections() {
		logger.WithField("file", path).Warn("unknown section [%s]", name)
	}
	return p, nil
}

// CornerStrategy builds the corner annotator. Every quantizer bucket must
// have a table entry.
func (p Profile) CornerStrategy() (*region.Corner, error) {
	q, err := quantize.New(quantize.DefaultBuckets(), p.Corner.Table)
	if err != nil {
		return nil, err
	}
	return region.NewCorner(region.CornerConfig{
		Default:   p.Corner.Default,
		Quantizer: q,
		Markers:   p.Markers,
		Format:    directive.KlipperLower,
	}), nil
}

// CurveStrategy builds the curve-run annotator.
func (p Profile) CurveStrategy() *region.Curve {
	return region.NewCurve(region.CurveConfig{
		HighAccel:        p.Curve.HighAccel,
		HighSCV:          p.Curve.HighSCV,
		AngleThreshold:   p.Curve.AngleThreshold,
		MinSegmentLength: p.Curve.MinSegmentLength,
		MinCurveLength:   p.Curve.MinCurveLength,
		Format:           directive.Klipper,
	})
}

// TopSurfaceStrategy builds the near-top-surface annotator.
func (p Profile) TopSurfaceStrategy() *region.TopSurface {
	return region.NewTopSurface(region.TopSurfaceConfig{
		NearTopAccel:   p.Top.NearTopAccel,
		DefaultAccel:   p.Top.DefaultAccel,
		LayersBelowTop: p.Top.LayersBelowTop,
		Markers:        p.Markers,
		Format:         directive.Klipper,
	})
}
