// Package geom provides the planar vector math used to classify
// toolpath segments.
package geom

import (
	"fmt"
	"math"
)

// Vec2 is a planar displacement between two toolpath points.
type Vec2 struct {
	X, Y float64
}

// Between returns the vector from (x1, y1) to (x2, y2).
func Between(x1, y1, x2, y2 float64) Vec2 {
	return Vec2{X: x2 - x1, Y: y2 - y1}
}

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Len returns the magnitude of v.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// IsZero reports whether v has no direction.
func (v Vec2) IsZero() bool {
	return v.Len() == 0
}

// Neg returns -v.
func (v Vec2) Neg() Vec2 {
	return Vec2{X: -v.X, Y: -v.Y}
}

func (v Vec2) String() string {
	return fmt.Sprintf("Vec2{X: %f, Y: %f}", v.X, v.Y)
}

// Angle returns the angle between v1 and v2 in degrees, in [0, 180].
// A zero-length vector has no direction, so the turn is reported as 0.
// The cosine is clamped before acos so rounding drift never yields NaN.
func Angle(v1, v2 Vec2) float64 {
	m1 := v1.Len()
	m2 := v2.Len()
	if m1 == 0 || m2 == 0 || math.IsInf(m1, 0) || math.IsInf(m2, 0) {
		return 0
	}
	c := v1.Dot(v2) / (m1 * m2)
	if math.IsNaN(c) {
		return 0
	}
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c) * 180 / math.Pi
}

// RoundDegrees rounds an angle to whole degrees, halves to even.
func RoundDegrees(a float64) float64 {
	return math.RoundToEven(a)
}
