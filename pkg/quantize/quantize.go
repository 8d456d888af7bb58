// Package quantize snaps continuous turn angles to discrete corner
// sharpness buckets and maps each bucket to a target limit.
package quantize

import (
	"sort"

	"klipper-postproc/pkg/errors"
)

// Bucket is one corner class. Angles up to and including Max fall into
// it unless a lower bucket already claimed them.
type Bucket struct {
	Max   float64
	Angle int
}

// DefaultBuckets returns the rectilinear corner classes: <=67 -> 45,
// <=112 -> 90, <=157 -> 135, anything else -> 180.
func DefaultBuckets() []Bucket {
	return []Bucket{
		{Max: 67, Angle: 45},
		{Max: 112, Angle: 90},
		{Max: 157, Angle: 135},
		{Max: 180, Angle: 180},
	}
}

// Quantizer is an immutable bucket list plus target table.
type Quantizer struct {
	buckets []Bucket
	table   map[int]float64
}

// New validates buckets and table. Every bucket must have a table
// entry; a hole is a configuration error reported here rather than
// during annotation.
func New(buckets []Bucket, table map[int]float64) (*Quantizer, error) {
	if len(buckets) == 0 {
		return nil, errors.New(errors.ErrQuantizeTable, "no buckets configured")
	}
	bs := make([]Bucket, len(buckets))
	copy(bs, buckets)
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].Max < bs[j].Max })
	// The last bucket is open ended so every angle in [0, 180] lands
	// somewhere.
	if bs[len(bs)-1].Max < 180 {
		bs[len(bs)-1].Max = 180
	}

	t := make(map[int]float64, len(bs))
	for _, b := range bs {
		v, ok := table[b.Angle]
		if !ok {
			return nil, errors.QuantizeTableError(b.Angle)
		}
		t[b.Angle] = v
	}
	return &Quantizer{buckets: bs, table: t}, nil
}

// Bucket returns the corner class of a turn angle in degrees. Values on a
// threshold belong to the lower bucket; values outside [0, 180] are
// clamped.
func (q *Quantizer) Bucket(angle float64) int {
	for _, b := range q.buckets {
		if angle <= b.Max {
			return b.Angle
		}
	}
	return q.buckets[len(q.buckets)-1].Angle
}

// Target returns the corner class and its target value.
func (q *Quantizer) Target(angle float64) (int, float64) {
	b := q.Bucket(angle)
	return b, q.table[b]
}

// Smooth reports whether a turn is gentle enough to extend a curve run.
func Smooth(angle, threshold float64) bool {
	return angle < threshold
}
