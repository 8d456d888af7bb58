package gcode

import (
	"strconv"
	"strings"
)

// Markers holds the slicer comment conventions that delimit regions.
// Defaults match PrusaSlicer/OrcaSlicer type names and Cura layer markers.
type Markers struct {
	TypePrefix string // any region type marker
	OuterWall  string // outer perimeter
	Wall       string // any wall type
	TopSurface string // top solid infill
	Layer      string // followed by the layer number
}

// DefaultMarkers returns the stock marker set.
func DefaultMarkers() Markers {
	return Markers{
		TypePrefix: ";TYPE:",
		OuterWall:  ";TYPE:Outer wall",
		Wall:       ";TYPE:Wall-",
		TopSurface: ";TYPE:Top Surface",
		Layer:      ";LAYER:",
	}
}

// IsType reports whether raw is a region type marker.
func (m Markers) IsType(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), m.TypePrefix)
}

// IsOuterWall reports whether raw marks the start of an outer wall.
func (m Markers) IsOuterWall(raw string) bool {
	return strings.Contains(raw, m.OuterWall)
}

// IsWall reports whether raw marks the start of any wall.
func (m Markers) IsWall(raw string) bool {
	return strings.Contains(raw, m.Wall)
}

// IsTopSurface reports whether raw marks a top surface region.
func (m Markers) IsTopSurface(raw string) bool {
	return strings.Contains(raw, m.TopSurface)
}

// LayerNumber returns the layer number of a layer marker. ok is false
// for other lines and for markers whose number does not parse.
func (m Markers) LayerNumber(raw string) (layer int, ok bool) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, m.Layer) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s[len(m.Layer):]))
	if err != nil {
		return 0, false
	}
	return n, true
}
