// File: internal/geometry/mapper.go
// Description: Bidirectional conversion between the logical (CSS pixel)
// coordinate space agents reason in and the physical (device pixel) space
// the browser driver dispatches events in.
package geometry

import (
	"math"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
)

// Point is a position in either coordinate space; the surrounding call
// decides which.
type Point struct {
	X float64
	Y float64
}

// Mapper converts between logical and physical coordinates. The relation is
// physical = logical*Scale + Offset; Offset accommodates viewports that do
// not start at the device origin.
type Mapper struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// NewMapper builds a mapper for the given device scale factor. A
// non-positive scale cannot describe a real display and is rejected.
func NewMapper(scale, offsetX, offsetY float64) (*Mapper, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, schemas.Errorf(schemas.KindInvalidConfiguration,
			"device scale factor must be positive and finite, got %v", scale)
	}
	return &Mapper{Scale: scale, OffsetX: offsetX, OffsetY: offsetY}, nil
}

// FromViewport builds a mapper from captured page metadata.
func FromViewport(vp schemas.Viewport) (*Mapper, error) {
	return NewMapper(vp.Scale, 0, 0)
}

// ToPhysical converts a logical point to physical device pixels, rounded to
// the nearest integer pixel.
func (m *Mapper) ToPhysical(p Point) Point {
	return Point{
		X: math.Round(p.X*m.Scale + m.OffsetX),
		Y: math.Round(p.Y*m.Scale + m.OffsetY),
	}
}

// ToLogical inverts ToPhysical. Because ToPhysical rounds, the round trip
// logical -> physical -> logical lands within half a physical pixel of the
// original (scaled back to logical units).
func (m *Mapper) ToLogical(p Point) Point {
	return Point{
		X: (p.X - m.OffsetX) / m.Scale,
		Y: (p.Y - m.OffsetY) / m.Scale,
	}
}

// ScaleDistance converts a logical distance (no offset applied) to physical
// pixels. Used for wheel deltas and drag spans.
func (m *Mapper) ScaleDistance(d float64) float64 {
	return d * m.Scale
}
