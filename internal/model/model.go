// Package model defines the core domain types shared across the engine:
// zones, geometries, viewport bounds, drag modes and selection shapes.
package model

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// DragMode selects which selection strategy drives a drag gesture.
type DragMode int

const (
	// DragLasso draws a free-form area that is closed into a ring on
	// completion; zones are picked by containment.
	DragLasso DragMode = iota
	// DragPath draws an open polyline; zones are picked by intersection.
	DragPath
)

func (m DragMode) String() string {
	switch m {
	case DragLasso:
		return "lasso"
	case DragPath:
		return "path"
	default:
		return fmt.Sprintf("dragmode(%d)", int(m))
	}
}

// Valid reports whether m is one of the known drag modes.
func (m DragMode) Valid() bool {
	return m == DragLasso || m == DragPath
}

// ParseDragMode maps a config string to a DragMode. An unknown value is
// a wiring error and is reported instead of being defaulted away.
func ParseDragMode(s string) (DragMode, error) {
	switch s {
	case "lasso", "":
		return DragLasso, nil
	case "path":
		return DragPath, nil
	default:
		return 0, fmt.Errorf("unknown drag mode %q", s)
	}
}

// Geometry is a tagged union over a point and a single-ring polygon in
// world coordinates. It is immutable after construction; the bounding
// box and centroid are computed once on first use and cached.
type Geometry struct {
	point *geom.Point
	ring  []geom.Point

	bounds   *geom.Bounds
	centroid *geom.Point
}

// NewPointGeometry builds a point geometry.
func NewPointGeometry(x, y float64) *Geometry {
	return &Geometry{point: &geom.Point{X: x, Y: y}}
}

// NewPolygonGeometry builds a polygon geometry from an ordered outer
// ring. The ring is implicitly closed; a closing vertex equal to the
// first is dropped. The input slice is copied.
func NewPolygonGeometry(ring []geom.Point) (*Geometry, error) {
	if len(ring) >= 2 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return nil, fmt.Errorf("polygon ring has %d vertices, need at least 3", len(ring))
	}
	cp := make([]geom.Point, len(ring))
	copy(cp, ring)
	return &Geometry{ring: cp}, nil
}

// IsPoint reports whether the geometry is a point.
func (g *Geometry) IsPoint() bool { return g.point != nil }

// Point returns the point for point geometries and the centroid for
// polygons.
func (g *Geometry) Point() geom.Point {
	if g.point != nil {
		return *g.point
	}
	return g.Centroid()
}

// Ring returns a copy of the polygon's outer ring, or nil for points.
func (g *Geometry) Ring() []geom.Point {
	if g.ring == nil {
		return nil
	}
	cp := make([]geom.Point, len(g.ring))
	copy(cp, g.ring)
	return cp
}

// Bounds returns the axis-aligned bounding box. The result is cached;
// callers must treat it as read-only. Events are delivered on a single
// thread, so the lazy fill needs no locking.
func (g *Geometry) Bounds() *geom.Bounds {
	if g.bounds != nil {
		return g.bounds
	}
	if g.point != nil {
		g.bounds = &geom.Bounds{Min: *g.point, Max: *g.point}
		return g.bounds
	}
	b := &geom.Bounds{
		Min: geom.Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: geom.Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, p := range g.ring {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
	}
	g.bounds = b
	return g.bounds
}

// Centroid returns the geometry's centroid, cached after first use.
// Zero-area rings fall back to the vertex mean.
func (g *Geometry) Centroid() geom.Point {
	if g.centroid != nil {
		return *g.centroid
	}
	var c geom.Point
	if g.point != nil {
		c = *g.point
	} else {
		c = ringCentroid(g.ring)
	}
	g.centroid = &c
	return c
}

func ringCentroid(ring []geom.Point) geom.Point {
	c := func() (c geom.Point) {
		defer func() {
			if recover() != nil {
				c = geom.Point{X: math.NaN(), Y: math.NaN()}
			}
		}()
		return geom.Polygon{ring}.Centroid()
	}()
	if !math.IsNaN(c.X) && !math.IsNaN(c.Y) {
		return c
	}
	// Degenerate ring; use the vertex mean.
	var sx, sy float64
	for _, p := range ring {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(ring))
	return geom.Point{X: sx / n, Y: sy / n}
}

// Zone is a selectable spatial entity. Selected is the only field
// mutated after construction, and only by the selector.
type Zone struct {
	ID       string
	Name     string
	Category string
	Variant  string
	Geometry *Geometry
	Selected bool
}

// Bounds makes Zone insertable into an rtree spatial index.
func (z *Zone) Bounds() *geom.Bounds { return z.Geometry.Bounds() }

// ViewportBounds is the visible world-coordinate rectangle.
type ViewportBounds struct {
	MinX, MinY, MaxX, MaxY float64
}

func (b ViewportBounds) Valid() bool {
	return b.MinX <= b.MaxX && b.MinY <= b.MaxY
}

func (b ViewportBounds) Width() float64  { return b.MaxX - b.MinX }
func (b ViewportBounds) Height() float64 { return b.MaxY - b.MinY }

// Geom converts to the rtree search-box representation.
func (b ViewportBounds) Geom() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: b.MinX, Y: b.MinY},
		Max: geom.Point{X: b.MaxX, Y: b.MaxY},
	}
}

// SelectionShape is the transient shape accumulated during one drag
// gesture, in surface (pixel) coordinates. It is created at drag start,
// owned by that gesture alone, and discarded at drag end.
type SelectionShape struct {
	ID     string
	Type   DragMode
	Points []geom.Point
	Closed bool
}

// SelectionStyle is the visual styling applied to a selection shape.
// Exact hues are cosmetic; the dashed/width split distinguishes lasso
// from path and the color flips with the modifier key.
type SelectionStyle struct {
	StrokeWidth float64
	Dashed      bool
	Color       string
}

// CategoryVariant is one zoom tier within a category.
type CategoryVariant struct {
	ID         string
	MinZoom    float64
	MaxZoom    float64
	AutoSwitch bool
}

// CategoryConfig groups zones and optionally auto-switches between
// variants based on zoom level.
type CategoryConfig struct {
	ID       string
	Name     string
	Variants []CategoryVariant
}

// VariantForZoom returns the auto-switch variant whose zoom range
// covers zoom, if any.
func (c CategoryConfig) VariantForZoom(zoom float64) (string, bool) {
	for _, v := range c.Variants {
		if !v.AutoSwitch {
			continue
		}
		if zoom >= v.MinZoom && zoom <= v.MaxZoom {
			return v.ID, true
		}
	}
	return "", false
}
