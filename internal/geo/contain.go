package geo

import (
	"math"

	"github.com/ctessum/geom"

	"github.com/anystubbs/zone-picker/internal/observability"
)

const (
	// minPathSamples is the floor on interior sample points for very
	// short paths.
	minPathSamples = 8
	// pathSampleSpacing is the target pixel distance between samples
	// along a path; sample count grows with path length.
	pathSampleSpacing = 12.0
)

// LassoContains reports whether a closed lasso ring selects the target
// ring. Both rings are in the same (surface) coordinate space. The
// checks run in inclusion-biased priority order and short-circuit on
// the first hit:
//
//  1. target centroid inside the lasso
//  2. any target vertex inside the lasso
//  3. any target bounding-box corner, or its center, inside the lasso
//  4. lasso boundary crosses the target boundary
//
// Faults from degenerate geometry are absorbed: the predicate retries
// with the centroid-only check and finally answers false. It never
// panics.
func LassoContains(lasso, target []geom.Point) bool {
	if res, ok := lassoContains(lasso, target); ok {
		return res
	}
	observability.IncGeometryFallback("lasso_centroid_only")
	if res, ok := centroidInRing(lasso, target); ok {
		return res
	}
	observability.IncGeometryFallback("lasso_false")
	return false
}

func lassoContains(lasso, target []geom.Point) (res, ok bool) {
	defer func() {
		if recover() != nil {
			res, ok = false, false
		}
	}()
	if len(lasso) < 3 || len(target) == 0 {
		return false, true
	}
	ring := geom.Polygon{lasso}

	c := ringCentroid(target)
	if pointIn(c, ring) {
		return true, true
	}
	for _, v := range target {
		if pointIn(v, ring) {
			return true, true
		}
	}
	b := RingBounds(target)
	for _, p := range boundsProbes(b) {
		if pointIn(p, ring) {
			return true, true
		}
	}
	// Catches a target that fully surrounds a thin lasso, and plain
	// boundary crossings with no interior vertices.
	if ringsCross(lasso, target, true) {
		return true, true
	}
	return false, true
}

func centroidInRing(lasso, target []geom.Point) (res, ok bool) {
	defer func() {
		if recover() != nil {
			res, ok = false, false
		}
	}()
	if len(lasso) < 3 || len(target) == 0 {
		return false, true
	}
	return pointIn(ringCentroid(target), geom.Polygon{lasso}), true
}

// PathIntersects reports whether an open polyline touches the target
// ring: first by segment crossing, then by sampling points evenly along
// the path and testing them for interior. On a geometry fault it falls
// back to a coarse bounding-box overlap. It never panics.
func PathIntersects(path, target []geom.Point) bool {
	if res, ok := pathIntersects(path, target); ok {
		return res
	}
	observability.IncGeometryFallback("path_bbox")
	res, ok := boundsOverlapSafe(path, target)
	if !ok {
		observability.IncGeometryFallback("path_false")
		return false
	}
	return res
}

func pathIntersects(path, target []geom.Point) (res, ok bool) {
	defer func() {
		if recover() != nil {
			res, ok = false, false
		}
	}()
	if len(path) == 0 || len(target) == 0 {
		return false, true
	}
	if ringsCross(path, target, false) {
		return true, true
	}
	ring := geom.Polygon{target}
	for _, p := range SamplePath(path, minPathSamples, pathSampleSpacing) {
		if pointIn(p, ring) {
			return true, true
		}
	}
	return false, true
}

func boundsOverlapSafe(a, b []geom.Point) (res, ok bool) {
	defer func() {
		if recover() != nil {
			res, ok = false, false
		}
	}()
	return BoundsOverlap(RingBounds(a), RingBounds(b)), true
}

// PointInRing reports whether p lies inside or on the ring. The
// even-odd rule keeps the answer independent of winding direction and
// well defined for self-intersecting rings.
func PointInRing(p geom.Point, ring []geom.Point) bool {
	if len(ring) < 3 {
		return false
	}
	return pointIn(p, geom.Polygon{ring})
}

func pointIn(p geom.Point, poly geom.Polygon) bool {
	// OnEdge counts as inside: the predicates bias toward inclusion.
	return p.Within(poly) != geom.Outside
}

// SamplePath returns points spread evenly along the polyline's total
// length, endpoints included. The count scales with length at one
// sample per spacing pixels, never below minSamples.
func SamplePath(path []geom.Point, minSamples int, spacing float64) []geom.Point {
	if len(path) == 0 {
		return nil
	}
	if len(path) == 1 {
		return []geom.Point{path[0]}
	}
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += dist(path[i-1], path[i])
	}
	if total == 0 {
		return []geom.Point{path[0]}
	}
	n := int(total / spacing)
	if n < minSamples {
		n = minSamples
	}
	out := make([]geom.Point, 0, n+1)
	step := total / float64(n)
	out = append(out, path[0])
	seg := 1
	walked := 0.0
	segLen := dist(path[0], path[1])
	for i := 1; i <= n; i++ {
		want := float64(i) * step
		for walked+segLen < want && seg < len(path)-1 {
			walked += segLen
			seg++
			segLen = dist(path[seg-1], path[seg])
		}
		t := 0.0
		if segLen > 0 {
			t = (want - walked) / segLen
			if t > 1 {
				t = 1
			}
		}
		a, b := path[seg-1], path[seg]
		out = append(out, geom.Point{
			X: a.X + (b.X-a.X)*t,
			Y: a.Y + (b.Y-a.Y)*t,
		})
	}
	return out
}

// SegmentsCross reports whether segments a1-a2 and b1-b2 intersect,
// touching endpoints included.
func SegmentsCross(a1, a2, b1, b2 geom.Point) bool {
	d1 := orient(b1, b2, a1)
	d2 := orient(b1, b2, a2)
	d3 := orient(a1, a2, b1)
	d4 := orient(a1, a2, b2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(b1, b2, a1):
		return true
	case d2 == 0 && onSegment(b1, b2, a2):
		return true
	case d3 == 0 && onSegment(a1, a2, b1):
		return true
	case d4 == 0 && onSegment(a1, a2, b2):
		return true
	}
	return false
}

func orient(a, b, c geom.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, p geom.Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// ringsCross tests every segment of a against every boundary segment of
// the (implicitly closed) target ring. When closeA is set, a's closing
// edge is included too.
func ringsCross(a, target []geom.Point, closeA bool) bool {
	if len(a) < 2 || len(target) < 2 {
		return false
	}
	aSegs := len(a) - 1
	if closeA && len(a) > 2 {
		aSegs = len(a)
	}
	for i := 0; i < aSegs; i++ {
		a1 := a[i]
		a2 := a[(i+1)%len(a)]
		for j := 0; j < len(target); j++ {
			b1 := target[j]
			b2 := target[(j+1)%len(target)]
			if SegmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// RingBounds computes the axis-aligned bounding box of a point set.
func RingBounds(ps []geom.Point) *geom.Bounds {
	b := &geom.Bounds{
		Min: geom.Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: geom.Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, p := range ps {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
	}
	return b
}

// BoundsOverlap reports whether two boxes share any area or edge.
func BoundsOverlap(a, b *geom.Bounds) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}

func boundsProbes(b *geom.Bounds) []geom.Point {
	return []geom.Point{
		b.Min,
		{X: b.Max.X, Y: b.Min.Y},
		b.Max,
		{X: b.Min.X, Y: b.Max.Y},
		{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2},
	}
}

func ringCentroid(ring []geom.Point) geom.Point {
	if len(ring) == 1 {
		return ring[0]
	}
	c := geom.Polygon{ring}.Centroid()
	if math.IsNaN(c.X) || math.IsNaN(c.Y) {
		var sx, sy float64
		for _, p := range ring {
			sx += p.X
			sy += p.Y
		}
		n := float64(len(ring))
		return geom.Point{X: sx / n, Y: sy / n}
	}
	return c
}

func dist(a, b geom.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
