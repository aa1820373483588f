// Package geo holds the pure geometry primitives of the selection
// engine: coordinate transforms and the containment/intersection
// predicates selection strategies are built on.
package geo

import (
	"github.com/ctessum/geom"

	"github.com/anystubbs/zone-picker/internal/model"
)

// WorldToCanvas maps a world coordinate into surface pixels. The
// vertical axis is inverted: world MinY maps to the bottom of the
// surface (y = height) and world MaxY to the top (y = 0).
func WorldToCanvas(vb model.ViewportBounds, width, height, x, y float64) geom.Point {
	return geom.Point{
		X: (x - vb.MinX) / vb.Width() * width,
		Y: (vb.MaxY - y) / vb.Height() * height,
	}
}

// CanvasToWorld is the exact algebraic inverse of WorldToCanvas for the
// same bounds and size snapshot.
func CanvasToWorld(vb model.ViewportBounds, width, height float64, p geom.Point) (x, y float64) {
	x = vb.MinX + p.X/width*vb.Width()
	y = vb.MaxY - p.Y/height*vb.Height()
	return x, y
}
