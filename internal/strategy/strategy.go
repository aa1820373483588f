// Package strategy implements the per-drag-mode selection policies.
// Lasso and path share the selector's state machine and differ only in
// how the drawn shape is closed, styled and tested against zones.
package strategy

import (
	"fmt"

	"github.com/ctessum/geom"

	"github.com/anystubbs/zone-picker/internal/geo"
	"github.com/anystubbs/zone-picker/internal/model"
	"github.com/anystubbs/zone-picker/internal/provider"
)

// Strategy is the drag-shape policy for one gesture. Implementations
// hold no state between gestures; the selector builds a fresh instance
// whenever the drag mode changes.
type Strategy interface {
	Mode() model.DragMode
	Create(start geom.Point) (*model.SelectionShape, error)
	Update(s *model.SelectionShape, current, start geom.Point)
	ApplyStyle(s *model.SelectionShape, modifierHeld bool)
	Complete(s *model.SelectionShape, start geom.Point)
	Test(zoneID string, s *model.SelectionShape) bool
}

// New builds the strategy for a drag mode. An unrecognized mode is a
// contract violation by the caller and fails fast.
func New(mode model.DragMode, prov provider.RenderingProvider) (Strategy, error) {
	switch mode {
	case model.DragLasso:
		return &lasso{prov: prov}, nil
	case model.DragPath:
		return &path{prov: prov}, nil
	default:
		return nil, fmt.Errorf("unrecognized drag mode %v", mode)
	}
}

// testShape routes the geometric test through the provider when it
// implements intersection natively, otherwise through the shared
// predicates over the provider's projected outline.
func testShape(prov provider.RenderingProvider, zoneID string, s *model.SelectionShape) bool {
	if prov.Capabilities().NativeIntersection {
		return prov.TestIntersection(zoneID, s)
	}
	ring, ok := prov.ProjectedRing(zoneID)
	if !ok {
		return false
	}
	if s.Closed {
		return geo.LassoContains(s.Points, ring)
	}
	return geo.PathIntersects(s.Points, ring)
}
