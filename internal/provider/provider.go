// Package provider defines the rendering-provider boundary: the
// contract a visual backend fulfils so the selection engine never
// assumes a specific surface (canvas 2D, WebGL overlay, tile map, or a
// remote browser over a socket).
package provider

import (
	"github.com/ctessum/geom"

	"github.com/anystubbs/zone-picker/internal/model"
)

// PointerEvent is one pointer sample delivered by a backend. Point is
// in surface (pixel) coordinates; WorldX/WorldY carry the same position
// in world coordinates. Raw holds the backend's original platform
// event, opaque to the engine.
type PointerEvent struct {
	Point  geom.Point
	WorldX float64
	WorldY float64
	Raw    any
}

// Capabilities are explicit flags a backend declares instead of the
// engine sniffing its concrete type.
type Capabilities struct {
	// ModifierToDrag marks backends that reserve unmodified drags for
	// panning; a selection drag only starts while the modifier is held.
	ModifierToDrag bool
	// NativeIntersection marks backends implementing TestIntersection
	// themselves (e.g. GPU hit geometry). When unset, strategies run
	// the shared predicates over ProjectedRing output.
	NativeIntersection bool
}

// RenderingProvider is the full backend contract. Backends must deliver
// pointer-down, zero or more pointer-moves, then exactly one pointer-up
// per gesture, in order and without reentrancy.
type RenderingProvider interface {
	Initialize() error
	Destroy() error
	Capabilities() Capabilities
	Container() any

	// Coordinate transforms and viewport.
	WorldToCanvas(x, y float64) geom.Point
	CanvasToWorld(p geom.Point) (x, y float64)
	ViewportBounds() model.ViewportBounds
	SetViewportBounds(b model.ViewportBounds)
	ZoomLevel() float64

	// Event subscriptions; each returns an idempotent unsubscribe.
	OnPointerDown(fn func(PointerEvent)) func()
	OnPointerMove(fn func(PointerEvent)) func()
	OnPointerUp(fn func(PointerEvent)) func()
	OnViewportChange(fn func()) func()

	// Hit testing against the currently rendered zones.
	HitTest(p geom.Point) (zoneID string, ok bool)

	// Zone rendering.
	RenderZone(z *model.Zone) error
	RemoveZone(id string)

	// Selection shape lifecycle.
	CreateSelectionShape(t model.DragMode, start geom.Point) (*model.SelectionShape, error)
	UpdateSelectionShape(s *model.SelectionShape, current, start geom.Point)
	CompleteSelectionShape(s *model.SelectionShape, start geom.Point)
	RemoveSelectionShape(s *model.SelectionShape)
	ApplySelectionStyle(s *model.SelectionShape, style model.SelectionStyle)

	// Geometric test delegation.
	TestIntersection(zoneID string, s *model.SelectionShape) bool
	// ProjectedRing returns the zone's rendered outline in surface
	// coordinates (point zones as marker boxes) for the shared
	// predicates.
	ProjectedRing(zoneID string) ([]geom.Point, bool)
}
