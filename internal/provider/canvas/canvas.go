// Package canvas implements a headless canvas rendering provider: a
// fixed pixel surface with viewport state, zone hit-testing and a
// selection-shape registry. It backs the engine's tests and the HTTP
// service, and is the reference for what a visual backend must do.
package canvas

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/ctessum/geom"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/anystubbs/zone-picker/internal/geo"
	"github.com/anystubbs/zone-picker/internal/model"
	"github.com/anystubbs/zone-picker/internal/observability"
	"github.com/anystubbs/zone-picker/internal/provider"
)

const (
	defaultMarkerRadiusPx = 5.0
	ringCacheSize         = 4096
)

func init() {
	provider.Register("canvas", func(s provider.Settings, log *slog.Logger) (provider.RenderingProvider, error) {
		return New(s, log)
	})
}

// Provider is the headless canvas backend. All mutation happens on the
// event-delivery goroutine; the mutex guards the HTTP read paths.
type Provider struct {
	log  *slog.Logger
	caps provider.Capabilities

	width, height float64
	markerRadius  float64
	viewport      model.ViewportBounds

	zones  map[string]*model.Zone
	shapes map[string]*model.SelectionShape
	styles map[string]model.SelectionStyle

	// Projected zone outlines, keyed by a hash of zone id, viewport
	// and surface size. Purged wholesale on viewport change.
	rings *lru.Cache[uint64, []geom.Point]

	down, move, up *provider.Emitter[provider.PointerEvent]
	viewportSubs   *provider.Emitter[struct{}]

	initialized bool
}

func New(s provider.Settings, log *slog.Logger) (*Provider, error) {
	if log == nil {
		log = slog.Default()
	}
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("canvas size %gx%g is not positive", s.Width, s.Height)
	}
	if !s.Viewport.Valid() || s.Viewport.Width() == 0 || s.Viewport.Height() == 0 {
		return nil, fmt.Errorf("viewport %+v is degenerate", s.Viewport)
	}
	r := s.MarkerRadiusPx
	if r <= 0 {
		r = defaultMarkerRadiusPx
	}
	rings, err := lru.New[uint64, []geom.Point](ringCacheSize)
	if err != nil {
		return nil, err
	}
	return &Provider{
		log: log,
		caps: provider.Capabilities{
			ModifierToDrag:     s.ModifierToDrag,
			NativeIntersection: true,
		},
		width:        s.Width,
		height:       s.Height,
		markerRadius: r,
		viewport:     s.Viewport,
		zones:        map[string]*model.Zone{},
		shapes:       map[string]*model.SelectionShape{},
		styles:       map[string]model.SelectionStyle{},
		rings:        rings,
		down:         provider.NewEmitter[provider.PointerEvent](),
		move:         provider.NewEmitter[provider.PointerEvent](),
		up:           provider.NewEmitter[provider.PointerEvent](),
		viewportSubs: provider.NewEmitter[struct{}](),
	}, nil
}

func (p *Provider) Initialize() error {
	p.initialized = true
	return nil
}

func (p *Provider) Destroy() error {
	p.initialized = false
	p.zones = map[string]*model.Zone{}
	p.shapes = map[string]*model.SelectionShape{}
	p.styles = map[string]model.SelectionStyle{}
	p.rings.Purge()
	return nil
}

func (p *Provider) Capabilities() provider.Capabilities { return p.caps }

func (p *Provider) Container() any { return p }

func (p *Provider) Size() (w, h float64) { return p.width, p.height }

func (p *Provider) WorldToCanvas(x, y float64) geom.Point {
	return geo.WorldToCanvas(p.viewport, p.width, p.height, x, y)
}

func (p *Provider) CanvasToWorld(pt geom.Point) (x, y float64) {
	return geo.CanvasToWorld(p.viewport, p.width, p.height, pt)
}

func (p *Provider) ViewportBounds() model.ViewportBounds { return p.viewport }

func (p *Provider) SetViewportBounds(b model.ViewportBounds) {
	if !b.Valid() || b.Width() == 0 || b.Height() == 0 {
		p.log.Warn("ignoring degenerate viewport", "bounds", fmt.Sprintf("%+v", b))
		return
	}
	p.viewport = b
	p.rings.Purge()
	p.viewportSubs.Emit(struct{}{})
}

// ZoomLevel derives a tile-style zoom from pixels per world unit.
func (p *Provider) ZoomLevel() float64 {
	return math.Log2(p.width / p.viewport.Width())
}

func (p *Provider) OnPointerDown(fn func(provider.PointerEvent)) func() {
	return p.down.Subscribe(fn)
}

func (p *Provider) OnPointerMove(fn func(provider.PointerEvent)) func() {
	return p.move.Subscribe(fn)
}

func (p *Provider) OnPointerUp(fn func(provider.PointerEvent)) func() {
	return p.up.Subscribe(fn)
}

func (p *Provider) OnViewportChange(fn func()) func() {
	return p.viewportSubs.Subscribe(func(struct{}) { fn() })
}

// PointerDown injects a platform pointer-down at surface coordinates.
// The platform side (tests, the websocket bridge) calls these three.
func (p *Provider) PointerDown(pt geom.Point, raw any) { p.down.Emit(p.event(pt, raw)) }

// PointerMove injects a platform pointer-move.
func (p *Provider) PointerMove(pt geom.Point, raw any) { p.move.Emit(p.event(pt, raw)) }

// PointerUp injects a platform pointer-up.
func (p *Provider) PointerUp(pt geom.Point, raw any) { p.up.Emit(p.event(pt, raw)) }

func (p *Provider) event(pt geom.Point, raw any) provider.PointerEvent {
	wx, wy := p.CanvasToWorld(pt)
	return provider.PointerEvent{Point: pt, WorldX: wx, WorldY: wy, Raw: raw}
}

// HitTest finds the rendered zone under a surface point. When zones
// overlap the one with the smallest projected bounding box wins, which
// keeps the answer deterministic and favors the most specific zone.
func (p *Provider) HitTest(pt geom.Point) (string, bool) {
	start := time.Now()
	defer func() { observability.ObserveHitTest(time.Since(start).Seconds()) }()

	bestID := ""
	bestArea := math.Inf(1)
	for id := range p.zones {
		ring, ok := p.ProjectedRing(id)
		if !ok {
			continue
		}
		b := geo.RingBounds(ring)
		if pt.X < b.Min.X || pt.X > b.Max.X || pt.Y < b.Min.Y || pt.Y > b.Max.Y {
			continue
		}
		if !geo.PointInRing(pt, ring) {
			continue
		}
		area := (b.Max.X - b.Min.X) * (b.Max.Y - b.Min.Y)
		if area < bestArea {
			bestArea = area
			bestID = id
		}
	}
	return bestID, bestID != ""
}

func (p *Provider) RenderZone(z *model.Zone) error {
	if z == nil || z.ID == "" {
		return fmt.Errorf("cannot render zone without id")
	}
	p.zones[z.ID] = z
	return nil
}

func (p *Provider) RemoveZone(id string) {
	delete(p.zones, id)
	p.rings.Remove(p.ringKey(id))
}

// RenderedZoneIDs lists the zones currently drawn on the surface.
func (p *Provider) RenderedZoneIDs() []string {
	out := make([]string, 0, len(p.zones))
	for id := range p.zones {
		out = append(out, id)
	}
	return out
}

func (p *Provider) CreateSelectionShape(t model.DragMode, start geom.Point) (*model.SelectionShape, error) {
	s := &model.SelectionShape{
		ID:     uuid.NewString(),
		Type:   t,
		Points: []geom.Point{start},
	}
	p.shapes[s.ID] = s
	return s, nil
}

func (p *Provider) UpdateSelectionShape(s *model.SelectionShape, current, _ geom.Point) {
	if _, ok := p.shapes[s.ID]; !ok {
		return
	}
	s.Points = append(s.Points, current)
}

func (p *Provider) CompleteSelectionShape(s *model.SelectionShape, _ geom.Point) {
	// Geometry is sealed by the strategy; nothing further to draw
	// headlessly.
}

func (p *Provider) RemoveSelectionShape(s *model.SelectionShape) {
	if s == nil {
		return
	}
	delete(p.shapes, s.ID)
	delete(p.styles, s.ID)
}

func (p *Provider) ApplySelectionStyle(s *model.SelectionShape, style model.SelectionStyle) {
	if _, ok := p.shapes[s.ID]; !ok {
		return
	}
	p.styles[s.ID] = style
}

// ShapeCount reports live selection shapes; zero outside a drag.
func (p *Provider) ShapeCount() int { return len(p.shapes) }

// ShapeIDs lists live selection shape ids.
func (p *Provider) ShapeIDs() []string {
	out := make([]string, 0, len(p.shapes))
	for id := range p.shapes {
		out = append(out, id)
	}
	return out
}

// ShapeStyle returns the style last applied to a shape.
func (p *Provider) ShapeStyle(id string) (model.SelectionStyle, bool) {
	st, ok := p.styles[id]
	return st, ok
}

func (p *Provider) TestIntersection(zoneID string, s *model.SelectionShape) bool {
	ring, ok := p.ProjectedRing(zoneID)
	if !ok {
		return false
	}
	if s.Closed {
		return geo.LassoContains(s.Points, ring)
	}
	return geo.PathIntersects(s.Points, ring)
}

// ProjectedRing returns the zone's rendered outline in surface
// coordinates. Point zones project to a marker box of fixed pixel
// radius. Results are cached per viewport/size snapshot.
func (p *Provider) ProjectedRing(zoneID string) ([]geom.Point, bool) {
	z, ok := p.zones[zoneID]
	if !ok {
		return nil, false
	}
	key := p.ringKey(zoneID)
	if ring, ok := p.rings.Get(key); ok {
		return ring, true
	}
	var ring []geom.Point
	if z.Geometry.IsPoint() {
		wp := z.Geometry.Point()
		c := p.WorldToCanvas(wp.X, wp.Y)
		r := p.markerRadius
		ring = []geom.Point{
			{X: c.X - r, Y: c.Y - r},
			{X: c.X + r, Y: c.Y - r},
			{X: c.X + r, Y: c.Y + r},
			{X: c.X - r, Y: c.Y + r},
		}
	} else {
		world := z.Geometry.Ring()
		ring = make([]geom.Point, len(world))
		for i, wp := range world {
			ring[i] = p.WorldToCanvas(wp.X, wp.Y)
		}
	}
	p.rings.Add(key, ring)
	return ring, true
}

func (p *Provider) ringKey(zoneID string) uint64 {
	vb := p.viewport
	return xxhash.Sum64String(fmt.Sprintf("%s|%.9f,%.9f,%.9f,%.9f|%gx%g",
		zoneID, vb.MinX, vb.MinY, vb.MaxX, vb.MaxY, p.width, p.height))
}
