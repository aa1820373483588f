package canvas

import (
	"testing"

	"github.com/ctessum/geom"

	"github.com/anystubbs/zone-picker/internal/model"
	"github.com/anystubbs/zone-picker/internal/provider"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(provider.Settings{
		Width:  800,
		Height: 600,
		// World and surface sizes match, so projection only flips Y.
		Viewport: model.ViewportBounds{MinX: 0, MinY: 0, MaxX: 800, MaxY: 600},
	}, nil)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if err := p.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(func() { _ = p.Destroy() })
	return p
}

func mustPolygonZone(t *testing.T, id string, minX, minY, maxX, maxY float64) *model.Zone {
	t.Helper()
	g, err := model.NewPolygonGeometry([]geom.Point{
		{X: minX, Y: minY}, {X: maxX, Y: minY}, {X: maxX, Y: maxY}, {X: minX, Y: maxY},
	})
	if err != nil {
		t.Fatalf("polygon %s: %v", id, err)
	}
	return &model.Zone{ID: id, Geometry: g}
}

func TestNew_RejectsDegenerateConfiguration(t *testing.T) {
	if _, err := New(provider.Settings{Width: 0, Height: 600,
		Viewport: model.ViewportBounds{MaxX: 1, MaxY: 1}}, nil); err == nil {
		t.Fatalf("zero width must be rejected")
	}
	if _, err := New(provider.Settings{Width: 800, Height: 600,
		Viewport: model.ViewportBounds{MinX: 5, MaxX: 5, MinY: 0, MaxY: 1}}, nil); err == nil {
		t.Fatalf("zero-width viewport must be rejected")
	}
	if _, err := New(provider.Settings{Width: 800, Height: 600,
		Viewport: model.ViewportBounds{MinX: 9, MaxX: 1, MinY: 0, MaxY: 1}}, nil); err == nil {
		t.Fatalf("inverted viewport must be rejected")
	}
}

func TestZoomLevel_TracksViewportWidth(t *testing.T) {
	p := newTestProvider(t)
	if z := p.ZoomLevel(); z != 0 {
		t.Fatalf("800px over 800 world units: zoom %g, want 0", z)
	}
	p.SetViewportBounds(model.ViewportBounds{MinX: 0, MinY: 0, MaxX: 400, MaxY: 300})
	if z := p.ZoomLevel(); z != 1 {
		t.Fatalf("after zooming in 2x: zoom %g, want 1", z)
	}
}

func TestSetViewportBounds_IgnoresDegenerateAndNotifies(t *testing.T) {
	p := newTestProvider(t)
	notified := 0
	unsub := p.OnViewportChange(func() { notified++ })

	p.SetViewportBounds(model.ViewportBounds{MinX: 10, MaxX: 5, MinY: 0, MaxY: 1})
	if got := p.ViewportBounds(); got.MaxX != 800 {
		t.Fatalf("degenerate viewport was applied: %+v", got)
	}
	if notified != 0 {
		t.Fatalf("degenerate viewport must not notify")
	}

	p.SetViewportBounds(model.ViewportBounds{MinX: 0, MinY: 0, MaxX: 400, MaxY: 300})
	if notified != 1 {
		t.Fatalf("got %d notifications, want 1", notified)
	}

	unsub()
	p.SetViewportBounds(model.ViewportBounds{MinX: 0, MinY: 0, MaxX: 200, MaxY: 150})
	if notified != 1 {
		t.Fatalf("unsubscribed handler still fired")
	}
}

func TestHitTest_PolygonZone(t *testing.T) {
	p := newTestProvider(t)
	if err := p.RenderZone(mustPolygonZone(t, "a", 100, 100, 200, 200)); err != nil {
		t.Fatalf("render: %v", err)
	}

	id, ok := p.HitTest(p.WorldToCanvas(150, 150))
	if !ok || id != "a" {
		t.Fatalf("interior hit = %q/%v, want a", id, ok)
	}
	if _, ok := p.HitTest(p.WorldToCanvas(500, 500)); ok {
		t.Fatalf("miss reported a hit")
	}
}

func TestHitTest_SmallestZoneWinsOnOverlap(t *testing.T) {
	p := newTestProvider(t)
	if err := p.RenderZone(mustPolygonZone(t, "big", 100, 100, 300, 300)); err != nil {
		t.Fatalf("render big: %v", err)
	}
	if err := p.RenderZone(mustPolygonZone(t, "small", 150, 150, 200, 200)); err != nil {
		t.Fatalf("render small: %v", err)
	}

	id, ok := p.HitTest(p.WorldToCanvas(175, 175))
	if !ok || id != "small" {
		t.Fatalf("overlap hit = %q/%v, want small", id, ok)
	}
	id, ok = p.HitTest(p.WorldToCanvas(120, 120))
	if !ok || id != "big" {
		t.Fatalf("big-only hit = %q/%v, want big", id, ok)
	}
}

func TestHitTest_PointZoneUsesMarkerBox(t *testing.T) {
	p := newTestProvider(t)
	z := &model.Zone{ID: "pt", Geometry: model.NewPointGeometry(600, 300)}
	if err := p.RenderZone(z); err != nil {
		t.Fatalf("render: %v", err)
	}

	center := p.WorldToCanvas(600, 300)
	if id, ok := p.HitTest(center); !ok || id != "pt" {
		t.Fatalf("marker center hit = %q/%v", id, ok)
	}
	near := geom.Point{X: center.X + 4, Y: center.Y - 4}
	if id, ok := p.HitTest(near); !ok || id != "pt" {
		t.Fatalf("inside marker radius = %q/%v", id, ok)
	}
	far := geom.Point{X: center.X + 10, Y: center.Y}
	if _, ok := p.HitTest(far); ok {
		t.Fatalf("outside marker radius must miss")
	}
}

func TestProjectedRing_InvalidatedOnViewportChange(t *testing.T) {
	p := newTestProvider(t)
	if err := p.RenderZone(mustPolygonZone(t, "a", 100, 100, 200, 200)); err != nil {
		t.Fatalf("render: %v", err)
	}

	before, ok := p.ProjectedRing("a")
	if !ok {
		t.Fatalf("no projected ring for rendered zone")
	}
	p.SetViewportBounds(model.ViewportBounds{MinX: 0, MinY: 0, MaxX: 400, MaxY: 300})
	after, ok := p.ProjectedRing("a")
	if !ok {
		t.Fatalf("no projected ring after viewport change")
	}
	if before[0] == after[0] {
		t.Fatalf("projection unchanged after zoom: %v", before[0])
	}

	if _, ok := p.ProjectedRing("missing"); ok {
		t.Fatalf("unknown zone must have no projected ring")
	}
}

func TestSelectionShapeLifecycle(t *testing.T) {
	p := newTestProvider(t)
	s, err := p.CreateSelectionShape(model.DragLasso, geom.Point{X: 10, Y: 20})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ID == "" || len(s.Points) != 1 {
		t.Fatalf("fresh shape = %+v", s)
	}
	if p.ShapeCount() != 1 {
		t.Fatalf("ShapeCount = %d, want 1", p.ShapeCount())
	}

	p.UpdateSelectionShape(s, geom.Point{X: 15, Y: 25}, geom.Point{X: 10, Y: 20})
	if len(s.Points) != 2 {
		t.Fatalf("update did not append: %v", s.Points)
	}

	style := model.SelectionStyle{StrokeWidth: 3, Dashed: true, Color: "#123456"}
	p.ApplySelectionStyle(s, style)
	if got, ok := p.ShapeStyle(s.ID); !ok || got != style {
		t.Fatalf("style = %+v/%v", got, ok)
	}

	p.RemoveSelectionShape(s)
	if p.ShapeCount() != 0 {
		t.Fatalf("ShapeCount after remove = %d", p.ShapeCount())
	}
	p.RemoveSelectionShape(nil) // must not panic
}

func TestTestIntersection_ClosedAndOpenShapes(t *testing.T) {
	p := newTestProvider(t)
	if err := p.RenderZone(mustPolygonZone(t, "a", 100, 100, 200, 200)); err != nil {
		t.Fatalf("render: %v", err)
	}

	// Surface-space ring fully around the zone's projection.
	min := p.WorldToCanvas(100, 200) // top-left on the surface
	max := p.WorldToCanvas(200, 100) // bottom-right on the surface
	lasso := &model.SelectionShape{
		Type:   model.DragLasso,
		Closed: true,
		Points: []geom.Point{
			{X: min.X - 20, Y: min.Y - 20},
			{X: max.X + 20, Y: min.Y - 20},
			{X: max.X + 20, Y: max.Y + 20},
			{X: min.X - 20, Y: max.Y + 20},
			{X: min.X - 20, Y: min.Y - 20},
		},
	}
	if !p.TestIntersection("a", lasso) {
		t.Fatalf("enclosing lasso must select the zone")
	}

	path := &model.SelectionShape{
		Type:   model.DragPath,
		Points: []geom.Point{{X: min.X - 20, Y: (min.Y + max.Y) / 2}, {X: max.X + 20, Y: (min.Y + max.Y) / 2}},
	}
	if !p.TestIntersection("a", path) {
		t.Fatalf("path crossing the zone must select it")
	}

	miss := &model.SelectionShape{
		Type:   model.DragPath,
		Points: []geom.Point{{X: 1, Y: 1}, {X: 2, Y: 2}},
	}
	if p.TestIntersection("a", miss) {
		t.Fatalf("far-away path must not select the zone")
	}
	if p.TestIntersection("missing", lasso) {
		t.Fatalf("unknown zone must never intersect")
	}
}

func TestRenderZone_RequiresID(t *testing.T) {
	p := newTestProvider(t)
	if err := p.RenderZone(nil); err == nil {
		t.Fatalf("nil zone must be rejected")
	}
	if err := p.RenderZone(&model.Zone{Geometry: model.NewPointGeometry(0, 0)}); err == nil {
		t.Fatalf("zone without id must be rejected")
	}
}

func TestPointerInjection_CarriesWorldCoordinates(t *testing.T) {
	p := newTestProvider(t)
	var got provider.PointerEvent
	p.OnPointerDown(func(ev provider.PointerEvent) { got = ev })

	pt := geom.Point{X: 400, Y: 300}
	p.PointerDown(pt, "raw-token")

	if got.Point != pt {
		t.Fatalf("surface point = %+v, want %+v", got.Point, pt)
	}
	if got.WorldX != 400 || got.WorldY != 300 {
		t.Fatalf("world = (%g,%g), want (400,300)", got.WorldX, got.WorldY)
	}
	if got.Raw != "raw-token" {
		t.Fatalf("raw platform event not preserved")
	}
}
