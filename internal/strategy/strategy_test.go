package strategy

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/google/uuid"

	"github.com/anystubbs/zone-picker/internal/model"
	"github.com/anystubbs/zone-picker/internal/provider"
)

// fakeBackend declares no native intersection support, so Test must run
// the shared predicates over ProjectedRing output.
type fakeBackend struct {
	rings           map[string][]geom.Point
	styles          []model.SelectionStyle
	completed       int
	nativeTestCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{rings: map[string][]geom.Point{}}
}

func (f *fakeBackend) Initialize() error                     { return nil }
func (f *fakeBackend) Destroy() error                        { return nil }
func (f *fakeBackend) Capabilities() provider.Capabilities   { return provider.Capabilities{} }
func (f *fakeBackend) Container() any                        { return nil }
func (f *fakeBackend) WorldToCanvas(x, y float64) geom.Point { return geom.Point{X: x, Y: y} }
func (f *fakeBackend) CanvasToWorld(p geom.Point) (float64, float64) {
	return p.X, p.Y
}
func (f *fakeBackend) ViewportBounds() model.ViewportBounds             { return model.ViewportBounds{} }
func (f *fakeBackend) SetViewportBounds(model.ViewportBounds)           {}
func (f *fakeBackend) ZoomLevel() float64                               { return 0 }
func (f *fakeBackend) OnPointerDown(func(provider.PointerEvent)) func() { return func() {} }
func (f *fakeBackend) OnPointerMove(func(provider.PointerEvent)) func() { return func() {} }
func (f *fakeBackend) OnPointerUp(func(provider.PointerEvent)) func()   { return func() {} }
func (f *fakeBackend) OnViewportChange(func()) func()                   { return func() {} }
func (f *fakeBackend) HitTest(geom.Point) (string, bool)                { return "", false }
func (f *fakeBackend) RenderZone(*model.Zone) error                     { return nil }
func (f *fakeBackend) RemoveZone(string)                                {}

func (f *fakeBackend) CreateSelectionShape(t model.DragMode, start geom.Point) (*model.SelectionShape, error) {
	return &model.SelectionShape{ID: uuid.NewString(), Type: t, Points: []geom.Point{start}}, nil
}

func (f *fakeBackend) UpdateSelectionShape(s *model.SelectionShape, current, _ geom.Point) {
	s.Points = append(s.Points, current)
}

func (f *fakeBackend) CompleteSelectionShape(*model.SelectionShape, geom.Point) { f.completed++ }
func (f *fakeBackend) RemoveSelectionShape(*model.SelectionShape)               {}

func (f *fakeBackend) ApplySelectionStyle(_ *model.SelectionShape, style model.SelectionStyle) {
	f.styles = append(f.styles, style)
}

func (f *fakeBackend) TestIntersection(string, *model.SelectionShape) bool {
	f.nativeTestCalls++
	return false
}

func (f *fakeBackend) ProjectedRing(zoneID string) ([]geom.Point, bool) {
	r, ok := f.rings[zoneID]
	return r, ok
}

func TestNew_UnknownModeFailsFast(t *testing.T) {
	if _, err := New(model.DragMode(7), newFakeBackend()); err == nil {
		t.Fatalf("unknown drag mode must be an error")
	}
}

func TestLasso_CompleteClosesRing(t *testing.T) {
	f := newFakeBackend()
	strat, err := New(model.DragLasso, f)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	start := geom.Point{X: 10, Y: 10}
	s, err := strat.Create(start)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	strat.Update(s, geom.Point{X: 50, Y: 10}, start)
	strat.Update(s, geom.Point{X: 50, Y: 50}, start)
	strat.Complete(s, start)

	if !s.Closed {
		t.Fatalf("completed lasso must be closed")
	}
	if s.Points[0] != s.Points[len(s.Points)-1] {
		t.Fatalf("closed ring must end where it starts: %v .. %v",
			s.Points[0], s.Points[len(s.Points)-1])
	}
	if f.completed != 1 {
		t.Fatalf("backend completion hook fired %d times, want 1", f.completed)
	}
}

func TestLasso_ZeroMovementDragBecomesSmallBox(t *testing.T) {
	f := newFakeBackend()
	strat, _ := New(model.DragLasso, f)

	start := geom.Point{X: 100, Y: 100}
	s, err := strat.Create(start)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	strat.Complete(s, start) // no Update between down and up

	if !s.Closed || len(s.Points) != 5 {
		t.Fatalf("degenerate lasso = closed %v, %d points, want closed box of 5",
			s.Closed, len(s.Points))
	}
	for _, p := range s.Points {
		if p.X < 90 || p.X > 110 || p.Y < 90 || p.Y > 110 {
			t.Fatalf("box vertex %v strays from the start point", p)
		}
	}
}

func TestPath_CompleteLeavesPolylineOpen(t *testing.T) {
	f := newFakeBackend()
	strat, _ := New(model.DragPath, f)

	start := geom.Point{X: 0, Y: 0}
	s, _ := strat.Create(start)
	strat.Update(s, geom.Point{X: 10, Y: 10}, start)
	strat.Complete(s, start)

	if s.Closed {
		t.Fatalf("a path must never be closed")
	}
	if s.Points[len(s.Points)-1] == s.Points[0] {
		t.Fatalf("a path must not gain a closing vertex")
	}
}

func TestStyles_DistinguishModesAndModifier(t *testing.T) {
	f := newFakeBackend()
	l, _ := New(model.DragLasso, f)
	p, _ := New(model.DragPath, f)
	s := &model.SelectionShape{ID: "s"}

	l.ApplyStyle(s, false)
	l.ApplyStyle(s, true)
	p.ApplyStyle(s, false)

	if len(f.styles) != 3 {
		t.Fatalf("got %d styles", len(f.styles))
	}
	if !f.styles[0].Dashed || f.styles[0].StrokeWidth != 3 {
		t.Fatalf("lasso style = %+v, want dashed width 3", f.styles[0])
	}
	if f.styles[0].Color == f.styles[1].Color {
		t.Fatalf("modifier must flip the stroke color")
	}
	if f.styles[2].Dashed || f.styles[2].StrokeWidth != 1.5 {
		t.Fatalf("path style = %+v, want solid width 1.5", f.styles[2])
	}
}

func TestTest_FallsBackToSharedPredicates(t *testing.T) {
	f := newFakeBackend()
	f.rings["z"] = []geom.Point{{X: 10, Y: 10}, {X: 20, Y: 10}, {X: 20, Y: 20}, {X: 10, Y: 20}}

	strat, _ := New(model.DragLasso, f)
	start := geom.Point{X: 0, Y: 0}
	s, _ := strat.Create(start)
	strat.Update(s, geom.Point{X: 30, Y: 0}, start)
	strat.Update(s, geom.Point{X: 30, Y: 30}, start)
	strat.Update(s, geom.Point{X: 0, Y: 30}, start)
	strat.Complete(s, start)

	if !strat.Test("z", s) {
		t.Fatalf("enclosing lasso must select the zone")
	}
	if strat.Test("missing", s) {
		t.Fatalf("zone without a projected ring must not be selected")
	}
	if f.nativeTestCalls != 0 {
		t.Fatalf("backend without native intersection was asked %d times", f.nativeTestCalls)
	}

	pathStrat, _ := New(model.DragPath, f)
	ps, _ := pathStrat.Create(geom.Point{X: 0, Y: 15})
	pathStrat.Update(ps, geom.Point{X: 30, Y: 15}, geom.Point{X: 0, Y: 15})
	pathStrat.Complete(ps, geom.Point{X: 0, Y: 15})
	if !pathStrat.Test("z", ps) {
		t.Fatalf("crossing path must select the zone")
	}
}
