package wsbridge

import (
	"testing"

	"github.com/ctessum/geom"

	"github.com/anystubbs/zone-picker/internal/input"
	"github.com/anystubbs/zone-picker/internal/model"
	"github.com/anystubbs/zone-picker/internal/provider"
	"github.com/anystubbs/zone-picker/internal/provider/canvas"
)

type recordingInjector struct {
	downs, moves, ups []geom.Point
}

func (r *recordingInjector) PointerDown(pt geom.Point, _ any) { r.downs = append(r.downs, pt) }
func (r *recordingInjector) PointerMove(pt geom.Point, _ any) { r.moves = append(r.moves, pt) }
func (r *recordingInjector) PointerUp(pt geom.Point, _ any)   { r.ups = append(r.ups, pt) }

func newTestBridge(t *testing.T) (*Bridge, *recordingInjector, *input.Modifier, *canvas.Provider) {
	t.Helper()
	cv, err := canvas.New(provider.Settings{
		Width: 800, Height: 600,
		Viewport: model.ViewportBounds{MinX: 0, MinY: 0, MaxX: 800, MaxY: 600},
	}, nil)
	if err != nil {
		t.Fatalf("canvas: %v", err)
	}
	inj := &recordingInjector{}
	mod := input.NewModifier()
	return New(cv, inj, mod, nil), inj, mod, cv
}

func TestHandleMessage_PointerDispatch(t *testing.T) {
	b, inj, _, _ := newTestBridge(t)

	msgs := []string{
		`{"type":"pointerdown","x":10,"y":20}`,
		`{"type":"pointermove","x":15,"y":25}`,
		`{"type":"pointerup","x":15,"y":25}`,
	}
	for _, m := range msgs {
		if err := b.HandleMessage([]byte(m)); err != nil {
			t.Fatalf("dispatch %s: %v", m, err)
		}
	}

	if len(inj.downs) != 1 || inj.downs[0] != (geom.Point{X: 10, Y: 20}) {
		t.Fatalf("downs = %v", inj.downs)
	}
	if len(inj.moves) != 1 || inj.moves[0] != (geom.Point{X: 15, Y: 25}) {
		t.Fatalf("moves = %v", inj.moves)
	}
	if len(inj.ups) != 1 {
		t.Fatalf("ups = %v", inj.ups)
	}
}

func TestHandleMessage_Modifier(t *testing.T) {
	b, _, mod, _ := newTestBridge(t)

	if err := b.HandleMessage([]byte(`{"type":"modifier","held":true}`)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !mod.Held() {
		t.Fatalf("modifier state not applied")
	}
	if err := b.HandleMessage([]byte(`{"type":"modifier","held":false}`)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if mod.Held() {
		t.Fatalf("modifier release not applied")
	}
}

func TestHandleMessage_Viewport(t *testing.T) {
	b, _, _, cv := newTestBridge(t)

	msg := `{"type":"viewport","minX":0,"minY":0,"maxX":400,"maxY":300}`
	if err := b.HandleMessage([]byte(msg)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := cv.ViewportBounds(); got.MaxX != 400 || got.MaxY != 300 {
		t.Fatalf("viewport = %+v", got)
	}
}

func TestHandleMessage_Rejections(t *testing.T) {
	b, _, _, _ := newTestBridge(t)

	if err := b.HandleMessage([]byte(`{`)); err == nil {
		t.Fatalf("malformed json must be an error")
	}
	if err := b.HandleMessage([]byte(`{"type":"teleport"}`)); err == nil {
		t.Fatalf("unknown message type must be an error")
	}
}

func TestDrawForwarding_NoSessionIsHarmless(t *testing.T) {
	b, _, _, cv := newTestBridge(t)

	g, err := model.NewPolygonGeometry([]geom.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10},
	})
	if err != nil {
		t.Fatalf("geometry: %v", err)
	}
	z := &model.Zone{ID: "z", Geometry: g}

	// No client connected; every draw call still lands on the backend.
	if err := b.RenderZone(z); err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := cv.RenderedZoneIDs(); len(got) != 1 || got[0] != "z" {
		t.Fatalf("backend zones = %v", got)
	}

	s, err := b.CreateSelectionShape(model.DragLasso, geom.Point{X: 1, Y: 1})
	if err != nil {
		t.Fatalf("create shape: %v", err)
	}
	b.UpdateSelectionShape(s, geom.Point{X: 2, Y: 2}, geom.Point{X: 1, Y: 1})
	b.CompleteSelectionShape(s, geom.Point{X: 1, Y: 1})
	b.ApplySelectionStyle(s, model.SelectionStyle{StrokeWidth: 3})
	b.SendSelection([]string{"z"})
	b.RemoveSelectionShape(s)
	b.RemoveSelectionShape(nil) // must not panic
	b.RemoveZone("z")

	if got := cv.RenderedZoneIDs(); len(got) != 0 {
		t.Fatalf("zone not removed: %v", got)
	}
	if cv.ShapeCount() != 0 {
		t.Fatalf("shape not removed")
	}
}

func TestEncodePoints(t *testing.T) {
	got := encodePoints([]geom.Point{{X: 1, Y: 2}, {X: 3, Y: 4}})
	if len(got) != 2 || got[0] != [2]float64{1, 2} || got[1] != [2]float64{3, 4} {
		t.Fatalf("encoded = %v", got)
	}
}
