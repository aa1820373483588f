// Package wsbridge turns a remote browser canvas into a rendering
// provider: pointer, modifier and viewport events arrive as JSON
// messages over a websocket, and draw calls issued by the engine are
// forwarded back as draw commands. One session at a time; selection is
// single-user.
package wsbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/ctessum/geom"

	"github.com/anystubbs/zone-picker/internal/input"
	"github.com/anystubbs/zone-picker/internal/model"
	"github.com/anystubbs/zone-picker/internal/provider"
)

const (
	writeWait  = 10 * time.Second
	maxMsgSize = 64 * 1024
)

// PointerInjector is the platform-input side of a backend; the bridge
// feeds decoded pointer messages into it.
type PointerInjector interface {
	PointerDown(pt geom.Point, raw any)
	PointerMove(pt geom.Point, raw any)
	PointerUp(pt geom.Point, raw any)
}

// Bridge wraps a backend, forwarding its draw calls to the connected
// client while delegating everything else to the backend itself.
type Bridge struct {
	provider.RenderingProvider

	log      *slog.Logger
	inject   PointerInjector
	modifier *input.Modifier

	mu   sync.Mutex
	conn *websocket.Conn
}

func New(backend provider.RenderingProvider, inject PointerInjector, modifier *input.Modifier, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		RenderingProvider: backend,
		log:               log,
		inject:            inject,
		modifier:          modifier,
	}
}

type inbound struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Held bool    `json:"held"`
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

type command struct {
	Op       string                `json:"op"`
	ID       string                `json:"id,omitempty"`
	Mode     string                `json:"mode,omitempty"`
	Points   [][2]float64          `json:"points,omitempty"`
	Style    *model.SelectionStyle `json:"style,omitempty"`
	Zone     any                   `json:"zone,omitempty"`
	Selected []string              `json:"selected,omitempty"`
}

// Handler accepts the websocket session and pumps inbound messages into
// the backend until the client disconnects. A new session replaces the
// previous one.
func (b *Bridge) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			b.log.Warn("websocket accept failed", "err", err)
			return
		}
		conn.SetReadLimit(maxMsgSize)

		b.mu.Lock()
		if b.conn != nil {
			_ = b.conn.Close(websocket.StatusPolicyViolation, "replaced by new session")
		}
		b.conn = conn
		b.mu.Unlock()

		b.log.Info("renderer session opened")
		b.readPump(r.Context(), conn)
		b.log.Info("renderer session closed")

		b.mu.Lock()
		if b.conn == conn {
			b.conn = nil
		}
		b.mu.Unlock()
	}
}

func (b *Bridge) readPump(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close(websocket.StatusNormalClosure, "")
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			b.log.Debug("websocket read ended", "err", err)
			return
		}
		if err := b.HandleMessage(data); err != nil {
			b.log.Warn("bad renderer message", "err", err)
		}
	}
}

// HandleMessage decodes and dispatches one inbound client message.
func (b *Bridge) HandleMessage(data []byte) error {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	pt := geom.Point{X: msg.X, Y: msg.Y}
	switch msg.Type {
	case "pointerdown":
		b.inject.PointerDown(pt, msg)
	case "pointermove":
		b.inject.PointerMove(pt, msg)
	case "pointerup":
		b.inject.PointerUp(pt, msg)
	case "modifier":
		b.modifier.Set(msg.Held)
	case "viewport":
		b.RenderingProvider.SetViewportBounds(model.ViewportBounds{
			MinX: msg.MinX, MinY: msg.MinY, MaxX: msg.MaxX, MaxY: msg.MaxY,
		})
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

// --- draw-call forwarding ---

func (b *Bridge) RenderZone(z *model.Zone) error {
	if err := b.RenderingProvider.RenderZone(z); err != nil {
		return err
	}
	b.send(command{Op: "render_zone", ID: z.ID, Zone: encodeZone(z)})
	return nil
}

func (b *Bridge) RemoveZone(id string) {
	b.RenderingProvider.RemoveZone(id)
	b.send(command{Op: "remove_zone", ID: id})
}

func (b *Bridge) CreateSelectionShape(t model.DragMode, start geom.Point) (*model.SelectionShape, error) {
	s, err := b.RenderingProvider.CreateSelectionShape(t, start)
	if err != nil {
		return nil, err
	}
	b.send(command{Op: "create_shape", ID: s.ID, Mode: t.String(), Points: encodePoints(s.Points)})
	return s, nil
}

func (b *Bridge) UpdateSelectionShape(s *model.SelectionShape, current, start geom.Point) {
	b.RenderingProvider.UpdateSelectionShape(s, current, start)
	b.send(command{Op: "update_shape", ID: s.ID, Points: encodePoints(s.Points)})
}

func (b *Bridge) CompleteSelectionShape(s *model.SelectionShape, start geom.Point) {
	b.RenderingProvider.CompleteSelectionShape(s, start)
	b.send(command{Op: "complete_shape", ID: s.ID, Points: encodePoints(s.Points)})
}

func (b *Bridge) RemoveSelectionShape(s *model.SelectionShape) {
	b.RenderingProvider.RemoveSelectionShape(s)
	if s != nil {
		b.send(command{Op: "remove_shape", ID: s.ID})
	}
}

func (b *Bridge) ApplySelectionStyle(s *model.SelectionShape, style model.SelectionStyle) {
	b.RenderingProvider.ApplySelectionStyle(s, style)
	b.send(command{Op: "style_shape", ID: s.ID, Style: &style})
}

// SendSelection pushes the current selected set to the client; wired to
// the selector's selection-changed callback.
func (b *Bridge) SendSelection(ids []string) {
	b.send(command{Op: "selection", Selected: ids})
}

func (b *Bridge) send(cmd command) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		b.log.Warn("encode draw command failed", "op", cmd.Op, "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		b.log.Debug("draw command write failed", "op", cmd.Op, "err", err)
	}
}

func encodePoints(ps []geom.Point) [][2]float64 {
	out := make([][2]float64, len(ps))
	for i, p := range ps {
		out[i] = [2]float64{p.X, p.Y}
	}
	return out
}

func encodeZone(z *model.Zone) any {
	type g struct {
		Type        string `json:"type"`
		Coordinates any    `json:"coordinates"`
	}
	var gj g
	if z.Geometry.IsPoint() {
		p := z.Geometry.Point()
		gj = g{Type: "Point", Coordinates: []float64{p.X, p.Y}}
	} else {
		ring := z.Geometry.Ring()
		coords := make([][]float64, 0, len(ring))
		for _, p := range ring {
			coords = append(coords, []float64{p.X, p.Y})
		}
		gj = g{Type: "Polygon", Coordinates: [][][]float64{coords}}
	}
	return map[string]any{
		"id":       z.ID,
		"name":     z.Name,
		"category": z.Category,
		"variant":  z.Variant,
		"selected": z.Selected,
		"geometry": gj,
	}
}
