package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anystubbs/zone-picker/internal/model"
	"github.com/anystubbs/zone-picker/internal/selector"
)

type zoneJSON struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Category string   `json:"category,omitempty"`
	Variant  string   `json:"variant,omitempty"`
	Selected bool     `json:"selected"`
	Geometry geomJSON `json:"geometry"`
}

type geomJSON struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

func encodeZone(z *model.Zone) zoneJSON {
	g := geomJSON{}
	if z.Geometry.IsPoint() {
		p := z.Geometry.Point()
		g.Type = "Point"
		g.Coordinates = []float64{p.X, p.Y}
	} else {
		ring := z.Geometry.Ring()
		coords := make([][]float64, 0, len(ring))
		for _, p := range ring {
			coords = append(coords, []float64{p.X, p.Y})
		}
		g.Type = "Polygon"
		g.Coordinates = [][][]float64{coords}
	}
	return zoneJSON{
		ID:       z.ID,
		Name:     z.Name,
		Category: z.Category,
		Variant:  z.Variant,
		Selected: z.Selected,
		Geometry: g,
	}
}

// Routes assembles the service router. ws may be nil when no websocket
// bridge is mounted.
func Routes(log *slog.Logger, sel *selector.Selector, ws http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer(log))
	r.Use(logging(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/zones", func(w http.ResponseWriter, _ *http.Request) {
		zones := sel.CurrentZones()
		out := make([]zoneJSON, 0, len(zones))
		for _, z := range zones {
			out = append(out, encodeZone(z))
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Get("/selection", func(w http.ResponseWriter, _ *http.Request) {
		zones := sel.SelectedZones()
		ids := make([]string, 0, len(zones))
		for _, z := range zones {
			ids = append(ids, z.ID)
		}
		cat, variant := sel.Category()
		writeJSON(w, http.StatusOK, map[string]any{
			"category": cat,
			"variant":  variant,
			"selected": ids,
		})
	})

	r.Post("/selection/clear", func(w http.ResponseWriter, _ *http.Request) {
		sel.ClearSelection()
		w.WriteHeader(http.StatusNoContent)
	})

	// Unknown or filtered-out ids leave the selection untouched; the
	// response is the post-toggle state either way.
	r.Post("/zones/{id}/toggle", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		sel.ToggleZoneSelection(id)
		zones := sel.SelectedZones()
		ids := make([]string, 0, len(zones))
		for _, z := range zones {
			ids = append(ids, z.ID)
		}
		writeJSON(w, http.StatusOK, map[string]any{"selected": ids})
	})

	r.Post("/category/{id}", func(w http.ResponseWriter, req *http.Request) {
		sel.SetCategory(chi.URLParam(req, "id"), req.URL.Query().Get("variant"))
		cat, variant := sel.Category()
		writeJSON(w, http.StatusOK, map[string]any{
			"category": cat,
			"variant":  variant,
		})
	})

	if ws != nil {
		r.Get("/ws", ws.ServeHTTP)
	}
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
