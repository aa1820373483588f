package provider

import (
	"fmt"
	"log/slog"

	"github.com/anystubbs/zone-picker/internal/model"
)

// Settings is the backend-independent construction input.
type Settings struct {
	Width          float64
	Height         float64
	Viewport       model.ViewportBounds
	MarkerRadiusPx float64
	ModifierToDrag bool
}

type Factory func(s Settings, log *slog.Logger) (RenderingProvider, error)

var reg = map[string]Factory{}

// Register makes a backend constructible by name. Backends register
// from their package init, pulled in via blank imports at the wiring
// point.
func Register(name string, f Factory) {
	reg[name] = f
}

// New builds the named backend. An unknown name is a wiring mistake and
// fails fast rather than silently substituting another backend.
func New(name string, s Settings, log *slog.Logger) (RenderingProvider, error) {
	f, ok := reg[name]
	if !ok {
		return nil, fmt.Errorf("no rendering provider registered for %q", name)
	}
	return f(s, log)
}
