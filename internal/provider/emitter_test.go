package provider

import (
	"log/slog"
	"testing"
)

func TestEmitter_SubscribeEmit(t *testing.T) {
	e := NewEmitter[int]()
	var got []int
	e.Subscribe(func(v int) { got = append(got, v) })
	e.Subscribe(func(v int) { got = append(got, v*10) })

	e.Emit(3)

	if len(got) != 2 {
		t.Fatalf("got %d deliveries, want 2", len(got))
	}
	if e.Len() != 2 {
		t.Fatalf("Len = %d, want 2", e.Len())
	}
}

func TestEmitter_DisposeIsIdempotent(t *testing.T) {
	e := NewEmitter[string]()
	calls := 0
	keep := func(string) { calls++ }
	stay := e.Subscribe(keep)
	_ = stay

	gone := e.Subscribe(func(string) { t.Fatalf("disposed subscriber must not fire") })
	gone()
	gone() // double dispose must not remove anyone else

	e.Emit("x")
	if calls != 1 {
		t.Fatalf("remaining subscriber fired %d times, want 1", calls)
	}
	if e.Len() != 1 {
		t.Fatalf("Len = %d, want 1", e.Len())
	}
}

func TestRegistry_UnknownBackendFailsFast(t *testing.T) {
	if _, err := New("no-such-backend", Settings{}, nil); err == nil {
		t.Fatalf("unknown backend name must be an error")
	}
}

func TestRegistry_RegisteredBackendIsConstructible(t *testing.T) {
	var gotWidth float64
	Register("registry-test", func(s Settings, _ *slog.Logger) (RenderingProvider, error) {
		gotWidth = s.Width
		return nil, nil
	})

	if _, err := New("registry-test", Settings{Width: 640}, nil); err != nil {
		t.Fatalf("registered backend failed to construct: %v", err)
	}
	if gotWidth != 640 {
		t.Fatalf("factory saw width %g, want 640", gotWidth)
	}
}
