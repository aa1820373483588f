// Package input tracks modifier-key state for the selection engine.
//
// The tracker is a scoped registration owned by whoever feeds it
// platform key events, not an ambient global listener: each engine
// instance holds its own Modifier and unsubscribes on shutdown, so
// concurrent engines cannot leak handlers into each other.
package input

import (
	"sync"

	"github.com/google/uuid"
)

// Modifier holds the current held state of the shift-equivalent key.
// State is sampled at the moment each styling or selection decision is
// made; it is never snapshotted at gesture start.
type Modifier struct {
	mu   sync.RWMutex
	held bool
	subs map[string]func(bool)
}

func NewModifier() *Modifier {
	return &Modifier{subs: map[string]func(bool){}}
}

// Held reports the current state.
func (m *Modifier) Held() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.held
}

// Set updates the state and notifies subscribers on change.
func (m *Modifier) Set(held bool) {
	m.mu.Lock()
	if m.held == held {
		m.mu.Unlock()
		return
	}
	m.held = held
	fns := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(held)
	}
}

// Subscribe registers fn for state changes and returns an idempotent
// unsubscribe func.
func (m *Modifier) Subscribe(fn func(held bool)) func() {
	id := uuid.NewString()
	m.mu.Lock()
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}
