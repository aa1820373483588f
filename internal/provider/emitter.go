package provider

import (
	"sync"

	"github.com/google/uuid"
)

// Emitter is a subscription registry keyed by opaque handles. Each
// Subscribe returns a disposer; disposing twice is harmless. This
// replaces slice-splicing unsubscribe schemes that double-remove.
type Emitter[T any] struct {
	mu   sync.RWMutex
	subs map[string]func(T)
}

func NewEmitter[T any]() *Emitter[T] {
	return &Emitter[T]{subs: map[string]func(T){}}
}

func (e *Emitter[T]) Subscribe(fn func(T)) func() {
	id := uuid.NewString()
	e.mu.Lock()
	e.subs[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

func (e *Emitter[T]) Emit(v T) {
	e.mu.RLock()
	fns := make([]func(T), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.RUnlock()
	for _, fn := range fns {
		fn(v)
	}
}

func (e *Emitter[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}
