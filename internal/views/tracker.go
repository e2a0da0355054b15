package views

import (
	"context"
	"sync"
)

// Tracker discards results that arrive after the view moved on. Begin is
// called when a fetch is dispatched; its result is applied only if Current
// still holds for that epoch.
type Tracker struct {
	mu     sync.Mutex
	epoch  uint64
	closed bool
}

// Begin starts a new fetch, invalidating earlier ones.
func (t *Tracker) Begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.epoch++
	return t.epoch
}

// Current reports whether a result for epoch may still be applied.
func (t *Tracker) Current(ctx context.Context, epoch uint64) bool {
	if ctx.Err() != nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed && epoch == t.epoch
}

// Close invalidates every in-flight fetch.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.epoch++
}
