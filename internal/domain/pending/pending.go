// Package pending tracks in-flight work keyed by id.
//
// The rescore pipeline and the compute endpoint both use it as a
// re-entrancy guard: a request id can be acquired once and must be
// released when the run finishes, so duplicate concurrent runs for the
// same request never start.
package pending

import (
	"context"
	"sync"
)

// Tracker records ids with work currently in flight.
type Tracker interface {
	// TryAcquire atomically records id as in flight. It returns false if
	// the id is already held.
	TryAcquire(ctx context.Context, id string) bool

	// Release removes id, allowing a new run to start. Releasing an id
	// that is not held is a no-op.
	Release(ctx context.Context, id string)

	// Size returns the number of ids currently held.
	Size() int
}

type inMemoryTracker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewTracker creates an in-memory tracker.
func NewTracker() Tracker {
	return &inMemoryTracker{held: make(map[string]struct{})}
}

func (t *inMemoryTracker) TryAcquire(_ context.Context, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.held[id]; ok {
		return false
	}
	t.held[id] = struct{}{}
	return true
}

func (t *inMemoryTracker) Release(_ context.Context, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.held, id)
}

func (t *inMemoryTracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.held)
}
