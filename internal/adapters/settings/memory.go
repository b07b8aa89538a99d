package settings

import (
	"context"
	"errors"
	"sync"
)

// errWriteRefused simulates a backing-store write failure.
var errWriteRefused = errors.New("write refused")

// MemoryStore implements Store with an in-process map. It is the default
// when no Redis URL is configured and the store used by tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string

	// failAfter, when >= 0, makes Put fail once that many writes have
	// succeeded. Tests use it to exercise partial-write surfacing.
	failAfter int
	writes    int
}

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithFailAfter makes the store's Put fail after n successful writes.
func WithFailAfter(n int) MemoryOption {
	return func(s *MemoryStore) {
		s.failAfter = n
	}
}

// NewMemoryStore creates an empty in-memory settings store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		values:    make(map[string]string),
		failAfter: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadAll implements Store.
func (s *MemoryStore) LoadAll(_ context.Context, keys []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := s.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter >= 0 && s.writes >= s.failAfter {
		return errWriteRefused
	}
	s.values[key] = value
	s.writes++
	return nil
}
