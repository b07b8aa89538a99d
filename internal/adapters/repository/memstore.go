package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/gigbridge/matchd/internal/domain/model"
)

// MemSnapshotStore implements SnapshotStore with per-request slices kept
// newest first.
type MemSnapshotStore struct {
	mu    sync.RWMutex
	byReq map[string][]model.Snapshot
	total int
}

// NewMemSnapshotStore creates an empty in-memory snapshot store.
func NewMemSnapshotStore() *MemSnapshotStore {
	return &MemSnapshotStore{byReq: make(map[string][]model.Snapshot)}
}

// Append implements SnapshotStore.
func (s *MemSnapshotStore) Append(_ context.Context, snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append([]model.Snapshot{snap}, s.byReq[snap.RequestID]...)
	// Concurrent writers may land out of order; keep newest first.
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.After(history[j].CreatedAt)
	})
	s.byReq[snap.RequestID] = history
	s.total++
	return nil
}

// Latest implements SnapshotStore.
func (s *MemSnapshotStore) Latest(_ context.Context, requestID string) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.byReq[requestID]
	if len(history) == 0 {
		return model.Snapshot{}, ErrNoSnapshot
	}
	return history[0], nil
}

// History implements SnapshotStore.
func (s *MemSnapshotStore) History(_ context.Context, requestID string, limit int) ([]model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.byReq[requestID]
	if limit > 0 && limit < len(history) {
		history = history[:limit]
	}
	out := make([]model.Snapshot, len(history))
	copy(out, history)
	return out, nil
}

// Count implements SnapshotStore.
func (s *MemSnapshotStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// MemRequestStore implements RequestStore with a map.
type MemRequestStore struct {
	mu   sync.RWMutex
	rows map[string]model.Request
}

// NewMemRequestStore creates an empty in-memory request store.
func NewMemRequestStore() *MemRequestStore {
	return &MemRequestStore{rows: make(map[string]model.Request)}
}

// Put implements RequestStore.
func (s *MemRequestStore) Put(_ context.Context, req model.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[req.ID] = req
	return nil
}

// Get implements RequestStore.
func (s *MemRequestStore) Get(_ context.Context, id string) (model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.rows[id]
	if !ok {
		return model.Request{}, ErrNotFound
	}
	return req, nil
}

// List implements RequestStore.
func (s *MemRequestStore) List(_ context.Context, status string) ([]model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Request, 0, len(s.rows))
	for _, req := range s.rows {
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// MemCandidateStore implements CandidateStore with a map.
type MemCandidateStore struct {
	mu   sync.RWMutex
	rows map[string]model.Candidate
}

// NewMemCandidateStore creates an empty in-memory candidate store.
func NewMemCandidateStore() *MemCandidateStore {
	return &MemCandidateStore{rows: make(map[string]model.Candidate)}
}

// Put implements CandidateStore.
func (s *MemCandidateStore) Put(_ context.Context, cand model.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[cand.ID] = cand
	return nil
}

// Get implements CandidateStore.
func (s *MemCandidateStore) Get(_ context.Context, id string) (model.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cand, ok := s.rows[id]
	if !ok {
		return model.Candidate{}, ErrNotFound
	}
	return cand, nil
}

// List implements CandidateStore.
func (s *MemCandidateStore) List(_ context.Context) ([]model.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Candidate, 0, len(s.rows))
	for _, cand := range s.rows {
		out = append(out, cand)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
