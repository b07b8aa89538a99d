// Package repository defines the persistence interfaces for snapshots,
// requests, and candidate profiles, with in-memory and Postgres backends.
package repository

import (
	"context"

	"github.com/gigbridge/matchd/internal/domain/model"
)

// SnapshotStore is the append-only history of scoring runs.
type SnapshotStore interface {
	// Append persists a new snapshot. Snapshots are immutable once written.
	Append(ctx context.Context, snap model.Snapshot) error

	// Latest returns the most recent snapshot for a request by creation
	// time. Returns ErrNoSnapshot when no scoring run has completed yet;
	// that state is normal, not a failure.
	Latest(ctx context.Context, requestID string) (model.Snapshot, error)

	// History returns up to limit snapshots for a request, newest first.
	History(ctx context.Context, requestID string, limit int) ([]model.Snapshot, error)

	// Count returns the total number of stored snapshots.
	Count(ctx context.Context) int
}

// RequestStore reads and writes client requests. The matcher treats
// requests as externally owned; the write path exists for the intake
// surface and tooling.
type RequestStore interface {
	Put(ctx context.Context, req model.Request) error

	// Get returns ErrNotFound for an unknown request id.
	Get(ctx context.Context, id string) (model.Request, error)

	// List returns requests, optionally filtered by status, newest first.
	List(ctx context.Context, status string) ([]model.Request, error)
}

// CandidateStore holds the freelancer profiles scored against requests.
type CandidateStore interface {
	Put(ctx context.Context, cand model.Candidate) error
	Get(ctx context.Context, id string) (model.Candidate, error)
	List(ctx context.Context) ([]model.Candidate, error)
}
