package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	// ErrNoSnapshot means no scoring run has been recorded for the
	// request. Callers must treat it as an empty state, not a failure.
	ErrNoSnapshot = errors.New("no snapshot for request")

	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("not found")
)
