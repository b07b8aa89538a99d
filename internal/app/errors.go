package service

import "errors"

// Sentinel kinds for coordinator errors.
var (
	// ErrComputeInFlight means a scoring run for the same request is
	// already outstanding; no second run was started.
	ErrComputeInFlight = errors.New("compute already in flight for request")

	// ErrComputeTimeout means the scoring run exceeded its deadline. No
	// snapshot was written.
	ErrComputeTimeout = errors.New("compute timed out")
)
