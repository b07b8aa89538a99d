// Package sim seeds a running matchd instance with synthetic candidates
// and requests, triggers scoring, and verifies the resulting snapshots
// and invitations.
package sim

import "time"

// Config holds simulation parameters.
type Config struct {
	BaseURL       string
	NumCandidates int
	NumRequests   int
	Workers       int
	Timeout       time.Duration
	InviteTopN    bool
	Verbose       bool
}

// Stats collects the outcome of a simulation run.
type Stats struct {
	CandidatesSeeded int
	RequestsCreated  int
	ComputesOK       int
	ComputesFailed   int
	SnapshotsValid   int
	SnapshotsInvalid int
	InvitesSent      int
	InviteErrors     int
	Duration         time.Duration
}
