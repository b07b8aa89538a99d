// Package types contains read shapes shared between the service layer and
// the HTTP API.
package types

import "github.com/gigbridge/matchd/internal/domain/model"

// ConfigView is the matching configuration as presented to operators,
// together with soft-validation output.
type ConfigView struct {
	Config    model.MatchConfig `json:"config"`
	WeightSum float64           `json:"weight_sum"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// ComputeOutcome is the result of a scoring run.
type ComputeOutcome struct {
	Message  string         `json:"message"`
	Snapshot model.Snapshot `json:"snapshot"`
	// Reused is true when an existing snapshot satisfied the call and no
	// recomputation happened.
	Reused bool `json:"reused"`
}

// InviteOutcome reports what the dispatcher claims to have sent. Sent may
// be lower than Requested; callers must not assume success beyond Sent.
type InviteOutcome struct {
	Requested int      `json:"requested"`
	Sent      int      `json:"invitations_sent"`
	Errors    []string `json:"errors,omitempty"`
}
