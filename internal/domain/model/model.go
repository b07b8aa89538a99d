// Package model contains domain models passed between layers.
package model

import (
	"math"
	"sort"
	"time"
)

// Recognized scoring factors. Weight maps and breakdowns are keyed by these.
const (
	FactorSkills       = "skills"
	FactorDomain       = "domain"
	FactorOutcomes     = "outcomes"
	FactorAvailability = "availability"
	FactorLocale       = "locale"
	FactorPrice        = "price"
	FactorVetting      = "vetting"
	FactorHistory      = "history"
)

// Factors lists every recognized factor name in canonical order.
func Factors() []string {
	return []string{
		FactorSkills,
		FactorDomain,
		FactorOutcomes,
		FactorAvailability,
		FactorLocale,
		FactorPrice,
		FactorVetting,
		FactorHistory,
	}
}

// weightSumTolerance bounds the accepted deviation of a weight sum from 1.0.
const weightSumTolerance = 1e-9

// MatchConfig holds the operator-tunable matching policy. It is persisted
// per-field in the settings store and read back with defaults for any
// missing field.
type MatchConfig struct {
	Weights                     map[string]float64 `json:"weights"`
	ShortlistSizeDefault        int                `json:"shortlist_size_default"`
	InviteResponseSLAHours      int                `json:"invite_response_sla_hours"`
	MaxQuotesPerRequest         int                `json:"max_quotes_per_request"`
	MinQuotesBeforePresenting   int                `json:"min_quotes_before_presenting"`
	SensitiveSingleProviderOnly bool               `json:"sensitive_single_provider_only"`
	ConflictWindowDays          int                `json:"conflict_window_days"`
}

// DefaultMatchConfig returns the documented default policy.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Weights: map[string]float64{
			FactorSkills:       0.25,
			FactorDomain:       0.15,
			FactorOutcomes:     0.15,
			FactorAvailability: 0.10,
			FactorLocale:       0.05,
			FactorPrice:        0.10,
			FactorVetting:      0.10,
			FactorHistory:      0.10,
		},
		ShortlistSizeDefault:        3,
		InviteResponseSLAHours:      24,
		MaxQuotesPerRequest:         5,
		MinQuotesBeforePresenting:   2,
		SensitiveSingleProviderOnly: true,
		ConflictWindowDays:          90,
	}
}

// WeightSum returns the sum of all configured factor weights.
func (c MatchConfig) WeightSum() float64 {
	var sum float64
	for _, w := range c.Weights {
		sum += w
	}
	return sum
}

// WeightSumOK reports whether the weights sum to 1.0 within tolerance.
// A failing sum is surfaced to the operator, never silently corrected.
func (c MatchConfig) WeightSumOK() bool {
	return math.Abs(c.WeightSum()-1.0) <= weightSumTolerance
}

// Normalize clamps fields that violate cross-field invariants and returns
// a human-readable note per adjustment. Weight sums are deliberately left
// alone; see WeightSumOK.
func (c *MatchConfig) Normalize() []string {
	var notes []string
	if c.MinQuotesBeforePresenting > c.MaxQuotesPerRequest {
		notes = append(notes, "min_quotes_before_presenting clamped to max_quotes_per_request")
		c.MinQuotesBeforePresenting = c.MaxQuotesPerRequest
	}
	return notes
}

// ShortlistSize returns how many candidates to invite for a request.
// Sensitive requests are restricted to a single provider when the policy
// flag is set.
func (c MatchConfig) ShortlistSize(sensitive bool) int {
	if sensitive && c.SensitiveSingleProviderOnly {
		return 1
	}
	return c.ShortlistSizeDefault
}

// Request is a client request owned by the intake subsystem.
// The matcher only reads it.
type Request struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Domain         string    `json:"domain"`
	RequiredSkills []string  `json:"required_skills"`
	BudgetMin      float64   `json:"budget_min"`
	BudgetMax      float64   `json:"budget_max"`
	Locale         string    `json:"locale"`
	Sensitive      bool      `json:"sensitive"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Candidate is a freelancer profile scored against a request.
type Candidate struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Skills            []string  `json:"skills"`
	Domains           []string  `json:"domains"`
	Locale            string    `json:"locale"`
	HourlyRate        float64   `json:"hourly_rate"`
	OutcomeScore      float64   `json:"outcome_score"`
	WeeklyHours       int       `json:"weekly_hours"`
	VettingScore      float64   `json:"vetting_score"`
	CompletedProjects int       `json:"completed_projects"`
	LastConflictAt    time.Time `json:"last_conflict_at,omitzero"`
}

// ScoredCandidate is one ranked row of a snapshot.
type ScoredCandidate struct {
	UserID    string             `json:"user_id"`
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"`
	Profile   Candidate          `json:"profile"`
}

// Snapshot is an immutable record of one scoring run. Candidates are
// ordered by descending score; equal scores order by ascending user id.
type Snapshot struct {
	ID         string            `json:"id"`
	RequestID  string            `json:"request_id"`
	Candidates []ScoredCandidate `json:"candidates"`
	CreatedAt  time.Time         `json:"created_at"`
}

// SortCandidates orders scored candidates by descending score with a
// deterministic tie-break on ascending user id.
func SortCandidates(cs []ScoredCandidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Score != cs[j].Score {
			return cs[i].Score > cs[j].Score
		}
		return cs[i].UserID < cs[j].UserID
	})
}

// Invitation statuses.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
	InviteStatusExpired  = "expired"
)

// Invitation is a time-boxed offer to quote on a request.
type Invitation struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	SentAt    time.Time `json:"sent_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether a pending invitation has passed its deadline.
func (i Invitation) Expired(now time.Time) bool {
	return i.Status == InviteStatusPending && now.After(i.ExpiresAt)
}
