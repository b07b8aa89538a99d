// Package scoring defines the candidate ranking strategy boundary.
//
// The production ranking model is an injected collaborator: anything that
// satisfies Scorer (weighted sum, learned ranking, rule engine) can sit
// behind the compute contract. WeightedScorer is the documented default.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gigbridge/matchd/internal/domain/model"
)

// Scorer ranks candidates against a request under a matching policy.
type Scorer interface {
	// Score returns scored candidates ordered by descending score,
	// honoring ctx for cancellation. Candidates excluded by policy (e.g.
	// inside the conflict window) are omitted from the result.
	Score(ctx context.Context, req model.Request, pool []model.Candidate, cfg model.MatchConfig) ([]model.ScoredCandidate, error)
}

// fullWeekHours is the availability ceiling: a candidate offering this many
// weekly hours scores 1.0 on the availability factor.
const fullWeekHours = 40

// historyCeiling caps the completed-project count used for the history
// factor; anything at or above it scores 1.0.
const historyCeiling = 20

// Option applies a configuration option to the WeightedScorer.
type Option func(*WeightedScorer)

// WithLatencyRange makes every Score call sleep a fixed latency, modeling
// the remote ranking service the production system calls. Zero (the
// default) disables the delay.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *WeightedScorer) {
		if minLatency > 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithClock overrides the time source used for conflict-window checks.
func WithClock(now func() time.Time) Option {
	return func(s *WeightedScorer) {
		if now != nil {
			s.now = now
		}
	}
}

// WeightedScorer scores each candidate as a weighted sum of normalized
// per-factor scores in [0,1]. The composite divides by the weight sum so a
// weight map that fails the sum-to-1.0 check still produces a sane ranking;
// surfacing that deviation is the dashboard's job, not the scorer's.
type WeightedScorer struct {
	minLatency time.Duration
	maxLatency time.Duration
	now        func() time.Time
}

// NewWeightedScorer creates the default scorer with configuration options.
func NewWeightedScorer(opts ...Option) *WeightedScorer {
	s := &WeightedScorer{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score implements Scorer.
func (s *WeightedScorer) Score(ctx context.Context, req model.Request, pool []model.Candidate, cfg model.MatchConfig) ([]model.ScoredCandidate, error) {
	if s.minLatency > 0 {
		latency := s.minLatency + (s.maxLatency-s.minLatency)/2
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("scoring cancelled: %w", ctx.Err())
		case <-time.After(latency):
		}
	}

	weightSum := cfg.WeightSum()
	if weightSum <= 0 {
		return nil, fmt.Errorf("%w: weight sum %v", ErrNoUsableWeights, weightSum)
	}

	conflictCutoff := s.now().AddDate(0, 0, -cfg.ConflictWindowDays)

	scored := make([]model.ScoredCandidate, 0, len(pool))
	for i := range pool {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scoring cancelled: %w", err)
		}
		cand := pool[i]

		// Conflict-window exclusion happens before scoring.
		if !cand.LastConflictAt.IsZero() && cand.LastConflictAt.After(conflictCutoff) {
			continue
		}

		breakdown := factorBreakdown(req, cand, cfg)
		var composite float64
		for factor, weight := range cfg.Weights {
			composite += weight * breakdown[factor]
		}
		composite = clamp01(composite / weightSum)

		scored = append(scored, model.ScoredCandidate{
			UserID:    cand.ID,
			Score:     composite,
			Breakdown: breakdown,
			Profile:   cand,
		})
	}

	model.SortCandidates(scored)
	return scored, nil
}

// factorBreakdown computes the normalized per-factor scores. Keys are
// restricted to the configured weight keys so a snapshot breakdown is
// always a subset of the weight map.
func factorBreakdown(req model.Request, cand model.Candidate, cfg model.MatchConfig) map[string]float64 {
	all := map[string]float64{
		model.FactorSkills:       skillOverlap(req.RequiredSkills, cand.Skills),
		model.FactorDomain:       domainFit(req.Domain, cand.Domains),
		model.FactorOutcomes:     clamp01(cand.OutcomeScore),
		model.FactorAvailability: clamp01(float64(cand.WeeklyHours) / fullWeekHours),
		model.FactorLocale:       localeFit(req.Locale, cand.Locale),
		model.FactorPrice:        priceFit(req.BudgetMin, req.BudgetMax, cand.HourlyRate),
		model.FactorVetting:      clamp01(cand.VettingScore),
		model.FactorHistory:      clamp01(float64(cand.CompletedProjects) / historyCeiling),
	}

	breakdown := make(map[string]float64, len(cfg.Weights))
	for factor := range cfg.Weights {
		if v, ok := all[factor]; ok {
			breakdown[factor] = v
		}
	}
	return breakdown
}

// skillOverlap is the fraction of required skills the candidate covers.
// A request with no required skills does not discriminate on skills.
func skillOverlap(required, offered []string) float64 {
	if len(required) == 0 {
		return 1.0
	}
	have := make(map[string]struct{}, len(offered))
	for _, s := range offered {
		have[s] = struct{}{}
	}
	var hits int
	for _, s := range required {
		if _, ok := have[s]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(required))
}

func domainFit(domain string, domains []string) float64 {
	if domain == "" {
		return 1.0
	}
	for _, d := range domains {
		if d == domain {
			return 1.0
		}
	}
	return 0.0
}

func localeFit(want, have string) float64 {
	if want == "" || want == have {
		return 1.0
	}
	return 0.0
}

// priceFit maps an hourly rate onto the request's budget band: at or below
// the minimum scores 1.0, at or above the maximum scores 0.0, linear in
// between. A request with no budget band is neutral.
func priceFit(budgetMin, budgetMax, rate float64) float64 {
	if budgetMax <= 0 || budgetMax <= budgetMin {
		return 0.5
	}
	switch {
	case rate <= budgetMin:
		return 1.0
	case rate >= budgetMax:
		return 0.0
	default:
		return (budgetMax - rate) / (budgetMax - budgetMin)
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
