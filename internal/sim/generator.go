package sim

import (
	"fmt"
	"math/rand"

	"github.com/gigbridge/matchd/internal/domain/model"
)

// Skill and domain pools for synthetic profiles.
var (
	skillPool = []string{
		"go", "python", "typescript", "react", "postgres", "redis",
		"kubernetes", "terraform", "figma", "copywriting", "seo",
		"data-engineering", "ml", "ios", "android",
	}
	domainPool = []string{
		"fintech", "ecommerce", "healthcare", "gaming", "logistics",
		"edtech", "media",
	}
	localePool = []string{"en-US", "en-GB", "de-DE", "fr-FR", "pt-BR"}
)

const (
	minRate = 20.0
	maxRate = 150.0

	// A small share of requests is marked sensitive to exercise the
	// single-provider shortlist policy.
	sensitiveShare = 0.2
)

func pick(rng *rand.Rand, pool []string, n int) []string {
	idx := rng.Perm(len(pool))
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, pool[i])
	}
	return out
}

// generateCandidates produces count synthetic freelancer profiles.
func generateCandidates(rng *rand.Rand, count int) []model.Candidate {
	cands := make([]model.Candidate, 0, count)
	for i := 0; i < count; i++ {
		cands = append(cands, model.Candidate{
			ID:                fmt.Sprintf("sim-cand-%04d", i),
			Name:              fmt.Sprintf("Candidate %04d", i),
			Skills:            pick(rng, skillPool, 2+rng.Intn(4)),
			Domains:           pick(rng, domainPool, 1+rng.Intn(2)),
			Locale:            localePool[rng.Intn(len(localePool))],
			HourlyRate:        minRate + rng.Float64()*(maxRate-minRate),
			OutcomeScore:      rng.Float64(),
			WeeklyHours:       10 + rng.Intn(31),
			VettingScore:      rng.Float64(),
			CompletedProjects: rng.Intn(40),
		})
	}
	return cands
}

// generateRequests produces count synthetic client requests.
func generateRequests(rng *rand.Rand, count int) []model.Request {
	reqs := make([]model.Request, 0, count)
	for i := 0; i < count; i++ {
		budgetMin := minRate + rng.Float64()*40
		reqs = append(reqs, model.Request{
			Title:          fmt.Sprintf("Simulated project %04d", i),
			Domain:         domainPool[rng.Intn(len(domainPool))],
			RequiredSkills: pick(rng, skillPool, 1+rng.Intn(3)),
			BudgetMin:      budgetMin,
			BudgetMax:      budgetMin + 20 + rng.Float64()*60,
			Locale:         localePool[rng.Intn(len(localePool))],
			Sensitive:      rng.Float64() < sensitiveShare,
		})
	}
	return reqs
}
