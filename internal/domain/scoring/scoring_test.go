package scoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/gigbridge/matchd/internal/domain/model"
	"github.com/gigbridge/matchd/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWeightedScorer_Score(t *testing.T) {
	Convey("Given a weighted scorer and the default policy", t, func() {
		now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		scorer := scoring.NewWeightedScorer(scoring.WithClock(func() time.Time { return now }))
		cfg := model.DefaultMatchConfig()

		req := model.Request{
			ID:             "req-1",
			Domain:         "fintech",
			RequiredSkills: []string{"go", "postgres"},
			BudgetMin:      40,
			BudgetMax:      80,
			Locale:         "en-US",
		}

		Convey("When scoring a strong and a weak candidate", func() {
			pool := []model.Candidate{
				{
					ID:                "weak",
					Skills:            []string{"figma"},
					Domains:           []string{"gaming"},
					Locale:            "de-DE",
					HourlyRate:        120,
					OutcomeScore:      0.2,
					WeeklyHours:       5,
					VettingScore:      0.1,
					CompletedProjects: 1,
				},
				{
					ID:                "strong",
					Skills:            []string{"go", "postgres", "redis"},
					Domains:           []string{"fintech"},
					Locale:            "en-US",
					HourlyRate:        50,
					OutcomeScore:      0.95,
					WeeklyHours:       40,
					VettingScore:      0.9,
					CompletedProjects: 30,
				},
			}

			scored, err := scorer.Score(context.Background(), req, pool, cfg)

			Convey("Then the strong candidate ranks first", func() {
				So(err, ShouldBeNil)
				So(scored, ShouldHaveLength, 2)
				So(scored[0].UserID, ShouldEqual, "strong")
				So(scored[0].Score, ShouldBeGreaterThan, scored[1].Score)
			})

			Convey("And every score lies in [0,1]", func() {
				So(err, ShouldBeNil)
				for _, c := range scored {
					So(c.Score, ShouldBeGreaterThanOrEqualTo, 0)
					So(c.Score, ShouldBeLessThanOrEqualTo, 1)
				}
			})

			Convey("And the breakdown keys match the configured weights", func() {
				So(err, ShouldBeNil)
				So(len(scored[0].Breakdown), ShouldEqual, len(cfg.Weights))
				for factor := range scored[0].Breakdown {
					So(cfg.Weights, ShouldContainKey, factor)
				}
			})
		})

		Convey("When a candidate had a recent conflict", func() {
			pool := []model.Candidate{
				{ID: "clean", Skills: []string{"go"}, WeeklyHours: 40},
				{
					ID:             "conflicted",
					Skills:         []string{"go", "postgres"},
					WeeklyHours:    40,
					LastConflictAt: now.AddDate(0, 0, -10),
				},
			}

			scored, err := scorer.Score(context.Background(), req, pool, cfg)

			Convey("Then the conflicted candidate is excluded before scoring", func() {
				So(err, ShouldBeNil)
				So(scored, ShouldHaveLength, 1)
				So(scored[0].UserID, ShouldEqual, "clean")
			})
		})

		Convey("When a conflict is older than the window", func() {
			pool := []model.Candidate{
				{
					ID:             "stale-conflict",
					Skills:         []string{"go"},
					LastConflictAt: now.AddDate(0, 0, -cfg.ConflictWindowDays-1),
				},
			}

			scored, err := scorer.Score(context.Background(), req, pool, cfg)

			Convey("Then the candidate is scored normally", func() {
				So(err, ShouldBeNil)
				So(scored, ShouldHaveLength, 1)
			})
		})

		Convey("When the weight map is unusable", func() {
			cfg.Weights = map[string]float64{}

			_, err := scorer.Score(context.Background(), req, nil, cfg)

			Convey("Then scoring fails with ErrNoUsableWeights", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, scoring.ErrNoUsableWeights.Error())
			})
		})

		Convey("When weights do not sum to 1.0", func() {
			cfg.Weights = map[string]float64{
				model.FactorSkills: 2.0,
				model.FactorLocale: 2.0,
			}
			pool := []model.Candidate{
				{ID: "c1", Skills: []string{"go", "postgres"}, Locale: "en-US"},
			}

			scored, err := scorer.Score(context.Background(), req, pool, cfg)

			Convey("Then the composite is normalized by the weight sum", func() {
				So(err, ShouldBeNil)
				So(scored, ShouldHaveLength, 1)
				So(scored[0].Score, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		Convey("When two candidates score identically", func() {
			twin := model.Candidate{Skills: []string{"go", "postgres"}, Domains: []string{"fintech"}, Locale: "en-US", WeeklyHours: 40}
			a, b := twin, twin
			a.ID = "zed"
			b.ID = "amy"

			scored, err := scorer.Score(context.Background(), req, []model.Candidate{a, b}, cfg)

			Convey("Then ties break on ascending user id", func() {
				So(err, ShouldBeNil)
				So(scored, ShouldHaveLength, 2)
				So(scored[0].Score, ShouldEqual, scored[1].Score)
				So(scored[0].UserID, ShouldEqual, "amy")
				So(scored[1].UserID, ShouldEqual, "zed")
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := scorer.Score(ctx, req, []model.Candidate{{ID: "c1"}}, cfg)

			Convey("Then scoring reports the cancellation", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "cancelled")
			})
		})
	})
}

func TestWeightedScorer_FactorSemantics(t *testing.T) {
	Convey("Given a scorer weighted on a single factor", t, func() {
		scorer := scoring.NewWeightedScorer()

		score := func(req model.Request, cand model.Candidate, factor string) float64 {
			cfg := model.DefaultMatchConfig()
			cfg.Weights = map[string]float64{factor: 1.0}
			scored, err := scorer.Score(context.Background(), req, []model.Candidate{cand}, cfg)
			So(err, ShouldBeNil)
			So(scored, ShouldHaveLength, 1)
			return scored[0].Score
		}

		Convey("Then skill overlap is the covered fraction of required skills", func() {
			req := model.Request{RequiredSkills: []string{"go", "ml", "react", "seo"}}
			cand := model.Candidate{Skills: []string{"go", "react"}}
			So(score(req, cand, model.FactorSkills), ShouldAlmostEqual, 0.5)
		})

		Convey("And no required skills means no skill discrimination", func() {
			So(score(model.Request{}, model.Candidate{}, model.FactorSkills), ShouldEqual, 1.0)
		})

		Convey("Then a rate below the budget band scores full price fit", func() {
			req := model.Request{BudgetMin: 40, BudgetMax: 80}
			So(score(req, model.Candidate{HourlyRate: 30}, model.FactorPrice), ShouldEqual, 1.0)
		})

		Convey("And a rate above the band scores zero", func() {
			req := model.Request{BudgetMin: 40, BudgetMax: 80}
			So(score(req, model.Candidate{HourlyRate: 90}, model.FactorPrice), ShouldEqual, 0.0)
		})

		Convey("And a rate inside the band interpolates linearly", func() {
			req := model.Request{BudgetMin: 40, BudgetMax: 80}
			So(score(req, model.Candidate{HourlyRate: 60}, model.FactorPrice), ShouldAlmostEqual, 0.5)
		})

		Convey("And a request without a budget band is price-neutral", func() {
			So(score(model.Request{}, model.Candidate{HourlyRate: 500}, model.FactorPrice), ShouldEqual, 0.5)
		})

		Convey("Then availability saturates at a full work week", func() {
			So(score(model.Request{}, model.Candidate{WeeklyHours: 20}, model.FactorAvailability), ShouldAlmostEqual, 0.5)
			So(score(model.Request{}, model.Candidate{WeeklyHours: 80}, model.FactorAvailability), ShouldEqual, 1.0)
		})

		Convey("Then history saturates at the project ceiling", func() {
			So(score(model.Request{}, model.Candidate{CompletedProjects: 10}, model.FactorHistory), ShouldAlmostEqual, 0.5)
			So(score(model.Request{}, model.Candidate{CompletedProjects: 100}, model.FactorHistory), ShouldEqual, 1.0)
		})
	})
}

func TestWeightedScorer_Latency(t *testing.T) {
	Convey("Given a scorer with a configured latency range", t, func() {
		scorer := scoring.NewWeightedScorer(
			scoring.WithLatencyRange(10*time.Millisecond, 20*time.Millisecond),
		)
		cfg := model.DefaultMatchConfig()

		Convey("When the context deadline is shorter than the latency", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
			defer cancel()

			_, err := scorer.Score(ctx, model.Request{}, nil, cfg)

			Convey("Then scoring is cancelled", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the deadline is generous", func() {
			scored, err := scorer.Score(context.Background(), model.Request{}, []model.Candidate{{ID: "c1"}}, cfg)

			Convey("Then scoring succeeds after the delay", func() {
				So(err, ShouldBeNil)
				So(scored, ShouldHaveLength, 1)
			})
		})
	})
}
