package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gigbridge/matchd/internal/adapters/dispatch"
	"github.com/gigbridge/matchd/internal/adapters/repository"
	"github.com/gigbridge/matchd/internal/adapters/settings"
	service "github.com/gigbridge/matchd/internal/app"
	"github.com/gigbridge/matchd/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// gateScorer blocks inside Score until released, so tests can hold a
// compute in flight deterministically.
type gateScorer struct {
	entered chan struct{}
	release chan struct{}
}

func newGateScorer() *gateScorer {
	return &gateScorer{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gateScorer) Score(ctx context.Context, _ model.Request, pool []model.Candidate, _ model.MatchConfig) ([]model.ScoredCandidate, error) {
	close(g.entered)
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	scored := make([]model.ScoredCandidate, 0, len(pool))
	for _, c := range pool {
		scored = append(scored, model.ScoredCandidate{UserID: c.ID, Score: 0.5})
	}
	return scored, nil
}

// unsortedScorer stands in for a plug-in scorer that does not rank its
// output before returning it.
type unsortedScorer struct{}

func (unsortedScorer) Score(context.Context, model.Request, []model.Candidate, model.MatchConfig) ([]model.ScoredCandidate, error) {
	return []model.ScoredCandidate{
		{UserID: "u-mid", Score: 0.4},
		{UserID: "u-top", Score: 0.9},
		{UserID: "u-tie-b", Score: 0.7},
		{UserID: "u-tie-a", Score: 0.7},
	}, nil
}

// errScorer always fails.
type errScorer struct{}

func (errScorer) Score(context.Context, model.Request, []model.Candidate, model.MatchConfig) ([]model.ScoredCandidate, error) {
	return nil, errors.New("ranking backend unavailable")
}

func startService(opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	Reset(svc.Stop)
	return svc
}

func seed(svc *service.Service, sensitive bool, candidates int) model.Request {
	ctx := context.Background()
	for i := 0; i < candidates; i++ {
		_, err := svc.UpsertCandidate(ctx, model.Candidate{
			ID:           fmt.Sprintf("cand-%02d", i),
			Skills:       []string{"go"},
			WeeklyHours:  40,
			OutcomeScore: float64(i) / float64(candidates),
		})
		So(err, ShouldBeNil)
	}
	req, err := svc.CreateRequest(ctx, model.Request{
		Title:          "build a service",
		RequiredSkills: []string{"go"},
		Sensitive:      sensitive,
	})
	So(err, ShouldBeNil)
	return req
}

func TestServiceConfig(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := startService()

		Convey("When reading the untouched configuration", func() {
			view := svc.MatchingConfig(ctx)

			Convey("Then it is the default policy with no warnings", func() {
				So(view.Config, ShouldResemble, model.DefaultMatchConfig())
				So(view.WeightSum, ShouldAlmostEqual, 1.0, 1e-9)
				So(view.Warnings, ShouldBeEmpty)
			})
		})

		Convey("When saving weights that do not sum to 1.0", func() {
			cfg := model.DefaultMatchConfig()
			cfg.Weights[model.FactorSkills] = 0.5

			view, err := svc.UpdateMatchingConfig(ctx, cfg)

			Convey("Then the update succeeds with a weight-sum warning", func() {
				So(err, ShouldBeNil)
				So(view.Warnings, ShouldHaveLength, 1)
				So(view.Warnings[0], ShouldContainSubstring, "expected 1.0")
			})

			Convey("And the stored weights are not silently corrected", func() {
				got := svc.MatchingConfig(ctx)
				So(got.Config.Weights[model.FactorSkills], ShouldEqual, 0.5)
				So(got.Warnings, ShouldHaveLength, 1)
			})
		})

		Convey("When saving min quotes above max quotes", func() {
			cfg := model.DefaultMatchConfig()
			cfg.MaxQuotesPerRequest = 3
			cfg.MinQuotesBeforePresenting = 9

			view, err := svc.UpdateMatchingConfig(ctx, cfg)

			Convey("Then min is clamped to max with a note", func() {
				So(err, ShouldBeNil)
				So(view.Config.MinQuotesBeforePresenting, ShouldEqual, 3)
				So(view.Warnings, ShouldHaveLength, 1)
				So(view.Warnings[0], ShouldContainSubstring, "clamped")
			})
		})
	})

	Convey("Given a service whose settings store fails mid-update", t, func() {
		svc := startService(service.WithSettingsStore(
			settings.NewMemoryStore(settings.WithFailAfter(2)),
		))

		Convey("When updating the configuration", func() {
			_, err := svc.UpdateMatchingConfig(ctx, model.DefaultMatchConfig())

			Convey("Then the partial write is surfaced", func() {
				So(errors.Is(err, settings.ErrPartialWrite), ShouldBeTrue)
			})
		})
	})
}

func TestServiceCompute(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service with candidates and a request", t, func() {
		svc := startService()
		req := seed(svc, false, 5)

		Convey("When computing for the first time", func() {
			outcome, err := svc.Compute(ctx, req.ID, false)

			Convey("Then a ranked snapshot is written", func() {
				So(err, ShouldBeNil)
				So(outcome.Reused, ShouldBeFalse)
				So(outcome.Snapshot.RequestID, ShouldEqual, req.ID)
				So(outcome.Snapshot.Candidates, ShouldHaveLength, 5)
				for i := 1; i < len(outcome.Snapshot.Candidates); i++ {
					So(outcome.Snapshot.Candidates[i].Score,
						ShouldBeLessThanOrEqualTo, outcome.Snapshot.Candidates[i-1].Score)
				}
			})

			Convey("And computing again without force reuses the snapshot", func() {
				again, err := svc.Compute(ctx, req.ID, false)
				So(err, ShouldBeNil)
				So(again.Reused, ShouldBeTrue)
				So(again.Snapshot.ID, ShouldEqual, outcome.Snapshot.ID)
			})

			Convey("And forcing a recompute writes a new snapshot", func() {
				again, err := svc.Compute(ctx, req.ID, true)
				So(err, ShouldBeNil)
				So(again.Reused, ShouldBeFalse)
				So(again.Snapshot.ID, ShouldNotEqual, outcome.Snapshot.ID)

				history, err := svc.SnapshotHistory(ctx, req.ID, 10)
				So(err, ShouldBeNil)
				So(history, ShouldHaveLength, 2)
			})
		})

		Convey("When computing for an unknown request", func() {
			_, err := svc.Compute(ctx, "ghost", false)

			Convey("Then the not-found error passes through", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When reading a snapshot that was never computed", func() {
			_, err := svc.LatestSnapshot(ctx, req.ID)

			Convey("Then ErrNoSnapshot marks the empty state", func() {
				So(errors.Is(err, repository.ErrNoSnapshot), ShouldBeTrue)
			})
		})

		Convey("When reading a snapshot for an unknown request", func() {
			_, err := svc.LatestSnapshot(ctx, "ghost")

			Convey("Then the error is not-found, not no-snapshot", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(err, repository.ErrNoSnapshot), ShouldBeFalse)
			})
		})
	})

	Convey("Given a service whose scorer does not order its output", t, func() {
		svc := startService(service.WithScorer(unsortedScorer{}))
		req := seed(svc, false, 3)

		Convey("When computing and reading the snapshot back", func() {
			_, err := svc.Compute(ctx, req.ID, false)
			So(err, ShouldBeNil)

			snap, err := svc.LatestSnapshot(ctx, req.ID)

			Convey("Then the stored ranking is descending with ties broken by user id", func() {
				So(err, ShouldBeNil)
				ids := make([]string, 0, len(snap.Candidates))
				for _, c := range snap.Candidates {
					ids = append(ids, c.UserID)
				}
				So(ids, ShouldResemble, []string{"u-top", "u-tie-a", "u-tie-b", "u-mid"})
			})
		})
	})

	Convey("Given a service with a scorer held in flight", t, func() {
		gate := newGateScorer()
		svc := startService(service.WithScorer(gate))
		req := seed(svc, false, 2)

		Convey("When a second compute arrives for the same request", func() {
			done := make(chan error, 1)
			go func() {
				_, err := svc.Compute(ctx, req.ID, false)
				done <- err
			}()
			<-gate.entered

			_, err := svc.Compute(ctx, req.ID, false)

			Convey("Then it is rejected with ErrComputeInFlight", func() {
				So(errors.Is(err, service.ErrComputeInFlight), ShouldBeTrue)

				close(gate.release)
				So(<-done, ShouldBeNil)
			})
		})
	})

	Convey("Given a service with a hung scorer and a short timeout", t, func() {
		gate := newGateScorer()
		svc := startService(
			service.WithScorer(gate),
			service.WithComputeTimeout(50*time.Millisecond),
		)
		req := seed(svc, false, 2)

		Convey("When the scoring run exceeds the deadline", func() {
			_, err := svc.Compute(ctx, req.ID, false)

			Convey("Then the caller sees ErrComputeTimeout", func() {
				So(errors.Is(err, service.ErrComputeTimeout), ShouldBeTrue)
			})

			Convey("And no snapshot was written", func() {
				_, err := svc.LatestSnapshot(ctx, req.ID)
				So(errors.Is(err, repository.ErrNoSnapshot), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service whose scorer fails outright", t, func() {
		snapshots := repository.NewMemSnapshotStore()
		svc := startService(
			service.WithScorer(errScorer{}),
			service.WithSnapshotStore(snapshots),
		)
		req := seed(svc, false, 2)

		previous := model.Snapshot{
			ID:        "prev",
			RequestID: req.ID,
			CreatedAt: time.Now().UTC().Add(-time.Hour),
		}
		So(snapshots.Append(ctx, previous), ShouldBeNil)

		Convey("When forcing a recompute", func() {
			_, err := svc.Compute(ctx, req.ID, true)

			Convey("Then the error propagates", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "scoring failed")
			})

			Convey("And the previous snapshot is left in place", func() {
				snap, err := svc.LatestSnapshot(ctx, req.ID)
				So(err, ShouldBeNil)
				So(snap.ID, ShouldEqual, "prev")
			})
		})
	})
}

func TestServiceInvite(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service with a computed snapshot", t, func() {
		svc := startService()
		req := seed(svc, false, 5)
		_, err := svc.Compute(ctx, req.ID, false)
		So(err, ShouldBeNil)

		Convey("When inviting without explicit user ids", func() {
			outcome, err := svc.Invite(ctx, req.ID, nil)

			Convey("Then the default shortlist head is invited", func() {
				So(err, ShouldBeNil)
				So(outcome.Requested, ShouldEqual, 3)
				So(outcome.Sent, ShouldEqual, 3)
				So(outcome.Errors, ShouldBeEmpty)
			})

			Convey("And the invitations land in the ledger newest first", func() {
				invs, err := svc.Invitations(ctx, req.ID)
				So(err, ShouldBeNil)
				So(invs, ShouldHaveLength, 3)
				So(invs[0].Status, ShouldEqual, model.InviteStatusPending)
			})
		})

		Convey("When inviting explicit user ids including strangers", func() {
			requested := []string{"cand-01", "stranger", "cand-03"}
			outcome, err := svc.Invite(ctx, req.ID, requested)

			Convey("Then strangers are per-entry errors, not failures", func() {
				So(err, ShouldBeNil)
				So(outcome.Requested, ShouldEqual, 2)
				So(outcome.Sent, ShouldEqual, 2)
				So(outcome.Errors, ShouldHaveLength, 1)
				So(outcome.Errors[0], ShouldContainSubstring, "stranger")
			})

			Convey("And the caller's slice is left untouched", func() {
				So(requested, ShouldResemble, []string{"cand-01", "stranger", "cand-03"})
			})
		})

		Convey("When inviting for an unknown request", func() {
			_, err := svc.Invite(ctx, "ghost", nil)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a sensitive request under the single-provider policy", t, func() {
		svc := startService()
		req := seed(svc, true, 5)
		_, err := svc.Compute(ctx, req.ID, false)
		So(err, ShouldBeNil)

		Convey("When inviting without explicit user ids", func() {
			outcome, err := svc.Invite(ctx, req.ID, nil)

			Convey("Then exactly one provider is invited", func() {
				So(err, ShouldBeNil)
				So(outcome.Requested, ShouldEqual, 1)
				So(outcome.Sent, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a request that was never scored", t, func() {
		svc := startService()
		req := seed(svc, false, 2)

		Convey("When inviting", func() {
			_, err := svc.Invite(ctx, req.ID, nil)

			Convey("Then the missing snapshot is reported", func() {
				So(errors.Is(err, repository.ErrNoSnapshot), ShouldBeTrue)
			})
		})
	})

	Convey("Given a dispatcher whose ledger rejects some sends", t, func() {
		ledger := &rejectingLedger{MemLedger: dispatch.NewMemLedger(), rejectEvery: 2}
		svc := startService(
			service.WithLedger(ledger),
			service.WithDispatcher(dispatch.NewLedgerDispatcher(ledger)),
		)
		req := seed(svc, false, 5)
		_, err := svc.Compute(ctx, req.ID, false)
		So(err, ShouldBeNil)

		Convey("When inviting the shortlist", func() {
			outcome, err := svc.Invite(ctx, req.ID, nil)

			Convey("Then only confirmed sends are reported", func() {
				So(err, ShouldBeNil)
				So(outcome.Requested, ShouldEqual, 3)
				So(outcome.Sent, ShouldEqual, 2)
				So(outcome.Errors, ShouldHaveLength, 1)
			})
		})
	})
}

// rejectingLedger fails every n-th Record call.
type rejectingLedger struct {
	*dispatch.MemLedger
	rejectEvery int
	calls       int
}

func (l *rejectingLedger) Record(ctx context.Context, inv model.Invitation) error {
	l.calls++
	if l.rejectEvery > 0 && l.calls%l.rejectEvery == 0 {
		return errors.New("delivery refused")
	}
	return l.MemLedger.Record(ctx, inv)
}

func TestServiceStats(t *testing.T) {
	Convey("Given a started service with data", t, func() {
		svc := startService()
		req := seed(svc, false, 3)
		_, err := svc.Compute(context.Background(), req.ID, false)
		So(err, ShouldBeNil)

		Convey("When reading stats", func() {
			stats := svc.GetStats()

			Convey("Then the counters reflect the state", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["requests"], ShouldEqual, 1)
				So(stats["candidates"], ShouldEqual, 3)
				So(stats["snapshots"], ShouldEqual, 1)
				So(stats["computesInFlight"], ShouldEqual, 0)
			})
		})
	})
}
