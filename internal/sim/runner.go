package sim

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gigbridge/matchd/internal/domain/model"
	"github.com/gigbridge/matchd/internal/domain/types"
)

// Run executes the full simulation: seed, compute, verify, invite.
func Run(ctx context.Context, cfg *Config) error {
	start := time.Now()
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // synthetic data only
	c := newClient(cfg.BaseURL, cfg.Timeout)
	stats := &Stats{}

	log.Printf("🚀 Starting simulation against %s", cfg.BaseURL)

	if err := seedCandidates(ctx, c, cfg, rng, stats); err != nil {
		return err
	}

	reqs, err := createRequests(ctx, c, cfg, rng, stats)
	if err != nil {
		return err
	}

	view, err := fetchConfig(ctx, c)
	if err != nil {
		return err
	}

	computeAndVerify(ctx, c, cfg, reqs, view, stats)

	stats.Duration = time.Since(start)
	printSummary(stats)

	if stats.ComputesFailed > 0 || stats.SnapshotsInvalid > 0 {
		return fmt.Errorf("simulation found %d compute failures and %d invalid snapshots",
			stats.ComputesFailed, stats.SnapshotsInvalid)
	}
	return nil
}

func seedCandidates(ctx context.Context, c *client, cfg *Config, rng *rand.Rand, stats *Stats) error {
	log.Printf("👥 Seeding %d candidates...", cfg.NumCandidates)
	for _, cand := range generateCandidates(rng, cfg.NumCandidates) {
		if err := c.putJSON(ctx, "/candidates", cand, nil); err != nil {
			return fmt.Errorf("seed candidate %s: %w", cand.ID, err)
		}
		stats.CandidatesSeeded++
	}
	return nil
}

func createRequests(ctx context.Context, c *client, cfg *Config, rng *rand.Rand, stats *Stats) ([]model.Request, error) {
	log.Printf("📋 Creating %d requests...", cfg.NumRequests)
	created := make([]model.Request, 0, cfg.NumRequests)
	for _, req := range generateRequests(rng, cfg.NumRequests) {
		var out model.Request
		if err := c.postJSON(ctx, "/requests", req, &out); err != nil {
			return nil, fmt.Errorf("create request %q: %w", req.Title, err)
		}
		created = append(created, out)
		stats.RequestsCreated++
	}
	return created, nil
}

func fetchConfig(ctx context.Context, c *client) (types.ConfigView, error) {
	var view types.ConfigView
	if err := c.getJSON(ctx, "/matching/config", &view); err != nil {
		return view, fmt.Errorf("fetch matching config: %w", err)
	}
	for _, w := range view.Warnings {
		log.Printf("⚠️  config warning: %s", w)
	}
	return view, nil
}

// computeAndVerify triggers scoring for every request concurrently and
// verifies each resulting snapshot.
func computeAndVerify(ctx context.Context, c *client, cfg *Config, reqs []model.Request, view types.ConfigView, stats *Stats) {
	log.Printf("🧮 Computing snapshots for %d requests with %d workers...", len(reqs), cfg.Workers)

	var (
		computesOK   int64
		computesBad  int64
		snapsValid   int64
		snapsInvalid int64
		invitesSent  int64
		inviteErrors int64
	)

	reqChan := make(chan model.Request, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range reqChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				var outcome types.ComputeOutcome
				if err := c.postJSON(ctx, "/requests/"+req.ID+"/compute", nil, &outcome); err != nil {
					atomic.AddInt64(&computesBad, 1)
					if cfg.Verbose {
						log.Printf("❌ compute %s: %v", req.ID, err)
					}
					continue
				}
				atomic.AddInt64(&computesOK, 1)

				var snap model.Snapshot
				if err := c.getJSON(ctx, "/requests/"+req.ID+"/snapshot", &snap); err != nil {
					atomic.AddInt64(&snapsInvalid, 1)
					continue
				}
				if err := verifySnapshot(snap); err != nil {
					atomic.AddInt64(&snapsInvalid, 1)
					log.Printf("❌ snapshot %s: %v", req.ID, err)
					continue
				}
				atomic.AddInt64(&snapsValid, 1)

				if !cfg.InviteTopN || len(snap.Candidates) == 0 {
					continue
				}
				var invite types.InviteOutcome
				if err := c.postJSON(ctx, "/requests/"+req.ID+"/invitations", nil, &invite); err != nil {
					atomic.AddInt64(&inviteErrors, 1)
					continue
				}
				if err := verifyInviteOutcome(invite.Requested, invite.Sent, req.Sensitive,
					view.Config.SensitiveSingleProviderOnly); err != nil {
					atomic.AddInt64(&inviteErrors, 1)
					log.Printf("❌ invite %s: %v", req.ID, err)
					continue
				}
				atomic.AddInt64(&invitesSent, int64(invite.Sent))
			}
		}()
	}

	go func() {
		defer close(reqChan)
		for _, req := range reqs {
			select {
			case <-ctx.Done():
				return
			case reqChan <- req:
			}
		}
	}()

	wg.Wait()

	stats.ComputesOK = int(computesOK)
	stats.ComputesFailed = int(computesBad)
	stats.SnapshotsValid = int(snapsValid)
	stats.SnapshotsInvalid = int(snapsInvalid)
	stats.InvitesSent = int(invitesSent)
	stats.InviteErrors = int(inviteErrors)
}

func printSummary(stats *Stats) {
	log.Printf(`✅ Simulation completed in %s:
   Candidates seeded: %d
   Requests created:  %d
   Computes OK:       %d
   Computes failed:   %d
   Snapshots valid:   %d
   Snapshots invalid: %d
   Invites sent:      %d
   Invite errors:     %d
`, stats.Duration.Round(time.Millisecond),
		stats.CandidatesSeeded, stats.RequestsCreated,
		stats.ComputesOK, stats.ComputesFailed,
		stats.SnapshotsValid, stats.SnapshotsInvalid,
		stats.InvitesSent, stats.InviteErrors)
}
