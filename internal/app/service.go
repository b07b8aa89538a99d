// Package service provides the matching coordinator that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/gigbridge/matchd/internal/adapters/dispatch"
	jobqueue "github.com/gigbridge/matchd/internal/adapters/mq/queue"
	workerpool "github.com/gigbridge/matchd/internal/adapters/mq/worker"
	"github.com/gigbridge/matchd/internal/adapters/repository"
	"github.com/gigbridge/matchd/internal/adapters/settings"
	"github.com/gigbridge/matchd/internal/domain/model"
	"github.com/gigbridge/matchd/internal/domain/pending"
	"github.com/gigbridge/matchd/internal/domain/scoring"
	"github.com/gigbridge/matchd/internal/domain/types"
	"github.com/gigbridge/matchd/pkg/logger"
	"github.com/gigbridge/matchd/pkg/metrics"
)

// Service coordinates configuration, scoring runs, snapshots, and
// invitation dispatch. All collaborators are injected; in-memory defaults
// are built on Start for anything left nil.
type Service struct {
	mu sync.RWMutex

	// Core components
	settings   *settings.Manager
	snapshots  repository.SnapshotStore
	requests   repository.RequestStore
	candidates repository.CandidateStore
	scorer     scoring.Scorer
	dispatcher dispatch.Dispatcher
	ledger     dispatch.Ledger

	// Rescore pipeline
	jobQueue jobqueue.Queue
	pool     *workerpool.Pool
	cron     *cron.Cron

	// Guards
	inflight pending.Tracker // compute re-entrancy, per request
	queued   pending.Tracker // rescore queue dedupe, per request

	// Configuration
	computeTimeout     time.Duration
	rescoreQueueSize   int
	rescoreWorkerCount int
	rescoreEnabled     bool
	rescoreCron        string
	rescoreMaxAge      time.Duration
	inviteExpiryCron   string
	historyLimit       int

	// State
	started bool
	now     func() time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSettingsStore sets the backing store for the matching configuration.
func WithSettingsStore(store settings.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.settings = settings.NewManager(store)
		}
	}
}

// WithSnapshotStore sets the snapshot store.
func WithSnapshotStore(store repository.SnapshotStore) Option {
	return func(s *Service) {
		if store != nil {
			s.snapshots = store
		}
	}
}

// WithRequestStore sets the request store.
func WithRequestStore(store repository.RequestStore) Option {
	return func(s *Service) {
		if store != nil {
			s.requests = store
		}
	}
}

// WithCandidateStore sets the candidate store.
func WithCandidateStore(store repository.CandidateStore) Option {
	return func(s *Service) {
		if store != nil {
			s.candidates = store
		}
	}
}

// WithScorer injects the ranking strategy.
func WithScorer(scorer scoring.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithDispatcher injects the invitation dispatcher.
func WithDispatcher(d dispatch.Dispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithLedger injects the invitation ledger.
func WithLedger(l dispatch.Ledger) Option {
	return func(s *Service) {
		if l != nil {
			s.ledger = l
		}
	}
}

// WithComputeTimeout bounds a single scoring run.
func WithComputeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.computeTimeout = d
		}
	}
}

// WithRescoreQueueSize bounds the rescore job queue.
func WithRescoreQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.rescoreQueueSize = size
		}
	}
}

// WithRescoreWorkerCount sets the number of rescore workers.
func WithRescoreWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.rescoreWorkerCount = count
		}
	}
}

// WithRescoreSchedule configures the stale-snapshot sweep: spec is a cron
// expression, maxAge marks a latest snapshot stale.
func WithRescoreSchedule(spec string, maxAge time.Duration) Option {
	return func(s *Service) {
		if spec != "" {
			s.rescoreCron = spec
		}
		if maxAge > 0 {
			s.rescoreMaxAge = maxAge
		}
	}
}

// WithRescoreEnabled toggles the background rescore sweep.
func WithRescoreEnabled(enabled bool) Option {
	return func(s *Service) {
		s.rescoreEnabled = enabled
	}
}

// WithInviteExpirySchedule sets the cron expression for the invitation
// expiry sweep.
func WithInviteExpirySchedule(spec string) Option {
	return func(s *Service) {
		if spec != "" {
			s.inviteExpiryCron = spec
		}
	}
}

// WithHistoryLimit caps snapshot history reads.
func WithHistoryLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		computeTimeout:     45 * time.Second,
		rescoreQueueSize:   1024,
		rescoreWorkerCount: 2,
		rescoreEnabled:     true,
		rescoreCron:        "@every 10m",
		rescoreMaxAge:      6 * time.Hour,
		inviteExpiryCron:   "@every 1m",
		historyLimit:       50,
		inflight:           pending.NewTracker(),
		queued:             pending.NewTracker(),
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes defaults for missing collaborators and starts the
// rescore pipeline and cron sweeps.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("matching")
	}

	s.logger.Info(ctx, "starting matching service...")

	if s.settings == nil {
		s.settings = settings.NewManager(settings.NewMemoryStore())
	}
	if s.snapshots == nil {
		s.snapshots = repository.NewMemSnapshotStore()
	}
	if s.requests == nil {
		s.requests = repository.NewMemRequestStore()
	}
	if s.candidates == nil {
		s.candidates = repository.NewMemCandidateStore()
	}
	if s.scorer == nil {
		s.scorer = scoring.NewWeightedScorer()
	}
	if s.ledger == nil {
		s.ledger = dispatch.NewMemLedger()
	}
	if s.dispatcher == nil {
		s.dispatcher = dispatch.NewLedgerDispatcher(s.ledger, dispatch.WithClock(s.now))
	}

	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.rescoreQueueSize))
	s.pool = workerpool.NewPool(s.rescoreWorkerCount, s.jobQueue, s)
	s.pool.Start(ctx)

	s.cron = cron.New()
	if s.rescoreEnabled {
		if _, err := s.cron.AddFunc(s.rescoreCron, func() { s.sweepStale(context.Background()) }); err != nil {
			return fmt.Errorf("schedule rescore sweep: %w", err)
		}
	}
	if _, err := s.cron.AddFunc(s.inviteExpiryCron, func() { s.sweepExpiredInvitations(context.Background()) }); err != nil {
		return fmt.Errorf("schedule invitation expiry sweep: %w", err)
	}
	s.cron.Start()

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.Int("rescoreWorkers", s.rescoreWorkerCount),
		logger.Int("rescoreQueueSize", s.rescoreQueueSize),
		logger.Bool("rescoreEnabled", s.rescoreEnabled),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping matching service...")

	if s.cron != nil {
		s.cron.Stop()
	}
	if s.jobQueue != nil {
		_ = s.jobQueue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}

	s.started = false
	s.logger.Info(ctx, "matching service stopped")
}

// MatchingConfig loads the matching configuration, falling back to
// documented defaults for anything missing. It never fails.
func (s *Service) MatchingConfig(ctx context.Context) types.ConfigView {
	cfg, warnings := s.settings.Config(ctx)
	return s.configView(cfg, warnings)
}

// UpdateMatchingConfig clamps cross-field violations, persists every field
// as an individual settings key, and reports soft-validation warnings. A
// returned error means the stored configuration may be partially updated
// and must be reloaded before retrying.
func (s *Service) UpdateMatchingConfig(ctx context.Context, cfg model.MatchConfig) (types.ConfigView, error) {
	notes := cfg.Normalize()

	if err := s.settings.UpdateConfig(ctx, cfg); err != nil {
		s.logger.Error(ctx, "configuration update failed", logger.Error(err))
		return types.ConfigView{}, err
	}

	view := s.configView(cfg, notes)
	s.logger.Info(ctx, "matching configuration updated",
		logger.Float64("weightSum", view.WeightSum),
		logger.Int("shortlistSize", cfg.ShortlistSizeDefault),
	)
	return view, nil
}

func (s *Service) configView(cfg model.MatchConfig, warnings []string) types.ConfigView {
	view := types.ConfigView{
		Config:    cfg,
		WeightSum: cfg.WeightSum(),
		Warnings:  warnings,
	}
	if !cfg.WeightSumOK() {
		view.Warnings = append(view.Warnings,
			fmt.Sprintf("factor weights sum to %.6g, expected 1.0", view.WeightSum))
	}
	return view
}

// Compute runs the scorer for a request and persists a new snapshot.
//
// The per-request guard rejects a second concurrent run with
// ErrComputeInFlight. Without force, an existing snapshot is returned
// untouched. On any failure no snapshot is written and any previously
// stored snapshot remains in place.
func (s *Service) Compute(ctx context.Context, requestID string, force bool) (types.ComputeOutcome, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return types.ComputeOutcome{}, err
	}

	if !s.inflight.TryAcquire(ctx, requestID) {
		metrics.RecordScoringRejected()
		return types.ComputeOutcome{}, fmt.Errorf("%w: %s", ErrComputeInFlight, requestID)
	}
	defer func() {
		s.inflight.Release(ctx, requestID)
		metrics.UpdateComputesInFlight(s.inflight.Size())
	}()
	metrics.UpdateComputesInFlight(s.inflight.Size())

	if !force {
		snap, err := s.snapshots.Latest(ctx, requestID)
		switch {
		case err == nil:
			metrics.RecordScoringReused()
			return types.ComputeOutcome{
				Message:  fmt.Sprintf("matching already computed for %s; recompute to refresh", requestID),
				Snapshot: snap,
				Reused:   true,
			}, nil
		case !errors.Is(err, repository.ErrNoSnapshot):
			return types.ComputeOutcome{}, fmt.Errorf("snapshot lookup: %w", err)
		}
	}

	cfg, _ := s.settings.Config(ctx)
	pool, err := s.candidates.List(ctx)
	if err != nil {
		metrics.RecordScoringError()
		return types.ComputeOutcome{}, fmt.Errorf("load candidate pool: %w", err)
	}

	scoreCtx, cancel := context.WithTimeout(ctx, s.computeTimeout)
	defer cancel()

	start := s.now()
	scored, err := s.scorer.Score(scoreCtx, req, pool, cfg)
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordScoringError()
		if errors.Is(scoreCtx.Err(), context.DeadlineExceeded) {
			return types.ComputeOutcome{}, fmt.Errorf("%w after %s", ErrComputeTimeout, s.computeTimeout)
		}
		return types.ComputeOutcome{}, fmt.Errorf("scoring failed: %w", err)
	}

	// The scorer is a swappable strategy; snapshot order is this
	// coordinator's invariant, not the scorer's.
	model.SortCandidates(scored)

	snap := model.Snapshot{
		ID:         uuid.NewString(),
		RequestID:  requestID,
		Candidates: scored,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.snapshots.Append(ctx, snap); err != nil {
		metrics.RecordScoringError()
		return types.ComputeOutcome{}, fmt.Errorf("persist snapshot: %w", err)
	}

	metrics.RecordScoringRun()
	metrics.RecordSnapshotWritten(len(scored))

	s.logger.Info(ctx, "scoring run completed",
		logger.String("requestID", requestID),
		logger.Int("candidates", len(scored)),
		logger.Bool("force", force),
	)
	return types.ComputeOutcome{
		Message:  fmt.Sprintf("scored %d candidates for request %s", len(scored), requestID),
		Snapshot: snap,
	}, nil
}

// Rescore implements the worker.Runner contract for background jobs.
func (s *Service) Rescore(ctx context.Context, requestID string, force bool) error {
	defer s.queued.Release(ctx, requestID)

	_, err := s.Compute(ctx, requestID, force)
	if errors.Is(err, ErrComputeInFlight) {
		// A dashboard-triggered run is already underway; the sweep will
		// pick this request up again if it is still stale.
		return nil
	}
	return err
}

// LatestSnapshot returns the most recent snapshot for a request.
// repository.ErrNoSnapshot signals the normal not-yet-computed state.
func (s *Service) LatestSnapshot(ctx context.Context, requestID string) (model.Snapshot, error) {
	if _, err := s.requests.Get(ctx, requestID); err != nil {
		return model.Snapshot{}, err
	}
	return s.snapshots.Latest(ctx, requestID)
}

// SnapshotHistory returns up to limit snapshots for a request, newest
// first. A non-positive or oversized limit is clamped to the configured
// maximum.
func (s *Service) SnapshotHistory(ctx context.Context, requestID string, limit int) ([]model.Snapshot, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	return s.snapshots.History(ctx, requestID, limit)
}

// Invite dispatches invitations for a request. An empty userIDs defaults
// to the shortlist of the latest snapshot; sensitive requests shortlist a
// single provider when the policy flag is set. The outcome reports only
// what the dispatcher confirmed.
func (s *Service) Invite(ctx context.Context, requestID string, userIDs []string) (types.InviteOutcome, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return types.InviteOutcome{}, err
	}
	snap, err := s.snapshots.Latest(ctx, requestID)
	if err != nil {
		return types.InviteOutcome{}, err
	}

	cfg, _ := s.settings.Config(ctx)

	inSnapshot := make(map[string]struct{}, len(snap.Candidates))
	for _, c := range snap.Candidates {
		inSnapshot[c.UserID] = struct{}{}
	}

	var outcome types.InviteOutcome
	if len(userIDs) == 0 {
		n := cfg.ShortlistSize(req.Sensitive)
		if n > len(snap.Candidates) {
			n = len(snap.Candidates)
		}
		for _, c := range snap.Candidates[:n] {
			userIDs = append(userIDs, c.UserID)
		}
	} else {
		kept := make([]string, 0, len(userIDs))
		for _, id := range userIDs {
			if _, ok := inSnapshot[id]; !ok {
				outcome.Errors = append(outcome.Errors, fmt.Sprintf("%s: not in current snapshot", id))
				continue
			}
			kept = append(kept, id)
		}
		userIDs = kept
	}

	sla := time.Duration(cfg.InviteResponseSLAHours) * time.Hour
	res, err := s.dispatcher.Send(ctx, requestID, userIDs, sla)

	outcome.Requested += res.Requested
	outcome.Sent = res.Confirmed
	outcome.Errors = append(outcome.Errors, res.Errors...)

	s.logger.Info(ctx, "invitations dispatched",
		logger.String("requestID", requestID),
		logger.Int("requested", outcome.Requested),
		logger.Int("sent", outcome.Sent),
	)
	return outcome, err
}

// Invitations lists recorded invitations for a request, newest first.
func (s *Service) Invitations(ctx context.Context, requestID string) ([]model.Invitation, error) {
	return s.ledger.ByRequest(ctx, requestID)
}

// CreateRequest stores a new client request, filling in id, status,
// and creation time when absent.
func (s *Service) CreateRequest(ctx context.Context, req model.Request) (model.Request, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = "open"
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.now().UTC()
	}
	if err := s.requests.Put(ctx, req); err != nil {
		return model.Request{}, err
	}
	return req, nil
}

// GetRequest returns a request by id.
func (s *Service) GetRequest(ctx context.Context, id string) (model.Request, error) {
	return s.requests.Get(ctx, id)
}

// ListRequests returns requests, optionally filtered by status.
func (s *Service) ListRequests(ctx context.Context, status string) ([]model.Request, error) {
	return s.requests.List(ctx, status)
}

// UpsertCandidate stores a candidate profile, assigning an id when absent.
func (s *Service) UpsertCandidate(ctx context.Context, cand model.Candidate) (model.Candidate, error) {
	if cand.ID == "" {
		cand.ID = uuid.NewString()
	}
	if err := s.candidates.Put(ctx, cand); err != nil {
		return model.Candidate{}, err
	}
	return cand, nil
}

// ListCandidates returns every stored candidate profile.
func (s *Service) ListCandidates(ctx context.Context) ([]model.Candidate, error) {
	return s.candidates.List(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"rescoreWorkers":   s.rescoreWorkerCount,
		"rescoreQueueSize": s.rescoreQueueSize,
		"computesInFlight": s.inflight.Size(),
	}

	if s.started {
		stats["queuedJobs"] = s.jobQueue.Len(ctx)
		stats["snapshots"] = s.snapshots.Count(ctx)
		if reqs, err := s.requests.List(ctx, ""); err == nil {
			stats["requests"] = len(reqs)
			metrics.UpdateRequestsTracked(len(reqs))
		}
		if cands, err := s.candidates.List(ctx); err == nil {
			stats["candidates"] = len(cands)
			metrics.UpdateCandidatePool(len(cands))
		}
	}
	return stats
}

// sweepStale queues a forced rescore for every open request whose latest
// snapshot is older than the configured max age. Requests that were never
// scored are left alone: first compute is an explicit operator action.
func (s *Service) sweepStale(ctx context.Context) {
	metrics.RecordRescoreSweep()

	reqs, err := s.requests.List(ctx, "open")
	if err != nil {
		s.logger.Warn(ctx, "stale sweep: request list failed", logger.Error(err))
		return
	}

	cutoff := s.now().Add(-s.rescoreMaxAge)
	var enqueued int
	for _, req := range reqs {
		snap, err := s.snapshots.Latest(ctx, req.ID)
		if err != nil {
			continue
		}
		if snap.CreatedAt.After(cutoff) {
			continue
		}
		if !s.queued.TryAcquire(ctx, req.ID) {
			continue
		}
		if !s.jobQueue.Enqueue(ctx, jobqueue.Job{RequestID: req.ID, Force: true}) {
			s.queued.Release(ctx, req.ID)
			continue
		}
		enqueued++
	}

	metrics.RecordRescoreSweepEnqueued(enqueued)
	if enqueued > 0 {
		s.logger.Info(ctx, "stale sweep queued rescores", logger.Int("count", enqueued))
	}
}

// sweepExpiredInvitations marks pending invitations past their SLA
// deadline as expired.
func (s *Service) sweepExpiredInvitations(ctx context.Context) {
	n, err := s.ledger.ExpireDue(ctx, s.now().UTC())
	if err != nil {
		s.logger.Warn(ctx, "invitation expiry sweep failed", logger.Error(err))
		return
	}
	if n > 0 {
		metrics.RecordInvitationsExpired(n)
		s.logger.Info(ctx, "invitations expired", logger.Int("count", n))
	}
}
