// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gigbridge/matchd/internal/adapters/repository"
	"github.com/gigbridge/matchd/internal/domain/model"
	"github.com/gigbridge/matchd/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Configuration
	MatchingConfig(ctx context.Context) types.ConfigView
	UpdateMatchingConfig(ctx context.Context, cfg model.MatchConfig) (types.ConfigView, error)

	// Scoring
	Compute(ctx context.Context, requestID string, force bool) (types.ComputeOutcome, error)
	LatestSnapshot(ctx context.Context, requestID string) (model.Snapshot, error)
	SnapshotHistory(ctx context.Context, requestID string, limit int) ([]model.Snapshot, error)

	// Invitations
	Invite(ctx context.Context, requestID string, userIDs []string) (types.InviteOutcome, error)
	Invitations(ctx context.Context, requestID string) ([]model.Invitation, error)

	// Intake
	CreateRequest(ctx context.Context, req model.Request) (model.Request, error)
	GetRequest(ctx context.Context, id string) (model.Request, error)
	ListRequests(ctx context.Context, status string) ([]model.Request, error)
	UpsertCandidate(ctx context.Context, cand model.Candidate) (model.Candidate, error)
	ListCandidates(ctx context.Context) ([]model.Candidate, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	configHandler     *ConfigHandler
	requestsHandler   *RequestsHandler
	candidatesHandler *CandidatesHandler
	dashboardHandler  *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		configHandler:     NewConfigHandler(deps),
		requestsHandler:   NewRequestsHandler(deps),
		candidatesHandler: NewCandidatesHandler(deps),
		dashboardHandler:  newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", MetricsHandler())
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/matching/config", MetricsMiddleware(s.configHandler.HandleConfig, "config"))
	mux.HandleFunc("/requests", MetricsMiddleware(s.requestsHandler.HandleRequests, "requests"))
	mux.HandleFunc("/requests/", MetricsMiddleware(s.requestsHandler.HandleRequestSubtree, "requests"))
	mux.HandleFunc("/candidates", MetricsMiddleware(s.candidatesHandler.HandleCandidates, "candidates"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
