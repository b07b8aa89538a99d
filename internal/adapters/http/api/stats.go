package api

import "net/http"

// StatsProvider exposes runtime counters for the stats endpoint.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler handles service statistics requests.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats returns runtime counters as JSON.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, nil)
		return
	}
	if h.provider == nil {
		writeError(w, http.StatusServiceUnavailable, codeInternal, NewKind("stats", "provider not configured"))
		return
	}
	writeJSON(w, http.StatusOK, h.provider.GetStats())
}
