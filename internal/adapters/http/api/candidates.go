package api

import (
	"encoding/json"
	"net/http"

	"github.com/gigbridge/matchd/internal/domain/model"
)

// CandidatesHandler serves the candidate pool endpoints.
type CandidatesHandler struct {
	deps Dependencies
}

// NewCandidatesHandler creates a new candidates handler.
func NewCandidatesHandler(deps Dependencies) *CandidatesHandler {
	return &CandidatesHandler{deps: deps}
}

// HandleCandidates dispatches GET and PUT on /candidates.
func (h *CandidatesHandler) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPut, http.MethodPost:
		h.upsert(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, nil)
	}
}

func (h *CandidatesHandler) list(w http.ResponseWriter, r *http.Request) {
	cands, err := h.deps.ListCandidates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, Wrap("candidates.list", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": cands, "count": len(cands)})
}

func (h *CandidatesHandler) upsert(w http.ResponseWriter, r *http.Request) {
	var cand model.Candidate
	if err := json.NewDecoder(r.Body).Decode(&cand); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, Wrap("candidates.upsert", err))
		return
	}
	if cand.ID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, NewKind("candidates.upsert", "id is required"))
		return
	}

	saved, err := h.deps.UpsertCandidate(r.Context(), cand)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, Wrap("candidates.upsert", err))
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
