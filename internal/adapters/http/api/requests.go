package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	service "github.com/gigbridge/matchd/internal/app"

	"github.com/gigbridge/matchd/internal/adapters/repository"
	"github.com/gigbridge/matchd/internal/domain/model"
)

// defaultHistoryLimit caps /snapshots responses when no limit is given.
const defaultHistoryLimit = 10

// RequestsHandler serves the request intake and matching endpoints.
type RequestsHandler struct {
	deps Dependencies
}

// NewRequestsHandler creates a new requests handler.
func NewRequestsHandler(deps Dependencies) *RequestsHandler {
	return &RequestsHandler{deps: deps}
}

// HandleRequests dispatches GET and POST on /requests.
func (h *RequestsHandler) HandleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, nil)
	}
}

// HandleRequestSubtree routes /requests/{id} and its sub-resources.
func (h *RequestsHandler) HandleRequestSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/requests/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, codeNotFound, nil)
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, nil)
			return
		}
		h.get(w, r, id)
		return
	}

	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, codeNotFound, nil)
		return
	}

	switch parts[1] {
	case "compute":
		h.compute(w, r, id)
	case "snapshot":
		h.snapshot(w, r, id)
	case "snapshots":
		h.snapshots(w, r, id)
	case "invitations":
		h.invitations(w, r, id)
	default:
		writeError(w, http.StatusNotFound, codeNotFound, nil)
	}
}

func (h *RequestsHandler) list(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.deps.ListRequests(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, Wrap("requests.list", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": reqs, "count": len(reqs)})
}

func (h *RequestsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req model.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, Wrap("requests.create", err))
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, NewKind("requests.create", "title is required"))
		return
	}

	created, err := h.deps.CreateRequest(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, Wrap("requests.create", err))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *RequestsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	req, err := h.deps.GetRequest(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, codeNotFound, Wrap("requests.get", err))
			return
		}
		writeError(w, http.StatusInternalServerError, codeInternal, Wrap("requests.get", err))
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestsHandler) compute(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, nil)
		return
	}

	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, WrapKind("requests.compute", "invalid force flag", err))
			return
		}
		force = parsed
	}

	outcome, err := h.deps.Compute(r.Context(), id, force)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrComputeInFlight):
			writeError(w, http.StatusConflict, codeComputeInFlight, Wrap("requests.compute", err))
		case errors.Is(err, service.ErrComputeTimeout):
			writeError(w, http.StatusGatewayTimeout, codeComputeTimeout, Wrap("requests.compute", err))
		case isNotFound(err):
			writeError(w, http.StatusNotFound, codeNotFound, Wrap("requests.compute", err))
		default:
			writeError(w, http.StatusBadGateway, codeScoringFailed, Wrap("requests.compute", err))
		}
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *RequestsHandler) snapshot(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, nil)
		return
	}

	snap, err := h.deps.LatestSnapshot(r.Context(), id)
	if err != nil {
		switch {
		// An absent snapshot is a normal state, not a storage failure.
		case errors.Is(err, repository.ErrNoSnapshot):
			writeError(w, http.StatusNotFound, codeNoSnapshot, Wrap("requests.snapshot", err))
		case isNotFound(err):
			writeError(w, http.StatusNotFound, codeNotFound, Wrap("requests.snapshot", err))
		default:
			writeError(w, http.StatusInternalServerError, codeInternal, Wrap("requests.snapshot", err))
		}
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *RequestsHandler) snapshots(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, nil)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, codeBadRequest, NewKind("requests.snapshots", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	snaps, err := h.deps.SnapshotHistory(r.Context(), id, limit)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, codeNotFound, Wrap("requests.snapshots", err))
			return
		}
		writeError(w, http.StatusInternalServerError, codeInternal, Wrap("requests.snapshots", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps, "count": len(snaps)})
}

type inviteRequest struct {
	UserIDs []string `json:"user_ids"`
}

func (h *RequestsHandler) invitations(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		h.listInvitations(w, r, id)
	case http.MethodPost:
		h.sendInvitations(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, nil)
	}
}

func (h *RequestsHandler) listInvitations(w http.ResponseWriter, r *http.Request, id string) {
	invs, err := h.deps.Invitations(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, codeNotFound, Wrap("invitations.list", err))
			return
		}
		writeError(w, http.StatusInternalServerError, codeInternal, Wrap("invitations.list", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invitations": invs, "count": len(invs)})
}

func (h *RequestsHandler) sendInvitations(w http.ResponseWriter, r *http.Request, id string) {
	var body inviteRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, Wrap("invitations.send", err))
			return
		}
	}

	outcome, err := h.deps.Invite(r.Context(), id, body.UserIDs)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoSnapshot):
			writeError(w, http.StatusNotFound, codeNoSnapshot, Wrap("invitations.send", err))
		case isNotFound(err):
			writeError(w, http.StatusNotFound, codeNotFound, Wrap("invitations.send", err))
		default:
			writeError(w, http.StatusBadGateway, codeInternal, Wrap("invitations.send", err))
		}
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
