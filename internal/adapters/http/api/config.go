package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gigbridge/matchd/internal/adapters/settings"
	"github.com/gigbridge/matchd/internal/domain/model"
)

// ConfigHandler serves the matching configuration endpoints.
type ConfigHandler struct {
	deps Dependencies
}

// NewConfigHandler creates a new configuration handler.
func NewConfigHandler(deps Dependencies) *ConfigHandler {
	return &ConfigHandler{deps: deps}
}

// HandleConfig dispatches GET and PUT on /matching/config.
func (h *ConfigHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.put(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, nil)
	}
}

func (h *ConfigHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.MatchingConfig(r.Context()))
}

func (h *ConfigHandler) put(w http.ResponseWriter, r *http.Request) {
	var cfg model.MatchConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, Wrap("config.update", err))
		return
	}

	view, err := h.deps.UpdateMatchingConfig(r.Context(), cfg)
	if err != nil {
		if errors.Is(err, settings.ErrPartialWrite) || errors.Is(err, settings.ErrSaveFailed) {
			writeError(w, http.StatusBadGateway, codeSaveFailed, Wrap("config.update", err))
			return
		}
		writeError(w, http.StatusInternalServerError, codeInternal, Wrap("config.update", err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
