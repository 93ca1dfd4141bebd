package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"face-morph-bot/internal/services"
)

// AdminHandler exposes the operator reset over HTTP.
type AdminHandler struct {
	reset *services.ResetService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(reset *services.ResetService) *AdminHandler {
	return &AdminHandler{reset: reset}
}

type resetRequest struct {
	Scope string `json:"scope"`
}

// Reset handles POST /api/v1/admin/reset
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	scope, err := services.ParseResetScope(req.Scope)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.reset.Reset(r.Context(), scope); err != nil {
		log.Error().Err(err).Str("scope", req.Scope).Msg("Reset failed")
		respondError(w, "reset failed", http.StatusInternalServerError)
		return
	}

	log.Info().Str("scope", req.Scope).Msg("Operator reset executed")
	respondJSON(w, map[string]string{"status": "ok", "scope": req.Scope}, http.StatusOK)
}

// Health handles GET /healthz
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
