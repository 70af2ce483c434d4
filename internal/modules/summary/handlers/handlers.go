// Package handlers provides HTTP handlers for the portfolio summary API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sambutler/wheeltrack/internal/modules/summary"
)

// SummaryHandlers contains HTTP handlers for the portfolio summary API
type SummaryHandlers struct {
	log     zerolog.Logger
	service *summary.Service
}

// NewSummaryHandlers creates a new summary handlers instance
func NewSummaryHandlers(service *summary.Service, log zerolog.Logger) *SummaryHandlers {
	return &SummaryHandlers{
		service: service,
		log:     log.With().Str("handler", "summary").Logger(),
	}
}

// RegisterRoutes registers the summary routes
func (h *SummaryHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/portfolio/summary", h.HandleGetSummary)
}

// HandleGetSummary computes and returns the portfolio summary
// GET /api/portfolio/summary
func (h *SummaryHandlers) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Compute()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute portfolio summary")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// writeJSON writes a JSON response
func (h *SummaryHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *SummaryHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
