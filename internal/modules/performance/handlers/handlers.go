// Package handlers provides HTTP handlers for the performance API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sambutler/wheeltrack/internal/domain"
	"github.com/sambutler/wheeltrack/internal/modules/performance"
)

// PerformanceHandlers contains HTTP handlers for the performance API
type PerformanceHandlers struct {
	log       zerolog.Logger
	service   *performance.Service
	chartsDir string
}

// NewPerformanceHandlers creates a new performance handlers instance
func NewPerformanceHandlers(service *performance.Service, chartsDir string, log zerolog.Logger) *PerformanceHandlers {
	return &PerformanceHandlers{
		service:   service,
		chartsDir: chartsDir,
		log:       log.With().Str("handler", "performance").Logger(),
	}
}

// RegisterRoutes registers the performance routes
func (h *PerformanceHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio/performance", func(r chi.Router) {
		r.Get("/", h.HandleGetPerformance)
		r.Get("/chart.png", h.HandleGetChart)
	})
}

// HandleGetPerformance returns the daily series, stats, and SMA overlay
// GET /api/portfolio/performance
func (h *PerformanceHandlers) HandleGetPerformance(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Compute()
	if err != nil {
		h.handleComputeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetChart renders the performance chart as PNG. Missing price data
// returns 404 rather than a chart drawn from wrong numbers.
// GET /api/portfolio/performance/chart.png
func (h *PerformanceHandlers) HandleGetChart(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Compute()
	if err != nil {
		h.handleComputeError(w, err)
		return
	}

	png, err := performance.RenderPNG(result)
	if err != nil {
		if errors.Is(err, domain.ErrPriceDataUnavailable) {
			h.writeError(w, http.StatusNotFound, "No data to chart")
			return
		}
		h.log.Error().Err(err).Msg("Failed to render chart")
		h.writeError(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}

	// Keep the on-disk copy current for anything serving static files.
	if h.chartsDir != "" {
		if _, err := performance.SaveChart(h.chartsDir, png); err != nil {
			h.log.Warn().Err(err).Msg("Failed to save chart to disk")
		}
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.log.Error().Err(err).Msg("Failed to write chart response")
	}
}

// handleComputeError maps compute failures onto degraded responses: price
// outages are 503 (try later), everything else is 500.
func (h *PerformanceHandlers) handleComputeError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrPriceDataUnavailable) {
		h.log.Warn().Err(err).Msg("Price data unavailable, performance view degraded")
		h.writeError(w, http.StatusServiceUnavailable, "Price data unavailable")
		return
	}

	h.log.Error().Err(err).Msg("Failed to compute performance")
	h.writeError(w, http.StatusInternalServerError, err.Error())
}

// writeJSON writes a JSON response
func (h *PerformanceHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *PerformanceHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
