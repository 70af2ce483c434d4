package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trade ledger routes
func (h *TradeHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/trades", func(r chi.Router) {
		r.Get("/", h.HandleListTrades) // Full ledger in replay order
		r.Post("/", h.HandleAddTrade)  // Record a trade with fx snapshot
	})
}
