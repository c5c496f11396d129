package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/holdings", h.HandleListHoldings)
		r.Post("/holdings", h.HandleAddHolding)
		r.Delete("/holdings/{id}", h.HandleRemoveHolding)
		r.Get("/positions", h.HandleGetPositions) // Lots aggregated per symbol
		r.Post("/refresh", h.HandleRefresh)       // Refresh cached prices and dividends
	})
}
