// Package handlers provides HTTP handlers for portfolio management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/aristath/yieldfolio/internal/modules/portfolio"
	"github.com/aristath/yieldfolio/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// addHoldingRequest accepts numbers or numeric strings for decimal fields
// and a YYYY-MM-DD or RFC3339 purchase date.
type addHoldingRequest struct {
	Symbol           string           `json:"symbol"`
	Shares           decimal.Decimal  `json:"shares"`
	PurchasePrice    decimal.Decimal  `json:"purchasePrice"`
	PurchaseDate     string           `json:"purchaseDate"`
	CompanyName      string           `json:"companyName"`
	DividendPerShare *decimal.Decimal `json:"dividendPerShare"`
	PayoutFrequency  string           `json:"payoutFrequency"`
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// HandleListHoldings returns the owner's lots
func (h *Handler) HandleListHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.service.Holdings(r.Context(), utils.OwnerID(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"holdings": holdings,
		"count":    len(holdings),
	})
}

// HandleAddHolding stores a new lot and projects its dividends
func (h *Handler) HandleAddHolding(w http.ResponseWriter, r *http.Request) {
	var req addHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid purchaseDate")
		return
	}

	holding, schedule, err := h.service.AddHolding(r.Context(), utils.OwnerID(r), portfolio.NewHolding{
		Symbol:           req.Symbol,
		Shares:           req.Shares,
		PurchasePrice:    req.PurchasePrice,
		PurchaseDate:     purchaseDate,
		CompanyName:      req.CompanyName,
		DividendPerShare: req.DividendPerShare,
		PayoutFrequency:  req.PayoutFrequency,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"holding":  holding,
		"schedule": schedule,
	})
}

// HandleRemoveHolding deletes a lot and updates the dividend schedule
func (h *Handler) HandleRemoveHolding(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RemoveHolding(r.Context(), utils.OwnerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetPositions returns lots aggregated per symbol with portfolio totals
func (h *Handler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Positions(r.Context(), utils.OwnerID(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// HandleRefresh refreshes cached market data for the owner's symbols
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.RefreshOwner(r.Context(), utils.OwnerID(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidHolding):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error().Err(err).Msg("Portfolio request failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
