// Package handlers exposes the market-data aggregator over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/aristath/yieldfolio/internal/marketdata"
	"github.com/aristath/yieldfolio/internal/modules/charts"
	"github.com/aristath/yieldfolio/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// MarketService is the aggregator contract the handlers depend on
type MarketService interface {
	GetStockQuote(ctx context.Context, symbol string) (domain.Quote, error)
	GetQuotes(ctx context.Context, symbols []string) ([]domain.Quote, error)
	GetCompanyOverview(ctx context.Context, symbol string) (*domain.CompanyOverview, error)
	GetDividendHistory(ctx context.Context, symbol string) (marketdata.DividendHistory, error)
	SearchStocks(ctx context.Context, query string) (marketdata.SearchResults, error)
	GetPriceHistory(ctx context.Context, symbol, timeframe string) (marketdata.PriceHistory, error)
	GetFullStockData(ctx context.Context, symbol string) (marketdata.FullStockData, error)
}

// Handler handles market-data HTTP requests
type Handler struct {
	service MarketService
	log     zerolog.Logger
}

// NewHandler creates a new market handler
func NewHandler(service MarketService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "market").Logger(),
	}
}

// RegisterRoutes registers all market routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/market", func(r chi.Router) {
		r.Get("/quote/{symbol}", h.HandleGetQuote)
		r.Get("/quotes", h.HandleGetQuotes) // ?symbols=KO,PEP
		r.Get("/overview/{symbol}", h.HandleGetOverview)
		r.Get("/dividends/{symbol}", h.HandleGetDividends)
		r.Get("/search", h.HandleSearch)
		r.Get("/history/{symbol}", h.HandleGetHistory) // ?timeframe=1y&sma=20,50
		r.Get("/full/{symbol}", h.HandleGetFull)
	})
}

// HandleGetQuote returns the first acceptable quote, or a zero stand-in
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.service.GetStockQuote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

// HandleGetQuotes prices a comma-separated list of symbols in input order
func (h *Handler) HandleGetQuotes(w http.ResponseWriter, r *http.Request) {
	symbols := utils.ParseCSV(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		h.writeError(w, http.StatusBadRequest, "symbols is required")
		return
	}

	quotes, err := h.service.GetQuotes(r.Context(), symbols)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"quotes": quotes,
		"count":  len(quotes),
	})
}

// HandleGetOverview returns the company overview, 404 when no provider knows the symbol
func (h *Handler) HandleGetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.GetCompanyOverview(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if overview == nil {
		h.writeError(w, http.StatusNotFound, "company overview not available")
		return
	}
	h.writeJSON(w, http.StatusOK, overview)
}

// HandleGetDividends returns the dividend history, empty when unavailable
func (h *Handler) HandleGetDividends(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.GetDividendHistory(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, history)
}

// HandleSearch searches symbols by ?q=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.SearchStocks(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, results)
}

type historyResponse struct {
	marketdata.PriceHistory
	Series   []charts.ChartDataPoint            `json:"series"`
	Overlays map[string][]charts.ChartDataPoint `json:"overlays,omitempty"`
}

// HandleGetHistory returns price history, its closing-price series and optional SMA overlays
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	history, err := h.service.GetPriceHistory(r.Context(), chi.URLParam(r, "symbol"), q.Get("timeframe"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := historyResponse{PriceHistory: history, Series: charts.ClosingSeries(history.Data)}
	if periods := utils.ParsePositiveInts(q.Get("sma")); len(periods) > 0 {
		resp.Overlays = charts.MovingAverages(history.Data, periods)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleGetFull returns quote, overview and dividends fetched concurrently
func (h *Handler) HandleGetFull(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.GetFullStockData(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, data)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSymbol), errors.Is(err, domain.ErrInvalidQuery):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Market request failed")
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
