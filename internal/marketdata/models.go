package marketdata

import (
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
)

// Timeouts bounds each provider call per operation.
type Timeouts struct {
	Quote     time.Duration
	Overview  time.Duration
	Dividends time.Duration
	Search    time.Duration
	History   time.Duration
}

// DefaultTimeouts returns the per-operation provider timeouts used when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Quote:     5 * time.Second,
		Overview:  8 * time.Second,
		Dividends: 8 * time.Second,
		Search:    5 * time.Second,
		History:   10 * time.Second,
	}
}

// DividendHistory is a symbol's dividend payments, most recent first.
type DividendHistory struct {
	Symbol          string                   `json:"symbol"`
	Dividends       []domain.DividendPayment `json:"dividends"`
	TotalDividends  float64                  `json:"totalDividends"`
	AverageDividend float64                  `json:"averageDividend"`
	Count           int                      `json:"count"`
	Source          string                   `json:"source,omitempty"`
}

// SearchResults wraps the accepted provider's search hits.
type SearchResults struct {
	Query   string                `json:"query"`
	Count   int                   `json:"count"`
	Results []domain.SearchResult `json:"results"`
	Source  string                `json:"source,omitempty"`
}

// PriceHistory is an ascending OHLCV series for a resolved timeframe.
type PriceHistory struct {
	Symbol      string              `json:"symbol"`
	Timeframe   string              `json:"timeframe"`
	Granularity domain.Granularity  `json:"granularity"`
	Data        []domain.PricePoint `json:"data"`
	Count       int                 `json:"count"`
	Source      string              `json:"source,omitempty"`
}

// FullStockData combines quote, overview and dividends fetched concurrently.
// Overview is nil when no provider had usable data.
type FullStockData struct {
	Symbol    string                  `json:"symbol"`
	Quote     domain.Quote            `json:"quote"`
	Overview  *domain.CompanyOverview `json:"overview"`
	Dividends DividendHistory         `json:"dividends"`
}
