// Package domain holds the canonical market-data types and the provider capability interface.
package domain

import "time"

// Quote is the canonical price snapshot for a symbol.
// A Quote with Price == 0 and PreviousClose == 0 means no provider could price the symbol.
type Quote struct {
	Symbol          string  `json:"symbol"`
	Price           float64 `json:"price"`
	PreviousClose   float64 `json:"previousClose"`
	Change          float64 `json:"change"`
	ChangePercent   float64 `json:"changePercent"`
	Open            float64 `json:"open"`
	High            float64 `json:"high"`
	Low             float64 `json:"low"`
	Volume          int64   `json:"volume"`
	MarketCap       float64 `json:"marketCap"`
	IsPreviousClose bool    `json:"isPreviousClose"`
	Source          string  `json:"source,omitempty"`
}

// EmptyQuote returns the zero-filled stand-in used when every provider failed.
func EmptyQuote(symbol string) Quote {
	return Quote{Symbol: symbol}
}

// CompanyOverview is the descriptive and fundamental snapshot of a company.
// PayoutFrequency is nil whenever the inferred dividend yield is not positive.
type CompanyOverview struct {
	Symbol           string           `json:"symbol"`
	CompanyName      string           `json:"companyName"`
	Sector           string           `json:"sector"`
	Industry         string           `json:"industry"`
	Description      string           `json:"description"`
	MarketCap        float64          `json:"marketCap"`
	PERatio          float64          `json:"peRatio"`
	DividendYield    float64          `json:"dividendYield"`
	DividendPerShare float64          `json:"dividendPerShare,omitempty"`
	PayoutRatio      float64          `json:"payoutRatio"`
	PayoutFrequency  *PayoutFrequency `json:"payoutFrequency,omitempty"`
	Beta             float64          `json:"beta"`
	Website          string           `json:"website"`
	Employees        int64            `json:"employees"`
	Source           string           `json:"source,omitempty"`
}

// DividendPayment is one historical dividend event as reported by a provider.
type DividendPayment struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// SearchResult is a partial overview-like record returned by symbol search.
// Price and dividend fields stay zero unless the result was enriched.
type SearchResult struct {
	Symbol           string           `json:"symbol"`
	CompanyName      string           `json:"companyName"`
	Exchange         string           `json:"exchange"`
	Type             string           `json:"type"`
	Currency         string           `json:"currency"`
	Sector           string           `json:"sector"`
	Industry         string           `json:"industry"`
	Price            float64          `json:"price"`
	DividendYield    float64          `json:"dividendYield"`
	DividendPerShare float64          `json:"dividendPerShare,omitempty"`
	PayoutFrequency  *PayoutFrequency `json:"payoutFrequency,omitempty"`
	Enriched         bool             `json:"enriched"`
}

// UnknownField is the placeholder for descriptive fields a provider did not return.
const UnknownField = "Unknown"

// Granularity is the aggregation step of a price series.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// PriceWindow selects the portion of a price series a provider must return.
// A zero From means the full available history.
type PriceWindow struct {
	From        time.Time
	To          time.Time
	Granularity Granularity
}

// Contains reports whether t falls inside the window.
func (w PriceWindow) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// PricePoint is one OHLCV bar.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}
