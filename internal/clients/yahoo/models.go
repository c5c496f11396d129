package yahoo

import "time"

// QuoteData is the subset of the v7 quote payload the adapter needs.
type QuoteData struct {
	Symbol        string
	Price         float64
	PreviousClose float64
	Change        float64
	ChangePercent float64
	Open          float64
	High          float64
	Low           float64
	Volume        int64
	MarketCap     float64
	LongName      string
	ShortName     string
}

// Summary collects the quoteSummary modules used for a company overview.
// DividendYield and PayoutRatio are fractions.
type Summary struct {
	Symbol        string
	Name          string
	Sector        string
	Industry      string
	Description   string
	Website       string
	Employees     int64
	MarketCap     float64
	TrailingPE    float64
	DividendRate  float64
	DividendYield float64
	PayoutRatio   float64
	Beta          float64
}

// Dividend is one dividend event from the chart endpoint.
type Dividend struct {
	Date   time.Time
	Amount float64
}

// SearchQuote is one entry of the v1 search response.
type SearchQuote struct {
	Symbol    string
	Name      string
	Exchange  string
	QuoteType string
	Sector    string
	Industry  string
}

// HistoricalPrice represents a single OHLCV data point
type HistoricalPrice struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}
