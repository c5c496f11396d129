package finnhub

import "time"

// Quote is the /quote payload.
type Quote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Profile is the /stock/profile2 payload. MarketCapitalization is in millions.
type Profile struct {
	Ticker               string  `json:"ticker"`
	Name                 string  `json:"name"`
	Country              string  `json:"country"`
	Currency             string  `json:"currency"`
	Exchange             string  `json:"exchange"`
	Industry             string  `json:"finnhubIndustry"`
	WebURL               string  `json:"weburl"`
	MarketCapitalization float64 `json:"marketCapitalization"`
	ShareOutstanding     float64 `json:"shareOutstanding"`
}

// Metrics is the subset of /stock/metric used for overviews.
// DividendYield and PayoutRatio are percentages.
type Metrics struct {
	PERatio          *float64
	Beta             *float64
	DividendYield    *float64
	DividendPerShare *float64
	PayoutRatio      *float64
}

// Dividend is one /stock/dividend2 row.
type Dividend struct {
	ExDate time.Time
	Amount float64
}

// SearchMatch is one /search result.
type SearchMatch struct {
	Description   string `json:"description"`
	DisplaySymbol string `json:"displaySymbol"`
	Symbol        string `json:"symbol"`
	Type          string `json:"type"`
}
