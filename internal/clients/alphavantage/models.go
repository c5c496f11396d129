package alphavantage

import "time"

// GlobalQuote is the GLOBAL_QUOTE payload.
type GlobalQuote struct {
	Symbol           string
	Open             float64
	High             float64
	Low              float64
	Price            float64
	Volume           int64
	LatestTradingDay time.Time
	PreviousClose    float64
	Change           float64
	ChangePercent    float64
}

// CompanyOverview is the OVERVIEW payload. Optional ratios are nil when Alpha Vantage reports "None".
type CompanyOverview struct {
	Symbol               string
	AssetType            string
	Name                 string
	Description          string
	Exchange             string
	Currency             string
	Country              string
	Sector               string
	Industry             string
	OfficialSite         string
	MarketCapitalization int64
	PERatio              *float64
	EPS                  *float64
	DividendPerShare     *float64
	DividendYield        *float64
	Beta                 *float64
	FiftyTwoWeekHigh     *float64
	FiftyTwoWeekLow      *float64
	ExDividendDate       time.Time
}

// DividendEvent is one row of the DIVIDENDS payload.
type DividendEvent struct {
	ExDividendDate time.Time
	PaymentDate    time.Time
	Amount         float64
}

// SymbolMatch is one SYMBOL_SEARCH best match.
type SymbolMatch struct {
	Symbol     string
	Name       string
	Type       string
	Region     string
	Currency   string
	MatchScore float64
}

// DailyPrice is an OHLCV bar from any of the TIME_SERIES functions.
type DailyPrice struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}
