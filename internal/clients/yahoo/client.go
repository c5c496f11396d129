package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// ErrHTTPStatus is returned for non-200 responses.
type ErrHTTPStatus struct {
	Code int
	Body string
}

func (e ErrHTTPStatus) Error() string {
	return fmt.Sprintf("yahoo finance returned status %d: %s", e.Code, e.Body)
}

// ErrSymbolNotFound is returned when Yahoo has no result for a symbol.
type ErrSymbolNotFound struct {
	Symbol string
}

func (e ErrSymbolNotFound) Error() string {
	return fmt.Sprintf("no yahoo finance data for symbol %s", e.Symbol)
}

// Client is a Yahoo Finance API client. It needs no API key.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Yahoo rejects requests without a browser-like agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return ErrHTTPStatus{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// GetQuote fetches the v7 quote snapshot for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*QuoteData, error) {
	params := url.Values{}
	params.Set("symbols", symbol)

	var result struct {
		QuoteResponse struct {
			Result []map[string]interface{} `json:"result"`
			Error  interface{}              `json:"error"`
		} `json:"quoteResponse"`
	}
	if err := c.get(ctx, "/v7/finance/quote", params, &result); err != nil {
		return nil, err
	}
	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo finance error: %v", result.QuoteResponse.Error)
	}
	if len(result.QuoteResponse.Result) == 0 {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}

	info := result.QuoteResponse.Result[0]
	return &QuoteData{
		Symbol:        getString(info, "symbol", symbol),
		Price:         getFloat64OrZero(info, "regularMarketPrice"),
		PreviousClose: getFloat64OrZero(info, "regularMarketPreviousClose"),
		Change:        getFloat64OrZero(info, "regularMarketChange"),
		ChangePercent: getFloat64OrZero(info, "regularMarketChangePercent"),
		Open:          getFloat64OrZero(info, "regularMarketOpen"),
		High:          getFloat64OrZero(info, "regularMarketDayHigh"),
		Low:           getFloat64OrZero(info, "regularMarketDayLow"),
		Volume:        getInt64OrZero(info, "regularMarketVolume"),
		MarketCap:     getFloat64OrZero(info, "marketCap"),
		LongName:      getString(info, "longName", ""),
		ShortName:     getString(info, "shortName", ""),
	}, nil
}

// GetSummary fetches the v10 quoteSummary modules used for company overviews.
func (c *Client) GetSummary(ctx context.Context, symbol string) (*Summary, error) {
	params := url.Values{}
	params.Set("modules", "assetProfile,summaryDetail,price,defaultKeyStatistics")

	var result struct {
		QuoteSummary struct {
			Result []map[string]map[string]interface{} `json:"result"`
			Error  interface{}                         `json:"error"`
		} `json:"quoteSummary"`
	}
	if err := c.get(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(symbol), params, &result); err != nil {
		return nil, err
	}
	if result.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo finance error: %v", result.QuoteSummary.Error)
	}
	if len(result.QuoteSummary.Result) == 0 {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}

	modules := result.QuoteSummary.Result[0]
	profile := modules["assetProfile"]
	detail := modules["summaryDetail"]
	price := modules["price"]
	stats := modules["defaultKeyStatistics"]

	name := getString(price, "longName", "")
	if name == "" {
		name = getString(price, "shortName", "")
	}

	marketCap := getRaw(price, "marketCap")
	if marketCap == 0 {
		marketCap = getRaw(detail, "marketCap")
	}

	beta := getRaw(detail, "beta")
	if beta == 0 {
		beta = getRaw(stats, "beta")
	}

	return &Summary{
		Symbol:        symbol,
		Name:          name,
		Sector:        getString(profile, "sector", ""),
		Industry:      getString(profile, "industry", ""),
		Description:   getString(profile, "longBusinessSummary", ""),
		Website:       getString(profile, "website", ""),
		Employees:     getInt64OrZero(profile, "fullTimeEmployees"),
		MarketCap:     marketCap,
		TrailingPE:    getRaw(detail, "trailingPE"),
		DividendRate:  getRaw(detail, "dividendRate"),
		DividendYield: getRaw(detail, "dividendYield"),
		PayoutRatio:   getRaw(detail, "payoutRatio"),
		Beta:          beta,
	}, nil
}

// GetDividends fetches the dividend events from the v8 chart endpoint, newest first.
func (c *Client) GetDividends(ctx context.Context, symbol string) ([]Dividend, error) {
	params := url.Values{}
	params.Set("range", "5y")
	params.Set("interval", "1mo")
	params.Set("events", "div")

	chart, err := c.getChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	if chart == nil {
		return []Dividend{}, nil
	}

	dividends := make([]Dividend, 0, len(chart.Events.Dividends))
	for _, d := range chart.Events.Dividends {
		if d.Amount <= 0 || d.Date == 0 {
			continue
		}
		dividends = append(dividends, Dividend{
			Date:   time.Unix(d.Date, 0).UTC(),
			Amount: d.Amount,
		})
	}

	sort.Slice(dividends, func(i, j int) bool {
		return dividends[i].Date.After(dividends[j].Date)
	})
	return dividends, nil
}

// GetHistoricalPrices fetches OHLCV bars between from and to.
// A zero from requests the maximum available range.
// Supported intervals: 1d, 1wk, 1mo.
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol string, from, to time.Time, interval string) ([]HistoricalPrice, error) {
	params := url.Values{}
	params.Set("interval", interval)
	if from.IsZero() {
		params.Set("range", "max")
	} else {
		if to.IsZero() {
			to = time.Now()
		}
		params.Set("period1", strconv.FormatInt(from.Unix(), 10))
		params.Set("period2", strconv.FormatInt(to.Unix(), 10))
	}

	chart, err := c.getChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	if chart == nil || len(chart.Indicators.Quote) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No historical data returned")
		return []HistoricalPrice{}, nil
	}

	quote := chart.Indicators.Quote[0]
	prices := make([]HistoricalPrice, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}
		// Yahoo sometimes returns null bars
		if quote.Open[i] == 0 && quote.High[i] == 0 && quote.Low[i] == 0 && quote.Close[i] == 0 {
			continue
		}

		var volume int64
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}

		prices = append(prices, HistoricalPrice{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   quote.Open[i],
			High:   quote.High[i],
			Low:    quote.Low[i],
			Close:  quote.Close[i],
			Volume: volume,
		})
	}

	c.log.Debug().
		Str("symbol", symbol).
		Str("interval", interval).
		Int("count", len(prices)).
		Msg("Fetched historical prices")

	return prices, nil
}

// Search runs the v1 symbol search.
func (c *Client) Search(ctx context.Context, query string) ([]SearchQuote, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("quotesCount", "10")
	params.Set("newsCount", "0")

	var result struct {
		Quotes []map[string]interface{} `json:"quotes"`
	}
	if err := c.get(ctx, "/v1/finance/search", params, &result); err != nil {
		return nil, err
	}

	quotes := make([]SearchQuote, 0, len(result.Quotes))
	for _, q := range result.Quotes {
		symbol := getString(q, "symbol", "")
		if symbol == "" {
			continue
		}
		name := getString(q, "longname", "")
		if name == "" {
			name = getString(q, "shortname", "")
		}
		quotes = append(quotes, SearchQuote{
			Symbol:    symbol,
			Name:      name,
			Exchange:  getString(q, "exchDisp", getString(q, "exchange", "")),
			QuoteType: getString(q, "quoteType", ""),
			Sector:    getString(q, "sector", ""),
			Industry:  getString(q, "industry", ""),
		})
	}
	return quotes, nil
}

type chartResult struct {
	Timestamp []int64 `json:"timestamp"`
	Events    struct {
		Dividends map[string]struct {
			Amount float64 `json:"amount"`
			Date   int64   `json:"date"`
		} `json:"dividends"`
	} `json:"events"`
	Indicators struct {
		Quote []struct {
			Open   []float64 `json:"open"`
			High   []float64 `json:"high"`
			Low    []float64 `json:"low"`
			Close  []float64 `json:"close"`
			Volume []int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (c *Client) getChart(ctx context.Context, symbol string, params url.Values) (*chartResult, error) {
	var result struct {
		Chart struct {
			Result []chartResult `json:"result"`
			Error  interface{}   `json:"error"`
		} `json:"chart"`
	}
	if err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), params, &result); err != nil {
		return nil, err
	}
	if result.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo finance error: %v", result.Chart.Error)
	}
	if len(result.Chart.Result) == 0 {
		return nil, nil
	}
	return &result.Chart.Result[0], nil
}

// Helper functions to safely extract values from map

func getFloat64(m map[string]interface{}, key string) *float64 {
	if val, ok := m[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			return &v
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		}
	}
	return nil
}

func getFloat64OrZero(m map[string]interface{}, key string) float64 {
	if val := getFloat64(m, key); val != nil {
		return *val
	}
	return 0
}

func getInt64OrZero(m map[string]interface{}, key string) int64 {
	return int64(getFloat64OrZero(m, key))
}

// getRaw reads quoteSummary values, which come either bare or as {"raw": x, "fmt": "..."}.
func getRaw(m map[string]interface{}, key string) float64 {
	if m == nil {
		return 0
	}
	if nested, ok := m[key].(map[string]interface{}); ok {
		return getFloat64OrZero(nested, "raw")
	}
	return getFloat64OrZero(m, key)
}

func getString(m map[string]interface{}, key string, defaultVal string) string {
	if val, ok := m[key]; ok && val != nil {
		if s, ok := val.(string); ok && s != "" {
			return s
		}
	}
	return defaultVal
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
