// Package alphavantage provides a client for the Alpha Vantage market data API.
// The free tier allows a small number of requests per day, so the client keeps
// a daily request counter and refuses calls locally once it is exhausted.
package alphavantage

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
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL    = "https://www.alphavantage.co/query"
	defaultDailyLimit = 25
)

// ClientInterface is the subset of the client used by the provider adapter.
type ClientInterface interface {
	GetGlobalQuote(ctx context.Context, symbol string) (*GlobalQuote, error)
	GetCompanyOverview(ctx context.Context, symbol string) (*CompanyOverview, error)
	GetDividends(ctx context.Context, symbol string) ([]DividendEvent, error)
	SearchSymbol(ctx context.Context, keywords string) ([]SymbolMatch, error)
	GetDailyPrices(ctx context.Context, symbol string, full bool) ([]DailyPrice, error)
	GetWeeklyPrices(ctx context.Context, symbol string) ([]DailyPrice, error)
	GetMonthlyPrices(ctx context.Context, symbol string) ([]DailyPrice, error)
	GetRemainingRequests() int
}

// ErrRateLimitExceeded is returned when the daily request budget is spent
// or Alpha Vantage reports throttling.
type ErrRateLimitExceeded struct{}

func (ErrRateLimitExceeded) Error() string {
	return "alpha vantage rate limit exceeded"
}

// ErrInvalidAPIKey is returned when Alpha Vantage rejects the API key.
type ErrInvalidAPIKey struct{}

func (ErrInvalidAPIKey) Error() string {
	return "alpha vantage api key is invalid"
}

// ErrSymbolNotFound is returned when a response carries no data for the symbol.
type ErrSymbolNotFound struct {
	Symbol string
}

func (e ErrSymbolNotFound) Error() string {
	return fmt.Sprintf("alpha vantage has no data for symbol %s", e.Symbol)
}

// ErrHTTPStatus is returned for non-200 responses.
type ErrHTTPStatus struct {
	Code int
}

func (e ErrHTTPStatus) Error() string {
	return fmt.Sprintf("alpha vantage returned status %d", e.Code)
}

// Client is the Alpha Vantage API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger

	mu           sync.Mutex
	dailyLimit   int
	requestCount int
	resetAt      time.Time
}

// NewClient creates a new Alpha Vantage client with the free-tier daily limit.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:        log.With().Str("client", "alphavantage").Logger(),
		dailyLimit: defaultDailyLimit,
		resetAt:    nextMidnightUTC(),
	}
}

// SetDailyLimit overrides the daily request budget (premium keys).
func (c *Client) SetDailyLimit(limit int) {
	if limit <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dailyLimit = limit
}

// GetRemainingRequests returns how many requests are left today.
func (c *Client) GetRemainingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeResetLocked()
	remaining := c.dailyLimit - c.requestCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *Client) checkRateLimit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeResetLocked()
	if c.requestCount >= c.dailyLimit {
		return ErrRateLimitExceeded{}
	}
	c.requestCount++
	return nil
}

// maybeResetLocked clears the counter once the UTC day has rolled over.
func (c *Client) maybeResetLocked() {
	if time.Now().UTC().After(c.resetAt) {
		c.resetLocked()
	}
}

func (c *Client) resetLocked() {
	c.requestCount = 0
	c.resetAt = nextMidnightUTC()
}

func nextMidnightUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
}

// doRequest performs a GET for an Alpha Vantage function and returns the raw body.
func (c *Client) doRequest(ctx context.Context, function string, params map[string]string) ([]byte, error) {
	if err := c.checkRateLimit(); err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("function", function)
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", function, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, ErrHTTPStatus{Code: resp.StatusCode}
	}

	if err := c.checkAPIError(body); err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("function", function).
		Int("bytes", len(body)).
		Msg("Alpha Vantage request completed")

	return body, nil
}

// checkAPIError detects the error envelopes Alpha Vantage returns with HTTP 200.
func (c *Client) checkAPIError(body []byte) error {
	text := string(body)
	if strings.Contains(text, "Thank you for using Alpha Vantage") ||
		strings.Contains(text, "API call frequency") ||
		strings.Contains(text, "requests per day") {
		return ErrRateLimitExceeded{}
	}

	var envelope struct {
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("malformed alpha vantage response: %w", err)
	}

	switch {
	case envelope.Note != "":
		return ErrRateLimitExceeded{}
	case envelope.ErrorMessage != "":
		if strings.Contains(strings.ToLower(envelope.ErrorMessage), "apikey") {
			return ErrInvalidAPIKey{}
		}
		return fmt.Errorf("alpha vantage error: %s", envelope.ErrorMessage)
	case envelope.Information != "":
		if strings.Contains(strings.ToLower(envelope.Information), "api key") {
			return ErrInvalidAPIKey{}
		}
		return fmt.Errorf("alpha vantage: %s", envelope.Information)
	}
	return nil
}

// GetGlobalQuote fetches the latest quote for a symbol.
func (c *Client) GetGlobalQuote(ctx context.Context, symbol string) (*GlobalQuote, error) {
	body, err := c.doRequest(ctx, "GLOBAL_QUOTE", map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	quote, err := parseGlobalQuote(body)
	if err != nil {
		return nil, err
	}
	if quote.Symbol == "" {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}
	return quote, nil
}

// GetCompanyOverview fetches fundamentals for a symbol.
func (c *Client) GetCompanyOverview(ctx context.Context, symbol string) (*CompanyOverview, error) {
	body, err := c.doRequest(ctx, "OVERVIEW", map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	overview, err := parseCompanyOverview(body)
	if err != nil {
		return nil, err
	}
	if overview.Symbol == "" && overview.Name == "" {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}
	return overview, nil
}

// GetDividends fetches the dividend history for a symbol, newest first.
func (c *Client) GetDividends(ctx context.Context, symbol string) ([]DividendEvent, error) {
	body, err := c.doRequest(ctx, "DIVIDENDS", map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	return parseDividends(body)
}

// SearchSymbol runs a keyword search.
func (c *Client) SearchSymbol(ctx context.Context, keywords string) ([]SymbolMatch, error) {
	body, err := c.doRequest(ctx, "SYMBOL_SEARCH", map[string]string{"keywords": keywords})
	if err != nil {
		return nil, err
	}
	return parseSymbolSearch(body)
}

// GetDailyPrices fetches daily bars. Compact output covers the latest 100 sessions.
func (c *Client) GetDailyPrices(ctx context.Context, symbol string, full bool) ([]DailyPrice, error) {
	outputSize := "compact"
	if full {
		outputSize = "full"
	}
	body, err := c.doRequest(ctx, "TIME_SERIES_DAILY", map[string]string{
		"symbol":     symbol,
		"outputsize": outputSize,
	})
	if err != nil {
		return nil, err
	}
	return parseDailyTimeSeries(body)
}

// GetWeeklyPrices fetches weekly bars.
func (c *Client) GetWeeklyPrices(ctx context.Context, symbol string) ([]DailyPrice, error) {
	body, err := c.doRequest(ctx, "TIME_SERIES_WEEKLY", map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	return parseTimeSeries(body, "Weekly Time Series")
}

// GetMonthlyPrices fetches monthly bars.
func (c *Client) GetMonthlyPrices(ctx context.Context, symbol string) ([]DailyPrice, error) {
	body, err := c.doRequest(ctx, "TIME_SERIES_MONTHLY", map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	return parseTimeSeries(body, "Monthly Time Series")
}

func parseGlobalQuote(body []byte) (*GlobalQuote, error) {
	var raw struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse global quote: %w", err)
	}
	q := raw.GlobalQuote
	return &GlobalQuote{
		Symbol:           q["01. symbol"],
		Open:             parseFloat64(q["02. open"]),
		High:             parseFloat64(q["03. high"]),
		Low:              parseFloat64(q["04. low"]),
		Price:            parseFloat64(q["05. price"]),
		Volume:           parseInt64(q["06. volume"]),
		LatestTradingDay: parseDate(q["07. latest trading day"]),
		PreviousClose:    parseFloat64(q["08. previous close"]),
		Change:           parseFloat64(q["09. change"]),
		ChangePercent:    parseFloat64(q["10. change percent"]),
	}, nil
}

func parseCompanyOverview(body []byte) (*CompanyOverview, error) {
	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse company overview: %w", err)
	}
	return &CompanyOverview{
		Symbol:               raw["Symbol"],
		AssetType:            raw["AssetType"],
		Name:                 raw["Name"],
		Description:          raw["Description"],
		Exchange:             raw["Exchange"],
		Currency:             raw["Currency"],
		Country:              raw["Country"],
		Sector:               raw["Sector"],
		Industry:             raw["Industry"],
		OfficialSite:         raw["OfficialSite"],
		MarketCapitalization: parseInt64(raw["MarketCapitalization"]),
		PERatio:              parseFloat64Ptr(raw["PERatio"]),
		EPS:                  parseFloat64Ptr(raw["EPS"]),
		DividendPerShare:     parseFloat64Ptr(raw["DividendPerShare"]),
		DividendYield:        parseFloat64Ptr(raw["DividendYield"]),
		Beta:                 parseFloat64Ptr(raw["Beta"]),
		FiftyTwoWeekHigh:     parseFloat64Ptr(raw["52WeekHigh"]),
		FiftyTwoWeekLow:      parseFloat64Ptr(raw["52WeekLow"]),
		ExDividendDate:       parseDate(raw["ExDividendDate"]),
	}, nil
}

func parseDividends(body []byte) ([]DividendEvent, error) {
	var raw struct {
		Symbol string              `json:"symbol"`
		Data   []map[string]string `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse dividends: %w", err)
	}

	events := make([]DividendEvent, 0, len(raw.Data))
	for _, d := range raw.Data {
		exDate := parseDate(d["ex_dividend_date"])
		amount := parseFloat64(d["amount"])
		if exDate.IsZero() || amount <= 0 {
			continue
		}
		events = append(events, DividendEvent{
			ExDividendDate: exDate,
			PaymentDate:    parseDate(d["payment_date"]),
			Amount:         amount,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].ExDividendDate.After(events[j].ExDividendDate)
	})
	return events, nil
}

func parseSymbolSearch(body []byte) ([]SymbolMatch, error) {
	var raw struct {
		BestMatches []map[string]string `json:"bestMatches"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse symbol search: %w", err)
	}

	matches := make([]SymbolMatch, 0, len(raw.BestMatches))
	for _, m := range raw.BestMatches {
		matches = append(matches, SymbolMatch{
			Symbol:     m["1. symbol"],
			Name:       m["2. name"],
			Type:       m["3. type"],
			Region:     m["4. region"],
			Currency:   m["8. currency"],
			MatchScore: parseFloat64(m["9. matchScore"]),
		})
	}
	return matches, nil
}

func parseDailyTimeSeries(body []byte) ([]DailyPrice, error) {
	return parseTimeSeries(body, "Time Series (Daily)")
}

// parseTimeSeries reads an OHLCV series keyed by date, sorted newest first.
func parseTimeSeries(body []byte, key string) ([]DailyPrice, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse time series: %w", err)
	}
	seriesRaw, ok := raw[key]
	if !ok {
		return nil, fmt.Errorf("time series %q missing from response", key)
	}

	var series map[string]map[string]string
	if err := json.Unmarshal(seriesRaw, &series); err != nil {
		return nil, fmt.Errorf("failed to parse time series values: %w", err)
	}

	prices := make([]DailyPrice, 0, len(series))
	for day, bar := range series {
		date := parseDate(day)
		if date.IsZero() {
			continue
		}
		prices = append(prices, DailyPrice{
			Date:   date,
			Open:   parseFloat64(bar["1. open"]),
			High:   parseFloat64(bar["2. high"]),
			Low:    parseFloat64(bar["3. low"]),
			Close:  parseFloat64(bar["4. close"]),
			Volume: parseInt64(bar["5. volume"]),
		})
	}

	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Date.After(prices[j].Date)
	})
	return prices, nil
}

// parseFloat64 parses Alpha Vantage numeric strings, treating placeholders as zero.
func parseFloat64(s string) float64 {
	if v := parseFloat64Ptr(s); v != nil {
		return *v
	}
	return 0
}

func parseFloat64Ptr(s string) *float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	switch s {
	case "", "None", "null", "-":
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt64(s string) int64 {
	return int64(parseFloat64(s))
}

func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
