// Package finnhub provides a client for the Finnhub stock API.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://finnhub.io/api/v1"

// ErrRateLimitExceeded is returned on HTTP 429.
type ErrRateLimitExceeded struct{}

func (ErrRateLimitExceeded) Error() string {
	return "finnhub rate limit exceeded"
}

// ErrInvalidAPIKey is returned on HTTP 401 and 403.
type ErrInvalidAPIKey struct{}

func (ErrInvalidAPIKey) Error() string {
	return "finnhub api key is invalid"
}

// ErrSymbolNotFound is returned when Finnhub answers with an empty payload.
type ErrSymbolNotFound struct {
	Symbol string
}

func (e ErrSymbolNotFound) Error() string {
	return fmt.Sprintf("finnhub has no data for symbol %s", e.Symbol)
}

// ErrHTTPStatus is returned for other non-200 responses.
type ErrHTTPStatus struct {
	Code int
}

func (e ErrHTTPStatus) Error() string {
	return fmt.Sprintf("finnhub returned status %d", e.Code)
}

// Client is the Finnhub API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new Finnhub client.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "finnhub").Logger(),
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Finnhub-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return ErrRateLimitExceeded{}
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrInvalidAPIKey{}
	default:
		return ErrHTTPStatus{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}

	c.log.Debug().Str("path", path).Int("bytes", len(body)).Msg("Finnhub request completed")
	return nil
}

// GetQuote fetches the real-time quote. An unknown symbol comes back as all zeros.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	var q Quote
	if err := c.get(ctx, "/quote", url.Values{"symbol": {symbol}}, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// GetProfile fetches company profile 2.
func (c *Client) GetProfile(ctx context.Context, symbol string) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, "/stock/profile2", url.Values{"symbol": {symbol}}, &p); err != nil {
		return nil, err
	}
	if p.Ticker == "" && p.Name == "" {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}
	return &p, nil
}

// GetMetrics fetches the basic financials. Missing metrics stay nil.
func (c *Client) GetMetrics(ctx context.Context, symbol string) (*Metrics, error) {
	var raw struct {
		Metric map[string]interface{} `json:"metric"`
	}
	params := url.Values{"symbol": {symbol}, "metric": {"all"}}
	if err := c.get(ctx, "/stock/metric", params, &raw); err != nil {
		return nil, err
	}
	m := raw.Metric
	return &Metrics{
		PERatio:          metric(m, "peTTM", "peBasicExclExtraTTM"),
		Beta:             metric(m, "beta"),
		DividendYield:    metric(m, "currentDividendYieldTTM", "dividendYieldIndicatedAnnual"),
		DividendPerShare: metric(m, "dividendPerShareTTM", "dividendPerShareAnnual"),
		PayoutRatio:      metric(m, "payoutRatioTTM", "payoutRatioAnnual"),
	}, nil
}

// GetDividends fetches dividend history, newest first.
func (c *Client) GetDividends(ctx context.Context, symbol string) ([]Dividend, error) {
	var raw struct {
		Symbol string `json:"symbol"`
		Data   []struct {
			ExDate string  `json:"exDate"`
			Amount float64 `json:"amount"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/stock/dividend2", url.Values{"symbol": {symbol}}, &raw); err != nil {
		return nil, err
	}

	dividends := make([]Dividend, 0, len(raw.Data))
	for _, d := range raw.Data {
		exDate, err := time.Parse("2006-01-02", d.ExDate)
		if err != nil || d.Amount <= 0 {
			continue
		}
		dividends = append(dividends, Dividend{ExDate: exDate, Amount: d.Amount})
	}
	sort.Slice(dividends, func(i, j int) bool {
		return dividends[i].ExDate.After(dividends[j].ExDate)
	})
	return dividends, nil
}

// Search runs a symbol lookup.
func (c *Client) Search(ctx context.Context, query string) ([]SearchMatch, error) {
	var raw struct {
		Count  int           `json:"count"`
		Result []SearchMatch `json:"result"`
	}
	if err := c.get(ctx, "/search", url.Values{"q": {query}}, &raw); err != nil {
		return nil, err
	}
	return raw.Result, nil
}

// metric returns the first present numeric metric among keys.
func metric(m map[string]interface{}, keys ...string) *float64 {
	for _, k := range keys {
		if v, ok := m[k].(float64); ok {
			return &v
		}
	}
	return nil
}
