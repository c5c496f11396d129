package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(zerolog.Nop())
	c.baseURL = server.URL
	return c
}

func TestClient_GetQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/quote", r.URL.Path)
		assert.Equal(t, "KO", r.URL.Query().Get("symbols"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"quoteResponse": {"result": [{
			"symbol": "KO",
			"regularMarketPrice": 62.5,
			"regularMarketPreviousClose": 62.0,
			"regularMarketChange": 0.5,
			"regularMarketChangePercent": 0.806,
			"regularMarketVolume": 12000000,
			"marketCap": 270000000000,
			"longName": "The Coca-Cola Company"
		}], "error": null}}`))
	})

	q, err := c.GetQuote(context.Background(), "KO")
	require.NoError(t, err)
	assert.Equal(t, 62.5, q.Price)
	assert.Equal(t, 62.0, q.PreviousClose)
	assert.Equal(t, int64(12000000), q.Volume)
	assert.Equal(t, "The Coca-Cola Company", q.LongName)
}

func TestClient_GetQuote_EmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteResponse": {"result": [], "error": null}}`))
	})

	_, err := c.GetQuote(context.Background(), "NOPE")
	assert.Equal(t, ErrSymbolNotFound{Symbol: "NOPE"}, err)
}

func TestClient_GetQuote_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("Too Many Requests"))
	})

	_, err := c.GetQuote(context.Background(), "KO")
	require.Error(t, err)
	var statusErr ErrHTTPStatus
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Code)
}

func TestClient_GetSummary(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/KO", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("modules"), "assetProfile")
		_, _ = w.Write([]byte(`{"quoteSummary": {"result": [{
			"assetProfile": {"sector": "Consumer Defensive", "industry": "Beverages", "website": "https://www.coca-colacompany.com", "fullTimeEmployees": 79100, "longBusinessSummary": "Soft drinks."},
			"summaryDetail": {"dividendYield": {"raw": 0.031, "fmt": "3.10%"}, "dividendRate": {"raw": 1.94}, "payoutRatio": {"raw": 0.75}, "trailingPE": {"raw": 25.2}, "beta": {"raw": 0.58}},
			"price": {"longName": "The Coca-Cola Company", "marketCap": {"raw": 270000000000}}
		}], "error": null}}`))
	})

	s, err := c.GetSummary(context.Background(), "KO")
	require.NoError(t, err)
	assert.Equal(t, "The Coca-Cola Company", s.Name)
	assert.Equal(t, "Beverages", s.Industry)
	assert.Equal(t, int64(79100), s.Employees)
	assert.Equal(t, 0.031, s.DividendYield)
	assert.Equal(t, 1.94, s.DividendRate)
	assert.Equal(t, 270000000000.0, s.MarketCap)
	assert.Equal(t, 0.58, s.Beta)
}

func TestClient_GetDividends_SortedNewestFirst(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "div", r.URL.Query().Get("events"))
		_, _ = w.Write([]byte(`{"chart": {"result": [{
			"timestamp": [],
			"events": {"dividends": {
				"1718323200": {"amount": 0.485, "date": 1718323200},
				"1726185600": {"amount": 0.485, "date": 1726185600},
				"1710460800": {"amount": 0.485, "date": 1710460800}
			}},
			"indicators": {"quote": [{}]}
		}], "error": null}}`))
	})

	divs, err := c.GetDividends(context.Background(), "KO")
	require.NoError(t, err)
	require.Len(t, divs, 3)
	assert.True(t, divs[0].Date.After(divs[1].Date))
	assert.True(t, divs[1].Date.After(divs[2].Date))
	assert.Equal(t, 0.485, divs[0].Amount)
}

func TestClient_GetDividends_NoResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart": {"result": [], "error": null}}`))
	})

	divs, err := c.GetDividends(context.Background(), "KO")
	require.NoError(t, err)
	assert.Empty(t, divs)
}

func TestClient_GetHistoricalPrices(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1d", q.Get("interval"))
		assert.Equal(t, "1735689600", q.Get("period1"))
		assert.Equal(t, "1736467200", q.Get("period2"))
		_, _ = w.Write([]byte(`{"chart": {"result": [{
			"timestamp": [1735776000, 1735862400, 1735948800],
			"indicators": {"quote": [{
				"open":   [61.0, null, 62.0],
				"high":   [62.0, null, 63.0],
				"low":    [60.5, null, 61.5],
				"close":  [61.5, null, 62.5],
				"volume": [100, null, 300]
			}]}
		}], "error": null}}`))
	})

	prices, err := c.GetHistoricalPrices(context.Background(), "KO", from, to, "1d")
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, 61.5, prices[0].Close)
	assert.Equal(t, int64(300), prices[1].Volume)
}

func TestClient_GetHistoricalPrices_MaxRange(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "max", r.URL.Query().Get("range"))
		assert.Empty(t, r.URL.Query().Get("period1"))
		_, _ = w.Write([]byte(`{"chart": {"result": [], "error": null}}`))
	})

	prices, err := c.GetHistoricalPrices(context.Background(), "KO", time.Time{}, time.Time{}, "1mo")
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/finance/search", r.URL.Path)
		assert.Equal(t, "coca", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"quotes": [
			{"symbol": "KO", "shortname": "Coca-Cola", "longname": "The Coca-Cola Company", "exchDisp": "NYSE", "quoteType": "EQUITY", "sector": "Consumer Defensive"},
			{"shortname": "no symbol"},
			{"symbol": "COKE", "shortname": "Coca-Cola Consolidated", "exchange": "NMS", "quoteType": "EQUITY"}
		]}`))
	})

	quotes, err := c.Search(context.Background(), "coca")
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "The Coca-Cola Company", quotes[0].Name)
	assert.Equal(t, "NYSE", quotes[0].Exchange)
	assert.Equal(t, "NMS", quotes[1].Exchange)
}

func TestAdapter_GetOverview_PercentFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteSummary": {"result": [{
			"summaryDetail": {"dividendYield": {"raw": 0.05}, "payoutRatio": {"raw": 0.6}},
			"price": {"shortName": "Realty Income"}
		}], "error": null}}`))
	})

	o, err := NewAdapter(c).GetOverview(context.Background(), "O")
	require.NoError(t, err)
	assert.Equal(t, "Realty Income", o.CompanyName)
	assert.InDelta(t, 5.0, o.DividendYield, 1e-9)
	assert.InDelta(t, 60.0, o.PayoutRatio, 1e-9)
	assert.Equal(t, domain.UnknownField, o.Sector)
	assert.Equal(t, ProviderName, o.Source)
}

func TestAdapter_GetPriceHistory_Intervals(t *testing.T) {
	var intervals []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		intervals = append(intervals, r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(`{"chart": {"result": [], "error": null}}`))
	})
	adapter := NewAdapter(c)

	for _, g := range []domain.Granularity{domain.GranularityDay, domain.GranularityWeek, domain.GranularityMonth} {
		_, err := adapter.GetPriceHistory(context.Background(), "KO", domain.PriceWindow{Granularity: g})
		require.NoError(t, err)
	}
	assert.Equal(t, "1d,1wk,1mo", strings.Join(intervals, ","))

	_, err := adapter.GetPriceHistory(context.Background(), "KO", domain.PriceWindow{Granularity: "hour"})
	assert.ErrorIs(t, err, domain.ErrNotSupported)
}
