package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("test-key", zerolog.Nop())
	client.baseURL = server.URL
	return client
}

func TestNewClient(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	assert.NotNil(t, client)
	assert.Equal(t, "test-key", client.apiKey)
	assert.Equal(t, 25, client.GetRemainingRequests())
}

func TestRateLimiting(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	for i := 0; i < 25; i++ {
		assert.Equal(t, 25-i, client.GetRemainingRequests())
		require.NoError(t, client.checkRateLimit())
	}

	err := client.checkRateLimit()
	assert.Error(t, err)
	assert.IsType(t, ErrRateLimitExceeded{}, err)
	assert.Equal(t, 0, client.GetRemainingRequests())
}

func TestSetDailyLimit(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	client.SetDailyLimit(75)
	assert.Equal(t, 75, client.GetRemainingRequests())

	// Non-positive values are ignored
	client.SetDailyLimit(0)
	assert.Equal(t, 75, client.GetRemainingRequests())
}

func TestDailyCounterResetsAfterMidnight(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	for i := 0; i < 10; i++ {
		_ = client.checkRateLimit()
	}
	assert.Equal(t, 15, client.GetRemainingRequests())

	// Pretend the UTC day has already rolled over
	client.mu.Lock()
	client.resetAt = time.Now().UTC().Add(-time.Second)
	client.mu.Unlock()

	assert.Equal(t, 25, client.GetRemainingRequests())
	assert.True(t, client.resetAt.After(time.Now().UTC()))
}

func TestParseFloat64(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"123.45", 123.45},
		{"0", 0},
		{"None", 0},
		{"", 0},
		{"null", 0},
		{"-", 0},
		{"50.5%", 50.5},
		{"invalid", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseFloat64(tt.input))
		})
	}
}

func TestParseFloat64Ptr(t *testing.T) {
	tests := []struct {
		input    string
		isNil    bool
		expected float64
	}{
		{"123.45", false, 123.45},
		{"None", true, 0},
		{"", true, 0},
		{"null", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseFloat64Ptr(tt.input)
			if tt.isNil {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, tt.expected, *result)
		})
	}
}

func TestParseInt64(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"12345", 12345},
		{"0", 0},
		{"None", 0},
		{"", 0},
		{"1.5E10", 15000000000},
		{"123.45", 123},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseInt64(tt.input))
		})
	}
}

func TestParseDate(t *testing.T) {
	d := parseDate("2024-01-15")
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), d)

	assert.True(t, parseDate("").IsZero())
	assert.True(t, parseDate("None").IsZero())
}

func TestParseDailyTimeSeries(t *testing.T) {
	jsonData := `{
		"Meta Data": {"2. Symbol": "IBM"},
		"Time Series (Daily)": {
			"2024-01-14": {"1. open": "184.50", "2. high": "185.50", "3. low": "184.00", "4. close": "185.00", "5. volume": "3214567"},
			"2024-01-15": {"1. open": "185.00", "2. high": "186.50", "3. low": "184.50", "4. close": "186.20", "5. volume": "3456789"}
		}
	}`

	prices, err := parseDailyTimeSeries([]byte(jsonData))
	require.NoError(t, err)
	require.Len(t, prices, 2)

	// Newest first
	assert.Equal(t, 15, prices[0].Date.Day())
	assert.Equal(t, 185.0, prices[0].Open)
	assert.Equal(t, 186.5, prices[0].High)
	assert.Equal(t, 184.5, prices[0].Low)
	assert.Equal(t, 186.2, prices[0].Close)
	assert.Equal(t, int64(3456789), prices[0].Volume)
	assert.Equal(t, 14, prices[1].Date.Day())
}

func TestParseTimeSeries_MissingKey(t *testing.T) {
	_, err := parseTimeSeries([]byte(`{"Meta Data": {}}`), "Weekly Time Series")
	assert.Error(t, err)
}

func TestParseGlobalQuote(t *testing.T) {
	jsonData := `{
		"Global Quote": {
			"01. symbol": "IBM",
			"02. open": "185.00",
			"03. high": "186.50",
			"04. low": "184.50",
			"05. price": "186.20",
			"06. volume": "3456789",
			"07. latest trading day": "2024-01-15",
			"08. previous close": "185.00",
			"09. change": "1.20",
			"10. change percent": "0.65%"
		}
	}`

	quote, err := parseGlobalQuote([]byte(jsonData))
	require.NoError(t, err)

	assert.Equal(t, "IBM", quote.Symbol)
	assert.Equal(t, 186.2, quote.Price)
	assert.Equal(t, int64(3456789), quote.Volume)
	assert.Equal(t, 185.0, quote.PreviousClose)
	assert.Equal(t, 1.2, quote.Change)
	assert.Equal(t, 0.65, quote.ChangePercent)
	assert.Equal(t, 15, quote.LatestTradingDay.Day())
}

func TestParseSymbolSearch(t *testing.T) {
	jsonData := `{
		"bestMatches": [
			{
				"1. symbol": "IBM",
				"2. name": "International Business Machines Corp",
				"3. type": "Equity",
				"4. region": "United States",
				"8. currency": "USD",
				"9. matchScore": "1.0000"
			}
		]
	}`

	matches, err := parseSymbolSearch([]byte(jsonData))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	assert.Equal(t, "IBM", matches[0].Symbol)
	assert.Equal(t, "International Business Machines Corp", matches[0].Name)
	assert.Equal(t, "Equity", matches[0].Type)
	assert.Equal(t, "USD", matches[0].Currency)
	assert.Equal(t, 1.0, matches[0].MatchScore)
}

func TestParseCompanyOverview(t *testing.T) {
	jsonData := `{
		"Symbol": "IBM",
		"AssetType": "Common Stock",
		"Name": "International Business Machines",
		"Exchange": "NYSE",
		"Sector": "TECHNOLOGY",
		"Industry": "COMPUTER & OFFICE EQUIPMENT",
		"OfficialSite": "https://www.ibm.com",
		"MarketCapitalization": "125000000000",
		"PERatio": "20.5",
		"DividendPerShare": "6.64",
		"DividendYield": "0.0485",
		"Beta": "None",
		"ExDividendDate": "2024-11-12"
	}`

	overview, err := parseCompanyOverview([]byte(jsonData))
	require.NoError(t, err)

	assert.Equal(t, "IBM", overview.Symbol)
	assert.Equal(t, "International Business Machines", overview.Name)
	assert.Equal(t, "https://www.ibm.com", overview.OfficialSite)
	assert.Equal(t, int64(125000000000), overview.MarketCapitalization)
	require.NotNil(t, overview.PERatio)
	assert.Equal(t, 20.5, *overview.PERatio)
	require.NotNil(t, overview.DividendPerShare)
	assert.Equal(t, 6.64, *overview.DividendPerShare)
	assert.Nil(t, overview.Beta)
	assert.Equal(t, time.November, overview.ExDividendDate.Month())
}

func TestParseDividends(t *testing.T) {
	jsonData := `{
		"symbol": "IBM",
		"data": [
			{"ex_dividend_date": "2024-08-09", "payment_date": "2024-09-10", "amount": "1.67"},
			{"ex_dividend_date": "2024-11-12", "payment_date": "2024-12-10", "amount": "1.67"},
			{"ex_dividend_date": "None", "payment_date": "None", "amount": "1.66"},
			{"ex_dividend_date": "2024-05-09", "payment_date": "2024-06-10", "amount": "0"}
		]
	}`

	events, err := parseDividends([]byte(jsonData))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, time.November, events[0].ExDividendDate.Month())
	assert.Equal(t, time.December, events[0].PaymentDate.Month())
	assert.Equal(t, 1.67, events[0].Amount)
	assert.Equal(t, time.August, events[1].ExDividendDate.Month())
}

func TestErrorTypes(t *testing.T) {
	assert.Contains(t, ErrRateLimitExceeded{}.Error(), "rate limit")
	assert.Contains(t, ErrInvalidAPIKey{}.Error(), "invalid")
	assert.Contains(t, ErrSymbolNotFound{Symbol: "XYZ"}.Error(), "XYZ")
}

func TestAPIErrorDetection(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	tests := []struct {
		name      string
		body      string
		errorType error
	}{
		{"rate limit note", `{"Note": "API call frequency is limited"}`, ErrRateLimitExceeded{}},
		{"daily quota", `{"Information": "Our standard API rate limit is 25 requests per day."}`, ErrRateLimitExceeded{}},
		{"thank you message", `Thank you for using Alpha Vantage!`, ErrRateLimitExceeded{}},
		{"invalid key", `{"Error Message": "the parameter apikey is invalid or missing."}`, ErrInvalidAPIKey{}},
		{"error message", `{"Error Message": "Invalid API call."}`, nil},
		{"not json", `<html></html>`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.checkAPIError([]byte(tt.body))
			require.Error(t, err)
			if tt.errorType != nil {
				assert.IsType(t, tt.errorType, err)
			}
		})
	}

	t.Run("valid response", func(t *testing.T) {
		assert.NoError(t, client.checkAPIError([]byte(`{"data": "valid"}`)))
	})
}

func TestNextMidnightUTC(t *testing.T) {
	midnight := nextMidnightUTC()

	assert.True(t, midnight.After(time.Now().UTC()))
	assert.Equal(t, 0, midnight.Hour())
	assert.Equal(t, 0, midnight.Minute())
	assert.Equal(t, 0, midnight.Second())
}

func TestGetGlobalQuote_SendsFunctionAndKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "KO", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		_, _ = w.Write([]byte(`{"Global Quote": {"01. symbol": "KO", "05. price": "62.10", "08. previous close": "61.90"}}`))
	})

	quote, err := client.GetGlobalQuote(context.Background(), "KO")
	require.NoError(t, err)
	assert.Equal(t, 62.1, quote.Price)
	assert.Equal(t, 24, client.GetRemainingRequests())
}

func TestGetGlobalQuote_EmptyPayloadIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Global Quote": {}}`))
	})

	_, err := client.GetGlobalQuote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Equal(t, ErrSymbolNotFound{Symbol: "NOPE"}, err)
}

func TestDoRequest_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetDividends(context.Background(), "KO")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestDoRequest_LocalLimitSkipsNetwork(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"bestMatches": []}`))
	})
	client.SetDailyLimit(1)

	_, err := client.SearchSymbol(context.Background(), "coca")
	require.NoError(t, err)

	_, err = client.SearchSymbol(context.Background(), "coca")
	assert.IsType(t, ErrRateLimitExceeded{}, err)
	assert.Equal(t, 1, calls)
}

func BenchmarkParseFloat64(b *testing.B) {
	for i := 0; i < b.N; i++ {
		parseFloat64("123.456789")
	}
}

func TestInterfaceImplementation(t *testing.T) {
	var _ ClientInterface = (*Client)(nil)
}
