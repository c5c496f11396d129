package domain

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrInvalidSymbol is returned when a symbol is empty or missing.
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrInvalidQuery is returned when a search query is empty.
	ErrInvalidQuery = errors.New("invalid search query")
	// ErrNotSupported is returned by providers for operations they do not offer.
	ErrNotSupported = errors.New("operation not supported by provider")
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidHolding is returned when a holding fails validation.
	ErrInvalidHolding = errors.New("invalid holding")
)

// MarketDataProvider is the capability every upstream market-data integration implements.
// Implementations map their raw payloads into the canonical types before returning.
type MarketDataProvider interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetOverview(ctx context.Context, symbol string) (*CompanyOverview, error)
	GetDividendHistory(ctx context.Context, symbol string) ([]DividendPayment, error)
	Search(ctx context.Context, query string) ([]SearchResult, error)
	GetPriceHistory(ctx context.Context, symbol string, window PriceWindow) ([]PricePoint, error)
}

// NormalizeSymbol trims and uppercases a ticker.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", ErrInvalidSymbol
	}
	return s, nil
}
