package yahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
)

// ProviderName identifies Yahoo Finance in logs and Source fields.
const ProviderName = "yahoo"

// API is the client surface used by the adapter.
type API interface {
	GetQuote(ctx context.Context, symbol string) (*QuoteData, error)
	GetSummary(ctx context.Context, symbol string) (*Summary, error)
	GetDividends(ctx context.Context, symbol string) ([]Dividend, error)
	GetHistoricalPrices(ctx context.Context, symbol string, from, to time.Time, interval string) ([]HistoricalPrice, error)
	Search(ctx context.Context, query string) ([]SearchQuote, error)
}

// Adapter exposes Yahoo Finance as a domain.MarketDataProvider.
type Adapter struct {
	api API
}

func NewAdapter(api API) *Adapter {
	return &Adapter{api: api}
}

func (a *Adapter) Name() string {
	return ProviderName
}

func (a *Adapter) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	q, err := a.api.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &domain.Quote{
		Symbol:        symbol,
		Price:         q.Price,
		PreviousClose: q.PreviousClose,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		Open:          q.Open,
		High:          q.High,
		Low:           q.Low,
		Volume:        q.Volume,
		MarketCap:     q.MarketCap,
		Source:        ProviderName,
	}, nil
}

func (a *Adapter) GetOverview(ctx context.Context, symbol string) (*domain.CompanyOverview, error) {
	s, err := a.api.GetSummary(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &domain.CompanyOverview{
		Symbol:           symbol,
		CompanyName:      s.Name,
		Sector:           orUnknown(s.Sector),
		Industry:         orUnknown(s.Industry),
		Description:      s.Description,
		MarketCap:        s.MarketCap,
		PERatio:          s.TrailingPE,
		DividendYield:    s.DividendYield * 100,
		DividendPerShare: s.DividendRate,
		PayoutRatio:      s.PayoutRatio * 100,
		Beta:             s.Beta,
		Website:          s.Website,
		Employees:        s.Employees,
		Source:           ProviderName,
	}, nil
}

func (a *Adapter) GetDividendHistory(ctx context.Context, symbol string) ([]domain.DividendPayment, error) {
	divs, err := a.api.GetDividends(ctx, symbol)
	if err != nil {
		return nil, err
	}
	payments := make([]domain.DividendPayment, len(divs))
	for i, d := range divs {
		payments[i] = domain.DividendPayment{Date: d.Date, Amount: d.Amount}
	}
	return payments, nil
}

func (a *Adapter) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	quotes, err := a.api.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(quotes))
	for _, q := range quotes {
		results = append(results, domain.SearchResult{
			Symbol:      q.Symbol,
			CompanyName: q.Name,
			Exchange:    q.Exchange,
			Type:        q.QuoteType,
			Sector:      orUnknown(q.Sector),
			Industry:    orUnknown(q.Industry),
		})
	}
	return results, nil
}

func (a *Adapter) GetPriceHistory(ctx context.Context, symbol string, window domain.PriceWindow) ([]domain.PricePoint, error) {
	interval, err := intervalFor(window.Granularity)
	if err != nil {
		return nil, err
	}

	bars, err := a.api.GetHistoricalPrices(ctx, symbol, window.From, window.To, interval)
	if err != nil {
		return nil, err
	}

	points := make([]domain.PricePoint, 0, len(bars))
	for _, b := range bars {
		if !window.Contains(b.Date) {
			continue
		}
		points = append(points, domain.PricePoint{
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	return points, nil
}

func intervalFor(g domain.Granularity) (string, error) {
	switch g {
	case domain.GranularityDay, "":
		return "1d", nil
	case domain.GranularityWeek:
		return "1wk", nil
	case domain.GranularityMonth:
		return "1mo", nil
	default:
		return "", fmt.Errorf("unsupported granularity %q: %w", g, domain.ErrNotSupported)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return domain.UnknownField
	}
	return s
}
