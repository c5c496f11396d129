package alphavantage

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
)

// ProviderName identifies Alpha Vantage in logs and Source fields.
const ProviderName = "alphavantage"

// Adapter exposes the Alpha Vantage client as a domain.MarketDataProvider.
type Adapter struct {
	client ClientInterface
}

// NewAdapter wraps a client.
func NewAdapter(client ClientInterface) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Name() string {
	return ProviderName
}

func (a *Adapter) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	q, err := a.client.GetGlobalQuote(ctx, symbol)
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
		Source:        ProviderName,
	}, nil
}

func (a *Adapter) GetOverview(ctx context.Context, symbol string) (*domain.CompanyOverview, error) {
	o, err := a.client.GetCompanyOverview(ctx, symbol)
	if err != nil {
		return nil, err
	}

	overview := &domain.CompanyOverview{
		Symbol:      symbol,
		CompanyName: o.Name,
		Sector:      orUnknown(o.Sector),
		Industry:    orUnknown(o.Industry),
		Description: o.Description,
		MarketCap:   float64(o.MarketCapitalization),
		PERatio:     deref(o.PERatio),
		Beta:        deref(o.Beta),
		Website:     o.OfficialSite,
		Source:      ProviderName,
	}
	// Alpha Vantage reports yield as a fraction
	overview.DividendYield = deref(o.DividendYield) * 100
	overview.DividendPerShare = deref(o.DividendPerShare)
	return overview, nil
}

func (a *Adapter) GetDividendHistory(ctx context.Context, symbol string) ([]domain.DividendPayment, error) {
	events, err := a.client.GetDividends(ctx, symbol)
	if err != nil {
		return nil, err
	}
	payments := make([]domain.DividendPayment, 0, len(events))
	for _, e := range events {
		payments = append(payments, domain.DividendPayment{Date: e.ExDividendDate, Amount: e.Amount})
	}
	return payments, nil
}

func (a *Adapter) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	matches, err := a.client.SearchSymbol(ctx, query)
	if err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, domain.SearchResult{
			Symbol:      m.Symbol,
			CompanyName: m.Name,
			Exchange:    m.Region,
			Type:        m.Type,
			Currency:    m.Currency,
			Sector:      domain.UnknownField,
			Industry:    domain.UnknownField,
		})
	}
	return results, nil
}

// GetPriceHistory picks the time series matching the window granularity and
// trims it to the window. Compact daily output is used unless the window
// reaches further back than 100 sessions.
func (a *Adapter) GetPriceHistory(ctx context.Context, symbol string, window domain.PriceWindow) ([]domain.PricePoint, error) {
	var (
		bars []DailyPrice
		err  error
	)
	switch window.Granularity {
	case domain.GranularityWeek:
		bars, err = a.client.GetWeeklyPrices(ctx, symbol)
	case domain.GranularityMonth:
		bars, err = a.client.GetMonthlyPrices(ctx, symbol)
	case domain.GranularityDay, "":
		full := window.From.IsZero() || time.Since(window.From) > 100*24*time.Hour
		bars, err = a.client.GetDailyPrices(ctx, symbol, full)
	default:
		return nil, fmt.Errorf("unsupported granularity %q: %w", window.Granularity, domain.ErrNotSupported)
	}
	if err != nil {
		return nil, err
	}

	points := make([]domain.PricePoint, 0, len(bars))
	// Bars arrive newest first
	for i := len(bars) - 1; i >= 0; i-- {
		b := bars[i]
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

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func orUnknown(s string) string {
	if s == "" || s == "None" {
		return domain.UnknownField
	}
	return s
}
