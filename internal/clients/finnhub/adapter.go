package finnhub

import (
	"context"
	"fmt"

	"github.com/aristath/yieldfolio/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ProviderName identifies Finnhub in logs and Source fields.
const ProviderName = "finnhub"

// API is the client surface used by the adapter.
type API interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetProfile(ctx context.Context, symbol string) (*Profile, error)
	GetMetrics(ctx context.Context, symbol string) (*Metrics, error)
	GetDividends(ctx context.Context, symbol string) ([]Dividend, error)
	Search(ctx context.Context, query string) ([]SearchMatch, error)
}

// Adapter exposes Finnhub as a domain.MarketDataProvider.
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
	if q.Current == 0 && q.PreviousClose == 0 && q.Timestamp == 0 {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}
	return &domain.Quote{
		Symbol:        symbol,
		Price:         q.Current,
		PreviousClose: q.PreviousClose,
		Change:        q.Change,
		ChangePercent: q.PercentChange,
		Open:          q.Open,
		High:          q.High,
		Low:           q.Low,
		Source:        ProviderName,
	}, nil
}

// GetOverview combines the company profile with basic financials.
// Metrics are best effort; a profile failure fails the call.
func (a *Adapter) GetOverview(ctx context.Context, symbol string) (*domain.CompanyOverview, error) {
	var (
		profile *Profile
		metrics *Metrics
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := a.api.GetProfile(gctx, symbol)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		if m, err := a.api.GetMetrics(gctx, symbol); err == nil {
			metrics = m
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	overview := &domain.CompanyOverview{
		Symbol:      symbol,
		CompanyName: profile.Name,
		Sector:      domain.UnknownField,
		Industry:    orUnknown(profile.Industry),
		MarketCap:   profile.MarketCapitalization * 1e6,
		Website:     profile.WebURL,
		Source:      ProviderName,
	}
	if metrics != nil {
		overview.PERatio = deref(metrics.PERatio)
		overview.Beta = deref(metrics.Beta)
		overview.DividendYield = deref(metrics.DividendYield)
		overview.DividendPerShare = deref(metrics.DividendPerShare)
		overview.PayoutRatio = deref(metrics.PayoutRatio)
	}
	return overview, nil
}

func (a *Adapter) GetDividendHistory(ctx context.Context, symbol string) ([]domain.DividendPayment, error) {
	divs, err := a.api.GetDividends(ctx, symbol)
	if err != nil {
		return nil, err
	}
	payments := make([]domain.DividendPayment, len(divs))
	for i, d := range divs {
		payments[i] = domain.DividendPayment{Date: d.ExDate, Amount: d.Amount}
	}
	return payments, nil
}

func (a *Adapter) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	matches, err := a.api.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, domain.SearchResult{
			Symbol:      m.Symbol,
			CompanyName: m.Description,
			Exchange:    domain.UnknownField,
			Type:        m.Type,
			Sector:      domain.UnknownField,
			Industry:    domain.UnknownField,
		})
	}
	return results, nil
}

// GetPriceHistory is not offered on the Finnhub plan this client targets.
func (a *Adapter) GetPriceHistory(ctx context.Context, symbol string, window domain.PriceWindow) ([]domain.PricePoint, error) {
	return nil, fmt.Errorf("finnhub price history: %w", domain.ErrNotSupported)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func orUnknown(s string) string {
	if s == "" {
		return domain.UnknownField
	}
	return s
}
