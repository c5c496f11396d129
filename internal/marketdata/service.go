// Package marketdata aggregates quotes, overviews, dividends, search and price
// history across an ordered list of providers. Providers are tried one at a
// time in priority order and the first acceptable answer wins. Provider
// failures are logged and absorbed; callers only see invalid-input errors.
package marketdata

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultEnrichLimit is how many search results get price and dividend data.
const DefaultEnrichLimit = 5

// Service is the market data aggregator.
type Service struct {
	providers   []domain.MarketDataProvider
	timeouts    Timeouts
	enrichLimit int
	now         func() time.Time
	log         zerolog.Logger
}

// NewService creates an aggregator over providers in priority order.
func NewService(providers []domain.MarketDataProvider, timeouts Timeouts, enrichLimit int, log zerolog.Logger) *Service {
	if enrichLimit < 0 {
		enrichLimit = 0
	}
	return &Service{
		providers:   providers,
		timeouts:    timeouts,
		enrichLimit: enrichLimit,
		now:         time.Now,
		log:         log.With().Str("service", "marketdata").Logger(),
	}
}

// Providers returns the provider names in priority order.
func (s *Service) Providers() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return names
}

// tryProviders walks the chain and returns the first result accepted by accept.
func tryProviders[T any](
	ctx context.Context,
	s *Service,
	op, key string,
	timeout time.Duration,
	call func(context.Context, domain.MarketDataProvider) (T, error),
	accept func(T) bool,
) (T, string, bool) {
	var zero T
	for _, p := range s.providers {
		if ctx.Err() != nil {
			break
		}

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		result, err := call(callCtx, p)
		cancel()

		if err != nil {
			ev := s.log.Warn()
			if errors.Is(err, domain.ErrNotSupported) {
				ev = s.log.Debug()
			}
			ev.Err(err).
				Str("provider", p.Name()).
				Str("operation", op).
				Str("key", key).
				Msg("Provider call failed, trying next")
			continue
		}
		if !accept(result) {
			s.log.Debug().
				Str("provider", p.Name()).
				Str("operation", op).
				Str("key", key).
				Msg("Provider returned no usable data, trying next")
			continue
		}
		return result, p.Name(), true
	}
	return zero, "", false
}

// GetStockQuote never fails for a valid symbol. When no provider can price
// it, a zero-filled quote is returned. A quote with only a previous close is
// accepted with that close as price and IsPreviousClose set.
func (s *Service) GetStockQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return domain.Quote{}, err
	}
	return s.quote(ctx, sym), nil
}

func (s *Service) quote(ctx context.Context, sym string) domain.Quote {
	q, source, ok := tryProviders(ctx, s, "quote", sym, s.timeouts.Quote,
		func(ctx context.Context, p domain.MarketDataProvider) (*domain.Quote, error) {
			return p.GetQuote(ctx, sym)
		},
		func(q *domain.Quote) bool {
			return q != nil && (q.Price > 0 || (q.Price == 0 && q.PreviousClose > 0))
		},
	)
	if !ok {
		s.log.Warn().Str("symbol", sym).Msg("No provider could price symbol")
		return domain.EmptyQuote(sym)
	}

	out := *q
	out.Symbol = sym
	out.Source = source
	if out.Price == 0 {
		out.Price = out.PreviousClose
		out.IsPreviousClose = true
	}
	return out
}

// GetQuotes prices symbols concurrently. Results follow the input order.
func (s *Service) GetQuotes(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	normalized := make([]string, len(symbols))
	for i, symbol := range symbols {
		sym, err := domain.NormalizeSymbol(symbol)
		if err != nil {
			return nil, err
		}
		normalized[i] = sym
	}

	quotes := make([]domain.Quote, len(normalized))
	var g errgroup.Group
	g.SetLimit(max(s.enrichLimit, 1))
	for i, sym := range normalized {
		g.Go(func() error {
			quotes[i] = s.quote(ctx, sym)
			return nil
		})
	}
	_ = g.Wait()
	return quotes, nil
}

// GetCompanyOverview returns nil with no error when every provider fails.
// Dividend yield, per-share amount and frequency are always inferred from
// dividend history and the current quote, never taken from the provider.
func (s *Service) GetCompanyOverview(ctx context.Context, symbol string) (*domain.CompanyOverview, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	overview := s.rawOverview(ctx, sym)
	if overview == nil {
		return nil, nil
	}

	var (
		history DividendHistory
		quote   domain.Quote
		g       errgroup.Group
	)
	g.Go(func() error {
		history = s.dividendHistory(ctx, sym)
		return nil
	})
	g.Go(func() error {
		quote = s.quote(ctx, sym)
		return nil
	})
	_ = g.Wait()

	return completeOverview(overview, history, quote), nil
}

func (s *Service) rawOverview(ctx context.Context, sym string) *domain.CompanyOverview {
	overview, source, ok := tryProviders(ctx, s, "overview", sym, s.timeouts.Overview,
		func(ctx context.Context, p domain.MarketDataProvider) (*domain.CompanyOverview, error) {
			return p.GetOverview(ctx, sym)
		},
		func(o *domain.CompanyOverview) bool {
			return o != nil && (o.Symbol != "" || o.CompanyName != "")
		},
	)
	if !ok {
		s.log.Warn().Str("symbol", sym).Msg("No provider returned a company overview")
		return nil
	}

	out := *overview
	out.Symbol = sym
	out.Source = source
	return &out
}

// completeOverview fills gaps from the quote and applies the inferred dividend profile.
func completeOverview(o *domain.CompanyOverview, history DividendHistory, quote domain.Quote) *domain.CompanyOverview {
	out := *o
	if out.CompanyName == "" {
		out.CompanyName = out.Symbol
	}
	if out.MarketCap == 0 {
		out.MarketCap = quote.MarketCap
	}
	InferDividendProfile(history.Dividends, o.DividendPerShare, quote.Price).applyToOverview(&out)
	return &out
}

// GetDividendHistory returns an empty history when no provider has payments.
func (s *Service) GetDividendHistory(ctx context.Context, symbol string) (DividendHistory, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return DividendHistory{}, err
	}
	return s.dividendHistory(ctx, sym), nil
}

func (s *Service) dividendHistory(ctx context.Context, sym string) DividendHistory {
	payments, source, ok := tryProviders(ctx, s, "dividends", sym, s.timeouts.Dividends,
		func(ctx context.Context, p domain.MarketDataProvider) ([]domain.DividendPayment, error) {
			return p.GetDividendHistory(ctx, sym)
		},
		func(d []domain.DividendPayment) bool {
			return len(d) > 0
		},
	)
	if !ok {
		return DividendHistory{Symbol: sym, Dividends: []domain.DividendPayment{}}
	}
	return summarizeDividends(sym, source, payments)
}

func summarizeDividends(sym, source string, payments []domain.DividendPayment) DividendHistory {
	sorted := make([]domain.DividendPayment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	amounts := make([]float64, len(sorted))
	for i, p := range sorted {
		amounts[i] = p.Amount
	}

	return DividendHistory{
		Symbol:          sym,
		Dividends:       sorted,
		TotalDividends:  floats.Sum(amounts),
		AverageDividend: stat.Mean(amounts, nil),
		Count:           len(sorted),
		Source:          source,
	}
}

// SearchStocks returns the first non-empty provider result set. The first
// enrichLimit results get a price and inferred dividend profile.
func (s *Service) SearchStocks(ctx context.Context, query string) (SearchResults, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return SearchResults{}, domain.ErrInvalidQuery
	}

	results, source, ok := tryProviders(ctx, s, "search", q, s.timeouts.Search,
		func(ctx context.Context, p domain.MarketDataProvider) ([]domain.SearchResult, error) {
			return p.Search(ctx, q)
		},
		func(r []domain.SearchResult) bool {
			return len(r) > 0
		},
	)
	if !ok {
		return SearchResults{Query: q, Results: []domain.SearchResult{}}, nil
	}

	out := make([]domain.SearchResult, len(results))
	for i, r := range results {
		out[i] = withPlaceholders(r)
	}
	s.enrich(ctx, out)

	return SearchResults{
		Query:   q,
		Count:   len(out),
		Results: out,
		Source:  source,
	}, nil
}

// enrich fills price and dividend fields for the leading results in place.
func (s *Service) enrich(ctx context.Context, results []domain.SearchResult) {
	n := min(s.enrichLimit, len(results))
	if n == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(n)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			r := &results[i]
			sym, err := domain.NormalizeSymbol(r.Symbol)
			if err != nil {
				return nil
			}

			quote := s.quote(ctx, sym)
			history := s.dividendHistory(ctx, sym)

			r.Price = quote.Price
			InferDividendProfile(history.Dividends, 0, quote.Price).applyToSearchResult(r)
			r.Enriched = true
			return nil
		})
	}
	_ = g.Wait()
}

func withPlaceholders(r domain.SearchResult) domain.SearchResult {
	if r.CompanyName == "" {
		r.CompanyName = r.Symbol
	}
	if r.Sector == "" {
		r.Sector = domain.UnknownField
	}
	if r.Industry == "" {
		r.Industry = domain.UnknownField
	}
	if r.Exchange == "" {
		r.Exchange = domain.UnknownField
	}
	r.Price = 0
	r.DividendYield = 0
	r.DividendPerShare = 0
	r.PayoutFrequency = nil
	r.Enriched = false
	return r
}

// GetPriceHistory returns an ascending series for the resolved timeframe.
// Unknown timeframes use the 1m policy. Total failure yields an empty series.
func (s *Service) GetPriceHistory(ctx context.Context, symbol, timeframe string) (PriceHistory, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return PriceHistory{}, err
	}

	name, window := ResolveTimeframe(timeframe, s.now())
	history := PriceHistory{
		Symbol:      sym,
		Timeframe:   name,
		Granularity: window.Granularity,
		Data:        []domain.PricePoint{},
	}

	points, source, ok := tryProviders(ctx, s, "history", sym, s.timeouts.History,
		func(ctx context.Context, p domain.MarketDataProvider) ([]domain.PricePoint, error) {
			return p.GetPriceHistory(ctx, sym, window)
		},
		func(p []domain.PricePoint) bool {
			return len(p) > 0
		},
	)
	if !ok {
		return history, nil
	}

	data := make([]domain.PricePoint, 0, len(points))
	for _, p := range points {
		if window.Contains(p.Date) {
			data = append(data, p)
		}
	}
	sort.SliceStable(data, func(i, j int) bool {
		return data[i].Date.Before(data[j].Date)
	})

	history.Data = data
	history.Count = len(data)
	history.Source = source
	return history, nil
}

// GetFullStockData fetches quote, overview and dividend history concurrently
// and infers the overview's dividend profile from the same quote and history.
func (s *Service) GetFullStockData(ctx context.Context, symbol string) (FullStockData, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return FullStockData{}, err
	}

	var (
		data     = FullStockData{Symbol: sym}
		overview *domain.CompanyOverview
		g        errgroup.Group
	)
	g.Go(func() error {
		data.Quote = s.quote(ctx, sym)
		return nil
	})
	g.Go(func() error {
		overview = s.rawOverview(ctx, sym)
		return nil
	})
	g.Go(func() error {
		data.Dividends = s.dividendHistory(ctx, sym)
		return nil
	})
	_ = g.Wait()

	if overview != nil {
		data.Overview = completeOverview(overview, data.Dividends, data.Quote)
	}
	return data, nil
}
