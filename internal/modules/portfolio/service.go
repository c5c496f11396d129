package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/aristath/yieldfolio/internal/modules/dividends"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// MarketData is the slice of the market-data aggregator the portfolio needs.
type MarketData interface {
	GetStockQuote(ctx context.Context, symbol string) (domain.Quote, error)
	GetCompanyOverview(ctx context.Context, symbol string) (*domain.CompanyOverview, error)
}

// HoldingRepositoryInterface defines the contract for holding persistence
type HoldingRepositoryInterface interface {
	Create(ctx context.Context, h *Holding) error
	GetByID(ctx context.Context, ownerID, id string) (*Holding, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Holding, error)
	ListBySymbol(ctx context.Context, ownerID, symbol string) ([]Holding, error)
	Delete(ctx context.Context, ownerID, id string) (bool, error)
	TotalSharesFor(ctx context.Context, ownerID, symbol string) (decimal.Decimal, error)
	UpdateMarketData(ctx context.Context, symbol string, u MarketDataUpdate) (int64, error)
	ListSymbols(ctx context.Context) ([]string, error)
	ListOwners(ctx context.Context) ([]string, error)
}

// DividendEntryRemover defines the bulk deletions the portfolio performs on dividend entries
type DividendEntryRemover interface {
	DeleteBySymbol(ctx context.Context, ownerID, symbol string) (int64, error)
	DeleteFuture(ctx context.Context, ownerID, symbol string, fromYear int) (int64, error)
}

// DefaultRefreshConcurrency bounds concurrent market-data lookups during a refresh.
const DefaultRefreshConcurrency = 4

// Service orchestrates holdings, positions and their dividend schedules.
type Service struct {
	holdings    HoldingRepositoryInterface
	entries     DividendEntryRemover
	generator   *dividends.Generator
	market      MarketData
	concurrency int
	now         func() time.Time
	log         zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(
	holdings HoldingRepositoryInterface,
	entries DividendEntryRemover,
	generator *dividends.Generator,
	market MarketData,
	log zerolog.Logger,
) *Service {
	return &Service{
		holdings:    holdings,
		entries:     entries,
		generator:   generator,
		market:      market,
		concurrency: DefaultRefreshConcurrency,
		now:         time.Now,
		log:         log.With().Str("service", "portfolio").Logger(),
	}
}

// Holdings returns an owner's lots.
func (s *Service) Holdings(ctx context.Context, ownerID string) ([]Holding, error) {
	return s.holdings.ListByOwner(ctx, ownerID)
}

// AddHolding validates and stores a new lot, then projects its dividend schedule.
// Market data is looked up opportunistically; a provider outage never blocks the insert.
func (s *Service) AddHolding(ctx context.Context, ownerID string, in NewHolding) (*Holding, dividends.GenerationResult, error) {
	now := s.now().UTC()

	symbol, err := domain.NormalizeSymbol(in.Symbol)
	if err != nil {
		return nil, dividends.GenerationResult{}, fmt.Errorf("%w: symbol is required", domain.ErrInvalidHolding)
	}
	if !in.Shares.IsPositive() {
		return nil, dividends.GenerationResult{}, fmt.Errorf("%w: shares must be positive", domain.ErrInvalidHolding)
	}
	if in.PurchasePrice.IsNegative() {
		return nil, dividends.GenerationResult{}, fmt.Errorf("%w: purchase price must not be negative", domain.ErrInvalidHolding)
	}
	if in.DividendPerShare != nil && in.DividendPerShare.IsNegative() {
		return nil, dividends.GenerationResult{}, fmt.Errorf("%w: dividend per share must not be negative", domain.ErrInvalidHolding)
	}
	purchaseDate := in.PurchaseDate.UTC()
	if in.PurchaseDate.IsZero() {
		purchaseDate = now
	}
	if purchaseDate.After(now) {
		return nil, dividends.GenerationResult{}, fmt.Errorf("%w: purchase date is in the future", domain.ErrInvalidHolding)
	}

	h := &Holding{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Symbol:          symbol,
		CompanyName:     in.CompanyName,
		Shares:          in.Shares,
		PurchasePrice:   in.PurchasePrice,
		PurchaseDate:    purchaseDate,
		PayoutFrequency: domain.FrequencyQuarterly,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	s.applyMarketData(ctx, h, now)

	if in.DividendPerShare != nil {
		h.DividendPerShare = *in.DividendPerShare
	}
	if in.PayoutFrequency != "" {
		h.PayoutFrequency = domain.ParseFrequency(in.PayoutFrequency)
	}
	if h.CompanyName == "" {
		h.CompanyName = symbol
	}

	if err := s.holdings.Create(ctx, h); err != nil {
		return nil, dividends.GenerationResult{}, err
	}

	result := s.generator.GenerateFutureDividends(ctx, h.Schedule(), dividends.ProjectionYears(now), now)
	return h, result, nil
}

// applyMarketData fills cached price and dividend fields from the aggregator.
func (s *Service) applyMarketData(ctx context.Context, h *Holding, now time.Time) {
	var (
		quote    domain.Quote
		overview *domain.CompanyOverview
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := s.market.GetStockQuote(gctx, h.Symbol)
		if err == nil {
			quote = q
		}
		return nil
	})
	g.Go(func() error {
		o, err := s.market.GetCompanyOverview(gctx, h.Symbol)
		if err == nil {
			overview = o
		}
		return nil
	})
	_ = g.Wait()

	fetched := false
	if quote.Price > 0 {
		h.CurrentPrice = decimal.NewFromFloat(quote.Price)
		fetched = true
	}
	if overview != nil {
		if h.CompanyName == "" && overview.CompanyName != "" && overview.CompanyName != domain.UnknownField {
			h.CompanyName = overview.CompanyName
		}
		if dividendTrusted(overview, quote.Price > 0) {
			h.DividendPerShare = decimal.NewFromFloat(overview.DividendPerShare)
			if overview.PayoutFrequency != nil {
				h.PayoutFrequency = *overview.PayoutFrequency
			}
		}
		fetched = true
	}
	if fetched {
		h.MarketDataUpdatedAt = &now
	} else {
		s.log.Warn().Str("symbol", h.Symbol).Msg("No market data available for new holding")
	}
}

// RemoveHolding deletes a lot and brings the symbol's dividend entries in line.
// Removing the last lot deletes every entry of the symbol. Otherwise future entries
// are deleted and regenerated from the remaining lots.
func (s *Service) RemoveHolding(ctx context.Context, ownerID, id string) (*RemovalResult, error) {
	h, err := s.holdings.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("holding %s: %w", id, domain.ErrNotFound)
	}

	deleted, err := s.holdings.Delete(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, fmt.Errorf("holding %s: %w", id, domain.ErrNotFound)
	}

	result := &RemovalResult{Holding: *h}

	remaining, err := s.holdings.ListBySymbol(ctx, ownerID, h.Symbol)
	if err != nil {
		return nil, err
	}

	if len(remaining) == 0 {
		n, err := s.entries.DeleteBySymbol(ctx, ownerID, h.Symbol)
		if err != nil {
			return nil, err
		}
		result.DeletedEntries = n
		return result, nil
	}

	now := s.now().UTC()
	n, err := s.entries.DeleteFuture(ctx, ownerID, h.Symbol, now.Year())
	if err != nil {
		return nil, err
	}
	result.DeletedEntries = n

	summary := s.generator.GenerateAll(ctx, schedules(remaining), dividends.ProjectionYears(now), now)
	result.Regenerated = &summary
	return result, nil
}

// Positions aggregates an owner's lots per symbol.
func (s *Service) Positions(ctx context.Context, ownerID string) (*Summary, error) {
	holdings, err := s.holdings.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return Summarize(holdings), nil
}

// Summarize aggregates lots into positions in first-seen symbol order.
// Shares are summed and the average cost is weighted by shares.
func Summarize(holdings []Holding) *Summary {
	index := make(map[string]int)
	positions := make([]Position, 0)

	for _, h := range holdings {
		i, ok := index[h.Symbol]
		if !ok {
			i = len(positions)
			index[h.Symbol] = i
			positions = append(positions, Position{
				Symbol:           h.Symbol,
				CompanyName:      h.CompanyName,
				CurrentPrice:     h.CurrentPrice,
				DividendPerShare: h.DividendPerShare,
				PayoutFrequency:  h.PayoutFrequency,
			})
		}
		p := &positions[i]
		p.Lots++
		p.Shares = p.Shares.Add(h.Shares)
		p.CostBasis = p.CostBasis.Add(h.Shares.Mul(h.PurchasePrice))
	}

	summary := &Summary{Positions: positions}
	yields := make([]float64, 0, len(positions))
	weights := make([]float64, 0, len(positions))

	for i := range positions {
		p := &positions[i]
		if p.Shares.IsPositive() {
			p.AverageCost = p.CostBasis.Div(p.Shares)
		}
		p.MarketValue = p.Shares.Mul(p.CurrentPrice)
		if p.CurrentPrice.IsZero() {
			p.GainLoss = decimal.Zero
		} else {
			p.GainLoss = p.MarketValue.Sub(p.CostBasis)
		}

		annualDPS := p.DividendPerShare.Mul(decimal.NewFromFloat(p.PayoutFrequency.Multiplier()))
		p.AnnualIncome = annualDPS.Mul(p.Shares)
		p.YieldOnCost = percentOf(annualDPS, p.AverageCost)
		p.CurrentYield = percentOf(annualDPS, p.CurrentPrice)

		summary.TotalCost = summary.TotalCost.Add(p.CostBasis)
		summary.TotalValue = summary.TotalValue.Add(p.MarketValue)
		summary.AnnualIncome = summary.AnnualIncome.Add(p.AnnualIncome)

		if mv := p.MarketValue.InexactFloat64(); mv > 0 {
			yields = append(yields, p.CurrentYield)
			weights = append(weights, mv)
		}
	}

	summary.YieldOnCost = percentOf(summary.AnnualIncome, summary.TotalCost)
	if len(yields) > 0 {
		summary.CurrentYield = stat.Mean(yields, weights)
	}
	return summary
}

func percentOf(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// RefreshAll refreshes cached market data for every held symbol.
func (s *Service) RefreshAll(ctx context.Context) ([]RefreshResult, error) {
	symbols, err := s.holdings.ListSymbols(ctx)
	if err != nil {
		return nil, err
	}
	return s.RefreshMarketData(ctx, symbols), nil
}

// RefreshOwner refreshes cached market data for the symbols an owner holds.
func (s *Service) RefreshOwner(ctx context.Context, ownerID string) ([]RefreshResult, error) {
	holdings, err := s.holdings.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, h := range holdings {
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			symbols = append(symbols, h.Symbol)
		}
	}
	return s.RefreshMarketData(ctx, symbols), nil
}

// RefreshMarketData fetches quotes and overviews for symbols with bounded concurrency
// and writes them to every lot. Results keep the input order. A failed symbol never
// blocks the others.
func (s *Service) RefreshMarketData(ctx context.Context, symbols []string) []RefreshResult {
	now := s.now().UTC()
	updates := make([]*MarketDataUpdate, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.concurrency, 1))
	for i, sym := range symbols {
		g.Go(func() error {
			updates[i] = s.fetchUpdate(gctx, sym, now)
			return nil
		})
	}
	_ = g.Wait()

	results := make([]RefreshResult, len(symbols))
	for i, sym := range symbols {
		results[i] = RefreshResult{Symbol: sym}
		if updates[i] == nil {
			results[i].Error = "no market data available"
			continue
		}
		n, err := s.holdings.UpdateMarketData(ctx, sym, *updates[i])
		if err != nil {
			results[i].Error = err.Error()
			s.log.Error().Err(err).Str("symbol", sym).Msg("Failed to store refreshed market data")
			continue
		}
		results[i].Updated = true
		results[i].Holdings = n
	}

	s.log.Info().Int("symbols", len(symbols)).Msg("Market data refreshed")
	return results
}

// fetchUpdate returns nil when neither a price nor an overview could be obtained.
func (s *Service) fetchUpdate(ctx context.Context, symbol string, now time.Time) *MarketDataUpdate {
	u := &MarketDataUpdate{UpdatedAt: now}
	found := false

	priced := false
	if q, err := s.market.GetStockQuote(ctx, symbol); err == nil && q.Price > 0 {
		price := decimal.NewFromFloat(q.Price)
		u.CurrentPrice = &price
		priced = true
		found = true
	}

	if o, err := s.market.GetCompanyOverview(ctx, symbol); err == nil && o != nil {
		if dividendTrusted(o, priced) {
			dps := decimal.NewFromFloat(o.DividendPerShare)
			u.DividendPerShare = &dps
			if o.PayoutFrequency != nil {
				f := *o.PayoutFrequency
				u.PayoutFrequency = &f
			}
		}
		if o.CompanyName != domain.UnknownField {
			u.CompanyName = o.CompanyName
		}
		found = true
	}

	if !found {
		return nil
	}
	return u
}

// dividendTrusted reports whether an overview's dividend fields may replace cached
// ones. The aggregator blanks them when it could not price the symbol, so a zero
// dividend only counts when a price was obtained as well.
func dividendTrusted(o *domain.CompanyOverview, priced bool) bool {
	return o.DividendYield > 0 || priced
}

// RegenerateSchedules creates missing dividend entries for every lot an owner holds.
func (s *Service) RegenerateSchedules(ctx context.Context, ownerID string) (dividends.Summary, error) {
	holdings, err := s.holdings.ListByOwner(ctx, ownerID)
	if err != nil {
		return dividends.Summary{}, err
	}

	now := s.now().UTC()
	return s.generator.GenerateAll(ctx, schedules(holdings), dividends.ProjectionYears(now), now), nil
}

// RegenerateAll runs RegenerateSchedules for every owner. Owners that fail are
// reported in the returned error after the rest have been processed.
func (s *Service) RegenerateAll(ctx context.Context) (dividends.Summary, error) {
	owners, err := s.holdings.ListOwners(ctx)
	if err != nil {
		return dividends.Summary{}, err
	}

	total := dividends.Summary{Results: make([]dividends.GenerationResult, 0)}
	var errs []error
	for _, owner := range owners {
		summary, err := s.RegenerateSchedules(ctx, owner)
		if err != nil {
			errs = append(errs, fmt.Errorf("owner %s: %w", owner, err))
			continue
		}
		total.Generated += summary.Generated
		total.Skipped += summary.Skipped
		total.Failed += summary.Failed
		total.Results = append(total.Results, summary.Results...)
	}
	return total, errors.Join(errs...)
}

// DeleteFutureDividends removes every entry of the current year onwards for an owner.
func (s *Service) DeleteFutureDividends(ctx context.Context, ownerID string) (int64, error) {
	return s.entries.DeleteFuture(ctx, ownerID, "", s.now().UTC().Year())
}

func schedules(holdings []Holding) []dividends.HoldingSchedule {
	out := make([]dividends.HoldingSchedule, len(holdings))
	for i, h := range holdings {
		out[i] = h.Schedule()
	}
	return out
}
