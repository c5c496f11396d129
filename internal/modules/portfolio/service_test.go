package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/aristath/yieldfolio/internal/modules/dividends"
	testingpkg "github.com/aristath/yieldfolio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMarketData is a mock market-data aggregator for testing
type MockMarketData struct {
	mock.Mock
}

func (m *MockMarketData) GetStockQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(domain.Quote), args.Error(1)
}

func (m *MockMarketData) GetCompanyOverview(ctx context.Context, symbol string) (*domain.CompanyOverview, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CompanyOverview), args.Error(1)
}

var testNow = time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)

type fixture struct {
	service  *Service
	holdings *HoldingRepository
	entries  *dividends.EntryRepository
	market   *MockMarketData
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testingpkg.NewMemoryDB(t)
	log := zerolog.New(nil).Level(zerolog.Disabled)

	holdings := NewHoldingRepository(db, log)
	entries := dividends.NewEntryRepository(db, log)
	market := &MockMarketData{}
	generator := dividends.NewGenerator(entries, holdings, log)

	svc := NewService(holdings, entries, generator, market, log)
	svc.now = func() time.Time { return testNow }

	return &fixture{service: svc, holdings: holdings, entries: entries, market: market}
}

func (f *fixture) expectKO() {
	f.market.On("GetStockQuote", mock.Anything, "KO").Return(domain.Quote{Symbol: "KO", Price: 60}, nil)
	f.market.On("GetCompanyOverview", mock.Anything, "KO").Return(&domain.CompanyOverview{
		Symbol:           "KO",
		CompanyName:      "Coca-Cola Company",
		DividendPerShare: 0.5,
		PayoutFrequency:  domain.FrequencyQuarterly.Ptr(),
	}, nil)
}

func (f *fixture) expectNoData(symbol string) {
	f.market.On("GetStockQuote", mock.Anything, symbol).Return(domain.EmptyQuote(symbol), nil)
	f.market.On("GetCompanyOverview", mock.Anything, symbol).Return(nil, nil)
}

func lot(symbol string, shares int64, price string) NewHolding {
	return NewHolding{
		Symbol:        symbol,
		Shares:        decimal.NewFromInt(shares),
		PurchasePrice: decimal.RequireFromString(price),
		PurchaseDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAddHolding_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   NewHolding
	}{
		{"empty symbol", NewHolding{Symbol: "  ", Shares: decimal.NewFromInt(1)}},
		{"zero shares", NewHolding{Symbol: "KO"}},
		{"negative price", NewHolding{Symbol: "KO", Shares: decimal.NewFromInt(1), PurchasePrice: decimal.NewFromInt(-1)}},
		{"future purchase", NewHolding{Symbol: "KO", Shares: decimal.NewFromInt(1), PurchaseDate: testNow.AddDate(0, 0, 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.service.AddHolding(context.Background(), "u1", tt.in)
			assert.ErrorIs(t, err, domain.ErrInvalidHolding)
		})
	}

	f.market.AssertNotCalled(t, "GetStockQuote", mock.Anything, mock.Anything)
}

func TestAddHolding_UsesMarketDataAndProjects(t *testing.T) {
	f := newFixture(t)
	f.expectKO()

	h, result, err := f.service.AddHolding(context.Background(), "u1", lot(" ko ", 10, "50"))
	require.NoError(t, err)

	assert.Equal(t, "KO", h.Symbol)
	assert.Equal(t, "Coca-Cola Company", h.CompanyName)
	assert.True(t, decimal.NewFromInt(60).Equal(h.CurrentPrice))
	assert.True(t, decimal.RequireFromString("0.5").Equal(h.DividendPerShare))
	assert.Equal(t, domain.FrequencyQuarterly, h.PayoutFrequency)
	require.NotNil(t, h.MarketDataUpdatedAt)

	assert.Equal(t, dividends.StatusGenerated, result.Status)
	assert.Equal(t, 8, result.Generated)

	stored, err := f.holdings.GetByID(context.Background(), "u1", h.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, h.Shares.Equal(stored.Shares))
}

func TestAddHolding_ProviderOutageStillStores(t *testing.T) {
	f := newFixture(t)
	f.expectNoData("XYZ")

	h, result, err := f.service.AddHolding(context.Background(), "u1", lot("XYZ", 3, "10"))
	require.NoError(t, err)

	assert.Equal(t, "XYZ", h.CompanyName)
	assert.True(t, h.CurrentPrice.IsZero())
	assert.Nil(t, h.MarketDataUpdatedAt)
	assert.Equal(t, dividends.StatusNoDividend, result.Status)
}

func TestAddHolding_ExplicitDividendOverridesMarketData(t *testing.T) {
	f := newFixture(t)
	f.expectNoData("O")

	in := lot("O", 100, "55")
	dps := decimal.RequireFromString("0.2635")
	in.DividendPerShare = &dps
	in.PayoutFrequency = "monthly"

	h, result, err := f.service.AddHolding(context.Background(), "u1", in)
	require.NoError(t, err)

	assert.Equal(t, domain.FrequencyMonthly, h.PayoutFrequency)
	assert.Equal(t, 24, result.Generated) // Jan 2025 through Dec 2026
}

func TestRemoveHolding_LastLotDeletesAllEntries(t *testing.T) {
	f := newFixture(t)
	f.expectKO()
	ctx := context.Background()

	h, _, err := f.service.AddHolding(ctx, "u1", lot("KO", 10, "50"))
	require.NoError(t, err)

	res, err := f.service.RemoveHolding(ctx, "u1", h.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), res.DeletedEntries)
	assert.Nil(t, res.Regenerated)

	entries, err := f.entries.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemoveHolding_RegeneratesWithRemainingShares(t *testing.T) {
	f := newFixture(t)
	f.expectKO()
	ctx := context.Background()

	first, _, err := f.service.AddHolding(ctx, "u1", lot("KO", 10, "50"))
	require.NoError(t, err)
	_, second, err := f.service.AddHolding(ctx, "u1", lot("KO", 5, "56"))
	require.NoError(t, err)
	assert.Equal(t, 8, second.Skipped)

	res, err := f.service.RemoveHolding(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), res.DeletedEntries)
	require.NotNil(t, res.Regenerated)
	assert.Equal(t, 8, res.Regenerated.Generated)

	entries, err := f.entries.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 8)
	for _, e := range entries {
		assert.True(t, decimal.NewFromInt(5).Equal(e.Shares))
		assert.True(t, decimal.RequireFromString("2.5").Equal(e.TotalAmount), e.TotalAmount.String())
	}
}

func TestRemoveHolding_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.RemoveHolding(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSummarize(t *testing.T) {
	quarterly := domain.FrequencyQuarterly
	holdings := []Holding{
		{Symbol: "KO", CompanyName: "Coca-Cola", Shares: decimal.NewFromInt(10), PurchasePrice: decimal.NewFromInt(50),
			CurrentPrice: decimal.NewFromInt(60), DividendPerShare: decimal.RequireFromString("0.5"), PayoutFrequency: quarterly},
		{Symbol: "KO", CompanyName: "Coca-Cola", Shares: decimal.NewFromInt(5), PurchasePrice: decimal.NewFromInt(56),
			CurrentPrice: decimal.NewFromInt(60), DividendPerShare: decimal.RequireFromString("0.5"), PayoutFrequency: quarterly},
		{Symbol: "XYZ", Shares: decimal.NewFromInt(1), PurchasePrice: decimal.NewFromInt(10), PayoutFrequency: quarterly},
	}

	s := Summarize(holdings)
	require.Len(t, s.Positions, 2)

	ko := s.Positions[0]
	assert.Equal(t, 2, ko.Lots)
	assert.True(t, decimal.NewFromInt(15).Equal(ko.Shares))
	assert.True(t, decimal.NewFromInt(780).Equal(ko.CostBasis))
	assert.True(t, decimal.NewFromInt(52).Equal(ko.AverageCost))
	assert.True(t, decimal.NewFromInt(900).Equal(ko.MarketValue))
	assert.True(t, decimal.NewFromInt(120).Equal(ko.GainLoss))
	assert.True(t, decimal.NewFromInt(30).Equal(ko.AnnualIncome))
	assert.InDelta(t, 3.846, ko.YieldOnCost, 0.001)
	assert.InDelta(t, 3.333, ko.CurrentYield, 0.001)

	xyz := s.Positions[1]
	assert.True(t, xyz.GainLoss.IsZero())
	assert.Zero(t, xyz.CurrentYield)

	assert.True(t, decimal.NewFromInt(790).Equal(s.TotalCost))
	assert.True(t, decimal.NewFromInt(900).Equal(s.TotalValue))
	// Only priced positions contribute to the weighted yield
	assert.InDelta(t, 3.333, s.CurrentYield, 0.001)
}

func TestRefreshMarketData_OrderAndFailures(t *testing.T) {
	f := newFixture(t)
	f.expectNoData("XYZ")
	ctx := context.Background()

	_, _, err := f.service.AddHolding(ctx, "u1", lot("XYZ", 1, "10"))
	require.NoError(t, err)

	f.expectKO()
	_, _, err = f.service.AddHolding(ctx, "u1", lot("KO", 10, "50"))
	require.NoError(t, err)
	_, _, err = f.service.AddHolding(ctx, "u2", lot("KO", 4, "40"))
	require.NoError(t, err)

	results := f.service.RefreshMarketData(ctx, []string{"XYZ", "KO"})
	require.Len(t, results, 2)
	assert.Equal(t, "XYZ", results[0].Symbol)
	assert.False(t, results[0].Updated)
	assert.NotEmpty(t, results[0].Error)
	assert.Equal(t, "KO", results[1].Symbol)
	assert.True(t, results[1].Updated)
	assert.Equal(t, int64(2), results[1].Holdings)

	all, err := f.service.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRefreshMarketData_QuoteOutageKeepsCachedDividend(t *testing.T) {
	f := newFixture(t)
	f.expectKO()
	ctx := context.Background()

	h, result, err := f.service.AddHolding(ctx, "u1", lot("KO", 10, "50"))
	require.NoError(t, err)
	assert.Equal(t, 8, result.Generated)

	// Quote unavailable: the overview comes back with its dividend fields blanked
	outage := &MockMarketData{}
	outage.On("GetStockQuote", mock.Anything, "KO").Return(domain.EmptyQuote("KO"), nil)
	outage.On("GetCompanyOverview", mock.Anything, "KO").Return(&domain.CompanyOverview{
		Symbol:      "KO",
		CompanyName: "Coca-Cola Company",
	}, nil)
	f.service.market = outage

	results := f.service.RefreshMarketData(ctx, []string{"KO"})
	require.Len(t, results, 1)
	assert.True(t, results[0].Updated)

	stored, err := f.holdings.GetByID(ctx, "u1", h.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, decimal.RequireFromString("0.5").Equal(stored.DividendPerShare))
	assert.Equal(t, domain.FrequencyQuarterly, stored.PayoutFrequency)
	assert.True(t, decimal.NewFromInt(60).Equal(stored.CurrentPrice))

	summary, err := f.service.RegenerateSchedules(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Generated)
	assert.Equal(t, 8, summary.Skipped)
}

func TestRefreshMarketData_PricedZeroDividendClearsCache(t *testing.T) {
	f := newFixture(t)
	f.expectKO()
	ctx := context.Background()

	h, _, err := f.service.AddHolding(ctx, "u1", lot("KO", 10, "50"))
	require.NoError(t, err)

	cut := &MockMarketData{}
	cut.On("GetStockQuote", mock.Anything, "KO").Return(domain.Quote{Symbol: "KO", Price: 61}, nil)
	cut.On("GetCompanyOverview", mock.Anything, "KO").Return(&domain.CompanyOverview{Symbol: "KO"}, nil)
	f.service.market = cut

	f.service.RefreshMarketData(ctx, []string{"KO"})

	stored, err := f.holdings.GetByID(ctx, "u1", h.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.DividendPerShare.IsZero())
	assert.True(t, decimal.NewFromInt(61).Equal(stored.CurrentPrice))
}

func TestRegenerateAllAndDeleteFuture(t *testing.T) {
	f := newFixture(t)
	f.expectKO()
	ctx := context.Background()

	_, _, err := f.service.AddHolding(ctx, "u1", lot("KO", 10, "50"))
	require.NoError(t, err)
	_, _, err = f.service.AddHolding(ctx, "u2", lot("KO", 2, "50"))
	require.NoError(t, err)

	summary, err := f.service.RegenerateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Generated)
	assert.Equal(t, 16, summary.Skipped)

	n, err := f.service.DeleteFutureDividends(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	summary, err = f.service.RegenerateSchedules(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 8, summary.Generated)
}
