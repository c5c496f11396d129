// Package portfolio manages holdings, aggregates them into positions and keeps their
// dividend schedules in step with the lots an owner holds.
package portfolio

import (
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/aristath/yieldfolio/internal/modules/dividends"
	"github.com/shopspring/decimal"
)

// Holding is one purchase lot. Several lots of the same symbol form a Position.
type Holding struct {
	ID                  string                 `json:"id"`
	OwnerID             string                 `json:"ownerId"`
	Symbol              string                 `json:"symbol"`
	CompanyName         string                 `json:"companyName"`
	Shares              decimal.Decimal        `json:"shares"`
	PurchasePrice       decimal.Decimal        `json:"purchasePrice"`
	PurchaseDate        time.Time              `json:"purchaseDate"`
	CurrentPrice        decimal.Decimal        `json:"currentPrice"`
	DividendPerShare    decimal.Decimal        `json:"dividendPerShare"`
	PayoutFrequency     domain.PayoutFrequency `json:"payoutFrequency"`
	MarketDataUpdatedAt *time.Time             `json:"marketDataUpdatedAt,omitempty"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
}

// Schedule returns the projector's view of the holding.
func (h Holding) Schedule() dividends.HoldingSchedule {
	return dividends.HoldingSchedule{
		OwnerID:          h.OwnerID,
		Symbol:           h.Symbol,
		CompanyName:      h.CompanyName,
		DividendPerShare: h.DividendPerShare,
		PayoutFrequency:  h.PayoutFrequency,
		PurchaseDate:     h.PurchaseDate,
	}
}

// NewHolding is the input for AddHolding. Optional fields are filled from market data.
type NewHolding struct {
	Symbol           string           `json:"symbol"`
	Shares           decimal.Decimal  `json:"shares"`
	PurchasePrice    decimal.Decimal  `json:"purchasePrice"`
	PurchaseDate     time.Time        `json:"purchaseDate"`
	CompanyName      string           `json:"companyName,omitempty"`
	DividendPerShare *decimal.Decimal `json:"dividendPerShare,omitempty"`
	PayoutFrequency  string           `json:"payoutFrequency,omitempty"`
}

// MarketDataUpdate carries refreshed cached fields. Nil fields keep their stored value.
type MarketDataUpdate struct {
	CompanyName      string
	CurrentPrice     *decimal.Decimal
	DividendPerShare *decimal.Decimal
	PayoutFrequency  *domain.PayoutFrequency
	UpdatedAt        time.Time
}

// Position aggregates every lot an owner holds of one symbol.
type Position struct {
	Symbol           string                 `json:"symbol"`
	CompanyName      string                 `json:"companyName"`
	Lots             int                    `json:"lots"`
	Shares           decimal.Decimal        `json:"shares"`
	AverageCost      decimal.Decimal        `json:"averageCost"`
	CostBasis        decimal.Decimal        `json:"costBasis"`
	CurrentPrice     decimal.Decimal        `json:"currentPrice"`
	MarketValue      decimal.Decimal        `json:"marketValue"`
	GainLoss         decimal.Decimal        `json:"gainLoss"`
	DividendPerShare decimal.Decimal        `json:"dividendPerShare"`
	PayoutFrequency  domain.PayoutFrequency `json:"payoutFrequency"`
	AnnualIncome     decimal.Decimal        `json:"annualIncome"`
	YieldOnCost      float64                `json:"yieldOnCost"`
	CurrentYield     float64                `json:"currentYield"`
}

// Summary is an owner's portfolio at a glance.
type Summary struct {
	Positions    []Position      `json:"positions"`
	TotalCost    decimal.Decimal `json:"totalCost"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	AnnualIncome decimal.Decimal `json:"annualIncome"`
	YieldOnCost  float64         `json:"yieldOnCost"`
	// CurrentYield is the market-value weighted mean of position yields.
	CurrentYield float64 `json:"currentYield"`
}

// RemovalResult reports what RemoveHolding did to the dividend schedule.
type RemovalResult struct {
	Holding        Holding            `json:"holding"`
	DeletedEntries int64              `json:"deletedEntries"`
	Regenerated    *dividends.Summary `json:"regenerated,omitempty"`
}

// RefreshResult reports the refresh outcome for one symbol.
type RefreshResult struct {
	Symbol   string `json:"symbol"`
	Updated  bool   `json:"updated"`
	Holdings int64  `json:"holdings"`
	Error    string `json:"error,omitempty"`
}
