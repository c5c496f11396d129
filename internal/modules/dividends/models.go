// Package dividends projects future dividend payments for holdings and persists them
// as one entry per owner, symbol and calendar month.
package dividends

import (
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/shopspring/decimal"
)

// Entry is a projected dividend payment for one owner and symbol in one calendar month.
// TotalAmount is DividendPerShare times the owner's total shares of Symbol at generation time.
type Entry struct {
	ID               string                 `json:"id"`
	OwnerID          string                 `json:"ownerId"`
	Symbol           string                 `json:"symbol"`
	CompanyName      string                 `json:"companyName"`
	Shares           decimal.Decimal        `json:"shares"`
	DividendPerShare decimal.Decimal        `json:"dividendPerShare"`
	TotalAmount      decimal.Decimal        `json:"totalAmount"`
	ExDividendDate   time.Time              `json:"exDividendDate"`
	PaymentDate      time.Time              `json:"paymentDate"`
	PayoutFrequency  domain.PayoutFrequency `json:"payoutFrequency"`
	Year             int                    `json:"year"`
	Month            int                    `json:"month"`
	Quarter          int                    `json:"quarter"`
	CreatedAt        time.Time              `json:"createdAt"`
}

// HoldingSchedule is the slice of a holding the projector needs.
type HoldingSchedule struct {
	OwnerID          string
	Symbol           string
	CompanyName      string
	DividendPerShare decimal.Decimal
	PayoutFrequency  domain.PayoutFrequency
	PurchaseDate     time.Time
}

// Generation statuses reported per holding.
const (
	StatusGenerated  = "generated"
	StatusUpToDate   = "up_to_date"
	StatusNoDividend = "no_dividend"
	StatusNoShares   = "no_shares"
	StatusPartial    = "partial"
	StatusFailed     = "failed"
)

// GenerationResult reports what GenerateFutureDividends did for one holding.
type GenerationResult struct {
	Symbol    string   `json:"symbol"`
	Status    string   `json:"status"`
	Generated int      `json:"generated"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// Summary aggregates a batch of generation results in input order.
type Summary struct {
	Generated int                `json:"generated"`
	Skipped   int                `json:"skipped"`
	Failed    int                `json:"failed"`
	Results   []GenerationResult `json:"results"`
}
