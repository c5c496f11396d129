package dividends

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// EntryStore persists projected entries keyed by (owner, symbol, year, month).
type EntryStore interface {
	// FindExisting returns nil, nil when no entry exists for the key.
	FindExisting(ctx context.Context, ownerID, symbol string, year, month int) (*Entry, error)
	Save(ctx context.Context, entry *Entry) error
}

// ShareCounter reports the aggregated share count an owner holds of a symbol across all lots.
type ShareCounter interface {
	TotalSharesFor(ctx context.Context, ownerID, symbol string) (decimal.Decimal, error)
}

// Generator creates missing future dividend entries for holdings.
type Generator struct {
	store  EntryStore
	shares ShareCounter
	log    zerolog.Logger
}

// NewGenerator creates a new generator
func NewGenerator(store EntryStore, shares ShareCounter, log zerolog.Logger) *Generator {
	return &Generator{
		store:  store,
		shares: shares,
		log:    log.With().Str("service", "dividend_generator").Logger(),
	}
}

// GenerateFutureDividends creates an entry for every projected month of h that has none yet.
// Existing entries are left untouched, so repeated calls create nothing new.
// Persistence failures are recorded in the result and do not stop the remaining months.
func (g *Generator) GenerateFutureDividends(ctx context.Context, h HoldingSchedule, years []int, now time.Time) GenerationResult {
	result := GenerationResult{Symbol: h.Symbol}

	if !h.DividendPerShare.IsPositive() {
		result.Status = StatusNoDividend
		return result
	}

	totalShares, err := g.shares.TotalSharesFor(ctx, h.OwnerID, h.Symbol)
	if err != nil {
		result.Status = StatusFailed
		result.Errors = append(result.Errors, fmt.Sprintf("failed to count shares: %v", err))
		return result
	}
	if !totalShares.IsPositive() {
		result.Status = StatusNoShares
		return result
	}

	totalAmount := h.DividendPerShare.Mul(totalShares)

	for _, exDate := range DividendDates(h.PayoutFrequency, years, h.PurchaseDate, now) {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, err.Error())
			break
		}

		year, month := exDate.Year(), int(exDate.Month())

		existing, err := g.store.FindExisting(ctx, h.OwnerID, h.Symbol, year, month)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%d-%02d: lookup failed: %v", year, month, err))
			continue
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		entry := &Entry{
			ID:               uuid.NewString(),
			OwnerID:          h.OwnerID,
			Symbol:           h.Symbol,
			CompanyName:      h.CompanyName,
			Shares:           totalShares,
			DividendPerShare: h.DividendPerShare,
			TotalAmount:      totalAmount,
			ExDividendDate:   exDate,
			PaymentDate:      PaymentDate(exDate),
			PayoutFrequency:  h.PayoutFrequency,
			Year:             year,
			Month:            month,
			Quarter:          QuarterOf(month),
			CreatedAt:        now.UTC(),
		}

		if err := g.store.Save(ctx, entry); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%d-%02d: save failed: %v", year, month, err))
			continue
		}
		result.Generated++
	}

	switch {
	case len(result.Errors) > 0 && result.Generated == 0:
		result.Status = StatusFailed
	case len(result.Errors) > 0:
		result.Status = StatusPartial
	case result.Generated > 0:
		result.Status = StatusGenerated
	default:
		result.Status = StatusUpToDate
	}

	if len(result.Errors) > 0 {
		g.log.Warn().
			Str("owner", h.OwnerID).
			Str("symbol", h.Symbol).
			Int("generated", result.Generated).
			Strs("errors", result.Errors).
			Msg("Dividend generation finished with errors")
	} else {
		g.log.Debug().
			Str("owner", h.OwnerID).
			Str("symbol", h.Symbol).
			Int("generated", result.Generated).
			Int("skipped", result.Skipped).
			Msg("Dividend generation finished")
	}

	return result
}

// GenerateAll runs GenerateFutureDividends for every holding in order.
// One holding's failure never prevents the others from being processed.
func (g *Generator) GenerateAll(ctx context.Context, holdings []HoldingSchedule, years []int, now time.Time) Summary {
	summary := Summary{Results: make([]GenerationResult, 0, len(holdings))}

	for _, h := range holdings {
		r := g.GenerateFutureDividends(ctx, h, years, now)
		summary.Generated += r.Generated
		summary.Skipped += r.Skipped
		if r.Status == StatusFailed || r.Status == StatusPartial {
			summary.Failed++
		}
		summary.Results = append(summary.Results, r)
	}

	g.log.Info().
		Int("holdings", len(holdings)).
		Int("generated", summary.Generated).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("Dividend schedules generated")

	return summary
}
