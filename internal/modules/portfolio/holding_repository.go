package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// HoldingRepository handles holding database operations
type HoldingRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// holdingColumns is the column list shared by every SELECT.
// Order must match scanHolding.
const holdingColumns = `id, owner_id, symbol, company_name, shares, purchase_price, purchase_date,
current_price, dividend_per_share, payout_frequency, market_data_updated_at, created_at, updated_at`

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *sql.DB, log zerolog.Logger) *HoldingRepository {
	return &HoldingRepository{
		db:  db,
		log: log.With().Str("repo", "holding").Logger(),
	}
}

// Create inserts a new holding. ID and timestamps must already be set.
func (r *HoldingRepository) Create(ctx context.Context, h *Holding) error {
	query := `
		INSERT INTO holdings
		(id, owner_id, symbol, company_name, shares, purchase_price, purchase_date,
		 current_price, dividend_per_share, payout_frequency, market_data_updated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		h.ID,
		h.OwnerID,
		strings.ToUpper(h.Symbol),
		h.CompanyName,
		h.Shares.String(),
		h.PurchasePrice.String(),
		h.PurchaseDate.Unix(),
		h.CurrentPrice.String(),
		h.DividendPerShare.String(),
		string(h.PayoutFrequency),
		nullTimeUnix(h.MarketDataUpdatedAt),
		h.CreatedAt.Unix(),
		h.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create holding: %w", err)
	}

	r.log.Info().
		Str("owner", h.OwnerID).
		Str("symbol", h.Symbol).
		Str("shares", h.Shares.String()).
		Msg("Holding created")

	return nil
}

// GetByID returns an owner's holding, or nil, nil when it does not exist.
func (r *HoldingRepository) GetByID(ctx context.Context, ownerID, id string) (*Holding, error) {
	query := "SELECT " + holdingColumns + " FROM holdings WHERE owner_id = ? AND id = ?"

	h, err := scanHolding(r.db.QueryRowContext(ctx, query, ownerID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding by ID: %w", err)
	}
	return h, nil
}

// ListByOwner returns an owner's holdings ordered by symbol then purchase date.
func (r *HoldingRepository) ListByOwner(ctx context.Context, ownerID string) ([]Holding, error) {
	query := "SELECT " + holdingColumns + ` FROM holdings
		WHERE owner_id = ?
		ORDER BY symbol ASC, purchase_date ASC, id ASC`
	return r.list(ctx, query, ownerID)
}

// ListBySymbol returns an owner's lots of one symbol ordered by purchase date.
func (r *HoldingRepository) ListBySymbol(ctx context.Context, ownerID, symbol string) ([]Holding, error) {
	query := "SELECT " + holdingColumns + ` FROM holdings
		WHERE owner_id = ? AND symbol = ?
		ORDER BY purchase_date ASC, id ASC`
	return r.list(ctx, query, ownerID, strings.ToUpper(symbol))
}

// Delete removes an owner's holding. It reports whether a row was deleted.
func (r *HoldingRepository) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM holdings WHERE owner_id = ? AND id = ?", ownerID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete holding: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if n > 0 {
		r.log.Info().Str("owner", ownerID).Str("id", id).Msg("Holding deleted")
	}
	return n > 0, nil
}

// TotalSharesFor sums the shares of every lot an owner holds of symbol.
func (r *HoldingRepository) TotalSharesFor(ctx context.Context, ownerID, symbol string) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT shares FROM holdings WHERE owner_id = ? AND symbol = ?",
		ownerID, strings.ToUpper(symbol))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query shares: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var shares decimal.Decimal
		if err := rows.Scan(&shares); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan shares: %w", err)
		}
		total = total.Add(shares)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating shares: %w", err)
	}
	return total, nil
}

// UpdateMarketData writes refreshed market fields to every lot of symbol, across owners.
func (r *HoldingRepository) UpdateMarketData(ctx context.Context, symbol string, u MarketDataUpdate) (int64, error) {
	query := `
		UPDATE holdings SET
			company_name = CASE WHEN ? != '' THEN ? ELSE company_name END,
			current_price = COALESCE(?, current_price),
			dividend_per_share = COALESCE(?, dividend_per_share),
			payout_frequency = COALESCE(?, payout_frequency),
			market_data_updated_at = ?,
			updated_at = ?
		WHERE symbol = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		u.CompanyName, u.CompanyName,
		nullDecimal(u.CurrentPrice),
		nullDecimal(u.DividendPerShare),
		nullFrequency(u.PayoutFrequency),
		u.UpdatedAt.Unix(),
		u.UpdatedAt.Unix(),
		strings.ToUpper(symbol),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update market data for %s: %w", symbol, err)
	}

	n, _ := result.RowsAffected()
	return n, nil
}

// ListSymbols returns the distinct symbols held by anyone, alphabetically.
func (r *HoldingRepository) ListSymbols(ctx context.Context) ([]string, error) {
	return r.listStrings(ctx, "SELECT DISTINCT symbol FROM holdings ORDER BY symbol ASC")
}

// ListOwners returns every owner with at least one holding.
func (r *HoldingRepository) ListOwners(ctx context.Context) ([]string, error) {
	return r.listStrings(ctx, "SELECT DISTINCT owner_id FROM holdings ORDER BY owner_id ASC")
}

func (r *HoldingRepository) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *HoldingRepository) list(ctx context.Context, query string, args ...interface{}) ([]Holding, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]Holding, 0)
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}
	return holdings, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHolding(row rowScanner) (*Holding, error) {
	var (
		h                                  Holding
		purchaseDate, createdAt, updatedAt int64
		marketDataUpdatedAt                sql.NullInt64
		frequency                          string
	)

	err := row.Scan(
		&h.ID,
		&h.OwnerID,
		&h.Symbol,
		&h.CompanyName,
		&h.Shares,
		&h.PurchasePrice,
		&purchaseDate,
		&h.CurrentPrice,
		&h.DividendPerShare,
		&frequency,
		&marketDataUpdatedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	h.PurchaseDate = time.Unix(purchaseDate, 0).UTC()
	h.CreatedAt = time.Unix(createdAt, 0).UTC()
	h.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	h.PayoutFrequency = domain.ParseFrequency(frequency)
	if marketDataUpdatedAt.Valid {
		t := time.Unix(marketDataUpdatedAt.Int64, 0).UTC()
		h.MarketDataUpdatedAt = &t
	}
	return &h, nil
}

func nullTimeUnix(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullFrequency(f *domain.PayoutFrequency) interface{} {
	if f == nil {
		return nil
	}
	return string(*f)
}
