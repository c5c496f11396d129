package dividends

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/rs/zerolog"
)

// EntryRepository stores projected dividend entries in the dividend_history table.
type EntryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// entryColumns is the column list shared by every SELECT.
// Order must match scanEntry.
const entryColumns = `id, owner_id, symbol, company_name, shares, dividend_per_share, total_amount,
ex_dividend_date, payment_date, payout_frequency, year, month, quarter, created_at`

// NewEntryRepository creates a new dividend entry repository
func NewEntryRepository(db *sql.DB, log zerolog.Logger) *EntryRepository {
	return &EntryRepository{
		db:  db,
		log: log.With().Str("repo", "dividend_entry").Logger(),
	}
}

// FindExisting returns the entry for (owner, symbol, year, month), or nil, nil when there is none.
func (r *EntryRepository) FindExisting(ctx context.Context, ownerID, symbol string, year, month int) (*Entry, error) {
	query := "SELECT " + entryColumns + ` FROM dividend_history
		WHERE owner_id = ? AND symbol = ? AND year = ? AND month = ?`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, ownerID, strings.ToUpper(symbol), year, month))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dividend entry: %w", err)
	}
	return entry, nil
}

// Save inserts a new entry. A second entry for the same owner, symbol and month is rejected.
func (r *EntryRepository) Save(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO dividend_history
		(id, owner_id, symbol, company_name, shares, dividend_per_share, total_amount,
		 ex_dividend_date, payment_date, payout_frequency, year, month, quarter, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.OwnerID,
		strings.ToUpper(e.Symbol),
		e.CompanyName,
		e.Shares.String(),
		e.DividendPerShare.String(),
		e.TotalAmount.String(),
		e.ExDividendDate.Unix(),
		e.PaymentDate.Unix(),
		string(e.PayoutFrequency),
		e.Year,
		e.Month,
		e.Quarter,
		createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save dividend entry: %w", err)
	}
	return nil
}

// DeleteBySymbol removes every entry an owner has for symbol.
func (r *EntryRepository) DeleteBySymbol(ctx context.Context, ownerID, symbol string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM dividend_history WHERE owner_id = ? AND symbol = ?",
		ownerID, strings.ToUpper(symbol))
	if err != nil {
		return 0, fmt.Errorf("failed to delete dividend entries: %w", err)
	}

	n, _ := result.RowsAffected()
	r.log.Info().Str("owner", ownerID).Str("symbol", symbol).Int64("deleted", n).Msg("Deleted dividend entries")
	return n, nil
}

// DeleteFuture removes entries with year >= fromYear. An empty symbol matches every symbol.
func (r *EntryRepository) DeleteFuture(ctx context.Context, ownerID, symbol string, fromYear int) (int64, error) {
	query := "DELETE FROM dividend_history WHERE owner_id = ? AND year >= ?"
	args := []interface{}{ownerID, fromYear}
	if symbol != "" {
		query += " AND symbol = ?"
		args = append(args, strings.ToUpper(symbol))
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete future dividend entries: %w", err)
	}

	n, _ := result.RowsAffected()
	r.log.Info().Str("owner", ownerID).Str("symbol", symbol).Int("from_year", fromYear).Int64("deleted", n).Msg("Deleted future dividend entries")
	return n, nil
}

// ListByOwner returns every entry for an owner ordered by ex-dividend date.
func (r *EntryRepository) ListByOwner(ctx context.Context, ownerID string) ([]Entry, error) {
	query := "SELECT " + entryColumns + ` FROM dividend_history
		WHERE owner_id = ?
		ORDER BY ex_dividend_date ASC, symbol ASC`
	return r.list(ctx, query, ownerID)
}

// ListByYear returns an owner's entries for one calendar year ordered by ex-dividend date.
func (r *EntryRepository) ListByYear(ctx context.Context, ownerID string, year int) ([]Entry, error) {
	query := "SELECT " + entryColumns + ` FROM dividend_history
		WHERE owner_id = ? AND year = ?
		ORDER BY ex_dividend_date ASC, symbol ASC`
	return r.list(ctx, query, ownerID, year)
}

func (r *EntryRepository) list(ctx context.Context, query string, args ...interface{}) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dividend entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dividend entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dividend entries: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e                          Entry
		frequency                  string
		exDate, payDate, createdAt int64
	)

	err := row.Scan(
		&e.ID,
		&e.OwnerID,
		&e.Symbol,
		&e.CompanyName,
		&e.Shares,
		&e.DividendPerShare,
		&e.TotalAmount,
		&exDate,
		&payDate,
		&frequency,
		&e.Year,
		&e.Month,
		&e.Quarter,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	e.ExDividendDate = time.Unix(exDate, 0).UTC()
	e.PaymentDate = time.Unix(payDate, 0).UTC()
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	e.PayoutFrequency = domain.ParseFrequency(frequency)
	return &e, nil
}
