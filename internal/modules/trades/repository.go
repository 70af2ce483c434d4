// Package trades provides the append-only trade ledger.
package trades

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sambutler/wheeltrack/internal/domain"
)

// Repository handles trade ledger database operations. The ledger is
// append-only: no update or delete path exists.
type Repository struct {
	ledgerDB *sql.DB // ledger.db - trades table
	log      zerolog.Logger
}

// tradesColumns is the list of columns for the trades table.
// Used to avoid SELECT * which can break when schema changes.
// Column order must match scanTrade() expectations.
const tradesColumns = `id, date, ticker, trade_type, quantity, price, option_type, strike, expiration, fx_rate, created_at`

// NewRepository creates a new trade ledger repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "trades").Logger(),
	}
}

// Append validates and inserts a new trade, returning its assigned id.
func (r *Repository) Append(trade domain.Trade) (string, error) {
	trade.Normalize()
	if err := trade.Validate(); err != nil {
		return "", fmt.Errorf("failed to append trade: %w", err)
	}

	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	if trade.CreatedAt == 0 {
		trade.CreatedAt = time.Now().Unix()
	}

	query := `
		INSERT INTO trades
		(id, date, ticker, trade_type, quantity, price, option_type, strike, expiration, fx_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var strike *string
	if trade.Strike != nil {
		s := trade.Strike.String()
		strike = &s
	}

	_, err := r.ledgerDB.Exec(query,
		trade.ID,
		trade.Date,
		trade.Ticker,
		string(trade.Type),
		trade.Quantity,
		trade.Price.String(),
		trade.OptionType,
		strike,
		trade.Expiration,
		trade.FxRate.String(),
		trade.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to append trade: %w", err)
	}

	r.log.Info().
		Str("ticker", trade.Ticker).
		Str("trade_type", string(trade.Type)).
		Int64("quantity", trade.Quantity).
		Str("price", trade.Price.String()).
		Msg("Trade appended")

	return trade.ID, nil
}

// ListAll returns every trade ordered by date ascending, with insertion order
// (created_at, then rowid) breaking same-day ties. This ordering is the
// replay order the engine depends on.
func (r *Repository) ListAll() ([]domain.Trade, error) {
	query := `
		SELECT ` + tradesColumns + ` FROM trades
		ORDER BY date ASC, created_at ASC, rowid ASC
	`

	rows, err := r.ledgerDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// ListByTicker returns one ticker's trades in replay order.
func (r *Repository) ListByTicker(ticker string) ([]domain.Trade, error) {
	query := `
		SELECT ` + tradesColumns + ` FROM trades
		WHERE ticker = ?
		ORDER BY date ASC, created_at ASC, rowid ASC
	`

	rows, err := r.ledgerDB.Query(query, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades for %s: %w", ticker, err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// Tickers returns the distinct tickers present in the ledger.
func (r *Repository) Tickers() ([]string, error) {
	rows, err := r.ledgerDB.Query("SELECT DISTINCT ticker FROM trades ORDER BY ticker")
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickers: %w", err)
	}

	return tickers, nil
}

// Count returns the number of trades in the ledger.
func (r *Repository) Count() (int64, error) {
	var count int64
	if err := r.ledgerDB.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

// scanTrade scans a trade from sql.Rows
func scanTrade(rows *sql.Rows) (domain.Trade, error) {
	var t domain.Trade
	var tradeType, price, fxRate string
	var strike sql.NullString

	err := rows.Scan(
		&t.ID,
		&t.Date,
		&t.Ticker,
		&tradeType,
		&t.Quantity,
		&price,
		&t.OptionType,
		&strike,
		&t.Expiration,
		&fxRate,
		&t.CreatedAt,
	)
	if err != nil {
		return domain.Trade{}, err
	}

	t.Type = domain.TradeType(tradeType)

	t.Price, err = decimal.NewFromString(price)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("invalid price %q: %w", price, err)
	}

	t.FxRate, err = decimal.NewFromString(fxRate)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("invalid fx_rate %q: %w", fxRate, err)
	}

	if strike.Valid {
		s, err := decimal.NewFromString(strike.String)
		if err != nil {
			return domain.Trade{}, fmt.Errorf("invalid strike %q: %w", strike.String, err)
		}
		t.Strike = &s
	}

	return t, nil
}
