package domain

import "github.com/shopspring/decimal"

// RateSource provides currency conversion rates.
// Implementations must return ErrRateUnavailable (wrapped) when the upstream
// service cannot produce a rate, so callers can degrade to USD-only display.
type RateSource interface {
	// SpotRate returns the current base->quote conversion rate.
	SpotRate(base, quote string) (decimal.Decimal, error)

	// HistoricalRate returns the base->quote rate on a given date (YYYY-MM-DD).
	// Used to snapshot fx_rate at trade time.
	HistoricalRate(base, quote, date string) (decimal.Decimal, error)
}

// PriceSource provides market close prices.
// Implementations must return ErrPriceDataUnavailable (wrapped) when a quote
// or history cannot be obtained - callers mark the figure unavailable rather
// than defaulting it to zero.
type PriceSource interface {
	// CurrentClose returns the latest close for a ticker.
	CurrentClose(ticker string) (float64, error)

	// History returns daily closes for the tickers between start and end
	// dates inclusive (YYYY-MM-DD).
	History(tickers []string, start, end string) (*PriceTable, error)
}

// TradeLog is the append-only ledger the engine replays.
type TradeLog interface {
	// Append stores a new trade and returns its assigned id.
	Append(trade Trade) (string, error)

	// ListAll returns every trade ordered by date ascending, insertion order
	// breaking same-day ties.
	ListAll() ([]Trade, error)
}
