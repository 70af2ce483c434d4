package domain

import "errors"

// Sentinel errors for the two failure classes the tracker distinguishes:
// structural corruption (aborts the computation) and missing market data
// (degrades per-figure, never silently rendered as zero).
var (
	// ErrUnknownTradeType indicates a ledger row whose trade_type is not one
	// of the six recognized values. Processing must abort rather than skip the
	// row - skipping would corrupt running totals.
	ErrUnknownTradeType = errors.New("unknown trade type")

	// ErrOutOfOrderTrades indicates the ledger returned trades out of date
	// order. Replay depends on chronological input.
	ErrOutOfOrderTrades = errors.New("trades out of chronological order")

	// ErrPriceDataUnavailable indicates required price history (a portfolio
	// ticker or the benchmark) could not be obtained. Position data still
	// renders; chart generation is skipped and reported.
	ErrPriceDataUnavailable = errors.New("price data unavailable")

	// ErrRateUnavailable indicates the currency rate service failed. Display
	// degrades to USD-only with AUD figures marked unavailable.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)
