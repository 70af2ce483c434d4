// Package domain contains the core types of the wheel-strategy tracker.
// The domain layer is pure: no infrastructure dependencies.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the calendar-date layout used throughout the tracker.
// Trades carry dates only, no time component.
const DateFormat = "2006-01-02"

// TradeType identifies the kind of trade recorded in the ledger.
type TradeType string

const (
	BuyStock  TradeType = "BUY_STOCK"
	SellStock TradeType = "SELL_STOCK"
	SellPut   TradeType = "SELL_PUT"
	SellCall  TradeType = "SELL_CALL"
	BuyPut    TradeType = "BUY_PUT"
	BuyCall   TradeType = "BUY_CALL"
)

// Valid reports whether t is one of the six recognized trade types.
func (t TradeType) Valid() bool {
	switch t {
	case BuyStock, SellStock, SellPut, SellCall, BuyPut, BuyCall:
		return true
	}
	return false
}

// IsOption reports whether t is an option premium trade.
func (t TradeType) IsOption() bool {
	switch t {
	case SellPut, SellCall, BuyPut, BuyCall:
		return true
	}
	return false
}

// Multiplier returns the contract multiplier applied to price*quantity:
// 100 for option trades (standard shares-per-contract convention), 1 for stock.
func (t TradeType) Multiplier() int64 {
	if t.IsOption() {
		return 100
	}
	return 1
}

// Trade is an immutable, append-only ledger entry. Trades for a ticker,
// ordered by date (created_at breaks same-day ties), fully determine that
// ticker's position state - positions are derived, never stored.
type Trade struct {
	ID         string           `json:"id"`
	Date       string           `json:"date"` // YYYY-MM-DD
	Ticker     string           `json:"ticker"`
	Type       TradeType        `json:"trade_type"`
	Quantity   int64            `json:"quantity"`
	Price      decimal.Decimal  `json:"price"`
	OptionType *string          `json:"option_type,omitempty"`
	Strike     *decimal.Decimal `json:"strike,omitempty"`
	Expiration *string          `json:"expiration,omitempty"`
	FxRate     decimal.Decimal  `json:"fx_rate"`
	CreatedAt  int64            `json:"created_at"`
}

// Normalize uppercases and trims the ticker symbol.
func (t *Trade) Normalize() {
	t.Ticker = strings.ToUpper(strings.TrimSpace(t.Ticker))
}

// Validate checks the trade is well formed before it enters the ledger.
func (t Trade) Validate() error {
	if t.Ticker == "" {
		return fmt.Errorf("ticker must not be empty")
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTradeType, string(t.Type))
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", t.Quantity)
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("price must be positive, got %s", t.Price)
	}
	if _, err := time.Parse(DateFormat, t.Date); err != nil {
		return fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", t.Date, err)
	}
	return nil
}
