// Package engine implements the position-and-valuation core: replaying the
// ordered trade log into per-ticker position state and building the daily
// portfolio-value series. Everything here is a pure function of its inputs -
// no I/O, no hidden state, safe to run concurrently per computation.
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sambutler/wheeltrack/internal/domain"
)

// Position is the derived state of one ticker after replaying its trades.
type Position struct {
	Ticker string
	Shares int64           // signed running total, stock trades only
	Cash   decimal.Decimal // signed running total of all cash flows
}

// Open reports whether the ticker currently holds shares.
func (p Position) Open() bool { return p.Shares != 0 }

// CostBasis returns the average net price per held share, -cash/shares.
// The second return is false for a closed position, where cost basis is
// undefined and Cash alone is the realized profit.
func (p Position) CostBasis() (decimal.Decimal, bool) {
	if p.Shares == 0 {
		return decimal.Zero, false
	}
	return p.Cash.Neg().Div(decimal.NewFromInt(p.Shares)), true
}

// Deltas returns the share and cash deltas a single trade applies.
// Option premium flows carry the 100-shares-per-contract multiplier.
//
//	BUY_STOCK            +qty   -price*qty
//	SELL_STOCK           -qty   +price*qty
//	SELL_PUT / SELL_CALL    0   +price*qty*100
//	BUY_PUT / BUY_CALL      0   -price*qty*100
func Deltas(t domain.Trade) (sharesDelta int64, cashDelta decimal.Decimal, err error) {
	gross := t.Price.
		Mul(decimal.NewFromInt(t.Quantity)).
		Mul(decimal.NewFromInt(t.Type.Multiplier()))

	switch t.Type {
	case domain.BuyStock:
		return t.Quantity, gross.Neg(), nil
	case domain.SellStock:
		return -t.Quantity, gross, nil
	case domain.SellPut, domain.SellCall:
		return 0, gross, nil
	case domain.BuyPut, domain.BuyCall:
		return 0, gross.Neg(), nil
	}

	return 0, decimal.Zero, fmt.Errorf("%w: %q", domain.ErrUnknownTradeType, string(t.Type))
}

// Replay folds an ordered single-ticker trade sequence into its final
// position. An unknown trade type aborts the whole replay - skipping a row
// would corrupt the running totals. Trades must be in date order.
func Replay(trades []domain.Trade) (Position, error) {
	pos := Position{Cash: decimal.Zero}
	prevDate := ""

	for _, t := range trades {
		if pos.Ticker == "" {
			pos.Ticker = t.Ticker
		}
		if t.Date < prevDate {
			return Position{}, fmt.Errorf("%w: %s trade on %s after %s",
				domain.ErrOutOfOrderTrades, t.Ticker, t.Date, prevDate)
		}
		prevDate = t.Date

		sharesDelta, cashDelta, err := Deltas(t)
		if err != nil {
			return Position{}, err
		}
		pos.Shares += sharesDelta
		pos.Cash = pos.Cash.Add(cashDelta)
	}

	return pos, nil
}

// GroupByTicker splits the cross-ticker log into per-ticker sequences,
// preserving stored order within each ticker. The returned ticker list is in
// first-seen order, which is the order the summary view presents positions.
func GroupByTicker(trades []domain.Trade) ([]string, map[string][]domain.Trade) {
	var order []string
	byTicker := make(map[string][]domain.Trade)

	for _, t := range trades {
		if _, seen := byTicker[t.Ticker]; !seen {
			order = append(order, t.Ticker)
		}
		byTicker[t.Ticker] = append(byTicker[t.Ticker], t)
	}

	return order, byTicker
}
