package engine

import (
	"github.com/shopspring/decimal"
)

// TickerSummary is the per-ticker line of the portfolio summary. Monetary
// figures are pointers: nil means "unavailable" (missing price or rate) or
// "not applicable" (no cost basis on a closed position, no realized figure on
// an open one). Callers must never render a nil as zero.
type TickerSummary struct {
	Ticker string `json:"ticker"`
	Shares int64  `json:"shares"`
	Open   bool   `json:"open"`

	CostBasisUSD  *decimal.Decimal `json:"cost_basis_usd"`
	CostBasisAUD  *decimal.Decimal `json:"cost_basis_aud"`
	UnrealizedUSD *decimal.Decimal `json:"unrealized_usd"`
	UnrealizedAUD *decimal.Decimal `json:"unrealized_aud"`
	RealizedUSD   *decimal.Decimal `json:"realized_usd"`
	RealizedAUD   *decimal.Decimal `json:"realized_aud"`

	// PriceUnavailable is set when an open position has no current quote, so
	// the unrealized figures could not be computed.
	PriceUnavailable bool `json:"price_unavailable,omitempty"`
}

// Summarize values a replayed position. latestClose is the current quote for
// the ticker (nil when the price fetch failed), fx the current USD->AUD spot
// rate (nil when the rate service is down - AUD companions are then omitted).
//
// AUD companions use today's rate uniformly, even though each historical trade
// stored its own fx_rate snapshot. That approximation is deliberate, inherited
// source behavior.
func Summarize(pos Position, latestClose *float64, fx *decimal.Decimal) TickerSummary {
	s := TickerSummary{
		Ticker: pos.Ticker,
		Shares: pos.Shares,
		Open:   pos.Open(),
	}

	quote := func(usd decimal.Decimal) *decimal.Decimal {
		if fx == nil {
			return nil
		}
		aud := usd.Mul(*fx).Round(2)
		return &aud
	}

	if !pos.Open() {
		realized := pos.Cash.Round(2)
		s.RealizedUSD = &realized
		s.RealizedAUD = quote(pos.Cash)
		return s
	}

	costBasis, _ := pos.CostBasis()
	rounded := costBasis.Round(2)
	s.CostBasisUSD = &rounded
	s.CostBasisAUD = quote(costBasis)

	if latestClose == nil {
		s.PriceUnavailable = true
		return s
	}

	unrealized := decimal.NewFromFloat(*latestClose).
		Sub(costBasis).
		Mul(decimal.NewFromInt(pos.Shares))
	roundedUnrealized := unrealized.Round(2)
	s.UnrealizedUSD = &roundedUnrealized
	s.UnrealizedAUD = quote(unrealized)

	return s
}
