// Package summary computes the portfolio summary view: every ticker's replayed
// position valued at current quotes, with AUD companions at the current spot
// rate.
package summary

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sambutler/wheeltrack/internal/domain"
	"github.com/sambutler/wheeltrack/internal/engine"
)

// PortfolioSummary is the full summary response. FxRate is nil when the rate
// service is down; positions then carry USD figures only.
type PortfolioSummary struct {
	Positions []engine.TickerSummary `json:"positions"`
	FxRate    *decimal.Decimal       `json:"fx_rate"`

	// RateUnavailable flags the USD-only degraded mode.
	RateUnavailable bool `json:"rate_unavailable,omitempty"`

	// PartialPrices is set when at least one open position had no quote.
	PartialPrices bool `json:"partial_prices,omitempty"`

	TradeCount int `json:"trade_count"`
}

// Service computes portfolio summaries from the ledger
type Service struct {
	log      zerolog.Logger
	tradeLog domain.TradeLog
	prices   domain.PriceSource
	rates    domain.RateSource
	baseCcy  string
	quoteCcy string
}

// NewService creates a new summary service
func NewService(
	tradeLog domain.TradeLog,
	prices domain.PriceSource,
	rates domain.RateSource,
	baseCurrency string,
	quoteCurrency string,
	log zerolog.Logger,
) *Service {
	return &Service{
		tradeLog: tradeLog,
		prices:   prices,
		rates:    rates,
		baseCcy:  baseCurrency,
		quoteCcy: quoteCurrency,
		log:      log.With().Str("service", "summary").Logger(),
	}
}

// Compute replays the full ledger into per-ticker positions and values them.
// A missing quote or rate degrades the affected figures to "unavailable"; an
// unknown trade type aborts the whole computation, because skipping a row
// would misstate every total after it.
func (s *Service) Compute() (*PortfolioSummary, error) {
	allTrades, err := s.tradeLog.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load trade log: %w", err)
	}

	result := &PortfolioSummary{
		Positions:  []engine.TickerSummary{},
		TradeCount: len(allTrades),
	}

	fx := s.spotRate(result)

	order, byTicker := engine.GroupByTicker(allTrades)
	for _, ticker := range order {
		pos, err := engine.Replay(byTicker[ticker])
		if err != nil {
			return nil, fmt.Errorf("failed to replay %s: %w", ticker, err)
		}

		var latestClose *float64
		if pos.Open() {
			close, err := s.prices.CurrentClose(ticker)
			if err != nil {
				if !errors.Is(err, domain.ErrPriceDataUnavailable) {
					return nil, err
				}
				s.log.Warn().Err(err).Str("ticker", ticker).Msg("No quote, figures degraded")
				result.PartialPrices = true
			} else {
				latestClose = &close
			}
		}

		result.Positions = append(result.Positions, engine.Summarize(pos, latestClose, fx))
	}

	return result, nil
}

// spotRate fetches the current conversion rate, recording degraded mode on
// failure instead of propagating it.
func (s *Service) spotRate(result *PortfolioSummary) *decimal.Decimal {
	rate, err := s.rates.SpotRate(s.baseCcy, s.quoteCcy)
	if err != nil {
		s.log.Warn().Err(err).Msg("Spot rate unavailable, summary degrades to USD only")
		result.RateUnavailable = true
		return nil
	}

	result.FxRate = &rate
	return &rate
}
