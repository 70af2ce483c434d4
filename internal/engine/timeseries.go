package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sambutler/wheeltrack/internal/domain"
)

// Gap records a date on which an open ticker had no close price. The value
// for that date carries the last known close instead, so gaps never silently
// understate the series - callers can surface them.
type Gap struct {
	Date   string `json:"date"`
	Ticker string `json:"ticker"`
}

// Series is the daily portfolio-value series aligned with its benchmark.
// The benchmark is normalized to start at the portfolio's first value, so the
// two lines share a scale.
type Series struct {
	Dates     []string  `json:"dates"`
	Portfolio []float64 `json:"portfolio"`
	Benchmark []float64 `json:"benchmark"`
	Gaps      []Gap     `json:"gaps,omitempty"`
}

// IsEmpty reports whether the series holds no points.
func (s *Series) IsEmpty() bool { return len(s.Dates) == 0 }

// BuildSeries replays the full cross-ticker trade log day by day over the
// benchmark's trading calendar and values the portfolio at each close:
//
//	value(date) = cash + sum over open tickers of shares * close(ticker, date)
//
// It is the same accounting rule as Replay applied incrementally - the final
// point reconciles exactly with the summed realized+unrealized totals of the
// per-ticker replays when valued at the same closes.
//
// An empty trade log returns an empty series and no error. A missing or empty
// benchmark table returns ErrPriceDataUnavailable.
func BuildSeries(trades []domain.Trade, prices, benchmark *domain.PriceTable) (*Series, error) {
	if len(trades) == 0 {
		return &Series{}, nil
	}
	if benchmark == nil || benchmark.IsEmpty() {
		return nil, fmt.Errorf("%w: no benchmark history", domain.ErrPriceDataUnavailable)
	}
	if prices == nil {
		return nil, fmt.Errorf("%w: no portfolio price history", domain.ErrPriceDataUnavailable)
	}

	start := trades[0].Date

	// The benchmark's dates define the trading calendar.
	var dates []string
	for _, d := range benchmark.Dates() {
		if d >= start {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: benchmark history empty from %s", domain.ErrPriceDataUnavailable, start)
	}

	series := &Series{}
	cash := decimal.Zero
	shares := make(map[string]int64)
	next := 0 // index of the first unapplied trade

	for _, day := range dates {
		// Apply every not-yet-applied trade dated up to and including this
		// calendar day, in stored order. Trades falling on non-trading days
		// (weekends, holidays) are picked up by the next trading day rather
		// than dropped.
		for next < len(trades) && trades[next].Date <= day {
			t := trades[next]
			if t.Date < trades[0].Date {
				return nil, fmt.Errorf("%w: trade on %s before log start %s",
					domain.ErrOutOfOrderTrades, t.Date, trades[0].Date)
			}
			sharesDelta, cashDelta, err := Deltas(t)
			if err != nil {
				return nil, err
			}
			shares[t.Ticker] += sharesDelta
			cash = cash.Add(cashDelta)
			next++
		}

		// Valuation happens after all same-day trades are applied.
		value := cash
		for ticker, count := range shares {
			if count == 0 {
				continue
			}
			close, ok := prices.Close(ticker, day)
			if !ok {
				series.Gaps = append(series.Gaps, Gap{Date: day, Ticker: ticker})
				close, ok = prices.LastCloseOnOrBefore(ticker, day)
				if !ok {
					// No close at all yet for this ticker; its market value
					// cannot be carried. The gap entry above surfaces it.
					continue
				}
			}
			value = value.Add(decimal.NewFromFloat(close).Mul(decimal.NewFromInt(count)))
		}

		series.Dates = append(series.Dates, day)
		series.Portfolio = append(series.Portfolio, value.InexactFloat64())
	}

	// Benchmark normalized to start at the portfolio's first recorded value.
	first, ok := benchmark.Close(benchmarkTicker(benchmark), series.Dates[0])
	if !ok || first == 0 {
		return nil, fmt.Errorf("%w: benchmark close missing on %s", domain.ErrPriceDataUnavailable, series.Dates[0])
	}
	base := series.Portfolio[0]
	for _, day := range series.Dates {
		close, ok := benchmark.Close(benchmarkTicker(benchmark), day)
		if !ok {
			close, _ = benchmark.LastCloseOnOrBefore(benchmarkTicker(benchmark), day)
		}
		series.Benchmark = append(series.Benchmark, close/first*base)
	}

	return series, nil
}

// benchmarkTicker returns the single symbol a benchmark table is keyed by.
func benchmarkTicker(t *domain.PriceTable) string {
	tickers := t.Tickers()
	if len(tickers) == 0 {
		return ""
	}
	return tickers[0]
}
