// Package performance builds the portfolio-vs-benchmark time series, derives
// summary statistics from it, and renders the performance chart.
package performance

import (
	"fmt"
	"math"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/sambutler/wheeltrack/internal/domain"
	"github.com/sambutler/wheeltrack/internal/engine"
)

// smaPeriod is the moving-average window drawn over the portfolio line.
const smaPeriod = 20

// tradingDaysPerYear annualizes daily volatility.
const tradingDaysPerYear = 252

// Stats summarizes the series. Volatilities are annualized standard
// deviations of daily returns.
type Stats struct {
	PortfolioVolatility float64 `json:"portfolio_volatility"`
	BenchmarkVolatility float64 `json:"benchmark_volatility"`
	Correlation         float64 `json:"correlation"`
	TotalReturnPct      float64 `json:"total_return_pct"`
	BenchmarkReturnPct  float64 `json:"benchmark_return_pct"`
}

// Performance is the full performance response. Stats and SMA are nil when
// the series is too short to derive them. The first smaPeriod-1 SMA entries
// are zero (warm-up window); SMAOffset marks where real values begin.
type Performance struct {
	Series    *engine.Series `json:"series"`
	Stats     *Stats         `json:"stats,omitempty"`
	SMA       []float64      `json:"sma,omitempty"`
	SMAOffset int            `json:"sma_offset,omitempty"`
}

// Service computes portfolio performance series and statistics
type Service struct {
	log             zerolog.Logger
	tradeLog        domain.TradeLog
	prices          domain.PriceSource
	benchmarkSymbol string
	now             func() time.Time
}

// NewService creates a new performance service
func NewService(
	tradeLog domain.TradeLog,
	prices domain.PriceSource,
	benchmarkSymbol string,
	log zerolog.Logger,
) *Service {
	return &Service{
		tradeLog:        tradeLog,
		prices:          prices,
		benchmarkSymbol: benchmarkSymbol,
		now:             time.Now,
		log:             log.With().Str("service", "performance").Logger(),
	}
}

// Compute builds the daily portfolio series against the benchmark from the
// first trade date through today. Price history failures surface as
// ErrPriceDataUnavailable so callers can skip the chart instead of rendering
// a wrong one.
func (s *Service) Compute() (*Performance, error) {
	trades, err := s.tradeLog.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load trade log: %w", err)
	}
	if len(trades) == 0 {
		return &Performance{Series: &engine.Series{}}, nil
	}

	start := trades[0].Date
	end := s.now().UTC().Format(domain.DateFormat)

	benchmark, err := s.prices.History([]string{s.benchmarkSymbol}, start, end)
	if err != nil {
		return nil, fmt.Errorf("benchmark history: %w", err)
	}

	order, _ := engine.GroupByTicker(trades)
	prices, err := s.prices.History(order, start, end)
	if err != nil {
		return nil, fmt.Errorf("portfolio price history: %w", err)
	}

	series, err := engine.BuildSeries(trades, prices, benchmark)
	if err != nil {
		return nil, err
	}

	result := &Performance{Series: series}
	result.Stats = deriveStats(series)

	if len(series.Portfolio) >= smaPeriod {
		result.SMA = talib.Sma(series.Portfolio, smaPeriod)
		result.SMAOffset = smaPeriod - 1
	}

	if len(series.Gaps) > 0 {
		s.log.Warn().Int("gaps", len(series.Gaps)).Msg("Price gaps in series, last known closes carried")
	}

	return result, nil
}

// deriveStats computes volatility and correlation from the series. Returns
// nil when there are too few points for daily returns to mean anything.
func deriveStats(series *engine.Series) *Stats {
	portfolioReturns := dailyReturns(series.Portfolio)
	benchmarkReturns := dailyReturns(series.Benchmark)
	if len(portfolioReturns) < 2 || len(portfolioReturns) != len(benchmarkReturns) {
		return nil
	}

	annualize := math.Sqrt(tradingDaysPerYear)
	stats := &Stats{
		PortfolioVolatility: stat.StdDev(portfolioReturns, nil) * annualize,
		BenchmarkVolatility: stat.StdDev(benchmarkReturns, nil) * annualize,
		Correlation:         stat.Correlation(portfolioReturns, benchmarkReturns, nil),
	}

	if first := series.Portfolio[0]; first != 0 {
		last := series.Portfolio[len(series.Portfolio)-1]
		stats.TotalReturnPct = (last/first - 1) * 100
	}
	if first := series.Benchmark[0]; first != 0 {
		last := series.Benchmark[len(series.Benchmark)-1]
		stats.BenchmarkReturnPct = (last/first - 1) * 100
	}

	return stats
}

// dailyReturns converts a value series into day-over-day fractional returns.
// Days following a zero value produce a zero return, not a division blowup.
func dailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}
	return returns
}
