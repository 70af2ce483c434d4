package yahoo

import (
	"fmt"

	"github.com/rs/zerolog"
)

// TickerLister supplies the symbols whose quotes should be kept warm.
type TickerLister interface {
	Tickers() ([]string, error)
}

// WarmJob refreshes the cached current close for every ledger ticker plus the
// benchmark, so the first summary request of the day does not pay the fetch
// latency for each position.
type WarmJob struct {
	client    *Client
	tickers   TickerLister
	benchmark string
	log       zerolog.Logger
}

// NewWarmJob creates a new price cache warming job
func NewWarmJob(client *Client, tickers TickerLister, benchmark string, log zerolog.Logger) *WarmJob {
	return &WarmJob{
		client:    client,
		tickers:   tickers,
		benchmark: benchmark,
		log:       log.With().Str("job", "price_cache_warm").Logger(),
	}
}

// Name returns the job name
func (j *WarmJob) Name() string {
	return "price_cache_warm"
}

// Run fetches a fresh quote for each symbol. Individual failures are logged
// and skipped - a cold cache entry just means the next request fetches live.
func (j *WarmJob) Run() error {
	symbols, err := j.tickers.Tickers()
	if err != nil {
		return fmt.Errorf("failed to list tickers: %w", err)
	}
	if j.benchmark != "" {
		symbols = append(symbols, j.benchmark)
	}

	warmed := 0
	for _, symbol := range symbols {
		if _, err := j.client.CurrentClose(symbol); err != nil {
			j.log.Warn().Err(err).Str("ticker", symbol).Msg("Failed to warm quote")
			continue
		}
		warmed++
	}

	j.log.Info().Int("warmed", warmed).Int("total", len(symbols)).Msg("Price cache warmed")
	return nil
}
