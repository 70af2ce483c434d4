// Package yahoo fetches close prices from the Yahoo Finance v8 chart API.
package yahoo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/sambutler/wheeltrack/internal/clientdata"
	"github.com/sambutler/wheeltrack/internal/domain"
)

// Client fetches quotes and daily close history.
// Current closes and history windows are cached persistently; history is
// additionally memoized in memory so one render decodes each ticker at most
// once per hour.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
	histCache *gocache.Cache
}

// NewClient creates a new Yahoo price client.
// cacheRepo is optional - if nil, persistent caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://query2.finance.yahoo.com/v8/finance/chart",
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "yahoo").Logger(),
		cacheRepo: cacheRepo,
		histCache: gocache.New(time.Hour, 2*time.Hour),
	}
}

// chartResult is the subset of a v8 chart result we read.
type chartResult struct {
	Meta struct {
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		RegularMarketTime  int64   `json:"regularMarketTime"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  interface{}   `json:"error"`
	} `json:"chart"`
}

// cachedPrice is the structure stored in the persistent cache
type cachedPrice struct {
	Close float64 `msgpack:"close"`
}

// cachedHistory is a ticker's date->close window in the persistent cache,
// keyed by ticker:start:end so different windows never collide.
type cachedHistory struct {
	Closes map[string]float64 `msgpack:"closes"`
}

// CurrentClose returns the latest close for a ticker.
// Failures return ErrPriceDataUnavailable (wrapped) - callers mark the figure
// unavailable instead of defaulting to zero.
func (c *Client) CurrentClose(ticker string) (float64, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return 0, fmt.Errorf("%w: empty ticker", domain.ErrPriceDataUnavailable)
	}

	if c.cacheRepo != nil {
		var cached cachedPrice
		if found, err := c.cacheRepo.GetIfFresh("current_prices", ticker, &cached); err == nil && found {
			c.log.Debug().Str("ticker", ticker).Float64("close", cached.Close).Msg("Cache hit")
			return cached.Close, nil
		}
	}

	raw, err := c.fetchChart(ticker, "interval=1d&range=5d")
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrPriceDataUnavailable, ticker, err)
	}

	price := raw.Meta.RegularMarketPrice

	// Fallback: last non-zero close if meta is missing
	if price <= 0 && len(raw.Timestamp) > 0 && len(raw.Indicators.Quote) > 0 {
		closes := raw.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] > 0 {
				price = closes[i]
				break
			}
		}
	}

	if price <= 0 {
		return 0, fmt.Errorf("%w: no quote for %s", domain.ErrPriceDataUnavailable, ticker)
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("current_prices", ticker, cachedPrice{Close: price}, clientdata.TTLCurrentPrice); err != nil {
			c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache current price")
		}
	}

	c.log.Info().Str("ticker", ticker).Float64("close", price).Msg("Fetched quote")
	return price, nil
}

// History returns daily closes for the tickers between start and end dates
// inclusive. Each ticker is fetched separately; a ticker whose fetch fails
// fails the whole call, because a partial table silently understates the
// portfolio series.
func (c *Client) History(tickers []string, start, end string) (*domain.PriceTable, error) {
	table := domain.NewPriceTable()

	for _, ticker := range tickers {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		closes, err := c.tickerHistory(ticker, start, end)
		if err != nil {
			return nil, err
		}
		for date, close := range closes {
			table.AddClose(ticker, date, close)
		}
	}

	return table, nil
}

// tickerHistory fetches date->close for one ticker, memoized in memory and
// cached persistently for a trading day (the table only grows once per day).
func (c *Client) tickerHistory(ticker, start, end string) (map[string]float64, error) {
	cacheKey := ticker + ":" + start + ":" + end
	if cached, found := c.histCache.Get(cacheKey); found {
		return cached.(map[string]float64), nil
	}

	if c.cacheRepo != nil {
		var cached cachedHistory
		if found, err := c.cacheRepo.GetIfFresh("price_history", cacheKey, &cached); err == nil && found {
			c.log.Debug().Str("ticker", ticker).Int("days", len(cached.Closes)).Msg("History cache hit")
			c.histCache.Set(cacheKey, cached.Closes, gocache.DefaultExpiration)
			return cached.Closes, nil
		}
	}

	startTime, err := time.Parse(domain.DateFormat, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	endTime, err := time.Parse(domain.DateFormat, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	// End of day so the end date's close is included
	period2 := endTime.Add(24*time.Hour - time.Second)

	query := fmt.Sprintf("interval=1d&period1=%d&period2=%d", startTime.Unix(), period2.Unix())
	raw, err := c.fetchChart(ticker, query)
	if err != nil {
		return nil, fmt.Errorf("%w: history for %s: %v", domain.ErrPriceDataUnavailable, ticker, err)
	}

	if len(raw.Indicators.Quote) == 0 || len(raw.Indicators.Quote[0].Close) != len(raw.Timestamp) {
		return nil, fmt.Errorf("%w: malformed history for %s", domain.ErrPriceDataUnavailable, ticker)
	}

	closes := make(map[string]float64, len(raw.Timestamp))
	for i, ts := range raw.Timestamp {
		close := raw.Indicators.Quote[0].Close[i]
		if close <= 0 {
			// Yahoo emits zero/null closes on some half-days; leave a gap
			// rather than recording a bogus price.
			continue
		}
		date := time.Unix(ts, 0).UTC().Format(domain.DateFormat)
		closes[date] = close
	}

	if len(closes) == 0 {
		return nil, fmt.Errorf("%w: empty history for %s", domain.ErrPriceDataUnavailable, ticker)
	}

	c.histCache.Set(cacheKey, closes, gocache.DefaultExpiration)

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("price_history", cacheKey, cachedHistory{Closes: closes}, clientdata.TTLPriceHistory); err != nil {
			c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache price history")
		}
	}

	c.log.Info().
		Str("ticker", ticker).
		Int("days", len(closes)).
		Msg("Fetched price history")

	return closes, nil
}

// fetchChart calls the v8 chart endpoint and unwraps the single result.
func (c *Client) fetchChart(ticker, query string) (*chartResult, error) {
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(ticker), query)

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "wheeltrack/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo http %d", resp.StatusCode)
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, fmt.Errorf("no result for %s", ticker)
	}

	return &parsed.Chart.Result[0], nil
}
