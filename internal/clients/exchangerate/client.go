// Package exchangerate provides currency exchange rate fetching and caching functionality.
package exchangerate

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sambutler/wheeltrack/internal/clientdata"
	"github.com/sambutler/wheeltrack/internal/domain"
)

// Client fetches USD->AUD (and other pair) rates.
// Spot rates come from exchangerate-api.com, historical rates from
// frankfurter.app (ECB reference rates, keyless).
type Client struct {
	spotBaseURL       string
	historicalBaseURL string
	client            *http.Client
	log               zerolog.Logger
	cacheRepo         *clientdata.Repository
}

// NewClient creates a new exchange rate client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		spotBaseURL:       "https://api.exchangerate-api.com/v4/latest",
		historicalBaseURL: "https://api.frankfurter.app",
		client:            &http.Client{Timeout: 10 * time.Second},
		log:               log.With().Str("client", "exchangerate").Logger(),
		cacheRepo:         cacheRepo,
	}
}

// cachedRate is the structure stored in the cache
type cachedRate struct {
	Rate float64 `msgpack:"rate"`
}

// SpotRate fetches the current conversion rate with cache.
// If the API fails, returns stale cached data if available (stale data > no data).
func (c *Client) SpotRate(base, quote string) (decimal.Decimal, error) {
	if base == quote {
		return decimal.NewFromInt(1), nil
	}

	cacheKey := base + ":" + quote

	if rate, ok := c.fromCache("exchangerate", cacheKey, true); ok {
		return rate, nil
	}

	url := fmt.Sprintf("%s/%s", c.spotBaseURL, base)
	c.log.Debug().Str("url", url).Msg("Fetching spot rates")

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := c.fetchJSON(url, &result); err != nil {
		if rate, ok := c.fromCache("exchangerate", cacheKey, false); ok {
			c.log.Warn().Err(err).Str("pair", cacheKey).Msg("API failed, using stale cached rate")
			return rate, nil
		}
		return decimal.Zero, fmt.Errorf("%w: %v", domain.ErrRateUnavailable, err)
	}

	raw, exists := result.Rates[quote]
	if !exists {
		if rate, ok := c.fromCache("exchangerate", cacheKey, false); ok {
			c.log.Warn().Str("pair", cacheKey).Msg("Rate not in API response, using stale cached rate")
			return rate, nil
		}
		return decimal.Zero, fmt.Errorf("%w: no rate for %s->%s", domain.ErrRateUnavailable, base, quote)
	}

	c.toCache("exchangerate", cacheKey, raw, clientdata.TTLExchangeRate)

	c.log.Info().
		Str("from", base).
		Str("to", quote).
		Float64("rate", raw).
		Msg("Fetched spot rate")

	return decimal.NewFromFloat(raw), nil
}

// HistoricalRate fetches the conversion rate on a specific date (YYYY-MM-DD).
// Past rates never change, so cache hits are effectively permanent.
func (c *Client) HistoricalRate(base, quote, date string) (decimal.Decimal, error) {
	if base == quote {
		return decimal.NewFromInt(1), nil
	}

	cacheKey := base + ":" + quote + ":" + date

	if rate, ok := c.fromCache("exchangerate_historical", cacheKey, true); ok {
		return rate, nil
	}

	url := fmt.Sprintf("%s/%s?from=%s&to=%s", c.historicalBaseURL, date, base, quote)
	c.log.Debug().Str("url", url).Msg("Fetching historical rate")

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := c.fetchJSON(url, &result); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", domain.ErrRateUnavailable, err)
	}

	raw, exists := result.Rates[quote]
	if !exists {
		return decimal.Zero, fmt.Errorf("%w: no %s rate for %s->%s", domain.ErrRateUnavailable, date, base, quote)
	}

	c.toCache("exchangerate_historical", cacheKey, raw, clientdata.TTLHistoricalRate)

	return decimal.NewFromFloat(raw), nil
}

// fetchJSON performs a GET and decodes the JSON body.
func (c *Client) fetchJSON(url string, out interface{}) error {
	resp, err := c.client.Get(url)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// fromCache retrieves a cached rate; freshOnly=false accepts expired entries.
func (c *Client) fromCache(table, key string, freshOnly bool) (decimal.Decimal, bool) {
	if c.cacheRepo == nil {
		return decimal.Zero, false
	}

	var cached cachedRate
	var found bool
	var err error
	if freshOnly {
		found, err = c.cacheRepo.GetIfFresh(table, key, &cached)
	} else {
		found, err = c.cacheRepo.Get(table, key, &cached)
	}
	if err != nil || !found {
		return decimal.Zero, false
	}

	c.log.Debug().Str("pair", key).Float64("rate", cached.Rate).Msg("Cache hit")
	return decimal.NewFromFloat(cached.Rate), true
}

func (c *Client) toCache(table, key string, rate float64, ttl time.Duration) {
	if c.cacheRepo == nil {
		return
	}
	if err := c.cacheRepo.Store(table, key, cachedRate{Rate: rate}, ttl); err != nil {
		c.log.Warn().Err(err).Str("pair", key).Msg("Failed to cache exchange rate")
	}
}
