package exchangerate

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambutler/wheeltrack/internal/clientdata"
	"github.com/sambutler/wheeltrack/internal/domain"
)

func testCacheRepo(t *testing.T) *clientdata.Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, table := range []string{"exchangerate", "exchangerate_historical"} {
		_, err = db.Exec("CREATE TABLE " + table + " (pair TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL)")
		require.NoError(t, err)
	}

	return clientdata.NewRepository(db)
}

func TestSpotRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"base":"USD","rates":{"AUD":1.52,"EUR":0.92}}`)
	}))
	defer server.Close()

	c := NewClient(nil, zerolog.New(nil).Level(zerolog.Disabled))
	c.spotBaseURL = server.URL

	rate, err := c.SpotRate("USD", "AUD")
	require.NoError(t, err)
	assert.Equal(t, "1.52", rate.String())
}

func TestSpotRate_SamePairIsOne(t *testing.T) {
	c := NewClient(nil, zerolog.New(nil).Level(zerolog.Disabled))

	rate, err := c.SpotRate("USD", "USD")
	require.NoError(t, err)
	assert.Equal(t, "1", rate.String())
}

func TestSpotRate_FailureIsRateUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(nil, zerolog.New(nil).Level(zerolog.Disabled))
	c.spotBaseURL = server.URL

	_, err := c.SpotRate("USD", "AUD")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateUnavailable)
}

func TestSpotRate_StaleCacheFallback(t *testing.T) {
	repo := testCacheRepo(t)

	// Seed an already-expired cache entry
	require.NoError(t, repo.Store("exchangerate", "USD:AUD", map[string]float64{"rate": 1.48}, -1))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(repo, zerolog.New(nil).Level(zerolog.Disabled))
	c.spotBaseURL = server.URL

	rate, err := c.SpotRate("USD", "AUD")
	require.NoError(t, err, "stale data is better than no data")
	assert.Equal(t, "1.48", rate.String())
}

func TestSpotRate_CachesResult(t *testing.T) {
	repo := testCacheRepo(t)
	calls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"rates":{"AUD":1.52}}`)
	}))
	defer server.Close()

	c := NewClient(repo, zerolog.New(nil).Level(zerolog.Disabled))
	c.spotBaseURL = server.URL

	_, err := c.SpotRate("USD", "AUD")
	require.NoError(t, err)
	_, err = c.SpotRate("USD", "AUD")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestHistoricalRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "2024-03-15")
		fmt.Fprint(w, `{"base":"USD","date":"2024-03-15","rates":{"AUD":1.515}}`)
	}))
	defer server.Close()

	c := NewClient(nil, zerolog.New(nil).Level(zerolog.Disabled))
	c.historicalBaseURL = server.URL

	rate, err := c.HistoricalRate("USD", "AUD", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "1.515", rate.String())
}
