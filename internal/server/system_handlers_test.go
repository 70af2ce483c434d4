package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambutler/wheeltrack/internal/database"
)

func TestHandleSystemHealth(t *testing.T) {
	dir := t.TempDir()

	ledger, err := database.New(database.Config{
		Path:    filepath.Join(dir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	require.NoError(t, err)
	defer ledger.Close()

	h := NewSystemHandlers(zerolog.New(nil).Level(zerolog.Disabled), dir, ledger, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
	rec := httptest.NewRecorder()
	h.HandleSystemHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response SystemHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "ok", response.Databases["ledger"])
	assert.GreaterOrEqual(t, response.UptimeSeconds, int64(0))
	assert.Greater(t, response.MemoryPercent, 0.0)
}
