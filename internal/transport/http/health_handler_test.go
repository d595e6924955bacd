package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causelist/internal/config"
	"causelist/internal/services"
)

func TestHealthEndpoints(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	paths := &config.Paths{OutputDir: t.TempDir()}
	svc := services.NewHealthService("1.0.0-test", paths, nil, nil, nil, logger)
	handler := NewHealthHandler(svc, logger)

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var status services.HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, "ok", status.Status)
		assert.Equal(t, "1.0.0-test", status.Version)
	})

	t.Run("liveness", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.LivenessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health/live", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "alive")
	})

	t.Run("version", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Version(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var info map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
		assert.Equal(t, "1.0.0-test", info["version"])
	})

	t.Run("stats", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.SystemStats(rec, httptest.NewRequest(http.MethodGet, "/api/health/stats", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var stats services.SystemStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, 0, stats.TotalRecords)
	})
}
