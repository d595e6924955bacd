package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causelist/internal/config"
	"causelist/internal/files"
	"causelist/internal/scraper"
	"causelist/internal/services"
	ws "causelist/internal/websocket"
	"causelist/pkg/contracts"
)

// testApplication builds an Application without loading config from the
// environment or touching OpenTelemetry.
func testApplication(t *testing.T) *Application {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Server.Port = 0
	cfg.Server.ReadTimeout = 5 * time.Second
	cfg.Server.WriteTimeout = 5 * time.Second
	cfg.Paths.WebDir = dir
	cfg.Scraper.MaxCaptchaAttempts = 10
	cfg.Scraper.ExportRPS = 0.2

	paths := &config.Paths{
		DataDir:   dir,
		OutputDir: dir,
		LogsDir:   dir,
		WebDir:    dir,
	}

	hub := ws.NewHub(logger)
	fileMgr := files.NewManager(paths)
	engine := scraper.New(cfg.Scraper, paths.OutputDir, nil, logger)

	app := &Application{
		Config:           cfg,
		Paths:            paths,
		WebSocketHub:     hub,
		FileManager:      fileMgr,
		CauselistService: services.NewCauselistService(engine, hub, fileMgr, logger),
		Logger:           logger,
	}
	app.HealthService = services.NewHealthService(
		contracts.Version, paths, app.CauselistService, hub, fileMgr, logger)
	app.setupRouter()
	return app
}

func TestRouterHealthEndpoints(t *testing.T) {
	app := testApplication(t)

	for _, path := range []string{"/api/health", "/api/health/ready", "/api/health/live", "/api/version"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code, path)
		})
	}
}

func TestRouterIssuesClientCookie(t *testing.T) {
	app := testApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "id" {
			found = true
			assert.True(t, c.HttpOnly)
			assert.NotEmpty(t, c.Value)
		}
	}
	assert.True(t, found, "response must set the id cookie")
}

func TestRouterSubmitWithoutCookieGetsIdentity(t *testing.T) {
	// EnsureClientID issues an identity on first contact, so a POST
	// without a cookie is still attributed to a fresh client key. The
	// queue is not started here; the job stays pending.
	app := testApplication(t)

	body := `{"state":"Delhi","district":"New Delhi","complex":"Patiala House",` +
		`"court_name":"Court 3","date":"15-08-2026","case_type":"Civil"}`
	req := httptest.NewRequest(http.MethodPost, "/api/causelist", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
}

func TestRouterRequestIDHeader(t *testing.T) {
	app := testApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterUnknownAPIRoute(t *testing.T) {
	app := testApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nonsense", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
