package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 2*time.Hour, cfg.Server.ScrapeTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 10, cfg.Scraper.MaxCaptchaAttempts)
	assert.True(t, cfg.Scraper.Headless)
	assert.Equal(t, "eng", cfg.Scraper.TesseractLang)
	assert.Contains(t, cfg.Scraper.PortalURL, "ecourts.gov.in")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CAUSELIST_SERVER_PORT", "9090")
	t.Setenv("CAUSELIST_SCRAPER_MAX_CAPTCHA_ATTEMPTS", "3")
	t.Setenv("CAUSELIST_SCRAPER_HEADLESS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Scraper.MaxCaptchaAttempts)
	assert.False(t, cfg.Scraper.Headless)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 3000
scraper:
  max_captcha_attempts: 7
  portal_url: "https://example.test/causelist"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	t.Setenv("CAUSELIST_CONFIG_FILE", configPath)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Scraper.MaxCaptchaAttempts)
	assert.Equal(t, "https://example.test/causelist", cfg.Scraper.PortalURL)
}

func TestEnvTakesPrecedenceOverFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 3000\n"), 0o644))
	t.Setenv("CAUSELIST_CONFIG_FILE", configPath)
	t.Setenv("CAUSELIST_SERVER_PORT", "4000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"zero captcha attempts", func(c *Config) { c.Scraper.MaxCaptchaAttempts = 0 }},
		{"empty portal url", func(c *Config) { c.Scraper.PortalURL = "" }},
		{"bad logging output", func(c *Config) { c.Logging.Output = "syslog" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestCourtDir(t *testing.T) {
	p := &Paths{OutputDir: filepath.Join("out")}
	got := p.CourtDir("Karnataka", "Bengaluru", "City Civil Court", "Court No 1")
	want := filepath.Join("out", "Karnataka", "Bengaluru", "City Civil Court", "Court No 1")
	assert.Equal(t, want, got)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	p := &Paths{
		DataDir:   filepath.Join(dir, "data"),
		OutputDir: filepath.Join(dir, "data", "causelists"),
		LogsDir:   filepath.Join(dir, "logs"),
	}
	require.NoError(t, p.EnsureDirectories())

	for _, d := range []string{p.DataDir, p.OutputDir, p.LogsDir} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.pdf")
	require.NoError(t, os.WriteFile(file, []byte("%PDF"), 0o644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing.pdf")))
	assert.False(t, FileExists(dir))
}
