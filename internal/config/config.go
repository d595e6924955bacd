package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Scraper   ScraperConfig   `yaml:"scraper" envconfig:"SCRAPER"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	ScrapeTimeout   time.Duration `yaml:"scrape_timeout" envconfig:"SCRAPE_TIMEOUT" default:"2h"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ExecutableDir string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	OutputDir     string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"data/causelists"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
	WebDir        string `yaml:"web_dir" envconfig:"WEB_DIR" default:"web"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// ScraperConfig contains browser and portal interaction configuration
type ScraperConfig struct {
	PortalURL          string        `yaml:"portal_url" envconfig:"PORTAL_URL" default:"https://services.ecourts.gov.in/ecourtindia_v6/?p=cause_list/"`
	Headless           bool          `yaml:"headless" envconfig:"HEADLESS" default:"true"`
	MaxCaptchaAttempts int           `yaml:"max_captcha_attempts" envconfig:"MAX_CAPTCHA_ATTEMPTS" default:"10"`
	SettleDelay        time.Duration `yaml:"settle_delay" envconfig:"SETTLE_DELAY" default:"2s"`
	PageDelay          time.Duration `yaml:"page_delay" envconfig:"PAGE_DELAY" default:"5s"`
	ExportRPS          float64       `yaml:"export_rps" envconfig:"EXPORT_RPS" default:"0.2"`
	TesseractLang      string        `yaml:"tesseract_lang" envconfig:"TESSERACT_LANG" default:"eng"`
}

// Load loads configuration from environment variables and config file.
// Environment variables (CAUSELIST_ prefix) take precedence over the
// YAML file, which takes precedence over struct defaults.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CAUSELIST", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config. Explicitly set
// environment variables win; otherwise file values override the struct
// defaults envconfig already filled in.
func mergeConfigs(fileConfig, envConfig Config) Config {
	merged := envConfig

	if !envSet("SERVER_PORT") && fileConfig.Server.Port != 0 {
		merged.Server.Port = fileConfig.Server.Port
	}
	if !envSet("SERVER_READ_TIMEOUT") && fileConfig.Server.ReadTimeout != 0 {
		merged.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if !envSet("SERVER_SCRAPE_TIMEOUT") && fileConfig.Server.ScrapeTimeout != 0 {
		merged.Server.ScrapeTimeout = fileConfig.Server.ScrapeTimeout
	}
	if !envSet("LOGGING_LEVEL") && fileConfig.Logging.Level != "" {
		merged.Logging.Level = fileConfig.Logging.Level
	}
	if !envSet("LOGGING_OUTPUT") && fileConfig.Logging.Output != "" {
		merged.Logging.Output = fileConfig.Logging.Output
	}
	if !envSet("PATHS_OUTPUT_DIR") && fileConfig.Paths.OutputDir != "" {
		merged.Paths.OutputDir = fileConfig.Paths.OutputDir
	}
	if !envSet("SCRAPER_PORTAL_URL") && fileConfig.Scraper.PortalURL != "" {
		merged.Scraper.PortalURL = fileConfig.Scraper.PortalURL
	}
	if !envSet("SCRAPER_MAX_CAPTCHA_ATTEMPTS") && fileConfig.Scraper.MaxCaptchaAttempts != 0 {
		merged.Scraper.MaxCaptchaAttempts = fileConfig.Scraper.MaxCaptchaAttempts
	}
	if !envSet("SCRAPER_SETTLE_DELAY") && fileConfig.Scraper.SettleDelay != 0 {
		merged.Scraper.SettleDelay = fileConfig.Scraper.SettleDelay
	}
	if !envSet("SCRAPER_PAGE_DELAY") && fileConfig.Scraper.PageDelay != 0 {
		merged.Scraper.PageDelay = fileConfig.Scraper.PageDelay
	}

	return merged
}

// envSet reports whether the prefixed environment variable was set.
func envSet(key string) bool {
	_, ok := os.LookupEnv("CAUSELIST_" + key)
	return ok
}

// resolvePaths fills the executable directory and makes relative paths
// absolute against it.
func (c *Config) resolvePaths() error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to get paths: %w", err)
	}

	c.Paths.ExecutableDir = paths.ExecutableDir

	if !filepath.IsAbs(c.Paths.OutputDir) {
		c.Paths.OutputDir = filepath.Join(paths.ExecutableDir, c.Paths.OutputDir)
	}
	if !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = filepath.Join(paths.ExecutableDir, c.Logging.FilePath)
	}

	return nil
}

// validate checks config invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Scraper.MaxCaptchaAttempts < 1 {
		return fmt.Errorf("max_captcha_attempts must be at least 1, got %d", c.Scraper.MaxCaptchaAttempts)
	}
	if c.Scraper.PortalURL == "" {
		return fmt.Errorf("portal_url must not be empty")
	}
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output %q: must be console, file or both", c.Logging.Output)
	}
	return nil
}

// GetOutputDir returns the resolved PDF output directory path
func (c *Config) GetOutputDir() string {
	if filepath.IsAbs(c.Paths.OutputDir) {
		return c.Paths.OutputDir
	}
	return filepath.Join(c.Paths.ExecutableDir, c.Paths.OutputDir)
}

// GetWebDir returns the resolved web directory path
func (c *Config) GetWebDir() string {
	if filepath.IsAbs(c.Paths.WebDir) {
		return c.Paths.WebDir
	}
	return filepath.Join(c.Paths.ExecutableDir, c.Paths.WebDir)
}

// getConfigFilePath returns the config file path, honoring the
// CAUSELIST_CONFIG_FILE override.
func getConfigFilePath() string {
	if path := os.Getenv("CAUSELIST_CONFIG_FILE"); path != "" {
		return path
	}
	exeDir, err := os.Executable()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(filepath.Dir(exeDir), "config.yaml")
}

// FileExists reports whether the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
