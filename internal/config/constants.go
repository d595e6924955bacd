package config

import "time"

// Application constants for the cause-list retrieval system.
const (
	// Application Info
	AppName    = "Cause List Retriever"
	AppVersion = "0.1.0"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File Paths (relative to executable)
	DefaultDataDir   = "data"
	DefaultLogsDir   = "logs"
	DefaultWebDir    = "web"
	DefaultOutputDir = "data/causelists"

	// Scrape Timeouts
	DefaultScrapeTimeout = 2 * time.Hour
)
