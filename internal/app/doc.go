// Package app provides application initialization and lifecycle
// management for the cause-list web service. It orchestrates
// configuration loading, service wiring, route setup, and graceful
// shutdown.
//
// Startup order matters: configuration and logging come first, then
// OpenTelemetry, then the WebSocket hub and the job queue, and finally
// the HTTP server. Shutdown runs in reverse so in-flight scrape jobs
// can finish before the hub closes client connections.
package app
