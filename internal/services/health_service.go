package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"causelist/internal/config"
	"causelist/internal/files"
)

// HubStatus is the slice of the WebSocket hub the health service reads.
type HubStatus interface {
	ClientCount() int
	Stats() map[string]interface{}
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     *config.Paths
	causelist *CauselistService
	hub       HubStatus
	fileMgr   *files.Manager
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	TotalRecords     int     `json:"total_records"`
	WebSocketClients int     `json:"websocket_clients"`
	QueuedJobs       int     `json:"queued_jobs"`
	ActiveJobs       int     `json:"active_jobs"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version string, paths *config.Paths, causelist *CauselistService, hub HubStatus, fileMgr *files.Manager, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthService{
		version:   version,
		paths:     paths,
		causelist: causelist,
		hub:       hub,
		fileMgr:   fileMgr,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["queue"] = hs.checkQueueHealth()
	status.Services["websocket"] = hs.checkWebSocketHealth()
	status.Services["output"] = hs.checkOutputHealth()

	allReady := true
	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			allReady = false
			break
		}
	}

	if !allReady {
		status.Status = "not_ready"
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

// SystemStats returns system statistics
func (hs *HealthService) SystemStats(ctx context.Context) (SystemStats, error) {
	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}

	if hs.fileMgr != nil {
		stats.TotalRecords, _ = hs.fileMgr.CountRecords()
	}
	if hs.hub != nil {
		stats.WebSocketClients = hs.hub.ClientCount()
	}
	if hs.causelist != nil {
		qs := hs.causelist.QueueStats()
		if n, ok := qs["queue_size"].(int); ok {
			stats.QueuedJobs = n
		}
		if n, ok := qs["active_jobs"].(int); ok {
			stats.ActiveJobs = n
		}
	}

	return stats, nil
}

// checkQueueHealth checks the job queue health
func (hs *HealthService) checkQueueHealth() ServiceHealth {
	if hs.causelist == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "job queue not initialized",
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "job queue is healthy",
	}
}

// checkWebSocketHealth checks WebSocket service health
func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "websocket hub not initialized",
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "websocket service is healthy",
		Uptime:  time.Since(hs.startTime).String(),
	}
}

// checkOutputHealth checks that the PDF output directory is writable
func (hs *HealthService) checkOutputHealth() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "paths not configured",
		}
	}

	if err := os.MkdirAll(hs.paths.OutputDir, 0o755); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "cannot write to output directory: " + err.Error(),
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "output directory is writable",
	}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	stats, _ := hs.SystemStats(ctx)

	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"stats":     stats,
	}
}
