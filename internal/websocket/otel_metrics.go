package websocket

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"causelist/internal/infrastructure"
)

// OTelMetrics exposes WebSocket activity through OpenTelemetry
// instruments so it lands on the /metrics endpoint.
type OTelMetrics struct {
	connectionsTotal   metric.Int64Counter
	activeConnections  metric.Int64UpDownCounter
	connectionDuration metric.Float64Histogram
}

var (
	otelMetrics     *OTelMetrics
	otelMetricsOnce sync.Once
)

// InitOTelMetrics creates the WebSocket instruments on the given meter.
// Safe to call more than once; only the first call wins.
func InitOTelMetrics(meter metric.Meter) error {
	var err error
	otelMetricsOnce.Do(func() {
		m := &OTelMetrics{}

		m.connectionsTotal, err = meter.Int64Counter(
			"websocket_connections_total",
			metric.WithDescription("Total WebSocket connections accepted"),
		)
		if err != nil {
			return
		}

		m.activeConnections, err = meter.Int64UpDownCounter(
			"websocket_connections_active",
			metric.WithDescription("Currently connected WebSocket clients"),
		)
		if err != nil {
			return
		}

		m.connectionDuration, err = meter.Float64Histogram(
			"websocket_connection_duration_seconds",
			metric.WithDescription("WebSocket connection lifetime"),
			metric.WithUnit("s"),
		)
		if err != nil {
			return
		}

		otelMetrics = m
	})
	return err
}

// GetOTelMetrics returns the instruments, or nil when OTel was not
// initialized (CLI mode, tests).
func GetOTelMetrics() *OTelMetrics {
	return otelMetrics
}

// RecordConnection records an accepted connection.
func (m *OTelMetrics) RecordConnection(ctx context.Context) {
	m.connectionsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("service", infrastructure.ServiceName)))
	m.activeConnections.Add(ctx, 1)
}

// RecordDisconnection records a disconnection and its lifetime.
func (m *OTelMetrics) RecordDisconnection(ctx context.Context, duration time.Duration) {
	m.activeConnections.Add(ctx, -1)
	m.connectionDuration.Record(ctx, duration.Seconds())
}
