// Package events defines the WebSocket message contracts used to relay
// scrape progress and exported records to connected clients.
package events

import (
	"time"

	"causelist/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message.
type MessageType string

const (
	// Scrape lifecycle messages
	MessageTypeJobStatus MessageType = "job:status"
	MessageTypeRecord    MessageType = "job:record"
	MessageTypeProgress  MessageType = "job:progress"

	// Connection messages
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// Envelope is the wire frame for every WebSocket message.
type Envelope struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// JobStatus reports a scrape job transition.
type JobStatus struct {
	JobID     string     `json:"job_id"`
	Status    string     `json:"status"` // pending|running|completed|failed
	Courts    int        `json:"courts,omitempty"`
	Records   int        `json:"records,omitempty"`
	StartedAt time.Time  `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// RecordSaved carries one exported PDF, matching the original wire shape
// of {"cnr": ..., "path": ...} seen by browser clients.
type RecordSaved struct {
	CNR  string `json:"cnr"`
	Path string `json:"path"`
}

// FromRecord converts a domain record to its wire form.
func FromRecord(r domain.Record) RecordSaved {
	return RecordSaved{CNR: r.CNR, Path: r.Path}
}

// Progress reports fine-grained scrape progress (court being worked,
// CAPTCHA attempts, harvest position).
type Progress struct {
	JobID   string `json:"job_id"`
	Phase   string `json:"phase"` // navigate|select|captcha|harvest
	Court   string `json:"court,omitempty"`
	Attempt int    `json:"attempt,omitempty"`
	Current int    `json:"current,omitempty"`
	Total   int    `json:"total,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorPayload is delivered to the requesting client when a job fails.
type ErrorPayload struct {
	JobID   string `json:"job_id,omitempty"`
	Error   string `json:"error"`
	Hint    string `json:"hint,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}
