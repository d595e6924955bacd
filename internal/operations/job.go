// Package operations manages asynchronous scrape jobs. A job queue
// with an in-memory store accepts requests from the HTTP layer and
// hands them one at a time to the scraper; the portal tolerates only
// one browser session per source, so execution is fully serialized.
package operations

import (
	"time"

	"causelist/pkg/contracts/domain"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job is one scrape request moving through the queue.
type Job struct {
	ID        string                `json:"id"`
	ClientKey string                `json:"-"`
	TraceID   string                `json:"trace_id,omitempty"`
	Selection domain.CourtSelection `json:"selection"`

	// All selects every court name of the complex instead of the one
	// named in Selection.
	All bool `json:"all"`

	Status      JobStatus  `json:"status"`
	Records     int        `json:"records"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobFilter for querying jobs
type JobFilter struct {
	Status    JobStatus
	ClientKey string
	Since     time.Time
	Limit     int
}

// JobStore interface for job persistence
type JobStore interface {
	CreateJob(job *Job) error
	GetJob(id string) (*Job, error)
	UpdateJob(job *Job) error
	ListJobs(filter JobFilter) ([]*Job, error)
	DeleteJob(id string) error
}
