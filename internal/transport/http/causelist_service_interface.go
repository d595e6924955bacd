package http

import (
	"context"

	"causelist/internal/files"
	"causelist/internal/operations"
	"causelist/pkg/contracts/domain"
)

// CauselistServiceInterface is the service surface the handler needs.
// Declared here so tests can substitute a mock.
type CauselistServiceInterface interface {
	Submit(ctx context.Context, clientKey string, sel domain.CourtSelection, all bool) (*operations.Job, error)
	Job(id string) (*operations.Job, error)
	Jobs(filter operations.JobFilter) ([]*operations.Job, error)
	Records() ([]files.RecordFile, error)
}
