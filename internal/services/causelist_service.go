// Package services contains the application services between the HTTP
// transport and the scraper. CauselistService validates scrape
// requests, queues them, and relays progress and results to the
// requesting client over the WebSocket hub.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"causelist/internal/files"
	"causelist/internal/infrastructure"
	"causelist/internal/operations"
	"causelist/internal/scraper"
	"causelist/pkg/contracts/domain"
	"causelist/pkg/contracts/events"
)

// ScrapeEngine is the browser automation behind the service.
type ScrapeEngine interface {
	Scrape(ctx context.Context, sel domain.CourtSelection, sink scraper.RecordSink, progress scraper.ProgressFunc) ([]domain.Record, error)
	ScrapeAll(ctx context.Context, sel domain.CourtSelection, sink scraper.RecordSink, progress scraper.ProgressFunc) ([]domain.Record, error)
}

// EventSink receives job events for connected clients.
type EventSink interface {
	SendRecord(key, traceID string, record domain.Record)
	SendProgress(key, traceID string, progress events.Progress)
	SendError(key, traceID string, payload events.ErrorPayload)
	BroadcastStatus(traceID string, status events.JobStatus)
}

// CauselistService orchestrates scrape jobs end to end.
type CauselistService struct {
	engine  ScrapeEngine
	sink    EventSink
	store   *operations.MemoryJobStore
	queue   *operations.JobQueue
	fileMgr *files.Manager
	logger  *slog.Logger
}

// NewCauselistService wires the service and its job queue.
func NewCauselistService(engine ScrapeEngine, sink EventSink, fileMgr *files.Manager, logger *slog.Logger) *CauselistService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	s := &CauselistService{
		engine:  engine,
		sink:    sink,
		store:   operations.NewMemoryJobStore(),
		fileMgr: fileMgr,
		logger:  logger.With(slog.String("component", "causelist_service")),
	}
	s.queue = operations.NewJobQueue(8, s.store, s.runJob, logger)
	return s
}

// Start begins job processing.
func (s *CauselistService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue.
func (s *CauselistService) Stop(timeout time.Duration) error {
	return s.queue.Stop(timeout)
}

// Submit validates a scrape request and queues it on behalf of the
// client identified by clientKey.
func (s *CauselistService) Submit(ctx context.Context, clientKey string, sel domain.CourtSelection, all bool) (*operations.Job, error) {
	if err := validateSelection(sel, all); err != nil {
		return nil, err
	}

	job := &operations.Job{
		ID:        uuid.New().String(),
		ClientKey: clientKey,
		TraceID:   infrastructure.GetTraceID(ctx),
		Selection: sel,
		All:       all,
	}

	if err := s.queue.Enqueue(job); err != nil {
		return nil, err
	}

	s.sink.BroadcastStatus(job.TraceID, events.JobStatus{
		JobID:  job.ID,
		Status: string(operations.JobStatusPending),
	})
	return job, nil
}

// Job returns the current state of one job.
func (s *CauselistService) Job(id string) (*operations.Job, error) {
	return s.queue.GetJob(id)
}

// Jobs lists jobs, newest first.
func (s *CauselistService) Jobs(filter operations.JobFilter) ([]*operations.Job, error) {
	return s.queue.ListJobs(filter)
}

// Records lists every exported PDF currently on disk.
func (s *CauselistService) Records() ([]files.RecordFile, error) {
	return s.fileMgr.ListRecords()
}

// QueueStats exposes queue counters for the health endpoint.
func (s *CauselistService) QueueStats() map[string]interface{} {
	return s.queue.GetQueueStats()
}

// runJob executes one job inside the queue worker.
func (s *CauselistService) runJob(ctx context.Context, job *operations.Job) (int, error) {
	ctx, span := infrastructure.Tracer().Start(ctx, "scrape_job")
	span.SetAttributes(
		attribute.String("job.id", job.ID),
		attribute.String("court.state", job.Selection.State),
		attribute.String("court.district", job.Selection.District),
		attribute.Bool("job.all_courts", job.All))
	defer span.End()

	started := time.Now()
	s.sink.BroadcastStatus(job.TraceID, events.JobStatus{
		JobID:     job.ID,
		Status:    string(operations.JobStatusRunning),
		StartedAt: started,
	})

	sink := func(record domain.Record) {
		s.sink.SendRecord(job.ClientKey, job.TraceID, record)
	}
	progress := func(p scraper.Progress) {
		s.sink.SendProgress(job.ClientKey, job.TraceID, events.Progress{
			JobID:   job.ID,
			Phase:   p.Phase,
			Court:   p.Court,
			Attempt: p.Attempt,
			Current: p.Current,
			Total:   p.Total,
		})
	}

	var records []domain.Record
	var err error
	if job.All {
		records, err = s.engine.ScrapeAll(ctx, job.Selection, sink, progress)
	} else {
		records, err = s.engine.Scrape(ctx, job.Selection, sink, progress)
	}

	ended := time.Now()
	span.SetAttributes(attribute.Int("job.records", len(records)))
	if err != nil {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "scrape failed",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
			slog.Int("records", len(records)))

		s.sink.SendError(job.ClientKey, job.TraceID, events.ErrorPayload{
			JobID:   job.ID,
			Error:   err.Error(),
			Hint:    errorHint(err),
			TraceID: job.TraceID,
		})
		s.sink.BroadcastStatus(job.TraceID, events.JobStatus{
			JobID:   job.ID,
			Status:  string(operations.JobStatusFailed),
			Records: len(records),
			EndedAt: &ended,
			Error:   err.Error(),
		})
		return len(records), err
	}

	s.sink.BroadcastStatus(job.TraceID, events.JobStatus{
		JobID:   job.ID,
		Status:  string(operations.JobStatusCompleted),
		Records: len(records),
		EndedAt: &ended,
	})
	return len(records), nil
}

// errorHint maps known failures to a recovery suggestion.
func errorHint(err error) string {
	switch {
	case errors.Is(err, scraper.ErrCaptchaExhausted):
		return "The portal kept rejecting the CAPTCHA. Retry in a few minutes."
	case errors.Is(err, context.DeadlineExceeded):
		return "The portal took too long to respond. Retry later."
	default:
		var notFound *scraper.OptionNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Sprintf("Check the spelling of the %s.", notFound.Field)
		}
		return ""
	}
}

// validateSelection enforces the request invariants before queueing.
func validateSelection(sel domain.CourtSelection, all bool) error {
	if sel.State == "" {
		return fmt.Errorf("state is required")
	}
	if sel.District == "" {
		return fmt.Errorf("district is required")
	}
	if sel.Complex == "" {
		return fmt.Errorf("court complex is required")
	}
	if !all && sel.CourtName == "" {
		return fmt.Errorf("court name is required unless scraping all courts")
	}
	if all && sel.CourtName != "" {
		return fmt.Errorf("court name and all courts are mutually exclusive")
	}
	if !sel.CaseType.Valid() {
		return fmt.Errorf("case type must be Civil or Criminal")
	}
	return sel.ValidateDate()
}
