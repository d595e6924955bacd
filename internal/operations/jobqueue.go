package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"causelist/internal/infrastructure"
)

// Runner executes one scrape job and returns the number of records
// exported. The queue owns status bookkeeping; the runner owns the
// browser work and client notifications.
type Runner func(ctx context.Context, job *Job) (int, error)

// JobQueue accepts scrape jobs and executes them one at a time.
type JobQueue struct {
	mu       sync.RWMutex
	jobs     chan *Job
	store    JobStore
	runner   Runner
	logger   *slog.Logger
	shutdown chan struct{}
	wg       sync.WaitGroup

	// browser guards the single Chrome session
	browser *semaphore.Weighted

	active map[string]*Job
}

// NewJobQueue creates a queue with the given backlog capacity.
func NewJobQueue(backlog int, store JobStore, runner Runner, logger *slog.Logger) *JobQueue {
	if backlog <= 0 {
		backlog = 8
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &JobQueue{
		jobs:     make(chan *Job, backlog),
		store:    store,
		runner:   runner,
		logger:   logger.With(slog.String("component", "jobqueue")),
		shutdown: make(chan struct{}),
		browser:  semaphore.NewWeighted(1),
		active:   make(map[string]*Job),
	}
}

// Start begins processing jobs
func (q *JobQueue) Start(ctx context.Context) {
	q.logger.Info("starting job queue", slog.Int("backlog", cap(q.jobs)))
	q.wg.Add(1)
	go q.worker(ctx)
}

// Stop gracefully shuts down the job queue
func (q *JobQueue) Stop(timeout time.Duration) error {
	q.logger.Info("stopping job queue")
	close(q.shutdown)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("job queue stopped gracefully")
		return nil
	case <-time.After(timeout):
		q.logger.Warn("job queue stop timeout exceeded")
		return fmt.Errorf("timeout waiting for worker to finish")
	}
}

// Enqueue adds a job to the queue
func (q *JobQueue) Enqueue(job *Job) error {
	job.Status = JobStatusPending
	job.CreatedAt = time.Now()

	if err := q.store.CreateJob(job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	select {
	case q.jobs <- job:
		q.logger.Info("job enqueued",
			slog.String("job_id", job.ID),
			slog.String("court", job.Selection.CourtName),
			slog.Bool("all_courts", job.All))
		return nil
	default:
		job.Status = JobStatusFailed
		job.Error = "job queue is full"
		q.store.UpdateJob(job)
		return fmt.Errorf("job queue is full")
	}
}

// GetJob retrieves a job by ID
func (q *JobQueue) GetJob(id string) (*Job, error) {
	q.mu.RLock()
	if activeJob, ok := q.active[id]; ok {
		q.mu.RUnlock()
		jobCopy := *activeJob
		return &jobCopy, nil
	}
	q.mu.RUnlock()

	return q.store.GetJob(id)
}

// ListJobs returns jobs matching the filter
func (q *JobQueue) ListJobs(filter JobFilter) ([]*Job, error) {
	return q.store.ListJobs(filter)
}

// worker processes jobs from the queue
func (q *JobQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	q.logger.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			q.logger.Debug("worker stopped by context")
			return
		case <-q.shutdown:
			q.logger.Debug("worker stopped by shutdown")
			return
		case job := <-q.jobs:
			q.processJob(ctx, job)
		}
	}
}

// processJob executes a single job
func (q *JobQueue) processJob(ctx context.Context, job *Job) {
	if job.TraceID != "" {
		ctx = infrastructure.WithTraceID(ctx, job.TraceID)
	}
	logger := q.logger.With(slog.String("job_id", job.ID))

	if err := q.browser.Acquire(ctx, 1); err != nil {
		q.failJob(job, err, logger)
		return
	}
	defer q.browser.Release(1)

	q.mu.Lock()
	q.active[job.ID] = job
	q.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("job processing panicked", slog.Any("panic", r))
			q.failJob(job, fmt.Errorf("job processing panicked: %v", r), logger)
		}
		q.mu.Lock()
		delete(q.active, job.ID)
		q.mu.Unlock()
	}()

	logger.InfoContext(ctx, "processing job started")

	job.Status = JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	if err := q.store.UpdateJob(job); err != nil {
		logger.Error("failed to update job status", slog.String("error", err.Error()))
	}

	records, err := q.runner(ctx, job)
	job.Records = records
	if err != nil {
		q.failJob(job, err, logger)
		return
	}

	job.Status = JobStatusCompleted
	completedAt := time.Now()
	job.CompletedAt = &completedAt
	if err := q.store.UpdateJob(job); err != nil {
		logger.Error("failed to update job completion", slog.String("error", err.Error()))
	}

	logger.InfoContext(ctx, "processing job completed",
		slog.Int("records", records))
}

// failJob records a job failure.
func (q *JobQueue) failJob(job *Job, err error, logger *slog.Logger) {
	logger.Error("job failed", slog.String("error", err.Error()))

	job.Status = JobStatusFailed
	job.Error = err.Error()
	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if updateErr := q.store.UpdateJob(job); updateErr != nil {
		logger.Error("failed to update job error", slog.String("error", updateErr.Error()))
	}
}

// GetQueueStats returns queue statistics
func (q *JobQueue) GetQueueStats() map[string]interface{} {
	q.mu.RLock()
	activeCount := len(q.active)
	q.mu.RUnlock()

	return map[string]interface{}{
		"queue_size":  len(q.jobs),
		"queue_cap":   cap(q.jobs),
		"active_jobs": activeCount,
	}
}
