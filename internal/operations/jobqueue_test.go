package operations

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causelist/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testJob(id string) *Job {
	return &Job{
		ID: id,
		Selection: domain.CourtSelection{
			State:     "Delhi",
			District:  "New Delhi",
			Complex:   "Patiala House",
			CourtName: "Court 3",
			Date:      "15-08-2026",
			CaseType:  domain.CaseTypeCivil,
		},
	}
}

func waitForStatus(t *testing.T, q *JobQueue, id string, status JobStatus) *Job {
	t.Helper()
	var got *Job
	require.Eventually(t, func() bool {
		job, err := q.GetJob(id)
		if err != nil {
			return false
		}
		got = job
		return job.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestJobQueueCompletesJob(t *testing.T) {
	runner := func(ctx context.Context, job *Job) (int, error) {
		return 3, nil
	}
	q := NewJobQueue(4, NewMemoryJobStore(), runner, testLogger())
	q.Start(context.Background())
	defer q.Stop(time.Second)

	require.NoError(t, q.Enqueue(testJob("job-1")))

	job := waitForStatus(t, q, "job-1", JobStatusCompleted)
	assert.Equal(t, 3, job.Records)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.Error)
}

func TestJobQueueRecordsFailure(t *testing.T) {
	runner := func(ctx context.Context, job *Job) (int, error) {
		return 1, errors.New("captcha attempts exhausted")
	}
	q := NewJobQueue(4, NewMemoryJobStore(), runner, testLogger())
	q.Start(context.Background())
	defer q.Stop(time.Second)

	require.NoError(t, q.Enqueue(testJob("job-2")))

	job := waitForStatus(t, q, "job-2", JobStatusFailed)
	assert.Equal(t, "captcha attempts exhausted", job.Error)
	assert.Equal(t, 1, job.Records)
}

func TestJobQueueRecoverFromPanic(t *testing.T) {
	runner := func(ctx context.Context, job *Job) (int, error) {
		panic("browser crashed")
	}
	q := NewJobQueue(4, NewMemoryJobStore(), runner, testLogger())
	q.Start(context.Background())
	defer q.Stop(time.Second)

	require.NoError(t, q.Enqueue(testJob("job-3")))

	job := waitForStatus(t, q, "job-3", JobStatusFailed)
	assert.Contains(t, job.Error, "panicked")

	// Queue keeps working after the panic
	require.NoError(t, q.Enqueue(testJob("job-4")))
	waitForStatus(t, q, "job-4", JobStatusFailed)
}

func TestJobQueueSerializesExecution(t *testing.T) {
	var running atomic.Int32
	var maxRunning atomic.Int32

	runner := func(ctx context.Context, job *Job) (int, error) {
		now := running.Add(1)
		if now > maxRunning.Load() {
			maxRunning.Store(now)
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		return 0, nil
	}

	q := NewJobQueue(8, NewMemoryJobStore(), runner, testLogger())
	q.Start(context.Background())
	defer q.Stop(2 * time.Second)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(testJob(id)))
	}

	for _, id := range []string{"a", "b", "c"} {
		waitForStatus(t, q, id, JobStatusCompleted)
	}
	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestJobQueueFullBacklog(t *testing.T) {
	block := make(chan struct{})
	runner := func(ctx context.Context, job *Job) (int, error) {
		<-block
		return 0, nil
	}

	q := NewJobQueue(1, NewMemoryJobStore(), runner, testLogger())
	// Not started: jobs stay in the channel

	require.NoError(t, q.Enqueue(testJob("q-1")))
	err := q.Enqueue(testJob("q-2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is full")

	job, err := q.GetJob("q-2")
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, job.Status)
	close(block)
}

func TestJobQueueStats(t *testing.T) {
	q := NewJobQueue(4, NewMemoryJobStore(), func(ctx context.Context, job *Job) (int, error) {
		return 0, nil
	}, testLogger())

	stats := q.GetQueueStats()
	assert.Equal(t, 0, stats["queue_size"])
	assert.Equal(t, 4, stats["queue_cap"])
	assert.Equal(t, 0, stats["active_jobs"])
}
