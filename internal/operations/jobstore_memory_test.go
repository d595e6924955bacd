package operations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJobStoreCRUD(t *testing.T) {
	store := NewMemoryJobStore()

	job := testJob("crud-1")
	require.NoError(t, store.CreateJob(job))
	assert.Error(t, store.CreateJob(job), "duplicate create must fail")

	got, err := store.GetJob("crud-1")
	require.NoError(t, err)
	assert.Equal(t, "Court 3", got.Selection.CourtName)

	// Returned copy does not alias the stored job
	got.Status = JobStatusRunning
	again, err := store.GetJob("crud-1")
	require.NoError(t, err)
	assert.NotEqual(t, JobStatusRunning, again.Status)

	job.Status = JobStatusCompleted
	require.NoError(t, store.UpdateJob(job))

	require.NoError(t, store.DeleteJob("crud-1"))
	_, err = store.GetJob("crud-1")
	assert.Error(t, err)
	assert.Error(t, store.UpdateJob(job))
}

func TestMemoryJobStoreListFilters(t *testing.T) {
	store := NewMemoryJobStore()

	a := testJob("a")
	a.ClientKey = "alice"
	a.Status = JobStatusCompleted
	a.CreatedAt = time.Now().Add(-time.Hour)

	b := testJob("b")
	b.ClientKey = "bob"
	b.Status = JobStatusPending
	b.CreatedAt = time.Now()

	require.NoError(t, store.CreateJob(a))
	require.NoError(t, store.CreateJob(b))

	byStatus, err := store.ListJobs(JobFilter{Status: JobStatusPending})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "b", byStatus[0].ID)

	byKey, err := store.ListJobs(JobFilter{ClientKey: "alice"})
	require.NoError(t, err)
	require.Len(t, byKey, 1)
	assert.Equal(t, "a", byKey[0].ID)

	since, err := store.ListJobs(JobFilter{Since: time.Now().Add(-time.Minute)})
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, "b", since[0].ID)

	all, err := store.ListJobs(JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID, "newest first")

	limited, err := store.ListJobs(JobFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemoryJobStoreCleanup(t *testing.T) {
	store := NewMemoryJobStore()

	old := testJob("old")
	old.Status = JobStatusCompleted
	old.CreatedAt = time.Now().Add(-48 * time.Hour)

	fresh := testJob("fresh")
	fresh.Status = JobStatusCompleted
	fresh.CreatedAt = time.Now()

	stuck := testJob("stuck")
	stuck.Status = JobStatusRunning
	stuck.CreatedAt = time.Now().Add(-48 * time.Hour)

	for _, j := range []*Job{old, fresh, stuck} {
		require.NoError(t, store.CreateJob(j))
	}

	deleted, err := store.CleanupOldJobs(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	stats := store.GetStats()
	assert.Equal(t, 2, stats["total_jobs"])
	assert.Equal(t, 1, stats["running"])
}
