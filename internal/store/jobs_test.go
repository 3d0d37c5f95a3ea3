package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timofeiryko/tg-marketing-bot/internal/domain"
)

func mkJob(id, name string, kind domain.JobKind, triggerAt time.Time) *domain.Job {
	return &domain.Job{
		ID:        id,
		Name:      name,
		Kind:      kind,
		TriggerAt: triggerAt,
		Status:    domain.StatusScheduled,
	}
}

func TestInsertJob_DuplicateID(t *testing.T) {
	repo, _ := openTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.InsertJob(ctx, mkJob("j1", "a", domain.KindBroadcastSell, now)))
	err := repo.InsertJob(ctx, mkJob("j1", "b", domain.KindBroadcastSell, now))
	require.ErrorIs(t, err, domain.ErrDuplicateJobID)
}

func TestUpsertJobByName_ReplacesScheduled(t *testing.T) {
	repo, _ := openTestRepo(t)
	ctx := context.Background()
	t1 := time.Now().UTC().Add(-time.Hour)
	t2 := time.Now().UTC().Add(-time.Minute)

	require.NoError(t, repo.UpsertJobByName(ctx, mkJob("j1", "followup-1", domain.KindMorningFollowup, t1)))
	require.NoError(t, repo.UpsertJobByName(ctx, mkJob("j2", "followup-1", domain.KindMorningFollowup, t2)))

	due, err := repo.DueJobs(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, due, 1, "at most one scheduled job per name")
	assert.Equal(t, "j2", due[0].ID)
	assert.Equal(t, t2.Unix(), due[0].TriggerAt.Unix(), "latest trigger wins")

	old, err := repo.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, old.Status)
}

func TestUpsertJobByName_DoesNotTouchFired(t *testing.T) {
	repo, _ := openTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.InsertJob(ctx, mkJob("j1", "n", domain.KindBroadcastSell, now)))
	require.NoError(t, repo.MarkFired(ctx, "j1"))
	require.NoError(t, repo.UpsertJobByName(ctx, mkJob("j2", "n", domain.KindBroadcastSell, now)))

	fired, err := repo.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFired, fired.Status)
}

func TestCancelJob(t *testing.T) {
	repo, _ := openTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Cancelling an unknown name is a no-op, not an error.
	require.NoError(t, repo.CancelJob(ctx, "missing"))

	require.NoError(t, repo.InsertJob(ctx, mkJob("j1", "n", domain.KindBroadcastSell, now.Add(-time.Minute))))
	require.NoError(t, repo.CancelJob(ctx, "n"))

	due, err := repo.DueJobs(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDueJobs_ThresholdAndOrder(t *testing.T) {
	repo, _ := openTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.InsertJob(ctx, mkJob("later", "a", domain.KindBroadcastSell, now.Add(-time.Minute))))
	require.NoError(t, repo.InsertJob(ctx, mkJob("earlier", "b", domain.KindBroadcastSell, now.Add(-time.Hour))))
	// Same trigger as "later": insertion order breaks the tie.
	require.NoError(t, repo.InsertJob(ctx, mkJob("tie", "c", domain.KindBroadcastSell, now.Add(-time.Minute))))
	require.NoError(t, repo.InsertJob(ctx, mkJob("future", "d", domain.KindBroadcastSell, now.Add(time.Hour))))

	due, err := repo.DueJobs(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, "earlier", due[0].ID)
	assert.Equal(t, "later", due[1].ID)
	assert.Equal(t, "tie", due[2].ID)
}

func TestMarkFired_Idempotent(t *testing.T) {
	repo, _ := openTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.InsertJob(ctx, mkJob("j1", "n", domain.KindBroadcastSell, now.Add(-time.Minute))))
	require.NoError(t, repo.MarkFired(ctx, "j1"))
	require.NoError(t, repo.MarkFired(ctx, "j1"), "second call is a no-op")

	due, err := repo.DueJobs(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due, "fired job is never due again")

	err = repo.MarkFired(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobByName(t *testing.T) {
	repo, _ := openTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.JobByName(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrJobNotFound)

	require.NoError(t, repo.InsertJob(ctx, mkJob("j1", "n", domain.KindBroadcastSell, now)))
	require.NoError(t, repo.MarkFired(ctx, "j1"))

	// Fired jobs stay visible by name so a restart can see the history.
	j, err := repo.JobByName(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "j1", j.ID)
	assert.Equal(t, domain.StatusFired, j.Status)

	require.NoError(t, repo.UpsertJobByName(ctx, mkJob("j2", "n", domain.KindBroadcastSell, now)))
	j, err = repo.JobByName(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "j2", j.ID, "latest insertion wins")
}

func TestJobs_SurviveReopen(t *testing.T) {
	repo, path := openTestRepo(t)
	ctx := context.Background()
	trigger := time.Now().UTC().Add(-time.Minute)

	require.NoError(t, repo.InsertJob(ctx, mkJob("j1", "n", domain.KindBroadcastSell, trigger)))
	require.NoError(t, repo.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	due, err := reopened.DueJobs(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "j1", due[0].ID)
	assert.Equal(t, trigger.Unix(), due[0].TriggerAt.Unix())
}
