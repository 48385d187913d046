package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/judgehub/judgehub/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "judgehub.db")
	s, err := store.Open(context.Background(), path)
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RootUserSeeded(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	u, err := s.FindUserByID(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, "root", u.Name)
}

func TestStore_CreateAndUpdateUser(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Name)
	require.NotZero(t, u.ID)

	exists, err := s.UserNameExists(ctx, "alice", nil)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = s.UserNameExists(ctx, "alice", &u.ID)
	require.NoError(t, err)
	require.False(t, exists)

	renamed, err := s.UpdateUser(ctx, u.ID, "alicia")
	require.NoError(t, err)
	require.Equal(t, "alicia", renamed.Name)

	_, err = s.UpdateUser(ctx, 9999, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_ListUsers(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "alice")
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, "bob")
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3) // root + alice + bob
	require.Equal(t, "root", users[0].Name)
}

func TestStore_CreateJobAssignsDenseZeroBasedIDs(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	sub := store.Submission{UserID: 0, ContestID: 0, ProblemID: 0, SourceCode: "print(1)", Language: "Python"}

	id0, err := s.CreateJob(ctx, sub, 2)
	require.NoError(t, err)
	require.Equal(t, uint32(0), id0)

	id1, err := s.CreateJob(ctx, sub, 2)
	require.NoError(t, err)
	require.Equal(t, uint32(1), id1)

	job, err := s.GetJob(ctx, id0)
	require.NoError(t, err)
	require.Equal(t, store.StateQueueing, job.State)
	require.Equal(t, store.ResultWaiting, job.Result)
	require.Zero(t, job.Score)
	require.Len(t, job.Cases, 2)
	for _, c := range job.Cases {
		require.Equal(t, store.ResultWaiting, c.Result)
	}
}

func TestStore_GetJob_NotFound(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	_, err := s.GetJob(context.Background(), 999)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_MarkRunning(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	sub := store.Submission{UserID: 0, ProblemID: 0, Language: "Python"}
	id, err := s.CreateJob(ctx, sub, 1)
	require.NoError(t, err)

	require.NoError(t, s.MarkRunning(ctx, id))

	job, err := s.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, store.StateRunning, job.State)
	require.Equal(t, store.ResultRunning, job.Result)
	require.Equal(t, store.ResultRunning, job.Cases[0].Result)
}

func TestStore_SaveResultThenRejudge(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	sub := store.Submission{UserID: 0, ProblemID: 0, Language: "Python"}
	id, err := s.CreateJob(ctx, sub, 2)
	require.NoError(t, err)
	require.NoError(t, s.MarkRunning(ctx, id))

	finished := store.Job{
		State:  store.StateFinished,
		Result: store.ResultAccepted,
		Score:  100,
		Cases: []store.CaseResult{
			{ID: 0, Result: store.ResultCompilationSuccess},
			{ID: 1, Result: store.ResultAccepted, Time: 1200, Memory: 4096},
		},
	}
	require.NoError(t, s.SaveResult(ctx, id, finished))

	job, err := s.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, store.StateFinished, job.State)
	require.Equal(t, store.ResultAccepted, job.Result)
	require.Equal(t, 100.0, job.Score)
	require.Equal(t, store.ResultAccepted, job.Cases[1].Result)

	require.NoError(t, s.ResetForRejudge(ctx, id, 2))

	job, err = s.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, store.StateQueueing, job.State)
	require.Equal(t, store.ResultWaiting, job.Result)
	require.Zero(t, job.Score)
	require.Len(t, job.Cases, 2)
	for _, c := range job.Cases {
		require.Equal(t, store.ResultWaiting, c.Result)
	}
}

func TestStore_CancelJob(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	sub := store.Submission{UserID: 0, ProblemID: 0, Language: "Python"}
	id, err := s.CreateJob(ctx, sub, 1)
	require.NoError(t, err)

	require.NoError(t, s.CancelJob(ctx, id))

	job, err := s.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, store.StateCanceled, job.State)
	require.Equal(t, store.ResultSkipped, job.Result)
	require.Equal(t, store.ResultSkipped, job.Cases[0].Result)
}

func TestStore_ListJobs_Filters(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice")
	require.NoError(t, err)

	_, err = s.CreateJob(ctx, store.Submission{UserID: 0, ProblemID: 0, Language: "Python"}, 1)
	require.NoError(t, err)
	_, err = s.CreateJob(ctx, store.Submission{UserID: alice.ID, ProblemID: 1, Language: "GCC"}, 1)
	require.NoError(t, err)

	jobs, err := s.ListJobs(ctx, store.Filter{UserID: &alice.ID})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, alice.ID, jobs[0].Submission.UserID)

	lang := "GCC"
	jobs, err = s.ListJobs(ctx, store.Filter{Language: &lang})
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	all, err := s.ListJobs(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.True(t, all[0].CreatedTime.Before(all[1].CreatedTime) || all[0].CreatedTime.Equal(all[1].CreatedTime))
}

func TestStore_Reset(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "root", users[0].Name)
}

func TestStore_Healthcheck(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	check := s.Healthcheck()
	require.NoError(t, check(context.Background()))
}

func TestTimeLayout_RoundTrips(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	formatted := store.FormatTime(now)
	parsed, err := store.ParseTime(formatted)
	require.NoError(t, err)
	require.True(t, now.Equal(parsed))
}
