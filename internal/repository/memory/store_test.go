package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/repository"
)

func newSubmission(id, userID string, status domain.SubmissionStatus, at time.Time) *domain.Submission {
	uid := userID
	return &domain.Submission{
		ID:          id,
		UserID:      &uid,
		ServiceID:   "svc-1",
		Title:       "Essay " + id,
		WordCount:   100,
		TotalPrice:  1500,
		Status:      status,
		SubmittedAt: at,
	}
}

func TestWithinTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	users := store.Users()
	subs := store.Submissions()

	id, err := users.Create(ctx, &domain.User{Username: "alice", Role: domain.RoleStudent})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, users.IncrementSubmissionCount(ctx, id))
		require.NoError(t, subs.Create(ctx, newSubmission("s1", id, domain.StatusPendingApproval, time.Now())))
		return boom
	})
	require.ErrorIs(t, err, boom)

	u, err := users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, u.SubmissionCount, "counter must be restored")

	_, err = subs.GetByID(ctx, "s1")
	assert.ErrorIs(t, err, repository.ErrNotFound, "insert must be undone")
}

func TestWithinTransaction_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	users := store.Users()

	id, err := users.Create(ctx, &domain.User{Username: "bob"})
	require.NoError(t, err)

	err = store.WithinTransaction(ctx, func(ctx context.Context) error {
		return users.IncrementSubmissionCount(ctx, id)
	})
	require.NoError(t, err)

	u, err := users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, u.SubmissionCount)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()

	_, err := users.Create(ctx, &domain.User{Username: "carol"})
	require.NoError(t, err)
	_, err = users.Create(ctx, &domain.User{Username: "Carol"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestSubmissionRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	subs := NewStore().Submissions()
	require.NoError(t, subs.Create(ctx, newSubmission("s1", "u1", domain.StatusPendingApproval, time.Now())))

	approve := domain.Transitions[domain.ActionApprove]
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	got, err := subs.UpdateStatus(ctx, "s1", approve.From, domain.NewStatusChange(approve, at))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, got.ApprovedAt.Equal(at))

	_, err = subs.UpdateStatus(ctx, "s1", approve.From, domain.NewStatusChange(approve, at))
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	_, err = subs.UpdateStatus(ctx, "missing", approve.From, domain.NewStatusChange(approve, at))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSubmissionRepository_ConcurrentUpdateStatus(t *testing.T) {
	ctx := context.Background()
	subs := NewStore().Submissions()
	require.NoError(t, subs.Create(ctx, newSubmission("s1", "u1", domain.StatusPendingApproval, time.Now())))

	approve := domain.Transitions[domain.ActionApprove]
	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := subs.UpdateStatus(ctx, "s1", approve.From, domain.NewStatusChange(approve, time.Now()))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, repository.ErrStatusConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)
}

func TestSubmissionRepository_ListOrdering(t *testing.T) {
	ctx := context.Background()
	subs := NewStore().Submissions()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, subs.Create(ctx, newSubmission("c", "u1", domain.StatusPendingApproval, base)))
	require.NoError(t, subs.Create(ctx, newSubmission("a", "u1", domain.StatusPendingApproval, base.Add(2*time.Hour))))
	require.NoError(t, subs.Create(ctx, newSubmission("b", "u1", domain.StatusCompleted, base.Add(time.Hour))))
	require.NoError(t, subs.Create(ctx, newSubmission("d", "u2", domain.StatusPendingApproval, base)))

	byID, err := subs.ListByStatus(ctx, domain.StatusPendingApproval, repository.OrderByID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, ids(byID))

	mine, err := subs.ListByUser(ctx, "u1", nil, repository.OrderBySubmittedAt)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(mine))

	done, err := subs.ListByUser(ctx, "u1", domain.FinishedStatuses, repository.OrderByID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(done))

	n, err := subs.CountByUserAndStatus(ctx, "u1", domain.StatusPendingApproval)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func ids(list []domain.Submission) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}

func TestSubmissionRepository_FileNameIsSingleUse(t *testing.T) {
	ctx := context.Background()
	subs := NewStore().Submissions()
	key := "submissions/u1/paper.pdf"

	inUse, err := subs.FileNameInUse(ctx, key)
	require.NoError(t, err)
	assert.False(t, inUse)

	first := newSubmission("s1", "u1", domain.StatusPendingApproval, time.Now())
	first.FileName = &key
	require.NoError(t, subs.Create(ctx, first))

	inUse, err = subs.FileNameInUse(ctx, key)
	require.NoError(t, err)
	assert.True(t, inUse)

	second := newSubmission("s2", "u1", domain.StatusPendingApproval, time.Now())
	second.FileName = &key
	assert.ErrorIs(t, subs.Create(ctx, second), repository.ErrDuplicate)

	// Text submissions carry no file and never collide.
	require.NoError(t, subs.Create(ctx, newSubmission("s3", "u1", domain.StatusPendingApproval, time.Now())))
	require.NoError(t, subs.Create(ctx, newSubmission("s4", "u1", domain.StatusPendingApproval, time.Now())))
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	users := store.Users()

	id, err := users.Create(ctx, &domain.User{Username: "dana", Name: "Dana"})
	require.NoError(t, err)

	got, err := users.UpdateProfile(ctx, id, "Dana Scully", "dana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Dana Scully", got.Name)
	assert.Equal(t, "dana@example.com", got.Email)
	assert.Equal(t, "dana", got.Username)

	boom := errors.New("boom")
	err = store.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := users.UpdateProfile(ctx, id, "Someone Else", "")
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	u, err := users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dana Scully", u.Name, "update must be undone")

	_, err = users.UpdateProfile(ctx, "ghost", "x", "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
