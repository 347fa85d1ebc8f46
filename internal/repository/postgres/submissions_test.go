package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/repository"
	"scholarly/feedback-app/internal/repository/postgres/migrations"
)

var submissionCols = []string{
	"id", "user_id", "service_id", "title", "content", "file_name", "word_count",
	"prompt_instructions", "additional_instructions", "total_price", "status", "submitted_at",
	"approved_at", "paid_at", "completed_at", "feedback", "highlights", "payment_reference", "payment_status",
}

var submittedAt = time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func submissionRow(id string, status domain.SubmissionStatus, approvedAt, completedAt any, feedback, highlights any) []driver.Value {
	return []driver.Value{
		id, "u1", "svc-1", "Essay", "some words here", nil, 3,
		"Please check the argument", "", int64(1500), string(status), submittedAt,
		approvedAt, nil, completedAt, feedback, highlights, nil, domain.PaymentStatusUnpaid,
	}
}

func TestSubmissionRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(`SELECT .* FROM submissions WHERE id = \$1`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(submissionCols).
			AddRow(submissionRow("s1", domain.StatusPendingApproval, nil, nil, nil, nil)...))

	s, err := repo.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", s.ID)
	require.NotNil(t, s.UserID)
	assert.Equal(t, "u1", *s.UserID)
	require.NotNil(t, s.Content)
	assert.Nil(t, s.FileName)
	assert.Nil(t, s.ApprovedAt)
	assert.Equal(t, domain.StatusPendingApproval, s.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(`SELECT .* FROM submissions WHERE id = \$1`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSubmissionRepository_Create_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubmissionRepository(db)

	mock.ExpectExec(`INSERT INTO submissions`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "submissions_pkey"})

	content := "text"
	err := repo.Create(context.Background(), &domain.Submission{
		ID: "s1", ServiceID: "svc-1", Content: &content, WordCount: 1, TotalPrice: 1500,
		Status: domain.StatusPendingApproval, SubmittedAt: submittedAt,
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestSubmissionRepository_Create_FileAlreadyAttached(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubmissionRepository(db)

	mock.ExpectExec(`INSERT INTO submissions`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "submissions_file_name_key"})

	key := "submissions/u1/paper.pdf"
	err := repo.Create(context.Background(), &domain.Submission{
		ID: "s2", ServiceID: "svc-1", FileName: &key, WordCount: 800, TotalPrice: 3000,
		Status: domain.StatusPendingApproval, SubmittedAt: submittedAt,
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestSubmissionRepository_FileNameInUse(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubmissionRepository(db)
	query := regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM submissions WHERE file_name = $1)`)

	mock.ExpectQuery(query).WithArgs("submissions/u1/paper.pdf").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(query).WithArgs("submissions/u1/other.pdf").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	inUse, err := repo.FileNameInUse(context.Background(), "submissions/u1/paper.pdf")
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = repo.FileNameInUse(context.Background(), "submissions/u1/other.pdf")
	require.NoError(t, err)
	assert.False(t, inUse)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_Create_Unavailable(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubmissionRepository(db)

	mock.ExpectExec(`INSERT INTO submissions`).WillReturnError(driver.ErrBadConn)

	err := repo.Create(context.Background(), &domain.Submission{ID: "s1", ServiceID: "svc-1"})
	assert.ErrorIs(t, err, repository.ErrUnavailable)
}

func TestSubmissionRepository_UpdateStatus_Approve(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubmissionRepository(db)
	at := submittedAt.Add(time.Hour)

	q := regexp.QuoteMeta(`UPDATE submissions SET status = $3, approved_at = $4 WHERE id = $1 AND status IN ($2) RETURNING`)
	mock.ExpectQuery(q).
		WithArgs("s1", "pending_approval", "approved", at).
		WillReturnRows(sqlmock.NewRows(submissionCols).
			AddRow(submissionRow("s1", domain.StatusApproved, at, nil, nil, nil)...))

	approve := domain.Transitions[domain.ActionApprove]
	s, err := repo.UpdateStatus(context.Background(), "s1", approve.From, domain.NewStatusChange(approve, at))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, s.Status)
	require.NotNil(t, s.ApprovedAt)
	assert.True(t, s.ApprovedAt.Equal(at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_UpdateStatus_DeliverFeedback(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubmissionRepository(db)
	at := submittedAt.Add(48 * time.Hour)
	fb := "Good work"
	hl := `[{"start":0,"end":4,"comment":"nice","color":"#FFEB3B"}]`

	q := regexp.QuoteMeta(`UPDATE submissions SET status = $4, completed_at = $5, feedback = $6, highlights = $7 WHERE id = $1 AND status IN ($2, $3) RETURNING`)
	mock.ExpectQuery(q).
		WithArgs("s1", "paid", "in_progress", "completed", at, fb, hl).
		WillReturnRows(sqlmock.NewRows(submissionCols).
			AddRow(submissionRow("s1", domain.StatusCompleted, submittedAt, at, fb, hl)...))

	tr := domain.Transitions[domain.ActionDeliverFeedback]
	change := domain.NewStatusChange(tr, at)
	change.Feedback = &fb
	change.Highlights = []domain.Highlight{{Start: 0, End: 4, Comment: "nice", Color: domain.DefaultHighlightColor}}

	s, err := repo.UpdateStatus(context.Background(), "s1", tr.From, change)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, s.Status)
	require.NotNil(t, s.Feedback)
	assert.Equal(t, fb, *s.Feedback)
	require.Len(t, s.Highlights, 1)
	assert.Equal(t, "nice", s.Highlights[0].Comment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_UpdateStatus_Conflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(`UPDATE submissions SET`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM submissions WHERE id = $1`)).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("approved"))

	approve := domain.Transitions[domain.ActionApprove]
	_, err := repo.UpdateStatus(context.Background(), "s1", approve.From, domain.NewStatusChange(approve, time.Now()))
	assert.ErrorIs(t, err, repository.ErrStatusConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_UpdateStatus_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(`UPDATE submissions SET`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM submissions WHERE id = $1`)).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	approve := domain.Transitions[domain.ActionApprove]
	_, err := repo.UpdateStatus(context.Background(), "ghost", approve.From, domain.NewStatusChange(approve, time.Now()))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSubmissionRepository_ListByUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubmissionRepository(db)

	q := regexp.QuoteMeta(`FROM submissions WHERE user_id = $1 AND status IN ($2, $3) ORDER BY submitted_at, id`)
	mock.ExpectQuery(q).
		WithArgs("u1", "completed", "rejected").
		WillReturnRows(sqlmock.NewRows(submissionCols).
			AddRow(submissionRow("a", domain.StatusCompleted, submittedAt, submittedAt, "done", nil)...).
			AddRow(submissionRow("b", domain.StatusRejected, nil, nil, nil, nil)...))

	list, err := repo.ListByUser(context.Background(), "u1", domain.FinishedStatuses, repository.OrderBySubmittedAt)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, domain.StatusRejected, list[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_ListByStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM submissions WHERE status = $1 ORDER BY id`)).
		WithArgs("pending_approval").
		WillReturnRows(sqlmock.NewRows(submissionCols))

	list, err := repo.ListByStatus(context.Background(), domain.StatusPendingApproval, repository.OrderByID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestSubmissionRepository_CountByUserAndStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM submissions WHERE user_id = $1 AND status = $2`)).
		WithArgs("u1", "pending_approval").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountByUserAndStatus(context.Background(), "u1", domain.StatusPendingApproval)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestTransactor_CommitAndRollback(t *testing.T) {
	db, mock := newMock(t)
	tx := NewTransactor(db)
	users := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET submission_count`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return users.IncrementSubmissionCount(ctx, "u1")
	})
	require.NoError(t, err)

	boom := errors.New("quota")
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET submission_count`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err = tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
		if err := users.IncrementSubmissionCount(ctx, "u1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_UsesEmbeddedFS(t *testing.T) {
	db, _ := newMock(t)

	var gotDir string
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(ctx context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, RunMigrations(context.Background(), db))
	assert.Equal(t, ".", gotDir)
}

func TestMigrations_FileNameIsUnique(t *testing.T) {
	raw, err := migrations.FS.ReadFile("00002_unique_file_name.sql")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "CREATE UNIQUE INDEX submissions_file_name_key ON submissions (file_name)")
}
