package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"scholarly/feedback-app/internal/dbx"
	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/repository"
)

const submissionColumns = `id, user_id, service_id, title, content, file_name, word_count,
	prompt_instructions, additional_instructions, total_price, status, submitted_at,
	approved_at, paid_at, completed_at, feedback, highlights, payment_reference, payment_status`

type SubmissionRepository struct {
	db dbx.DBTX
}

func NewSubmissionRepository(db dbx.DBTX) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

var _ repository.SubmissionRepository = (*SubmissionRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*domain.Submission, error) {
	var (
		s          domain.Submission
		status     string
		userID     sql.NullString
		content    sql.NullString
		fileName   sql.NullString
		feedback   sql.NullString
		paymentRef sql.NullString
		approvedAt sql.NullTime
		paidAt     sql.NullTime
		doneAt     sql.NullTime
		highlights []byte
	)
	err := row.Scan(
		&s.ID, &userID, &s.ServiceID, &s.Title, &content, &fileName, &s.WordCount,
		&s.PromptInstructions, &s.AdditionalInstructions, &s.TotalPrice, &status, &s.SubmittedAt,
		&approvedAt, &paidAt, &doneAt, &feedback, &highlights, &paymentRef, &s.PaymentStatus,
	)
	if err != nil {
		return nil, err
	}

	s.Status = domain.SubmissionStatus(status)
	s.UserID = nullString(userID)
	s.Content = nullString(content)
	s.FileName = nullString(fileName)
	s.Feedback = nullString(feedback)
	s.PaymentReference = nullString(paymentRef)
	s.ApprovedAt = nullTime(approvedAt)
	s.PaidAt = nullTime(paidAt)
	s.CompletedAt = nullTime(doneAt)
	if len(highlights) > 0 {
		if err := json.Unmarshal(highlights, &s.Highlights); err != nil {
			return nil, fmt.Errorf("decode highlights: %w", err)
		}
	}
	return &s, nil
}

func (r *SubmissionRepository) Create(ctx context.Context, s *domain.Submission) error {
	highlights, err := encodeHighlights(s.Highlights)
	if err != nil {
		return err
	}

	query :=
		`INSERT INTO submissions (` + submissionColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err = dbx.Conn(ctx, r.db).ExecContext(ctx, query,
		s.ID, s.UserID, s.ServiceID, s.Title, s.Content, s.FileName, s.WordCount,
		s.PromptInstructions, s.AdditionalInstructions, s.TotalPrice, string(s.Status), s.SubmittedAt,
		s.ApprovedAt, s.PaidAt, s.CompletedAt, s.Feedback, highlights, s.PaymentReference, s.PaymentStatus,
	)
	if err != nil {
		return wrapErr("insert submission", err)
	}
	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	row := dbx.Conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
	s, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapErr("select submission", err)
	}
	return s, nil
}

func (r *SubmissionRepository) FileNameInUse(ctx context.Context, fileName string) (bool, error) {
	var inUse bool
	err := dbx.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM submissions WHERE file_name = $1)`, fileName).Scan(&inUse)
	if err != nil {
		return false, wrapErr("check file name", err)
	}
	return inUse, nil
}

// UpdateStatus writes the change with a single UPDATE guarded by the expected
// statuses, so concurrent transitions on the same row cannot both succeed.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, from []domain.SubmissionStatus, change domain.StatusChange) (*domain.Submission, error) {
	if len(from) == 0 {
		return nil, fmt.Errorf("update submission %s: %w", id, repository.ErrStatusConflict)
	}

	args := []any{id}
	for _, st := range from {
		args = append(args, string(st))
	}
	sets := []string{fmt.Sprintf("status = $%d", len(args)+1)}
	args = append(args, string(change.To))

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	switch change.Milestone {
	case domain.MilestoneApproved:
		add("approved_at", change.At)
	case domain.MilestonePaid:
		add("paid_at", change.At)
	case domain.MilestoneCompleted:
		add("completed_at", change.At)
	}
	if change.Feedback != nil {
		add("feedback", *change.Feedback)
	}
	if change.Highlights != nil {
		highlights, err := encodeHighlights(change.Highlights)
		if err != nil {
			return nil, err
		}
		add("highlights", highlights)
	}
	if change.PaymentReference != nil {
		add("payment_reference", *change.PaymentReference)
	}
	if change.PaymentStatus != nil {
		add("payment_status", *change.PaymentStatus)
	}

	query := `UPDATE submissions SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND status IN (` + placeholders(2, len(from)) + `)` +
		` RETURNING ` + submissionColumns

	conn := dbx.Conn(ctx, r.db)
	s, err := scanSubmission(conn.QueryRowContext(ctx, query, args...))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, wrapErr("update submission status", err)
	}

	var current string
	err = conn.QueryRowContext(ctx, `SELECT status FROM submissions WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapErr("select submission status", err)
	}
	return nil, fmt.Errorf("submission %s is %s: %w", id, current, repository.ErrStatusConflict)
}

func (r *SubmissionRepository) ListByStatus(ctx context.Context, status domain.SubmissionStatus, order repository.Order) ([]domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE status = $1 ` + orderClause(order)
	return r.list(ctx, query, string(status))
}

// ListByUser returns the user's submissions; nil statuses matches all.
func (r *SubmissionRepository) ListByUser(ctx context.Context, userID string, statuses []domain.SubmissionStatus, order repository.Order) ([]domain.Submission, error) {
	if statuses != nil && len(statuses) == 0 {
		return []domain.Submission{}, nil
	}

	args := []any{userID}
	where := `user_id = $1`
	if statuses != nil {
		where += ` AND status IN (` + placeholders(2, len(statuses)) + `)`
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE ` + where + ` ` + orderClause(order)
	return r.list(ctx, query, args...)
}

func (r *SubmissionRepository) CountByUserAndStatus(ctx context.Context, userID string, status domain.SubmissionStatus) (int64, error) {
	var n int64
	err := dbx.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions WHERE user_id = $1 AND status = $2`, userID, string(status)).Scan(&n)
	if err != nil {
		return 0, wrapErr("count submissions", err)
	}
	return n, nil
}

func (r *SubmissionRepository) list(ctx context.Context, query string, args ...any) ([]domain.Submission, error) {
	rows, err := dbx.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list submissions", err)
	}
	defer rows.Close()

	out := []domain.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, wrapErr("scan submission", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list submissions", err)
	}
	return out, nil
}

func orderClause(order repository.Order) string {
	if order == repository.OrderBySubmittedAt {
		return `ORDER BY submitted_at, id`
	}
	return `ORDER BY id`
}

func encodeHighlights(h []domain.Highlight) (any, error) {
	if h == nil {
		return nil, nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("encode highlights: %w", err)
	}
	return string(b), nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
