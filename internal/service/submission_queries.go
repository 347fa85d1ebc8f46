package service

import (
	"context"
	"errors"
	"fmt"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/repository"
)

// SubmissionQueries is the read side: filtered, ordered views over submissions.
type SubmissionQueries interface {
	Get(ctx context.Context, id string) (*domain.Submission, error)
	ListByStatus(ctx context.Context, status string, order repository.Order) ([]domain.Submission, error)
	ListForUser(ctx context.Context, userID string, order repository.Order) ([]domain.Submission, error)
	ListActiveForUser(ctx context.Context, userID string, order repository.Order) ([]domain.Submission, error)
	ListCompletedForUser(ctx context.Context, userID string, order repository.Order) ([]domain.Submission, error)
	CountPending(ctx context.Context, userID string) (int64, error)
}

type submissionQueries struct {
	submissions repository.SubmissionRepository
}

func NewSubmissionQueries(submissions repository.SubmissionRepository) SubmissionQueries {
	return &submissionQueries{submissions: submissions}
}

func (q *submissionQueries) Get(ctx context.Context, id string) (*domain.Submission, error) {
	sub, err := q.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSubmissionNotFound, id)
		}
		return nil, storageError("get submission", err)
	}
	return sub, nil
}

// ListByStatus accepts the raw status string, as received from a URL.
func (q *submissionQueries) ListByStatus(ctx context.Context, status string, order repository.Order) ([]domain.Submission, error) {
	st, ok := domain.ParseSubmissionStatus(status)
	if !ok {
		return nil, validationError("unknown status %q", status)
	}
	list, err := q.submissions.ListByStatus(ctx, st, order)
	if err != nil {
		return nil, storageError("list submissions by status", err)
	}
	return list, nil
}

func (q *submissionQueries) ListForUser(ctx context.Context, userID string, order repository.Order) ([]domain.Submission, error) {
	return q.listForUser(ctx, userID, nil, order)
}

// ListActiveForUser returns submissions still moving through the workflow.
func (q *submissionQueries) ListActiveForUser(ctx context.Context, userID string, order repository.Order) ([]domain.Submission, error) {
	return q.listForUser(ctx, userID, domain.ActiveStatuses, order)
}

// ListCompletedForUser returns completed and rejected submissions.
func (q *submissionQueries) ListCompletedForUser(ctx context.Context, userID string, order repository.Order) ([]domain.Submission, error) {
	return q.listForUser(ctx, userID, domain.FinishedStatuses, order)
}

func (q *submissionQueries) CountPending(ctx context.Context, userID string) (int64, error) {
	n, err := q.submissions.CountByUserAndStatus(ctx, userID, domain.StatusPendingApproval)
	if err != nil {
		return 0, storageError("count pending submissions", err)
	}
	return n, nil
}

func (q *submissionQueries) listForUser(ctx context.Context, userID string, statuses []domain.SubmissionStatus, order repository.Order) ([]domain.Submission, error) {
	if userID == "" {
		return nil, validationError("user id is required")
	}
	list, err := q.submissions.ListByUser(ctx, userID, statuses, order)
	if err != nil {
		return nil, storageError("list user submissions", err)
	}
	return list, nil
}
