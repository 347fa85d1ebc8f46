package memory

import (
	"context"
	"fmt"
	"sort"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/repository"
)

type submissionRecord struct {
	submission domain.Submission
	seq        uint64
}

type SubmissionRepository struct {
	store *Store
}

var _ repository.SubmissionRepository = (*SubmissionRepository)(nil)

func clone(s domain.Submission) domain.Submission {
	if s.Highlights != nil {
		s.Highlights = append([]domain.Highlight(nil), s.Highlights...)
	}
	return s
}

func (r *SubmissionRepository) Create(ctx context.Context, submission *domain.Submission) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id := submission.ID
	if _, exists := s.submissions[id]; exists {
		return fmt.Errorf("submission %s: %w", id, repository.ErrDuplicate)
	}
	if submission.FileName != nil && s.fileNameInUse(*submission.FileName) {
		return fmt.Errorf("file %s: %w", *submission.FileName, repository.ErrDuplicate)
	}
	s.submissions[id] = submissionRecord{submission: clone(*submission), seq: s.nextSeq()}
	s.record(ctx, func() { delete(s.submissions, id) })
	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	sub := clone(rec.submission)
	return &sub, nil
}

func (r *SubmissionRepository) FileNameInUse(ctx context.Context, fileName string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileNameInUse(fileName), nil
}

// fileNameInUse must be called with s.mu held.
func (s *Store) fileNameInUse(fileName string) bool {
	for _, rec := range s.submissions {
		if rec.submission.FileName != nil && *rec.submission.FileName == fileName {
			return true
		}
	}
	return false
}

func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, from []domain.SubmissionStatus, change domain.StatusChange) (*domain.Submission, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !containsStatus(from, rec.submission.Status) {
		return nil, fmt.Errorf("submission %s is %s: %w", id, rec.submission.Status, repository.ErrStatusConflict)
	}

	prev := submissionRecord{submission: clone(rec.submission), seq: rec.seq}
	change.ApplyTo(&rec.submission)
	s.submissions[id] = rec
	s.record(ctx, func() { s.submissions[id] = prev })

	out := clone(rec.submission)
	return &out, nil
}

func (r *SubmissionRepository) ListByStatus(ctx context.Context, status domain.SubmissionStatus, order repository.Order) ([]domain.Submission, error) {
	return r.filter(order, func(sub *domain.Submission) bool {
		return sub.Status == status
	}), nil
}

// ListByUser returns the user's submissions whose status is in statuses.
// A nil statuses slice matches every status.
func (r *SubmissionRepository) ListByUser(ctx context.Context, userID string, statuses []domain.SubmissionStatus, order repository.Order) ([]domain.Submission, error) {
	return r.filter(order, func(sub *domain.Submission) bool {
		return sub.IsOwnedBy(userID) && (statuses == nil || containsStatus(statuses, sub.Status))
	}), nil
}

func (r *SubmissionRepository) CountByUserAndStatus(ctx context.Context, userID string, status domain.SubmissionStatus) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, rec := range s.submissions {
		if rec.submission.IsOwnedBy(userID) && rec.submission.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *SubmissionRepository) filter(order repository.Order, match func(*domain.Submission) bool) []domain.Submission {
	s := r.store
	s.mu.Lock()
	recs := make([]submissionRecord, 0)
	for _, rec := range s.submissions {
		if match(&rec.submission) {
			recs = append(recs, submissionRecord{submission: clone(rec.submission), seq: rec.seq})
		}
	}
	s.mu.Unlock()

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i].submission, recs[j].submission
		if order == repository.OrderBySubmittedAt && !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return recs[i].seq < recs[j].seq
	})

	out := make([]domain.Submission, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.submission)
	}
	return out
}

func containsStatus(set []domain.SubmissionStatus, s domain.SubmissionStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
