package repository

import (
	"context"

	"scholarly/feedback-app/internal/domain"
)

// Error constants for the repository layer
var (
	ErrNotFound       = RepositoryError("not found")
	ErrDuplicate      = RepositoryError("duplicate key")
	ErrStatusConflict = RepositoryError("status does not match expected state")
	ErrUnavailable    = RepositoryError("storage unavailable")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Order selects the sort order of list queries.
type Order int

const (
	// OrderByID sorts by submission id, stable across calls.
	OrderByID Order = iota
	// OrderBySubmittedAt sorts chronologically, oldest first.
	OrderBySubmittedAt
)

// Transactor runs fn as one atomic unit. Repository calls made with the ctx
// passed to fn participate in the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (string, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// IncrementSubmissionCount bumps the informational counter. Inside a
	// transaction it also serialises concurrent creations for the same user.
	IncrementSubmissionCount(ctx context.Context, id string) error
	// UpdateProfile overwrites the display name and email of a user.
	UpdateProfile(ctx context.Context, id, name, email string) (*domain.User, error)
}

// ServiceRepository defines the interface for the pricing tier catalog.
type ServiceRepository interface {
	Create(ctx context.Context, service *domain.Service) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	List(ctx context.Context) ([]domain.Service, error)
}

// SubmissionRepository defines the interface for interacting with submission data.
type SubmissionRepository interface {
	// Create returns ErrDuplicate when the id or a non-nil FileName is
	// already stored. An uploaded file belongs to at most one submission.
	Create(ctx context.Context, submission *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	// FileNameInUse reports whether any submission references the object key.
	FileNameInUse(ctx context.Context, fileName string) (bool, error)
	// UpdateStatus applies change only if the stored status is one of from.
	// Returns ErrNotFound for an unknown id and ErrStatusConflict when the
	// stored status is not in from. The check and the write are one atomic step.
	UpdateStatus(ctx context.Context, id string, from []domain.SubmissionStatus, change domain.StatusChange) (*domain.Submission, error)
	ListByStatus(ctx context.Context, status domain.SubmissionStatus, order Order) ([]domain.Submission, error)
	ListByUser(ctx context.Context, userID string, statuses []domain.SubmissionStatus, order Order) ([]domain.Submission, error)
	CountByUserAndStatus(ctx context.Context, userID string, status domain.SubmissionStatus) (int64, error)
}
