package service

import (
	"errors"
	"fmt"

	"scholarly/feedback-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrServiceNotFound    = errors.New("service not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrValidationFailed   = errors.New("validation failed")
	ErrQuotaExceeded      = errors.New("pending submission limit reached")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}

// storageError turns transient repository faults into ErrStorageUnavailable
// and passes everything else through with context.
func storageError(op string, err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
