package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/logging"
	"scholarly/feedback-app/internal/storage"
)

// --- Error Definitions ---
var (
	ErrUploadURLError   = errors.New("failed to generate upload URL")
	ErrDownloadURLError = errors.New("failed to generate download URL")
	ErrFileNotFound     = errors.New("file not found")
)

const guestOwner = "guest"

// UploadService hands out presigned URLs for manuscripts. Clients upload
// straight to object storage and then create the submission with the key.
type UploadService interface {
	RequestUploadURL(ctx context.Context, userID *string, fileName string, sizeBytes int64) (*domain.UploadTicket, error)
	// ConfirmUploaded checks that key belongs to the caller and has been uploaded.
	ConfirmUploaded(ctx context.Context, userID *string, objectKey string) error
	DownloadURL(ctx context.Context, sub *domain.Submission) (string, error)
}

type uploadService struct {
	files   storage.FileStorage
	maxSize int64
	expiry  time.Duration
	log     logging.Logger
}

// NewUploadService creates the upload collaborator. files may be nil when no
// bucket is configured, in which case every call fails with ErrStorageUnavailable.
func NewUploadService(files storage.FileStorage, maxSize int64, expiry time.Duration, log logging.Logger) UploadService {
	if expiry <= 0 {
		expiry = storage.DefaultPresignedURLExpiry
	}
	return &uploadService{files: files, maxSize: maxSize, expiry: expiry, log: log}
}

func ownerSegment(userID *string) string {
	if userID == nil || *userID == "" {
		return guestOwner
	}
	return *userID
}

func (s *uploadService) RequestUploadURL(ctx context.Context, userID *string, fileName string, sizeBytes int64) (*domain.UploadTicket, error) {
	if s.files == nil {
		return nil, fmt.Errorf("%w: file uploads are not configured", ErrStorageUnavailable)
	}

	fileName = strings.TrimSpace(fileName)
	contentType, ok := domain.UploadContentType(fileName)
	if !ok {
		return nil, validationError("file must be a .pdf, .docx or .txt document")
	}
	if sizeBytes <= 0 {
		return nil, validationError("file size must be positive")
	}
	if s.maxSize > 0 && sizeBytes > s.maxSize {
		return nil, validationError("file is larger than %d bytes", s.maxSize)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	objectKey := path.Join("submissions", ownerSegment(userID), uuid.NewString()+ext)

	url, err := s.files.GeneratePresignedUploadURL(ctx, objectKey, contentType, s.expiry)
	if err != nil {
		s.log.Error(ctx, "presign upload failed", "object_key", objectKey, "error", err)
		return nil, ErrUploadURLError
	}

	return &domain.UploadTicket{
		ObjectKey:   objectKey,
		URL:         url,
		ContentType: contentType,
		ExpiresAt:   time.Now().Add(s.expiry).UTC(),
	}, nil
}

func (s *uploadService) ConfirmUploaded(ctx context.Context, userID *string, objectKey string) error {
	if s.files == nil {
		return fmt.Errorf("%w: file uploads are not configured", ErrStorageUnavailable)
	}

	prefix := path.Join("submissions", ownerSegment(userID)) + "/"
	if !strings.HasPrefix(objectKey, prefix) || strings.Contains(objectKey, "..") {
		return validationError("file key does not belong to this uploader")
	}

	exists, err := s.files.ObjectExists(ctx, objectKey)
	if err != nil {
		s.log.Error(ctx, "checking uploaded object failed", "object_key", objectKey, "error", err)
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if !exists {
		return validationError("file %s has not been uploaded", objectKey)
	}
	return nil
}

func (s *uploadService) DownloadURL(ctx context.Context, sub *domain.Submission) (string, error) {
	if sub.FileName == nil || *sub.FileName == "" {
		return "", fmt.Errorf("%w: submission %s has no file", ErrFileNotFound, sub.ID)
	}
	if s.files == nil {
		return "", fmt.Errorf("%w: file uploads are not configured", ErrStorageUnavailable)
	}

	url, err := s.files.GeneratePresignedDownloadURL(ctx, *sub.FileName, s.expiry)
	if err != nil {
		s.log.Error(ctx, "presign download failed", "submission_id", sub.ID, "error", err)
		return "", ErrDownloadURLError
	}
	return url, nil
}
