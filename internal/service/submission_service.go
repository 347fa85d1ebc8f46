package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/logging"
	"scholarly/feedback-app/internal/pricing"
	"scholarly/feedback-app/internal/repository"
)

// DefaultPendingLimit is how many submissions a user may have awaiting review.
const DefaultPendingLimit = 3

// CreateSubmissionInput carries everything a student sends in. Exactly one of
// Content and FileName must be set.
type CreateSubmissionInput struct {
	UserID                 *string
	ServiceID              string `validate:"required"`
	Title                  string `validate:"required,max=200"`
	Content                *string
	FileName               *string
	DeclaredWordCount      int    `validate:"gte=0,max=1000000"` // Only used for file submissions
	PromptInstructions     string `validate:"required,min=10,max=5000"`
	AdditionalInstructions string `validate:"max=5000"`
	TermsAccepted          bool   `validate:"eq=true"`
}

// ObjectRemover deletes uploaded objects. Satisfied by storage.FileStorage.
type ObjectRemover interface {
	DeleteObject(ctx context.Context, objectKey string) error
}

// --- Service Interface ---
type SubmissionService interface {
	Create(ctx context.Context, in CreateSubmissionInput) (*domain.Submission, error)
	Approve(ctx context.Context, id string) (*domain.Submission, error)
	Reject(ctx context.Context, id string) (*domain.Submission, error)
	RecordPaymentSuccess(ctx context.Context, id, paymentReference string) (*domain.Submission, error)
	StartWork(ctx context.Context, id string) (*domain.Submission, error)
	DeliverFeedback(ctx context.Context, id, feedback string, highlights []domain.Highlight) (*domain.Submission, error)
}

type SubmissionOption func(*submissionService)

// WithPendingLimit overrides DefaultPendingLimit.
func WithPendingLimit(n int) SubmissionOption {
	return func(s *submissionService) {
		if n > 0 {
			s.pendingLimit = n
		}
	}
}

// WithClock replaces time.Now, used for milestone timestamps.
func WithClock(now func() time.Time) SubmissionOption {
	return func(s *submissionService) { s.now = now }
}

// WithUploadCleanup deletes the uploaded object when a file submission
// cannot be created and no other submission references it.
func WithUploadCleanup(r ObjectRemover) SubmissionOption {
	return func(s *submissionService) { s.uploads = r }
}

// --- Service Implementation ---

type submissionService struct {
	tx          repository.Transactor
	users       repository.UserRepository
	services    repository.ServiceRepository
	submissions repository.SubmissionRepository
	uploads     ObjectRemover
	log         logging.Logger

	pendingLimit int
	now          func() time.Time
}

// NewSubmissionService wires the lifecycle engine to its repositories.
func NewSubmissionService(
	tx repository.Transactor,
	users repository.UserRepository,
	services repository.ServiceRepository,
	submissions repository.SubmissionRepository,
	log logging.Logger,
	opts ...SubmissionOption,
) SubmissionService {
	s := &submissionService{
		tx:           tx,
		users:        users,
		services:     services,
		submissions:  submissions,
		log:          log.With("component", "submissions"),
		pendingLimit: DefaultPendingLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// === Creation ===

// Create validates the input, prices it against the chosen service and
// stores it as pending_approval. For a signed in user the quota check and
// the insert run in one transaction.
func (s *submissionService) Create(ctx context.Context, in CreateSubmissionInput) (sub *domain.Submission, err error) {
	if in.FileName != nil {
		key := strings.TrimSpace(*in.FileName)
		in.FileName = &key
		if key != "" {
			inUse, lookupErr := s.submissions.FileNameInUse(ctx, key)
			if lookupErr != nil {
				return nil, storageError("check file name", lookupErr)
			}
			if inUse {
				return nil, errFileAttached
			}
			defer s.releaseUpload(ctx, key, &err)
		}
	}

	sub, err = s.buildSubmission(ctx, in)
	if err != nil {
		return nil, err
	}

	if sub.UserID == nil {
		if err := s.submissions.Create(ctx, sub); err != nil {
			return nil, createError(sub, err)
		}
		s.log.Info(ctx, "guest submission created", "submission_id", sub.ID, "total_price", sub.TotalPrice)
		return sub, nil
	}

	userID := *sub.UserID
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// Touching the user first serialises concurrent creations for this user.
		if err := s.users.IncrementSubmissionCount(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return storageError("increment submission count", err)
		}

		pending, err := s.submissions.CountByUserAndStatus(ctx, userID, domain.StatusPendingApproval)
		if err != nil {
			return storageError("count pending submissions", err)
		}
		if pending >= int64(s.pendingLimit) {
			return fmt.Errorf("%w: %d of %d pending", ErrQuotaExceeded, pending, s.pendingLimit)
		}

		if err := s.submissions.Create(ctx, sub); err != nil {
			return createError(sub, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			s.log.Info(ctx, "submission rejected by quota", "user_id", userID)
		}
		return nil, err
	}

	s.log.Info(ctx, "submission created",
		"submission_id", sub.ID, "user_id", userID, "service_id", sub.ServiceID,
		"word_count", sub.WordCount, "total_price", sub.TotalPrice)
	return sub, nil
}

var errFileAttached = validationError("file is already attached to a submission")

// createError maps a duplicate file key, lost to a concurrent creation, to the
// same validation failure as the up-front check.
func createError(sub *domain.Submission, err error) error {
	if sub.FileName != nil && errors.Is(err, repository.ErrDuplicate) {
		return errFileAttached
	}
	return storageError("create submission", err)
}

// releaseUpload deletes the object behind a failed creation unless some
// submission references it. A retried request must not remove the file of
// the submission that already succeeded.
func (s *submissionService) releaseUpload(ctx context.Context, key string, errp *error) {
	if *errp == nil || s.uploads == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	inUse, err := s.submissions.FileNameInUse(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "kept upload of rejected submission", "object_key", key, "error", err)
		return
	}
	if inUse {
		return
	}
	if err := s.uploads.DeleteObject(ctx, key); err != nil {
		s.log.Warn(ctx, "failed to remove upload of rejected submission", "object_key", key, "error", err)
	}
}

func (s *submissionService) buildSubmission(ctx context.Context, in CreateSubmissionInput) (*domain.Submission, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.PromptInstructions = strings.TrimSpace(in.PromptInstructions)
	in.AdditionalInstructions = strings.TrimSpace(in.AdditionalInstructions)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	hasContent := in.Content != nil && strings.TrimSpace(*in.Content) != ""
	hasFile := in.FileName != nil && strings.TrimSpace(*in.FileName) != ""

	var (
		wordCount int
		content   *string
		fileName  *string
	)
	switch {
	case hasContent && hasFile:
		return nil, validationError("provide either text content or a file, not both")
	case hasContent:
		text := *in.Content
		wordCount = pricing.CountWords(text)
		content = &text
	case hasFile:
		key := strings.TrimSpace(*in.FileName)
		if _, ok := domain.UploadContentType(key); !ok {
			return nil, validationError("file must be a .pdf, .docx or .txt document")
		}
		if in.DeclaredWordCount <= 0 {
			return nil, validationError("wordCount must be positive for file submissions")
		}
		wordCount = in.DeclaredWordCount
		fileName = &key
	default:
		return nil, validationError("either text content or a file is required")
	}

	service, err := s.services.GetByID(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, in.ServiceID)
		}
		return nil, storageError("get service", err)
	}

	price, err := pricing.Price(wordCount, service.UnitPrice)
	if err != nil {
		return nil, validationError("%v", err)
	}

	var userID *string
	if in.UserID != nil && *in.UserID != "" {
		uid := *in.UserID
		userID = &uid
	}

	return &domain.Submission{
		ID:                     uuid.Must(uuid.NewV7()).String(),
		UserID:                 userID,
		ServiceID:              service.ID,
		Title:                  in.Title,
		Content:                content,
		FileName:               fileName,
		WordCount:              wordCount,
		PromptInstructions:     in.PromptInstructions,
		AdditionalInstructions: in.AdditionalInstructions,
		TotalPrice:             price,
		Status:                 domain.StatusPendingApproval,
		SubmittedAt:            s.now().UTC(),
		PaymentStatus:          domain.PaymentStatusUnpaid,
	}, nil
}

// === Transitions ===

func (s *submissionService) Approve(ctx context.Context, id string) (*domain.Submission, error) {
	return s.transition(ctx, id, domain.ActionApprove, nil)
}

func (s *submissionService) Reject(ctx context.Context, id string) (*domain.Submission, error) {
	return s.transition(ctx, id, domain.ActionReject, nil)
}

// RecordPaymentSuccess stores the payment reference, the paid payment status,
// the paid status and paidAt in one write.
func (s *submissionService) RecordPaymentSuccess(ctx context.Context, id, paymentReference string) (*domain.Submission, error) {
	ref := strings.TrimSpace(paymentReference)
	if ref == "" {
		return nil, validationError("payment reference is required")
	}
	return s.transition(ctx, id, domain.ActionMarkPaid, func(_ *domain.Submission, c *domain.StatusChange) error {
		paid := domain.PaymentStatusPaid
		c.PaymentReference = &ref
		c.PaymentStatus = &paid
		return nil
	})
}

// StartWork marks a paid submission as being worked on. Not exposed over HTTP.
func (s *submissionService) StartWork(ctx context.Context, id string) (*domain.Submission, error) {
	return s.transition(ctx, id, domain.ActionStartWork, nil)
}

func (s *submissionService) DeliverFeedback(ctx context.Context, id, feedback string, highlights []domain.Highlight) (*domain.Submission, error) {
	if strings.TrimSpace(feedback) == "" {
		return nil, validationError("feedback must not be empty")
	}
	return s.transition(ctx, id, domain.ActionDeliverFeedback, func(current *domain.Submission, c *domain.StatusChange) error {
		checked, err := checkHighlights(current, highlights)
		if err != nil {
			return err
		}
		fb := feedback
		c.Feedback = &fb
		c.Highlights = checked
		return nil
	})
}

// transition reads the current state, checks it against the rule table and
// then writes with a compare-and-swap on that exact status. A concurrent
// writer that gets there first makes the swap fail with ErrInvalidTransition.
func (s *submissionService) transition(
	ctx context.Context,
	id string,
	action domain.Action,
	prepare func(current *domain.Submission, c *domain.StatusChange) error,
) (*domain.Submission, error) {
	rule, ok := domain.Transitions[action]
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}

	current, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSubmissionNotFound, id)
		}
		return nil, storageError("get submission", err)
	}
	from := current.Status
	if !rule.Allows(from) {
		return nil, fmt.Errorf("%w: cannot %s a submission that is %s", ErrInvalidTransition, action, from.Label())
	}

	change := domain.NewStatusChange(rule, s.now().UTC())
	if prepare != nil {
		if err := prepare(current, &change); err != nil {
			return nil, err
		}
	}

	updated, err := s.submissions.UpdateStatus(ctx, id, []domain.SubmissionStatus{from}, change)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: %s", ErrSubmissionNotFound, id)
		case errors.Is(err, repository.ErrStatusConflict):
			return nil, fmt.Errorf("%w: %s changed concurrently: %v", ErrInvalidTransition, id, err)
		default:
			s.log.Error(ctx, "status update failed", "submission_id", id, "action", action, "error", err)
			return nil, storageError("update submission status", err)
		}
	}

	s.log.Info(ctx, "submission status changed",
		"submission_id", id, "action", string(action), "from", string(from), "to", string(updated.Status))
	return updated, nil
}

// checkHighlights validates feedback annotations and fills in default colors.
// Ranges are checked against the text when the submission has inline content.
func checkHighlights(sub *domain.Submission, in []domain.Highlight) ([]domain.Highlight, error) {
	if len(in) == 0 {
		return nil, nil
	}
	limit := -1
	if sub.HasTextContent() {
		limit = utf8.RuneCountInString(*sub.Content)
	}

	out := make([]domain.Highlight, 0, len(in))
	for i, h := range in {
		if h.Start < 0 || h.End <= h.Start {
			return nil, validationError("highlight %d: invalid range %d-%d", i, h.Start, h.End)
		}
		if limit >= 0 && h.End > limit {
			return nil, validationError("highlight %d: range ends past the text (%d > %d)", i, h.End, limit)
		}
		h.Comment = strings.TrimSpace(h.Comment)
		if h.Comment == "" {
			return nil, validationError("highlight %d: comment is required", i)
		}
		if h.Color == "" {
			h.Color = domain.DefaultHighlightColor
		}
		out = append(out, h)
	}
	return out, nil
}
