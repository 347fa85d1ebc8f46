package domain

import (
	"time"
)

// SubmissionStatus type for the submission lifecycle
type SubmissionStatus string

const (
	StatusPendingApproval SubmissionStatus = "pending_approval" // Initial state, waiting for staff review
	StatusApproved        SubmissionStatus = "approved"         // Accepted and priced, ready for payment
	StatusPaid            SubmissionStatus = "paid"             // Payment received
	StatusInProgress      SubmissionStatus = "in_progress"      // Consultant is working on it
	StatusCompleted       SubmissionStatus = "completed"        // Feedback delivered
	StatusRejected        SubmissionStatus = "rejected"         // Not accepted
)

// PaymentStatus values stored alongside the submission.
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []SubmissionStatus{
	StatusPendingApproval,
	StatusApproved,
	StatusPaid,
	StatusInProgress,
	StatusCompleted,
	StatusRejected,
}

// ActiveStatuses are the statuses shown on a student's "active orders" view.
var ActiveStatuses = []SubmissionStatus{
	StatusPendingApproval,
	StatusApproved,
	StatusPaid,
	StatusInProgress,
}

// FinishedStatuses are the terminal statuses.
var FinishedStatuses = []SubmissionStatus{
	StatusCompleted,
	StatusRejected,
}

// ParseSubmissionStatus converts a raw string into a known status.
func ParseSubmissionStatus(raw string) (SubmissionStatus, bool) {
	for _, s := range AllStatuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// Label is the canonical human readable name of a status.
func (s SubmissionStatus) Label() string {
	switch s {
	case StatusPendingApproval:
		return "Pending Approval"
	case StatusApproved:
		return "Approved"
	case StatusPaid:
		return "Paid"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	case StatusRejected:
		return "Rejected"
	default:
		return string(s)
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s SubmissionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// IsActive reports whether the submission is still moving through the workflow.
func (s SubmissionStatus) IsActive() bool {
	return s == StatusPendingApproval || s == StatusApproved || s == StatusPaid || s == StatusInProgress
}

// Highlight is a structured feedback annotation over a range of the submitted text.
// Start and End are rune offsets into Content, End is exclusive.
type Highlight struct {
	Start   int    `bson:"start" json:"start"`
	End     int    `bson:"end" json:"end"`
	Comment string `bson:"comment" json:"comment"`
	Color   string `bson:"color,omitempty" json:"color,omitempty"`
}

// DefaultHighlightColor is used when a highlight does not specify one.
const DefaultHighlightColor = "#FFEB3B"

// Submission is a piece of student writing sent in for feedback.
type Submission struct {
	ID                     string           `bson:"_id" json:"id"`
	UserID                 *string          `bson:"userId,omitempty" json:"userId,omitempty"` // Nil for guest submissions
	ServiceID              string           `bson:"serviceId" json:"serviceId"`
	Title                  string           `bson:"title" json:"title"`
	Content                *string          `bson:"content,omitempty" json:"content,omitempty"`   // Inline text, exclusive with FileName
	FileName               *string          `bson:"fileName,omitempty" json:"fileName,omitempty"` // Storage object key of the uploaded manuscript
	WordCount              int              `bson:"wordCount" json:"wordCount"`
	PromptInstructions     string           `bson:"promptInstructions" json:"promptInstructions"`
	AdditionalInstructions string           `bson:"additionalInstructions,omitempty" json:"additionalInstructions,omitempty"`
	TotalPrice             int64            `bson:"totalPrice" json:"totalPrice"` // Cents, fixed at creation
	Status                 SubmissionStatus `bson:"status" json:"status"`

	SubmittedAt time.Time  `bson:"submittedAt" json:"submittedAt"`
	ApprovedAt  *time.Time `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	PaidAt      *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	Feedback   *string     `bson:"feedback,omitempty" json:"feedback,omitempty"`
	Highlights []Highlight `bson:"highlights,omitempty" json:"highlights,omitempty"`

	PaymentReference *string `bson:"paymentReference,omitempty" json:"paymentReference,omitempty"`
	PaymentStatus    string  `bson:"paymentStatus" json:"paymentStatus"`
}

// IsOwnedBy reports whether the submission belongs to the given user.
func (s *Submission) IsOwnedBy(userID string) bool {
	return s.UserID != nil && *s.UserID == userID
}

// HasTextContent reports whether the submission was sent as inline text.
func (s *Submission) HasTextContent() bool {
	return s.Content != nil && *s.Content != ""
}
