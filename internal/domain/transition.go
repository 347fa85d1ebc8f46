package domain

import "time"

// Action names an operation that moves a submission between statuses.
type Action string

const (
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionMarkPaid        Action = "mark_paid"
	ActionStartWork       Action = "start_work"
	ActionDeliverFeedback Action = "deliver_feedback"
)

// Milestone identifies which timestamp a transition stamps, if any.
type Milestone string

const (
	MilestoneNone      Milestone = ""
	MilestoneApproved  Milestone = "approved"
	MilestonePaid      Milestone = "paid"
	MilestoneCompleted Milestone = "completed"
)

// Transition is one row of the lifecycle rule table.
type Transition struct {
	Action    Action
	From      []SubmissionStatus
	To        SubmissionStatus
	Milestone Milestone
}

// Allows reports whether the transition may start from the given status.
func (t Transition) Allows(current SubmissionStatus) bool {
	for _, s := range t.From {
		if s == current {
			return true
		}
	}
	return false
}

// Transitions is the complete lifecycle. Anything not listed here is rejected.
var Transitions = map[Action]Transition{
	ActionApprove: {
		Action:    ActionApprove,
		From:      []SubmissionStatus{StatusPendingApproval},
		To:        StatusApproved,
		Milestone: MilestoneApproved,
	},
	ActionReject: {
		Action: ActionReject,
		From:   []SubmissionStatus{StatusPendingApproval},
		To:     StatusRejected,
	},
	ActionMarkPaid: {
		Action:    ActionMarkPaid,
		From:      []SubmissionStatus{StatusApproved},
		To:        StatusPaid,
		Milestone: MilestonePaid,
	},
	ActionStartWork: {
		Action: ActionStartWork,
		From:   []SubmissionStatus{StatusPaid},
		To:     StatusInProgress,
	},
	ActionDeliverFeedback: {
		Action:    ActionDeliverFeedback,
		From:      []SubmissionStatus{StatusPaid, StatusInProgress},
		To:        StatusCompleted,
		Milestone: MilestoneCompleted,
	},
}

// StatusChange is the full set of fields written by a single transition.
// Repositories apply it atomically, guarded by the transition's From statuses.
type StatusChange struct {
	To        SubmissionStatus
	Milestone Milestone
	At        time.Time

	Feedback         *string
	Highlights       []Highlight
	PaymentReference *string
	PaymentStatus    *string
}

// NewStatusChange builds the base change for a transition stamped at the given time.
func NewStatusChange(t Transition, at time.Time) StatusChange {
	return StatusChange{
		To:        t.To,
		Milestone: t.Milestone,
		At:        at,
	}
}

// ApplyTo mutates a submission in memory the same way a repository persists the change.
func (c StatusChange) ApplyTo(s *Submission) {
	s.Status = c.To
	at := c.At
	switch c.Milestone {
	case MilestoneApproved:
		s.ApprovedAt = &at
	case MilestonePaid:
		s.PaidAt = &at
	case MilestoneCompleted:
		s.CompletedAt = &at
	}
	if c.Feedback != nil {
		fb := *c.Feedback
		s.Feedback = &fb
	}
	if c.Highlights != nil {
		s.Highlights = append([]Highlight(nil), c.Highlights...)
	}
	if c.PaymentReference != nil {
		ref := *c.PaymentReference
		s.PaymentReference = &ref
	}
	if c.PaymentStatus != nil {
		s.PaymentStatus = *c.PaymentStatus
	}
}
