package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/service"
)

// StaffHandler serves the review queue. Every route requires the staff role.
type StaffHandler struct {
	submissions service.SubmissionService
	queries     service.SubmissionQueries
}

func NewStaffHandler(submissions service.SubmissionService, queries service.SubmissionQueries) *StaffHandler {
	return &StaffHandler{submissions: submissions, queries: queries}
}

type HighlightRequest struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Comment string `json:"comment"`
	Color   string `json:"color"`
}

type FeedbackRequest struct {
	Feedback   string             `json:"feedback"`
	Highlights []HighlightRequest `json:"highlights"`
}

// ListByStatus godoc
// @Summary List submissions in a status
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param status path string true "pending_approval, approved, paid, in_progress, completed or rejected"
// @Param order query string false "id (default) or submittedAt"
// @Success 200 {array} SubmissionResponse
// @Failure 400 {object} ErrorResponse "Unknown status"
// @Failure 403 {object} ErrorResponse
// @Router /staff/submissions/status/{status} [get]
func (h *StaffHandler) ListByStatus(c *gin.Context) {
	order, ok := parseOrder(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "order must be 'id' or 'submittedAt'")
		return
	}
	subs, err := h.queries.ListByStatus(c.Request.Context(), c.Param("status"), order)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSubmissionsToResponse(subs))
}

// Approve godoc
// @Summary Approve a pending submission
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} SubmissionResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Submission is not pending approval"
// @Router /staff/submissions/{id}/approve [post]
func (h *StaffHandler) Approve(c *gin.Context) {
	sub, err := h.submissions.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSubmissionToResponse(sub))
}

// Reject godoc
// @Summary Reject a pending submission
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} SubmissionResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Submission is not pending approval"
// @Router /staff/submissions/{id}/reject [post]
func (h *StaffHandler) Reject(c *gin.Context) {
	sub, err := h.submissions.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSubmissionToResponse(sub))
}

// DeliverFeedback godoc
// @Summary Deliver feedback and complete a paid submission
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param feedback body FeedbackRequest true "Feedback text and optional highlights"
// @Success 200 {object} SubmissionResponse
// @Failure 400 {object} ErrorResponse "Empty feedback or bad highlight"
// @Failure 409 {object} ErrorResponse "Submission is not paid"
// @Router /staff/submissions/{id}/feedback [post]
func (h *StaffHandler) DeliverFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	var highlights []domain.Highlight
	for _, hl := range req.Highlights {
		highlights = append(highlights, domain.Highlight{
			Start:   hl.Start,
			End:     hl.End,
			Comment: hl.Comment,
			Color:   hl.Color,
		})
	}

	sub, err := h.submissions.DeliverFeedback(c.Request.Context(), c.Param("id"), req.Feedback, highlights)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSubmissionToResponse(sub))
}
