package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/pricing"
	"scholarly/feedback-app/internal/repository"
	"scholarly/feedback-app/internal/service"
)

// SubmissionHandler serves the student side of the marketplace.
type SubmissionHandler struct {
	submissions  service.SubmissionService
	queries      service.SubmissionQueries
	uploads      service.UploadService
	pendingLimit int
}

func NewSubmissionHandler(
	submissions service.SubmissionService,
	queries service.SubmissionQueries,
	uploads service.UploadService,
	pendingLimit int,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissions:  submissions,
		queries:      queries,
		uploads:      uploads,
		pendingLimit: pendingLimit,
	}
}

// --- DTOs ---

type CreateTextSubmissionRequest struct {
	ServiceID              string `json:"serviceId" binding:"required"`
	Title                  string `json:"title"`
	Content                string `json:"content" binding:"required"`
	PromptInstructions     string `json:"promptInstructions"`
	AdditionalInstructions string `json:"additionalInstructions"`
	TermsAccepted          bool   `json:"termsAccepted"`
}

type CreateFileSubmissionRequest struct {
	ServiceID              string `json:"serviceId" binding:"required"`
	Title                  string `json:"title"`
	ObjectKey              string `json:"objectKey" binding:"required"`
	WordCount              int    `json:"wordCount"`
	PromptInstructions     string `json:"promptInstructions"`
	AdditionalInstructions string `json:"additionalInstructions"`
	TermsAccepted          bool   `json:"termsAccepted"`
}

type PaymentSuccessRequest struct {
	PaymentReference string `json:"paymentReference" binding:"required"`
}

type SubmissionResponse struct {
	ID                     string             `json:"id"`
	UserID                 *string            `json:"userId,omitempty"`
	ServiceID              string             `json:"serviceId"`
	Title                  string             `json:"title"`
	Content                *string            `json:"content,omitempty"`
	HasFile                bool               `json:"hasFile"`
	WordCount              int                `json:"wordCount"`
	PromptInstructions     string             `json:"promptInstructions"`
	AdditionalInstructions string             `json:"additionalInstructions,omitempty"`
	TotalPrice             int64              `json:"totalPrice"`
	TotalPriceFormatted    string             `json:"totalPriceFormatted"`
	Status                 string             `json:"status"`
	StatusLabel            string             `json:"statusLabel"`
	PaymentStatus          string             `json:"paymentStatus"`
	SubmittedAt            time.Time          `json:"submittedAt"`
	ApprovedAt             *time.Time         `json:"approvedAt,omitempty"`
	PaidAt                 *time.Time         `json:"paidAt,omitempty"`
	CompletedAt            *time.Time         `json:"completedAt,omitempty"`
	Feedback               *string            `json:"feedback,omitempty"`
	Highlights             []domain.Highlight `json:"highlights,omitempty"`
}

type FileURLResponse struct {
	URL string `json:"url"`
}

// MapSubmissionToResponse converts a domain Submission to its API shape.
// The storage key of an uploaded file is never exposed.
func MapSubmissionToResponse(s *domain.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:                     s.ID,
		UserID:                 s.UserID,
		ServiceID:              s.ServiceID,
		Title:                  s.Title,
		Content:                s.Content,
		HasFile:                s.FileName != nil && *s.FileName != "",
		WordCount:              s.WordCount,
		PromptInstructions:     s.PromptInstructions,
		AdditionalInstructions: s.AdditionalInstructions,
		TotalPrice:             s.TotalPrice,
		TotalPriceFormatted:    pricing.FormatPrice(s.TotalPrice),
		Status:                 string(s.Status),
		StatusLabel:            s.Status.Label(),
		PaymentStatus:          s.PaymentStatus,
		SubmittedAt:            s.SubmittedAt,
		ApprovedAt:             s.ApprovedAt,
		PaidAt:                 s.PaidAt,
		CompletedAt:            s.CompletedAt,
		Feedback:               s.Feedback,
		Highlights:             s.Highlights,
	}
}

func MapSubmissionsToResponse(list []domain.Submission) []SubmissionResponse {
	resp := make([]SubmissionResponse, 0, len(list))
	for i := range list {
		resp = append(resp, MapSubmissionToResponse(&list[i]))
	}
	return resp
}

// parseOrder reads ?order=. Only "submittedAt" and "id" are accepted.
func parseOrder(c *gin.Context) (repository.Order, bool) {
	switch c.Query("order") {
	case "", "id":
		return repository.OrderByID, true
	case "submittedAt":
		return repository.OrderBySubmittedAt, true
	default:
		return 0, false
	}
}

// respondCreateError gives the quota error its configured limit.
func (h *SubmissionHandler) respondCreateError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrQuotaExceeded) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
			Error: QuotaMessage(h.pendingLimit),
			Code:  CodeQuotaExceeded,
		})
		return
	}
	respondError(c, err)
}

// --- Handler Methods ---

// CreateTextSubmission godoc
// @Summary Submit text for feedback
// @Description Guests may submit without a token. Signed in students are limited to a number of pending submissions.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param submission body CreateTextSubmissionRequest true "Submission"
// @Success 201 {object} SubmissionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Unknown service"
// @Failure 429 {object} ErrorResponse "Pending submission limit reached"
// @Router /submissions/text [post]
func (h *SubmissionHandler) CreateTextSubmission(c *gin.Context) {
	var req CreateTextSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	content := req.Content
	sub, err := h.submissions.Create(c.Request.Context(), service.CreateSubmissionInput{
		UserID:                 optionalUserID(c),
		ServiceID:              req.ServiceID,
		Title:                  req.Title,
		Content:                &content,
		PromptInstructions:     req.PromptInstructions,
		AdditionalInstructions: req.AdditionalInstructions,
		TermsAccepted:          req.TermsAccepted,
	})
	if err != nil {
		h.respondCreateError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapSubmissionToResponse(sub))
}

// CreateFileSubmission godoc
// @Summary Submit an uploaded manuscript for feedback
// @Description objectKey comes from POST /uploads and may back only one submission. The object is deleted if the submission is not created and no other submission references it.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param submission body CreateFileSubmissionRequest true "Submission"
// @Success 201 {object} SubmissionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse "Pending submission limit reached"
// @Router /submissions/file [post]
func (h *SubmissionHandler) CreateFileSubmission(c *gin.Context) {
	var req CreateFileSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	ctx := c.Request.Context()
	userID := optionalUserID(c)
	if err := h.uploads.ConfirmUploaded(ctx, userID, req.ObjectKey); err != nil {
		respondError(c, err)
		return
	}

	key := req.ObjectKey
	sub, err := h.submissions.Create(ctx, service.CreateSubmissionInput{
		UserID:                 userID,
		ServiceID:              req.ServiceID,
		Title:                  req.Title,
		FileName:               &key,
		DeclaredWordCount:      req.WordCount,
		PromptInstructions:     req.PromptInstructions,
		AdditionalInstructions: req.AdditionalInstructions,
		TermsAccepted:          req.TermsAccepted,
	})
	if err != nil {
		h.respondCreateError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapSubmissionToResponse(sub))
}

// GetMySubmissions godoc
// @Summary List my submissions
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param order query string false "id (default) or submittedAt"
// @Success 200 {array} SubmissionResponse
// @Router /submissions/mine [get]
func (h *SubmissionHandler) GetMySubmissions(c *gin.Context) {
	h.listMine(c, h.queries.ListForUser)
}

// GetMyActiveSubmissions godoc
// @Summary List my submissions that are still in progress
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} SubmissionResponse
// @Router /submissions/mine/active [get]
func (h *SubmissionHandler) GetMyActiveSubmissions(c *gin.Context) {
	h.listMine(c, h.queries.ListActiveForUser)
}

// GetMyCompletedSubmissions godoc
// @Summary List my completed and rejected submissions
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} SubmissionResponse
// @Router /submissions/mine/completed [get]
func (h *SubmissionHandler) GetMyCompletedSubmissions(c *gin.Context) {
	h.listMine(c, h.queries.ListCompletedForUser)
}

func (h *SubmissionHandler) listMine(c *gin.Context, list func(context.Context, string, repository.Order) ([]domain.Submission, error)) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}
	order, ok := parseOrder(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "order must be 'id' or 'submittedAt'")
		return
	}

	subs, err := list(c.Request.Context(), userID, order)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSubmissionsToResponse(subs))
}

// loadVisible fetches the submission and checks the caller may see it:
// staff see everything, students only their own.
func (h *SubmissionHandler) loadVisible(c *gin.Context) (*domain.Submission, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return nil, false
	}
	role, _ := getUserRoleFromContext(c)

	sub, err := h.queries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if role != domain.RoleStaff && !sub.IsOwnedBy(userID) {
		// Same answer as a missing submission, so ids cannot be probed.
		respondError(c, service.ErrSubmissionNotFound)
		return nil, false
	}
	return sub, true
}

// GetSubmission godoc
// @Summary Get a submission
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} SubmissionResponse
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	sub, ok := h.loadVisible(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MapSubmissionToResponse(sub))
}

// GetSubmissionFileURL godoc
// @Summary Get a temporary download URL for the uploaded manuscript
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} FileURLResponse
// @Failure 404 {object} ErrorResponse "Submission not found or has no file"
// @Router /submissions/{id}/file [get]
func (h *SubmissionHandler) GetSubmissionFileURL(c *gin.Context) {
	sub, ok := h.loadVisible(c)
	if !ok {
		return
	}
	url, err := h.uploads.DownloadURL(c.Request.Context(), sub)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, FileURLResponse{URL: url})
}

// RecordPaymentSuccess godoc
// @Summary Record a successful payment for an approved submission
// @Description Called by the client after the payment provider confirms the charge.
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param payment body PaymentSuccessRequest true "Payment reference"
// @Success 200 {object} SubmissionResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Submission is not awaiting payment"
// @Router /submissions/{id}/payment-success [post]
func (h *SubmissionHandler) RecordPaymentSuccess(c *gin.Context) {
	var req PaymentSuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}
	current, err := h.queries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !current.IsOwnedBy(userID) {
		respondError(c, service.ErrSubmissionNotFound)
		return
	}

	sub, err := h.submissions.RecordPaymentSuccess(c.Request.Context(), current.ID, req.PaymentReference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSubmissionToResponse(sub))
}
