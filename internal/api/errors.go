package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarly/feedback-app/internal/service"
)

// Error codes are part of the API contract. Clients switch on them.
const (
	CodeNotFound           = "not_found"
	CodeValidationFailed   = "validation_failed"
	CodeQuotaExceeded      = "quota_exceeded"
	CodeInvalidTransition  = "invalid_transition"
	CodeStorageUnavailable = "storage_unavailable"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeConflict           = "conflict"
	CodeInternal           = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type errorKind struct {
	target  error
	status  int
	code    string
	message string
	detail  bool // include err.Error() in the response
}

// errorKinds is checked in order; the first errors.Is match wins.
var errorKinds = []errorKind{
	{service.ErrSubmissionNotFound, http.StatusNotFound, CodeNotFound, "Submission not found.", false},
	{service.ErrServiceNotFound, http.StatusNotFound, CodeNotFound, "The selected service does not exist.", false},
	{service.ErrUserNotFound, http.StatusNotFound, CodeNotFound, "User not found.", false},
	{service.ErrFileNotFound, http.StatusNotFound, CodeNotFound, "This submission has no attached file.", false},
	{service.ErrValidationFailed, http.StatusBadRequest, CodeValidationFailed, "The request is invalid.", true},
	{service.ErrQuotaExceeded, http.StatusTooManyRequests, CodeQuotaExceeded, "You have reached the limit of pending submissions. Please wait for your current submissions to be reviewed before submitting more.", false},
	{service.ErrInvalidTransition, http.StatusConflict, CodeInvalidTransition, "This action is not allowed for the submission in its current status.", true},
	{service.ErrStorageUnavailable, http.StatusServiceUnavailable, CodeStorageUnavailable, "The service is temporarily unavailable. Please try again.", false},
	{service.ErrUserAlreadyExists, http.StatusConflict, CodeConflict, "An account with this username already exists.", false},
	{service.ErrAuthenticationFailed, http.StatusUnauthorized, CodeUnauthorized, "Invalid username or password.", false},
	{service.ErrUploadURLError, http.StatusInternalServerError, CodeInternal, "Could not prepare the file upload.", false},
	{service.ErrDownloadURLError, http.StatusInternalServerError, CodeInternal, "Could not prepare the file download.", false},
}

// QuotaMessage is the quota error text when the limit is known.
func QuotaMessage(limit int) string {
	return fmt.Sprintf("You have reached the limit of %d pending submissions. Please wait for your current submissions to be reviewed before submitting more.", limit)
}

// classifyError maps a service error to its HTTP status and response body.
func classifyError(err error) (int, ErrorResponse) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			resp := ErrorResponse{Error: k.message, Code: k.code}
			if k.detail {
				resp.Detail = err.Error()
			}
			return k.status, resp
		}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "An unexpected error occurred.", Code: CodeInternal}
}

// respondError aborts the request with the mapped error. Unmapped errors are logged.
func respondError(c *gin.Context, err error) {
	status, resp := classifyError(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, resp)
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: message, Code: codeForStatus(code)})
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidationFailed
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusTooManyRequests:
		return CodeQuotaExceeded
	case http.StatusServiceUnavailable:
		return CodeStorageUnavailable
	default:
		return CodeInternal
	}
}
