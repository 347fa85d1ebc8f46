package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarly/feedback-app/internal/service"
)

type UploadHandler struct {
	uploads service.UploadService
}

func NewUploadHandler(uploads service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

type UploadURLRequest struct {
	FileName  string `json:"fileName" binding:"required"`
	SizeBytes int64  `json:"sizeBytes" binding:"required,gt=0"`
}

// RequestUploadURL godoc
// @Summary Get a presigned URL for uploading a manuscript
// @Description The client PUTs the file to uploadUrl, then creates the submission with objectKey.
// @Tags Uploads
// @Accept json
// @Produce json
// @Param request body UploadURLRequest true "File details"
// @Success 200 {object} domain.UploadTicket
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse "Uploads not configured"
// @Router /uploads [post]
func (h *UploadHandler) RequestUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	ticket, err := h.uploads.RequestUploadURL(c.Request.Context(), optionalUserID(c), req.FileName, req.SizeBytes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}
