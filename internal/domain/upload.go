package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Manuscript formats accepted for the file submission path.
var AllowedUploadTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

// UploadContentType returns the content type for an accepted file name.
func UploadContentType(fileName string) (string, bool) {
	ct, ok := AllowedUploadTypes[strings.ToLower(filepath.Ext(fileName))]
	return ct, ok
}

// UploadTicket is handed to a client that wants to upload a manuscript.
// The client PUTs the file to URL and then references ObjectKey when creating the submission.
type UploadTicket struct {
	ObjectKey   string    `json:"objectKey"`
	URL         string    `json:"uploadUrl"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
