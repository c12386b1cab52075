package storage

import (
	"fmt"
	"path"
	"strings"

	"claim_intake_backend/platform/apperr"
)

// AllowedContentTypes defines the accepted photo MIME types.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// AllowedExtensions is used when a client sends no usable content type.
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ResolveContentType returns the content type to store a photo under. The
// declared type wins when it is allowed; otherwise the file extension decides.
func ResolveContentType(fileName, contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if AllowedContentTypes[ct] {
		return ct, nil
	}
	if ct == "" || ct == "application/octet-stream" {
		if byExt, ok := AllowedExtensions[strings.ToLower(path.Ext(fileName))]; ok {
			return byExt, nil
		}
	}
	return "", apperr.Validation(fmt.Sprintf("file type not allowed: %s (accepted: JPEG, PNG)", describeType(fileName, ct)))
}

// ValidateFileSize checks the size against the configured limit.
func ValidateFileSize(sizeBytes, maxFileSize int64) error {
	if sizeBytes <= 0 {
		return apperr.Validation("file is empty")
	}
	if maxFileSize > 0 && sizeBytes > maxFileSize {
		return apperr.Validation(fmt.Sprintf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, maxFileSize))
	}
	return nil
}

func describeType(fileName, ct string) string {
	if ct != "" {
		return ct
	}
	if ext := path.Ext(fileName); ext != "" {
		return ext
	}
	return "unknown"
}
