package util

import (
	"net/http"
	"strings"
)

func DetectMIME(head []byte) string {
	if len(head) > 512 {
		head = head[:512]
	}
	return http.DetectContentType(head)
}

func IsImageMIME(mimeType string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(cleaned, "image/")
}

// IsResizableMIME reports whether the media proxy can decode and rescale the type.
func IsResizableMIME(mimeType string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(cleaned, ";"); idx >= 0 {
		cleaned = strings.TrimSpace(cleaned[:idx])
	}

	switch cleaned {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}
