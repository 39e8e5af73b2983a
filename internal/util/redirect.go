package util

import (
	"net/url"
	"strings"
	"unicode"
)

// SafeRedirect returns target when it is a same-origin path (optionally with a
// query), otherwise fallback. Absolute URLs, protocol-relative URLs and
// backslash tricks are rejected.
func SafeRedirect(target string, fallback string) string {
	trimmed := strings.TrimSpace(target)
	if trimmed == "" || !strings.HasPrefix(trimmed, "/") {
		return fallback
	}

	if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/\\") || strings.ContainsRune(trimmed, '\\') {
		return fallback
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return fallback
		}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" || parsed.User != nil {
		return fallback
	}

	return trimmed
}

// LoginRedirect builds the login URL that returns the user to target afterwards.
func LoginRedirect(target string) string {
	return "/login?redirect=" + url.QueryEscape(SafeRedirect(target, "/"))
}
