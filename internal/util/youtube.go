package util

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	youTubeIDLength     = 11
	youTubeThumbnailURL = "https://img.youtube.com/vi/%s/maxresdefault.jpg"
	youTubeEmbedURL     = "https://www.youtube.com/embed/%s"
)

var (
	youTubeBareID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	youTubeURL    = regexp.MustCompile(`^.*(youtu.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)
)

// ResolveVideoID accepts a bare video id or any common YouTube URL form and
// returns the 11 character id. ok is false when no id can be derived.
func ResolveVideoID(input string) (id string, ok bool) {
	cleaned := strings.TrimSpace(input)
	if cleaned == "" {
		return "", false
	}

	if youTubeBareID.MatchString(cleaned) {
		return cleaned, true
	}

	match := youTubeURL.FindStringSubmatch(cleaned)
	if len(match) < 3 || len(match[2]) != youTubeIDLength {
		return "", false
	}

	return match[2], true
}

// ResolveThumbnailURL resolves input like ResolveVideoID and formats the
// matching thumbnail CDN URL.
func ResolveThumbnailURL(input string) (string, bool) {
	id, ok := ResolveVideoID(input)
	if !ok {
		return "", false
	}
	return fmt.Sprintf(youTubeThumbnailURL, id), true
}

func EmbedURL(id string) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf(youTubeEmbedURL, id)
}

// FirstThumbnail returns the first resolvable YouTube thumbnail among refs,
// falling back to fallback when none resolves.
func FirstThumbnail(fallback string, refs ...string) string {
	for _, ref := range refs {
		if thumb, ok := ResolveThumbnailURL(ref); ok {
			return thumb
		}
	}
	return fallback
}
