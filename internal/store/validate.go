package store

import (
	"errors"
	"net/url"
	"strings"
)

var (
	// ErrURLRequired is returned for an empty URL.
	ErrURLRequired = errors.New("URL is required")

	// ErrURLInvalid is returned when a URL cannot be parsed.
	ErrURLInvalid = errors.New("invalid URL format")

	// ErrURLScheme is returned for anything other than http:// or https://.
	// This keeps javascript:, data: and similar schemes out of saved links.
	ErrURLScheme = errors.New("URL must use http:// or https:// scheme")

	// ErrURLHost is returned when an absolute URL has no host.
	ErrURLHost = errors.New("URL must have a valid host")
)

// ValidateURL checks that raw is an absolute http or https URL with a host.
func ValidateURL(raw string) error {
	if raw == "" {
		return ErrURLRequired
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ErrURLInvalid
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrURLScheme
	}
	if u.Host == "" {
		return ErrURLHost
	}
	return nil
}

// NormalizeTags lowercases and trims each tag, drops empty entries and
// duplicates, and keeps first-seen order. An empty result is nil so callers
// store "no tags" rather than an empty set.
func NormalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma-separated tag list as typed into a form or stored
// in an export's Tags column.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(s, ","))
}
