package validation

import (
	"fmt"
	"net/url"
	"strings"
)

var allowedVideoHosts = map[string]struct{}{
	"youtube.com":     {},
	"www.youtube.com": {},
}

// ValidateVideoURL checks that a lesson video link points at youtube.com.
// Links to any other host are rejected.
func ValidateVideoURL(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("video URL is required")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid video URL")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("video URL must use http or https")
	}

	host := strings.ToLower(parsed.Hostname())
	if _, ok := allowedVideoHosts[host]; !ok {
		return fmt.Errorf("only youtube.com links are allowed")
	}

	return nil
}
