package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeBaseURL validates an http(s) base URL and strips trailing
// slashes.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q: missing host", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// IsLocalhost reports whether serverURL points at this machine.
func IsLocalhost(serverURL string) bool {
	u, err := url.Parse(serverURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// IsPlainRemote reports an unencrypted URL to another host.
func IsPlainRemote(serverURL string) bool {
	u, err := url.Parse(serverURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" && !IsLocalhost(serverURL)
}
