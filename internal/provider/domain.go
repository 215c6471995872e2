package provider

import (
	"net/url"
	"strings"
)

// NormalizeDomain reduces a URL or host to the bare lowercase host providers
// are queried with: scheme, port, path, trailing dot and a leading "www."
// are removed.
func NormalizeDomain(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.TrimSuffix(u.Hostname(), ".")
	return strings.TrimPrefix(host, "www.")
}
