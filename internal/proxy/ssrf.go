package proxy

import (
	"net/url"
	"strings"
)

// effectivePort returns the port u would actually connect to: its explicit
// Port(), or the scheme default (80/443) when absent.
func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return "443"
	case "http":
		return "80"
	default:
		return ""
	}
}

// sameOrigin reports whether a and b share scheme, hostname, and effective
// port — the SSRF anchor every outbound URL must match.
func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) &&
		strings.EqualFold(a.Hostname(), b.Hostname()) &&
		effectivePort(a) == effectivePort(b)
}

// looksLikeAbsoluteURL reports whether tail begins with a URL scheme
// prefix, the pre-join SSRF guard.
func looksLikeAbsoluteURL(tail string) bool {
	lower := strings.ToLower(tail)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
