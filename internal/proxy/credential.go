package proxy

import "strings"

// isValidHeaderName reports whether s is a valid HTTP header field-name
// (RFC 7230 token grammar).
func isValidHeaderName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isTokenChar(r) {
			return false
		}
	}
	return true
}

func isTokenChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case strings.ContainsRune("!#$%&'*+-.^_`|~", r):
		return true
	default:
		return false
	}
}

// isValidHeaderValue reports whether s is safe to set as an HTTP header
// field-value: no CR or LF (which would allow header/request smuggling).
func isValidHeaderValue(s string) bool {
	return !strings.ContainsAny(s, "\r\n")
}
