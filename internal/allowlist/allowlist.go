// Package allowlist implements the endpoint-allowlist glob matcher.
package allowlist

import "strings"

// Match reports whether forwardedPath is permitted by patterns:
//   - an empty allowlist allows everything (compatibility default)
//   - a pattern with no "*" is an exact match
//   - a pattern ending "/*" with prefix P matches P itself or anything
//     starting with P + "/"
//   - any other pattern containing "*" requires its non-empty pieces (split
//     on "*") to appear in order within forwardedPath
func Match(forwardedPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if matchOne(forwardedPath, p) {
			return true
		}
	}
	return false
}

func matchOne(forwardedPath, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return forwardedPath == pattern
	}
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		return forwardedPath == prefix || strings.HasPrefix(forwardedPath, prefix+"/")
	}
	return orderedPiecesPresent(forwardedPath, pattern)
}

func orderedPiecesPresent(forwardedPath, pattern string) bool {
	pieces := strings.Split(pattern, "*")
	pos := 0
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		idx := strings.Index(forwardedPath[pos:], piece)
		if idx < 0 {
			return false
		}
		pos += idx + len(piece)
	}
	return true
}
