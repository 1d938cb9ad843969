package proxy

import "net/http"

// isIdempotentMethod reports whether method is eligible for retry. Per the
// retry classifier's definition this is narrower than HTTP's own notion of
// idempotence: only GET, HEAD, and OPTIONS are retried. PUT and DELETE are
// idempotent in the HTTP sense but still carry side effects on a partner API
// the gateway can't safely duplicate, so they get exactly one attempt and
// are never retried, like POST and PATCH.
func isIdempotentMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
