// Package retry implements the bounded-retry state machine for the proxy
// handler: status/transport classification, the per-partner retry profile,
// the dual leaky retry budgets, and the deterministic backoff formula.
package retry

// StatusRetryable reports whether an upstream HTTP status is a retry
// candidate before the partner profile and budgets are consulted.
func StatusRetryable(status int) bool {
	switch status {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// TransportRetryable reports whether a transport-level failure (as opposed
// to a completed HTTP exchange) is a retry candidate. Only timeouts and
// connect failures are; TLS handshake failures, response-body decode
// errors, and anything else are terminal.
func TransportRetryable(err error) bool {
	if err == nil {
		return false
	}
	return isTimeout(err) || isConnectFailure(err)
}
