package retry

import (
	"errors"
	"net"
	"syscall"
)

// isTimeout reports a net.Error reporting Timeout(), which covers both
// dial timeouts and response-header/read deadline timeouts from the
// http.Client.
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// isConnectFailure reports a refused or unreachable TCP connect, the only
// other transport failure mode treated as retryable. A reset on an already
// established connection is not a connect failure and stays terminal.
func isConnectFailure(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
