package admin

import (
	"crypto/subtle"
	"net/http"

	"github.com/wisbric/relaykey/internal/httpserver"
)

// Gate requires the x-admin-token header to match token. If token is empty
// (unconfigured), every admin request is rejected with 500 rather than
// silently left open.
func Gate(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "admin surface not configured")
				return
			}
			got := r.Header.Get("x-admin-token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
