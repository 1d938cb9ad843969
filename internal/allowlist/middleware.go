package allowlist

import (
	"net/http"
	"time"

	"github.com/wisbric/relaykey/internal/domain"
	"github.com/wisbric/relaykey/internal/gatewayauth"
	"github.com/wisbric/relaykey/internal/httpserver"
	"github.com/wisbric/relaykey/internal/routing"
	"github.com/wisbric/relaykey/internal/usage"
)

// Middleware enforces policy.endpoint_allowlist: applied after the
// limits middleware, before the proxy handler.
func Middleware(recorder *usage.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc, ok := gatewayauth.FromContext(r.Context())
			if !ok {
				httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "missing auth context")
				return
			}

			forwardedPath := routing.ForwardedPath(r.URL.Path)
			if !Match(forwardedPath, rc.Policy.EndpointAllowlist) {
				recorder.Record(domain.UsageEvent{
					VirtualKeyID:  rc.VK.ID,
					PartnerName:   routing.ProxyPartner(r.URL.Path),
					Path:          r.URL.Path,
					Forwarded:     false,
					BlockedReason: domain.StrPtr(domain.BlockEndpointNotAllowed),
					LatencyMS:     usage.ClampLatencyMS(time.Since(rc.Start).Milliseconds()),
				})
				httpserver.RespondError(w, http.StatusForbidden, "forbidden", "Endpoint not allowed")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
