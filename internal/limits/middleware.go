// Package limits implements the rate-limit/quota middleware, applied after
// auth and before the allowlist check.
package limits

import (
	"net/http"
	"time"

	"github.com/wisbric/relaykey/internal/domain"
	"github.com/wisbric/relaykey/internal/gatewayauth"
	"github.com/wisbric/relaykey/internal/httpserver"
	"github.com/wisbric/relaykey/internal/ratelimit"
	"github.com/wisbric/relaykey/internal/routing"
	"github.com/wisbric/relaykey/internal/usage"
)

// Middleware enforces policy.rps_limit then policy.monthly_quota, in that
// order, recording a UsageEvent and rejecting with 429 on either denial.
// Cache-transport errors already fail open inside TokenBucket/Quota; this
// middleware only reacts to an explicit allowed=false.
func Middleware(tb *ratelimit.TokenBucket, quota *ratelimit.Quota, recorder *usage.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc, ok := gatewayauth.FromContext(r.Context())
			if !ok {
				httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "missing auth context")
				return
			}

			partner := routing.ProxyPartner(r.URL.Path)
			vkID := rc.VK.ID.String()

			if rc.Policy.RPSLimit != nil {
				allowed, _ := tb.Allow(r.Context(), vkID, *rc.Policy.RPSLimit, rc.Policy.Burst())
				if !allowed {
					recorder.Record(domain.UsageEvent{
						VirtualKeyID:  rc.VK.ID,
						PartnerName:   partner,
						Path:          r.URL.Path,
						Forwarded:     false,
						BlockedReason: domain.StrPtr(domain.BlockRateLimitExceeded),
						LatencyMS:     usage.ClampLatencyMS(time.Since(rc.Start).Milliseconds()),
					})
					httpserver.RespondBlocked(w, http.StatusTooManyRequests, domain.BlockRateLimitExceeded)
					return
				}
			}

			if rc.Policy.MonthlyQuota != nil {
				allowed, _ := quota.AllowAndIncr(r.Context(), vkID, *rc.Policy.MonthlyQuota)
				if !allowed {
					recorder.Record(domain.UsageEvent{
						VirtualKeyID:  rc.VK.ID,
						PartnerName:   partner,
						Path:          r.URL.Path,
						Forwarded:     false,
						BlockedReason: domain.StrPtr(domain.BlockMonthlyQuotaExceeded),
						LatencyMS:     usage.ClampLatencyMS(time.Since(rc.Start).Milliseconds()),
					})
					httpserver.RespondBlocked(w, http.StatusTooManyRequests, domain.BlockMonthlyQuotaExceeded)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
