package gatewayauth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wisbric/relaykey/internal/domain"
	"github.com/wisbric/relaykey/internal/httpserver"
	"github.com/wisbric/relaykey/internal/keyhash"
)

// PolicyLoader is satisfied by *policycache.Cache: a Policy lookup that may
// be cached, independent of whether it hits the store directly.
type PolicyLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Policy, error)
}

// Middleware resolves x-relaykey to a
// VirtualKey and its Policy, and attach both to the request context. No
// UsageEvent is written for authentication failures — there is no
// authenticated identity to attribute one to.
func Middleware(keys domain.VirtualKeyStore, policies PolicyLoader, hasher *keyhash.Hasher, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("x-relaykey")
			if raw == "" {
				httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "missing x-relaykey")
				return
			}

			digest := hasher.Digest(raw)

			vk, err := keys.GetByHash(r.Context(), digest)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "invalid virtual key")
					return
				}
				log.Error("auth: virtual key lookup failed", "error", err)
				httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "virtual key lookup failed")
				return
			}
			if !vk.Enabled {
				httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "virtual key disabled")
				return
			}

			policy, err := policies.Get(r.Context(), vk.PolicyID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					log.Error("auth: policy not found", "vk_id", vk.ID, "policy_id", vk.PolicyID)
					httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "policy not found")
					return
				}
				log.Error("auth: policy lookup failed", "error", err, "vk_id", vk.ID)
				httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "policy lookup failed")
				return
			}

			rc := domain.RequestContext{VK: *vk, Policy: *policy, Start: time.Now()}
			next.ServeHTTP(w, r.WithContext(WithRequestContext(r.Context(), rc)))
		})
	}
}
