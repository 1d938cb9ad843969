// Package gatewayauth implements the auth middleware: resolving the
// inbound x-relaykey header to a VirtualKey and its Policy bundle, and
// attaching the result to the request context for downstream middleware.
package gatewayauth

import (
	"context"

	"github.com/wisbric/relaykey/internal/domain"
)

type ctxKey struct{}

// WithRequestContext attaches rc to ctx.
func WithRequestContext(ctx context.Context, rc domain.RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext returns the RequestContext attached by the auth middleware.
// ok is false if none is present (the middleware didn't run or rejected the
// request before attaching one).
func FromContext(ctx context.Context) (domain.RequestContext, bool) {
	rc, ok := ctx.Value(ctxKey{}).(domain.RequestContext)
	return rc, ok
}
