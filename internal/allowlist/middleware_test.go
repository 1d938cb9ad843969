package allowlist

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/wisbric/relaykey/internal/domain"
	"github.com/wisbric/relaykey/internal/gatewayauth"
	"github.com/wisbric/relaykey/internal/usage"
)

type discardStore struct{}

func (discardStore) Insert(ctx context.Context, ev domain.UsageEvent) error { return nil }

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newCtxWithAllowlist(patterns []string) context.Context {
	rc := domain.RequestContext{
		VK:     domain.VirtualKey{ID: uuid.New()},
		Policy: domain.Policy{EndpointAllowlist: patterns},
	}
	return gatewayauth.WithRequestContext(context.Background(), rc)
}

func TestMiddlewareAllowsMatchingPath(t *testing.T) {
	rec := usage.NewRecorder(discardStore{}, discardLogger())
	called := false
	mw := Middleware(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/proxy/stripe/v1/charges", nil).
		WithContext(newCtxWithAllowlist([]string{"/v1/charges"}))
	resp := httptest.NewRecorder()
	mw.ServeHTTP(resp, req)

	if !called {
		t.Fatal("expected next handler to be called")
	}
}

func TestMiddlewareBlocksNonMatchingPath(t *testing.T) {
	rec := usage.NewRecorder(discardStore{}, discardLogger())
	mw := Middleware(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expected next handler not to be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/proxy/stripe/v1/customers", nil).
		WithContext(newCtxWithAllowlist([]string{"/v1/charges"}))
	resp := httptest.NewRecorder()
	mw.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}
