package limits

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
	"github.com/wisbric/relaykey/internal/ratelimit"
	"github.com/wisbric/relaykey/internal/usage"
)

type fakeEvaler struct {
	allow bool
}

func (f *fakeEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	if f.allow {
		return int64(1), nil
	}
	return int64(0), nil
}

type discardStore struct{}

func (discardStore) Insert(ctx context.Context, ev domain.UsageEvent) error { return nil }

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newCtxWithRC(rate float64, quota int) context.Context {
	rc := domain.RequestContext{
		VK:     domain.VirtualKey{ID: uuid.New()},
		Policy: domain.Policy{RPSLimit: &rate, MonthlyQuota: &quota},
	}
	return gatewayauth.WithRequestContext(context.Background(), rc)
}

func TestMiddlewarePassesWhenAllowed(t *testing.T) {
	tb := ratelimit.NewTokenBucket(&fakeEvaler{allow: true}, discardLogger())
	q := ratelimit.NewQuota(&fakeEvaler{allow: true}, discardLogger())
	rec := usage.NewRecorder(discardStore{}, discardLogger())

	called := false
	mw := Middleware(tb, q, rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/proxy/stripe/v1/charges", nil).WithContext(newCtxWithRC(1, 100))
	resp := httptest.NewRecorder()
	mw.ServeHTTP(resp, req)

	if !called {
		t.Fatal("expected next handler to be called")
	}
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestMiddlewareBlocksOnRateLimit(t *testing.T) {
	tb := ratelimit.NewTokenBucket(&fakeEvaler{allow: false}, discardLogger())
	q := ratelimit.NewQuota(&fakeEvaler{allow: true}, discardLogger())
	rec := usage.NewRecorder(discardStore{}, discardLogger())

	mw := Middleware(tb, q, rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expected next handler not to be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/proxy/stripe/v1/charges", nil).WithContext(newCtxWithRC(1, 100))
	resp := httptest.NewRecorder()
	mw.ServeHTTP(resp, req)

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
}

func TestMiddlewareBlocksOnQuota(t *testing.T) {
	tb := ratelimit.NewTokenBucket(&fakeEvaler{allow: true}, discardLogger())
	q := ratelimit.NewQuota(&fakeEvaler{allow: false}, discardLogger())
	rec := usage.NewRecorder(discardStore{}, discardLogger())

	mw := Middleware(tb, q, rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expected next handler not to be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/proxy/stripe/v1/charges", nil).WithContext(newCtxWithRC(1, 100))
	resp := httptest.NewRecorder()
	mw.ServeHTTP(resp, req)

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
}

func TestMiddlewareRequiresAuthContext(t *testing.T) {
	tb := ratelimit.NewTokenBucket(&fakeEvaler{allow: true}, discardLogger())
	q := ratelimit.NewQuota(&fakeEvaler{allow: true}, discardLogger())
	rec := usage.NewRecorder(discardStore{}, discardLogger())

	mw := Middleware(tb, q, rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expected next handler not to be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/proxy/stripe/v1/charges", nil)
	resp := httptest.NewRecorder()
	mw.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without auth context, got %d", resp.Code)
	}
}
