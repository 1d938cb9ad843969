package policycache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wisbric/relaykey/internal/domain"
)

type fakeClient struct {
	data map[string]string
	fail bool
}

func newFakeClient() *fakeClient { return &fakeClient{data: map[string]string{}} }

func (f *fakeClient) Get(ctx context.Context, key string) (string, error) {
	if f.fail {
		return "", errors.New("transport down")
	}
	v, ok := f.data[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func (f *fakeClient) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if f.fail {
		return errors.New("transport down")
	}
	f.data[key] = value
	return nil
}

type fakeStore struct {
	policies map[uuid.UUID]*domain.Policy
	calls    int
}

func (s *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Policy, error) {
	s.calls++
	p, ok := s.policies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestGetFallsThroughOnMissAndRepopulates(t *testing.T) {
	id := uuid.New()
	want := &domain.Policy{ID: id, Name: "default", TimeoutMS: 5000}
	store := &fakeStore{policies: map[uuid.UUID]*domain.Policy{id: want}}
	client := newFakeClient()
	cache := New(client, store, 0, discardLogger())

	got, err := cache.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != want.Name {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if store.calls != 1 {
		t.Fatalf("expected 1 store call, got %d", store.calls)
	}

	raw, ok := client.data[key(id)]
	if !ok {
		t.Fatal("expected cache to be repopulated after store hit")
	}
	var decoded domain.Policy
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("cached value not valid JSON: %v", err)
	}

	if _, err := cache.Get(context.Background(), id); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected store not to be hit again on cache hit, calls=%d", store.calls)
	}
}

func TestGetFallsThroughOnCacheTransportError(t *testing.T) {
	id := uuid.New()
	want := &domain.Policy{ID: id, Name: "p"}
	store := &fakeStore{policies: map[uuid.UUID]*domain.Policy{id: want}}
	client := newFakeClient()
	client.fail = true
	cache := New(client, store, 0, discardLogger())

	got, err := cache.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("expected cache outage to fall through, got err: %v", err)
	}
	if got.Name != want.Name {
		t.Fatalf("got %+v", got)
	}
}

func TestGetPropagatesStoreNotFound(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{policies: map[uuid.UUID]*domain.Policy{}}
	cache := New(newFakeClient(), store, 0, discardLogger())

	_, err := cache.Get(context.Background(), id)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
