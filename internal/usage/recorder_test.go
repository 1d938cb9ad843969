package usage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wisbric/relaykey/internal/domain"
)

type fakeStore struct {
	mu     sync.Mutex
	events []domain.UsageEvent
	failN  int
}

func (s *fakeStore) Insert(ctx context.Context, ev domain.UsageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failN > 0 {
		s.failN--
		return errors.New("insert failed")
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRecorderFlushesOnClose(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	rec.Start(ctx)

	for i := 0; i < 5; i++ {
		rec.Record(domain.UsageEvent{VirtualKeyID: uuid.New(), PartnerName: "stripe", Forwarded: true})
	}

	cancel()
	rec.Close()

	if got := store.count(); got != 5 {
		t.Fatalf("expected all 5 events flushed on shutdown, got %d", got)
	}
}

func TestRecorderDropsWhenBufferFull(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, discardLogger())
	// Deliberately don't Start the drain goroutine so the channel fills.
	for i := 0; i < bufferSize+10; i++ {
		rec.Record(domain.UsageEvent{VirtualKeyID: uuid.New()})
	}
	if len(rec.entries) != bufferSize {
		t.Fatalf("expected channel to cap at bufferSize=%d, got %d", bufferSize, len(rec.entries))
	}
	close(rec.entries)
}

func TestClampLatencyMS(t *testing.T) {
	if got := ClampLatencyMS(-5); got != 0 {
		t.Fatalf("expected negative latency clamped to 0, got %d", got)
	}
	if got := ClampLatencyMS(1000); got != 1000 {
		t.Fatalf("expected normal latency unchanged, got %d", got)
	}
	big := int64(1<<31) + 100
	if got := ClampLatencyMS(big); got != int32(1<<31-1) {
		t.Fatalf("expected overflow clamped to max int32, got %d", got)
	}
}

func TestRecorderInsertErrorDoesNotPanic(t *testing.T) {
	store := &fakeStore{failN: 1}
	rec := NewRecorder(store, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	rec.Start(ctx)

	rec.Record(domain.UsageEvent{VirtualKeyID: uuid.New()})
	rec.Record(domain.UsageEvent{VirtualKeyID: uuid.New()})

	time.Sleep(50 * time.Millisecond)
	cancel()
	rec.Close()

	if got := store.count(); got != 1 {
		t.Fatalf("expected the non-failing insert to have been recorded, got %d", got)
	}
}
