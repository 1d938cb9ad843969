// Package usage implements the usage recorder: an async, buffered writer
// that appends one UsageEvent per inbound request without ever blocking or
// failing the request that produced it.
package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wisbric/relaykey/internal/domain"
)

const (
	bufferSize    = 256
	flushInterval = 2 * time.Second
)

// Recorder is an async usage-event writer.
type Recorder struct {
	store   domain.UsageStore
	log     *slog.Logger
	entries chan domain.UsageEvent
	wg      sync.WaitGroup
}

func NewRecorder(store domain.UsageStore, log *slog.Logger) *Recorder {
	return &Recorder{
		store:   store,
		log:     log,
		entries: make(chan domain.UsageEvent, bufferSize),
	}
}

// Start begins the background goroutine that drains queued events and
// returns immediately. The goroutine exits once ctx is cancelled (after
// flushing every already-queued event) or Close closes the queue.
func (r *Recorder) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()
}

// Close waits for the background goroutine to drain and exit.
func (r *Recorder) Close() {
	close(r.entries)
	r.wg.Wait()
}

// Record enqueues a usage event. It never blocks the caller: if the buffer
// is full the event is dropped and a warning is logged, since the request's
// outcome has already been decided by the time this is called.
func (r *Recorder) Record(ev domain.UsageEvent) {
	select {
	case r.entries <- ev:
	default:
		r.log.Warn("usage recorder buffer full, dropping event",
			"vk_id", ev.VirtualKeyID, "partner", ev.PartnerName, "path", ev.Path)
	}
}

func (r *Recorder) run(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-r.entries:
			if !ok {
				return
			}
			r.insert(ev)
		case <-ticker.C:
			// No batching needed (one row per event), so a tick does no
			// work; cancellation is seen through the ctx.Done case.
		case <-ctx.Done():
			r.drain()
			return
		}
	}
}

// drain flushes whatever is already queued without blocking on new sends,
// then returns. Called only after ctx is cancelled.
func (r *Recorder) drain() {
	for {
		select {
		case ev, ok := <-r.entries:
			if !ok {
				return
			}
			r.insert(ev)
		default:
			return
		}
	}
}

func (r *Recorder) insert(ev domain.UsageEvent) {
	if err := r.store.Insert(context.Background(), ev); err != nil {
		r.log.Error("usage recorder: insert failed", "error", err,
			"vk_id", ev.VirtualKeyID, "partner", ev.PartnerName)
	}
}

// ClampLatencyMS clamps an elapsed-time measurement (milliseconds, as an
// int64 to survive arbitrarily long requests) into UsageEvent.LatencyMS's
// int32 range.
func ClampLatencyMS(ms int64) int32 {
	const maxI32 = int64(1<<31 - 1)
	if ms < 0 {
		return 0
	}
	if ms > maxI32 {
		return int32(maxI32)
	}
	return int32(ms)
}
