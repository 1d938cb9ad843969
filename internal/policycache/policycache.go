// Package policycache implements the read-through Policy cache: decode from
// the cache on a hit, fall through to the relational store on a miss or a
// cache-transport error, and best-effort repopulate the cache afterward.
// Cache outages never fail a request; store errors do (they propagate to the
// caller as fatal for that request).
package policycache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wisbric/relaykey/internal/domain"
)

// Client is the minimal Redis surface the cache needs.
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// ErrCacheMiss is returned by Client.Get when the key is absent. Redis
// client adapters must translate redis.Nil to this sentinel.
var ErrCacheMiss = fmt.Errorf("policycache: cache miss")

const defaultTTL = 300 * time.Second

// Cache is the read-through Policy cache.
type Cache struct {
	client Client
	store  domain.PolicyStore
	ttl    time.Duration
	log    *slog.Logger
}

// New creates a Cache with the given entry TTL; ttl <= 0 falls back to the
// 300s default.
func New(client Client, store domain.PolicyStore, ttl time.Duration, log *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, store: store, ttl: ttl, log: log}
}

func key(id uuid.UUID) string { return fmt.Sprintf("rk:policy:%s", id) }

// Get returns the Policy for id, serving from cache when possible.
// Store errors, domain.ErrNotFound included, are returned unchanged.
func (c *Cache) Get(ctx context.Context, id uuid.UUID) (*domain.Policy, error) {
	if p, ok := c.getFromCache(ctx, id); ok {
		return p, nil
	}

	p, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.setCache(ctx, id, p)
	return p, nil
}

func (c *Cache) getFromCache(ctx context.Context, id uuid.UUID) (*domain.Policy, bool) {
	raw, err := c.client.Get(ctx, key(id))
	if err != nil {
		if err != ErrCacheMiss {
			c.log.Warn("policycache: get failed, falling through to store", "policy_id", id, "error", err)
		}
		return nil, false
	}

	var p domain.Policy
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		c.log.Warn("policycache: decode failed, falling through to store", "policy_id", id, "error", err)
		return nil, false
	}
	return &p, true
}

func (c *Cache) setCache(ctx context.Context, id uuid.UUID, p *domain.Policy) {
	raw, err := json.Marshal(p)
	if err != nil {
		c.log.Warn("policycache: encode failed, skipping cache repopulate", "policy_id", id, "error", err)
		return
	}
	if err := c.client.Set(ctx, key(id), string(raw), c.ttl); err != nil {
		c.log.Warn("policycache: set failed, continuing uncached", "policy_id", id, "error", err)
	}
}
