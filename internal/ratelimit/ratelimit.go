// Package ratelimit implements the two cache-backed limiter primitives:
// a token bucket keyed per virtual key and a calendar-month quota counter.
// Both operations execute as a single atomic Redis script and are fail-open —
// a transport error is logged and treated as "allowed" so a cache outage
// never takes the gateway down with it.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Evaler is the minimal Redis surface the limiters need. platform.ScriptEvaler
// adapts *redis.Client (whose Eval returns a *redis.Cmd) to it.
type Evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

const tokenBucketTTLSeconds = 7 * 24 * 60 * 60

// tokenBucketScript refills then admits in a single round trip. Returns 1 if
// admitted, 0 if denied.
const tokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now_ms = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local tokens = capacity
local ts_ms = now_ms

local existing = redis.call('HMGET', key, 'tokens', 'ts_ms')
if existing[1] and existing[2] then
  tokens = tonumber(existing[1])
  ts_ms = tonumber(existing[2])
  local elapsed = now_ms - ts_ms
  if elapsed > 0 then
    tokens = math.min(capacity, tokens + (elapsed / 1000.0) * rate)
  end
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call('HMSET', key, 'tokens', tostring(tokens), 'ts_ms', tostring(now_ms))
redis.call('EXPIRE', key, ttl)

return allowed
`

// TokenBucket enforces policy.rps_limit / policy.rps_burst.
type TokenBucket struct {
	client Evaler
	log    *slog.Logger
}

func NewTokenBucket(client Evaler, log *slog.Logger) *TokenBucket {
	return &TokenBucket{client: client, log: log}
}

// Allow runs allow(vk_id, rate, capacity). On any transport error it logs
// and returns (true, nil): fail-open.
func (b *TokenBucket) Allow(ctx context.Context, vkID string, rate float64, capacity int) (bool, error) {
	key := fmt.Sprintf("rl:%s", vkID)
	nowMS := time.Now().UnixMilli()

	res, err := b.client.Eval(ctx, tokenBucketScript, []string{key}, capacity, rate, nowMS, tokenBucketTTLSeconds)
	if err != nil {
		b.log.Warn("ratelimit: token bucket eval failed, failing open", "vk_id", vkID, "error", err)
		return true, nil
	}

	return toInt64(res) == 1, nil
}

// quotaScript admits and increments in a single round trip. Returns 1 if
// admitted (and incremented), 0 if denied (counter untouched).
const quotaScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local current = tonumber(redis.call('GET', key) or '0')
if current >= limit then
  return 0
end

local newVal = redis.call('INCR', key)
if newVal == 1 then
  redis.call('EXPIRE', key, ttl)
end
return 1
`

// Quota enforces policy.monthly_quota.
type Quota struct {
	client Evaler
	log    *slog.Logger
}

func NewQuota(client Evaler, log *slog.Logger) *Quota {
	return &Quota{client: client, log: log}
}

// AllowAndIncr runs allow_and_incr(vk_id, limit) for the current UTC month.
// Fail-open on transport error.
func (q *Quota) AllowAndIncr(ctx context.Context, vkID string, limit int) (bool, error) {
	key := fmt.Sprintf("quota:%s:%s", vkID, time.Now().UTC().Format("200601"))
	ttl := secondsUntilNextUTCMonth(time.Now().UTC())

	res, err := q.client.Eval(ctx, quotaScript, []string{key}, limit, ttl)
	if err != nil {
		q.log.Warn("ratelimit: quota eval failed, failing open", "vk_id", vkID, "error", err)
		return true, nil
	}

	return toInt64(res) == 1, nil
}

// secondsUntilNextUTCMonth returns the number of seconds from now until the
// first instant of next UTC month, lower-bounded at 60.
func secondsUntilNextUTCMonth(now time.Time) int64 {
	year, month, _ := now.Date()
	nextMonth := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	secs := int64(nextMonth.Sub(now).Seconds())
	if secs < 60 {
		return 60
	}
	return secs
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
