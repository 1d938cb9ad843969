package retry

import (
	"context"
	"fmt"
	"log/slog"
)

// Evaler is the minimal Redis surface the dual retry budget needs.
type Evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

const (
	DefaultPartnerRetriesPerMin = 300
	DefaultVKRetriesPerMin      = 60

	budgetTTLSeconds = 60
)

// dualBudgetScript atomically increments both counters and reports whether
// either one is now over its limit. The counters are best-effort: overshoot
// by one per attempt is tolerated, so the script increments before checking.
const dualBudgetScript = `
local partnerKey = KEYS[1]
local vkKey = KEYS[2]
local partnerLimit = tonumber(ARGV[1])
local vkLimit = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local partnerUsed = redis.call('INCR', partnerKey)
if partnerUsed == 1 then redis.call('EXPIRE', partnerKey, ttl) end

local vkUsed = redis.call('INCR', vkKey)
if vkUsed == 1 then redis.call('EXPIRE', vkKey, ttl) end

if partnerUsed > partnerLimit then
  return -1
end
if vkUsed > vkLimit then
  return -2
end
return 1
`

// Scopes a denial can be attributed to, for metrics.
const (
	DeniedByPartner = "partner"
	DeniedByVK      = "vk"
)

// Budget enforces the dual minute-bucketed partner/virtual-key retry
// budgets.
type Budget struct {
	client               Evaler
	log                  *slog.Logger
	partnerRetriesPerMin int
	vkRetriesPerMin      int
}

func NewBudget(client Evaler, log *slog.Logger, partnerRetriesPerMin, vkRetriesPerMin int) *Budget {
	if partnerRetriesPerMin <= 0 {
		partnerRetriesPerMin = DefaultPartnerRetriesPerMin
	}
	if vkRetriesPerMin <= 0 {
		vkRetriesPerMin = DefaultVKRetriesPerMin
	}
	return &Budget{
		client:               client,
		log:                  log,
		partnerRetriesPerMin: partnerRetriesPerMin,
		vkRetriesPerMin:      vkRetriesPerMin,
	}
}

// Allow consumes one unit from both minute budgets for the given partner
// name and virtual key id. Each counter is a TTL=60s rolling window: it
// resets itself 60s after its first increment. On denial, deniedScope names
// the counter that ran out. Fail-open on transport error.
func (b *Budget) Allow(ctx context.Context, partnerName, vkID string) (allowed bool, deniedScope string, err error) {
	partnerKey := fmt.Sprintf("rk:retry_budget:partner:%s:m", partnerName)
	vkKey := fmt.Sprintf("rk:retry_budget:vk:%s:m", vkID)

	res, evalErr := b.client.Eval(ctx, dualBudgetScript, []string{partnerKey, vkKey}, b.partnerRetriesPerMin, b.vkRetriesPerMin, budgetTTLSeconds)
	if evalErr != nil {
		b.log.Warn("retry: budget eval failed, failing open", "partner", partnerName, "vk_id", vkID, "error", evalErr)
		return true, "", nil
	}

	switch toInt64(res) {
	case 1:
		return true, "", nil
	case -2:
		return false, DeniedByVK, nil
	default:
		return false, DeniedByPartner, nil
	}
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
