package telemetry

import "github.com/prometheus/client_golang/prometheus"

// ProxyRequestsTotal counts every terminal proxy outcome, labeled by
// partner and outcome (forwarded, or a blocked_reason code).
var ProxyRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "relaykey",
		Subsystem: "proxy",
		Name:      "requests_total",
		Help:      "Total number of terminal proxy outcomes by partner and outcome.",
	},
	[]string{"partner", "outcome"},
)

// ProxyAttemptTotal counts every outbound attempt the proxy handler makes,
// labeled by partner and attempt number.
var ProxyAttemptTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "relaykey",
		Subsystem: "proxy",
		Name:      "attempt_total",
		Help:      "Total number of outbound attempts by partner and attempt number.",
	},
	[]string{"partner", "attempt"},
)

// RetryBudgetDeniedTotal counts retries denied by the dual retry budget,
// labeled by which scope (partner or vk) denied it.
var RetryBudgetDeniedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "relaykey",
		Subsystem: "retry",
		Name:      "budget_denied_total",
		Help:      "Total number of retries denied by the dual retry budget.",
	},
	[]string{"scope"},
)

// UpstreamRequestDuration tracks outbound latency to partner APIs per
// attempt, labeled by partner only.
var UpstreamRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "relaykey",
		Subsystem: "proxy",
		Name:      "upstream_duration_seconds",
		Help:      "Upstream request duration in seconds, per attempt.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"partner"},
)

// All returns RelayKey's domain-specific metrics for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		ProxyRequestsTotal,
		ProxyAttemptTotal,
		RetryBudgetDeniedTotal,
		UpstreamRequestDuration,
	}
}
