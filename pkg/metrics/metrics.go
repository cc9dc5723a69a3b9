package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SessionRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "portal", Name: "session_refresh_total", Help: "Number of token refresh attempts by outcome."},
		[]string{"outcome"},
	)
	SessionRefreshCoalesced = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "portal", Name: "session_refresh_coalesced_total", Help: "Number of refresh callers served by an already in-flight refresh."},
	)
	CacheFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "portal", Name: "cache_fetch_total", Help: "Number of cache fetches by result (hit, miss)."},
		[]string{"result"},
	)
	CacheRollbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "portal", Name: "cache_rollback_total", Help: "Number of optimistic mutations rolled back after a server failure."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "portal", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "portal", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(SessionRefreshes)
	reg.MustRegister(SessionRefreshCoalesced)
	reg.MustRegister(CacheFetches)
	reg.MustRegister(CacheRollbacks)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
