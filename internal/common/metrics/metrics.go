// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_requests_total",
			Help: "Total number of natural-language queries processed",
		},
		[]string{"intent_type", "category", "status"},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_calls_total",
			Help: "Total number of text-generation provider calls",
		},
		[]string{"provider", "status"},
	)

	ProviderFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_fallbacks_total",
			Help: "Total number of fallback attempts to the alternate provider",
		},
		[]string{"from", "to"},
	)

	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Total number of calls rejected by the rate gate",
		},
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "provider_call_duration_seconds",
			Help: "Duration of provider generation calls in seconds",
		},
		[]string{"provider"},
	)

	TokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_tokens_used_total",
			Help: "Total tokens consumed across providers",
		},
		[]string{"provider"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_cache_requests_total",
			Help: "Answer cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
