package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiCallsTotal,
		aiCallsLatencyMs,
		aiRetriesTotal,
		aiFallbacksTotal,
		aiInputTruncated,
	)
}

var (
	aiCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_calls_total",
			Help: "Generation calls per provider/tier and outcome (ok, rate_limited, failed).",
		},
		[]string{"provider", "tier", "outcome"},
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
		[]string{"provider", "tier", "success"},
	)

	aiRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_retries_total",
			Help: "Backoff sleeps taken after a rate-limited call, per tier.",
		},
		[]string{"tier"},
	)

	aiFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_fallbacks_total",
			Help: "Escalations from the capable tier to the fast tier, by cause.",
		},
		[]string{"cause"}, // rate_limited | failure
	)

	aiInputTruncated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_input_truncated_total",
			Help: "Documents truncated to the input character budget before prompting.",
		},
	)
)

// ObserveCall records one generation call.
func ObserveCall(provider, tier, outcome string, elapsed time.Duration) {
	aiCallsTotal.WithLabelValues(norm(provider), norm(tier), norm(outcome)).Inc()
	aiCallsLatencyMs.WithLabelValues(norm(provider), norm(tier), strconv.FormatBool(outcome == "ok")).
		Observe(float64(elapsed.Milliseconds()))
}

func IncRetry(tier string) {
	aiRetriesTotal.WithLabelValues(norm(tier)).Inc()
}

func IncFallback(cause string) {
	aiFallbacksTotal.WithLabelValues(norm(cause)).Inc()
}

func IncTruncated() {
	aiInputTruncated.Inc()
}
