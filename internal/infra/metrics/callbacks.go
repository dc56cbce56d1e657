package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(callbackDeliveries, callbackDuration) }

var (
	callbackDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callback_deliveries_total",
			Help: "Webhook deliveries by job status and result (delivered, rejected, error).",
		},
		[]string{"status", "result"},
	)

	callbackDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "callback_duration_seconds",
			Help:    "Duration of webhook POSTs in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)
)

func ObserveCallback(status, result string, elapsed time.Duration) {
	callbackDeliveries.WithLabelValues(norm(status), norm(result)).Inc()
	callbackDuration.Observe(elapsed.Seconds())
}
