package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(queueDepth, dbPoolStats) }

var (
	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "summarize_queue_depth",
			Help: "Jobs waiting in or held by the queue backend.",
		},
		[]string{"state"}, // 'pending', 'in_flight'
	)

	dbPoolStats = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_stats",
			Help: "Current state of the database connection pool.",
		},
		[]string{"state"}, // 'total', 'idle', 'in_use'
	)
)

func SetQueueDepth(pending, inFlight int64) {
	queueDepth.WithLabelValues("pending").Set(float64(pending))
	queueDepth.WithLabelValues("in_flight").Set(float64(inFlight))
}

func SetDBPoolStats(total, idle, inUse int32) {
	dbPoolStats.WithLabelValues("total").Set(float64(total))
	dbPoolStats.WithLabelValues("idle").Set(float64(idle))
	dbPoolStats.WithLabelValues("in_use").Set(float64(inUse))
}
