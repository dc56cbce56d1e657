package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(guestQuotaDecisions) }

var guestQuotaDecisions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "guest_quota_decisions_total",
		Help: "Guest quota checks and uses, by operation and result.",
	},
	[]string{"op", "result"}, // op="use", result="allowed"|"denied"|"error"
)

func IncQuotaDecision(op, result string) {
	guestQuotaDecisions.WithLabelValues(norm(op), norm(result)).Inc()
}
