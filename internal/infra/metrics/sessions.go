package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(chatSessionsCreated, chatSessionsSwept, chatTurnsTotal) }

var (
	chatSessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_sessions_created_total",
			Help: "Chat sessions created.",
		},
	)

	chatSessionsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_sessions_swept_total",
			Help: "Expired chat sessions purged by sweeps.",
		},
	)

	chatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Chat questions answered, by outcome.",
		},
		[]string{"outcome"}, // answered | failed | not_found
	)
)

func IncSessionCreated() { chatSessionsCreated.Inc() }

func AddSessionsSwept(n int) { chatSessionsSwept.Add(float64(n)) }

func IncChatTurn(outcome string) {
	chatTurnsTotal.WithLabelValues(norm(outcome)).Inc()
}
