package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		inboundMessagesTotal,
		botCommandsTotal,
		rateLimitedTotal,
	)
}

var (
	inboundMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_inbound_messages_total",
			Help: "Inbound messages by channel and whether the sender is subscribed.",
		},
		[]string{"channel", "known"},
	)

	botCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Dispatched actions by command and outcome.",
		},
		[]string{"command", "outcome"}, // command: /add, broadcast, private...; outcome: ok, usage, ...
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_rate_limited_total",
			Help: "Inbound messages dropped by the per-sender rate limiter.",
		},
	)
)

func IncInbound(channel string, known bool) {
	k := "false"
	if known {
		k = "true"
	}
	inboundMessagesTotal.WithLabelValues(norm(channel), k).Inc()
}

func IncCommand(command, outcome string) {
	botCommandsTotal.WithLabelValues(norm(command), norm(outcome)).Inc()
}

func IncRateLimited() {
	rateLimitedTotal.Inc()
}
