package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(deliveriesTotal) }

var deliveriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "message_deliveries_total",
		Help: "Outbound deliveries by provider and status.",
	},
	[]string{"provider", "status"}, // status: sent | failed
)

func IncDelivery(provider, status string) {
	deliveriesTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}
