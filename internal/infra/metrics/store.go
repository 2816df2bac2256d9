package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		storePersistTotal,
		storeRecoveriesTotal,
		subscribersGauge,
	)
}

var (
	storePersistTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriber_store_persist_total",
			Help: "Registry persists by status.",
		},
		[]string{"status"},
	)

	storeRecoveriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriber_store_backup_recoveries_total",
			Help: "Loads that fell back to the backup file.",
		},
	)

	subscribersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "subscribers",
			Help: "Current number of subscribers in the registry.",
		},
	)
)

func IncStorePersist(status string) {
	storePersistTotal.WithLabelValues(norm(status)).Inc()
}

func IncStoreRecovery() {
	storeRecoveriesTotal.Inc()
}

func SetSubscribers(n int) {
	subscribersGauge.Set(float64(n))
}
