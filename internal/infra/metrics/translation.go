package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		translationCallsLatencyMs,
		translationCacheRequestsTotal,
	)
}

var (
	translationCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "translation_calls_latency_ms",
			Help:    "Translation provider call latency in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"provider", "lang", "success"},
	)

	translationCacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translation_cache_requests_total",
			Help: "Per-broadcast translation cache hits and misses.",
		},
		[]string{"result"}, // hit | miss
	)
)

func ObserveTranslation(provider, lang string, elapsed time.Duration, success bool) {
	translationCallsLatencyMs.WithLabelValues(norm(provider), norm(lang), strconv.FormatBool(success)).
		Observe(float64(elapsed.Milliseconds()))
}

func IncTranslationCache(result string) {
	translationCacheRequestsTotal.WithLabelValues(norm(result)).Inc()
}
