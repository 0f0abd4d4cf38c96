package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query pipeline Prometheus metrics.
var (
	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "promodex",
			Name:      "query_duration_seconds",
			Help:      "Search request duration in seconds, embedding included",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	QueryBoostedHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "promodex",
			Name:      "query_boosted_hits_total",
			Help:      "Search hits that received a month boost",
		},
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers Prometheus query metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryBoostedHitsTotal)
	queryMetricsRegistered = true
}
