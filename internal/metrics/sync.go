package metrics

import "github.com/prometheus/client_golang/prometheus"

// Sync pipeline Prometheus metrics.
var (
	SyncPromosTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "promodex",
			Name:      "sync_promos_total",
			Help:      "Promos processed by sync runs",
		},
		[]string{"status"}, // "ok" / "failed" / "skipped"
	)

	SyncChunksUpsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "promodex",
			Name:      "sync_chunks_upserted_total",
			Help:      "Chunks written to the store by sync runs",
		},
	)

	SyncOrphansDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "promodex",
			Name:      "sync_orphans_deleted_total",
			Help:      "Stored promos removed because they left the feed",
		},
	)

	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "promodex",
			Name:      "sync_duration_seconds",
			Help:      "Full sync run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)
)

var syncMetricsRegistered bool

// RegisterSyncMetrics registers Prometheus sync metrics. Must be called once from main.
func RegisterSyncMetrics() {
	if syncMetricsRegistered {
		return
	}
	prometheus.MustRegister(SyncPromosTotal)
	prometheus.MustRegister(SyncChunksUpsertedTotal)
	prometheus.MustRegister(SyncOrphansDeletedTotal)
	prometheus.MustRegister(SyncDuration)
	syncMetricsRegistered = true
}
