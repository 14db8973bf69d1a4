package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search engine Prometheus metrics.
var (
	StoreBatchCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metadex",
			Name:      "store_batch_calls_total",
			Help:      "Total batch retrievals issued to the entity store",
		},
		[]string{"kind", "status"},
	)

	PrefetchHops = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "metadex",
			Name:      "prefetch_hops",
			Help:      "Reference-resolution hops executed per request",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
	)

	PrefetchRecordsResolved = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "metadex",
			Name:      "prefetch_records_resolved",
			Help:      "Linked records resolved into the snapshot per request",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		},
	)

	FilterStageDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metadex",
			Name:      "filter_stage_dropped_total",
			Help:      "Records dropped per filter stage",
		},
		[]string{"stage"},
	)

	PluginSyncErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "metadex",
			Name:      "plugin_sync_errors_total",
			Help:      "Failed plugin table refresh cycles",
		},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers all Prometheus metrics, including the HTTP
// middleware ones. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(StoreBatchCallsTotal)
	prometheus.MustRegister(PrefetchHops)
	prometheus.MustRegister(PrefetchRecordsResolved)
	prometheus.MustRegister(FilterStageDroppedTotal)
	prometheus.MustRegister(PluginSyncErrorsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	engineMetricsRegistered = true
}
