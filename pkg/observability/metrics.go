package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics a running streaming index
// exposes: insert/delete/search counts, consolidation behavior, and
// the live size of the index.
type Metrics struct {
	InsertsTotal prometheus.Counter
	DeletesTotal prometheus.Counter

	SearchesTotal    prometheus.Counter
	SearchLatency    prometheus.Histogram
	SearchResultSize prometheus.Histogram

	ConsolidationsTotal       prometheus.Counter
	ConsolidationDuration     prometheus.Histogram
	ConsolidationSlotsFreed   prometheus.Counter
	ConsolidationLockFailures prometheus.Counter

	IndexSize      prometheus.Gauge
	IndexCapacity  prometheus.Gauge
	TombstoneCount prometheus.Gauge
	FreeSlotCount  prometheus.Gauge
}

// NewMetrics creates the index's Prometheus metrics and registers them
// with the default registry; a second call in the same process panics
// on duplicate registration.
func NewMetrics() *Metrics {
	return &Metrics{
		InsertsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "diskann_inserts_total",
			Help: "Total number of points inserted.",
		}),
		DeletesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "diskann_lazy_deletes_total",
			Help: "Total number of points marked for lazy deletion.",
		}),

		SearchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "diskann_searches_total",
			Help: "Total number of search operations.",
		}),
		SearchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "diskann_search_latency_seconds",
			Help:    "Search latency in seconds.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		SearchResultSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "diskann_search_result_size",
			Help:    "Number of results returned by search.",
			Buckets: []float64{1, 5, 10, 20, 50, 100, 200},
		}),

		ConsolidationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "diskann_consolidations_total",
			Help: "Total number of successful consolidation passes.",
		}),
		ConsolidationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "diskann_consolidation_duration_seconds",
			Help:    "Duration of successful consolidation passes.",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
		}),
		ConsolidationSlotsFreed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "diskann_consolidation_slots_freed_total",
			Help: "Total number of slots returned to the free set by consolidation.",
		}),
		ConsolidationLockFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "diskann_consolidation_lock_failures_total",
			Help: "Total number of consolidation attempts that found a pass already in progress.",
		}),

		IndexSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "diskann_index_size",
			Help: "Current number of live points in the index.",
		}),
		IndexCapacity: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "diskann_index_capacity",
			Help: "Total slot capacity of the index.",
		}),
		TombstoneCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "diskann_tombstone_count",
			Help: "Current number of tombstoned (not yet reclaimed) slots.",
		}),
		FreeSlotCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "diskann_free_slot_count",
			Help: "Current number of free slots.",
		}),
	}
}

// RecordInsert records a successful InsertPoint call.
func (m *Metrics) RecordInsert() {
	m.InsertsTotal.Inc()
}

// RecordDelete records a successful LazyDelete call.
func (m *Metrics) RecordDelete() {
	m.DeletesTotal.Inc()
}

// RecordSearch records a completed search.
func (m *Metrics) RecordSearch(duration time.Duration, resultSize int) {
	m.SearchesTotal.Inc()
	m.SearchLatency.Observe(duration.Seconds())
	m.SearchResultSize.Observe(float64(resultSize))
}

// RecordConsolidation records a successful consolidation pass.
func (m *Metrics) RecordConsolidation(duration time.Duration, slotsFreed int) {
	m.ConsolidationsTotal.Inc()
	m.ConsolidationDuration.Observe(duration.Seconds())
	m.ConsolidationSlotsFreed.Add(float64(slotsFreed))
}

// RecordLockFail records a consolidation attempt that found a pass
// already running.
func (m *Metrics) RecordLockFail() {
	m.ConsolidationLockFailures.Inc()
}

// UpdateIndexSize reports the index's current live point count and
// capacity.
func (m *Metrics) UpdateIndexSize(size, capacity int) {
	m.IndexSize.Set(float64(size))
	m.IndexCapacity.Set(float64(capacity))
}

// UpdateSlotCounts reports tombstone and free slot counts.
func (m *Metrics) UpdateSlotCounts(tombstones, free int) {
	m.TombstoneCount.Set(float64(tombstones))
	m.FreeSlotCount.Set(float64(free))
}

// ServeMetrics blocks serving the default Prometheus registry's
// /metrics endpoint on addr.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
