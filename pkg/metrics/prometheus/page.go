package prometheus

import (
	"time"

	"github.com/dittokv/pagestore/pkg/metrics"
	"github.com/dittokv/pagestore/pkg/page"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterPageMetricsConstructor(func() page.Metrics {
		return newPageMetrics()
	})
}

// pageMetrics is the Prometheus implementation of page.Metrics.
type pageMetrics struct {
	insertDuration prometheus.Histogram
	insertBytes    prometheus.Histogram
	getTotal       *prometheus.CounterVec
	getDuration    prometheus.Histogram
	deleteDuration prometheus.Histogram
	defragDuration prometheus.Histogram
	defragBytes    prometheus.Counter
	defragEntries  prometheus.Counter

	offset      prometheus.Gauge
	liveEntries prometheus.Gauge
	queuedGaps  prometheus.Gauge
}

func newPageMetrics() *pageMetrics {
	reg := metrics.GetRegistry()

	return &pageMetrics{
		insertDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "pagestore_insert_duration_seconds",
			Help:    "Insert call latency.",
			Buckets: prometheus.DefBuckets,
		}),
		insertBytes: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "pagestore_insert_entry_bytes",
			Help:    "Encoded size of inserted entries, including header and key.",
			Buckets: prometheus.ExponentialBuckets(32, 2, 12),
		}),
		getTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pagestore_get_total",
			Help: "Get calls by outcome.",
		}, []string{"result"}), // "hit" or "miss"
		getDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "pagestore_get_duration_seconds",
			Help:    "Get call latency.",
			Buckets: prometheus.DefBuckets,
		}),
		deleteDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "pagestore_delete_duration_seconds",
			Help:    "Delete call latency.",
			Buckets: prometheus.DefBuckets,
		}),
		defragDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "pagestore_defrag_duration_seconds",
			Help:    "Defrag step latency.",
			Buckets: prometheus.DefBuckets,
		}),
		defragBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pagestore_defrag_bytes_reclaimed_total",
			Help: "Cumulative bytes reclaimed by Defrag.",
		}),
		defragEntries: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pagestore_defrag_entries_reindexed_total",
			Help: "Cumulative entries re-indexed by Defrag.",
		}),
		offset: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pagestore_offset_bytes",
			Help: "Current append cursor.",
		}),
		liveEntries: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pagestore_live_entries",
			Help: "Number of indexed, non-tombstoned entries.",
		}),
		queuedGaps: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pagestore_queued_gaps",
			Help: "Number of tombstoned gaps awaiting Defrag.",
		}),
	}
}

func (m *pageMetrics) ObserveInsert(entrySize uint64, d time.Duration) {
	m.insertDuration.Observe(d.Seconds())
	m.insertBytes.Observe(float64(entrySize))
}

func (m *pageMetrics) ObserveGet(hit bool, d time.Duration) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.getTotal.WithLabelValues(result).Inc()
	m.getDuration.Observe(d.Seconds())
}

func (m *pageMetrics) ObserveDelete(d time.Duration) {
	m.deleteDuration.Observe(d.Seconds())
}

func (m *pageMetrics) ObserveDefrag(bytesReclaimed uint64, entriesReindexed int, d time.Duration) {
	m.defragDuration.Observe(d.Seconds())
	m.defragBytes.Add(float64(bytesReclaimed))
	m.defragEntries.Add(float64(entriesReindexed))
}

func (m *pageMetrics) SetGauges(offset uint64, liveEntries int, queuedGaps int) {
	m.offset.Set(float64(offset))
	m.liveEntries.Set(float64(liveEntries))
	m.queuedGaps.Set(float64(queuedGaps))
}
