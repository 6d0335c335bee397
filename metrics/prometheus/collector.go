package prometheus

import (
	"time"

	"github.com/hupe1980/simmat/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "simmat"

var _ run.MetricsCollector = (*Collector)(nil)

// Collector implements run.MetricsCollector on top of a Prometheus registry.
type Collector struct {
	rowWrites       *prometheus.CounterVec
	rowBytes        prometheus.Counter
	lookups         *prometheus.CounterVec
	lookupLatency   prometheus.Histogram
	scans           *prometheus.CounterVec
	scannedRows     prometheus.Counter
	scanDuration    prometheus.Histogram
	windowMaps      prometheus.Counter
	windowEvictions prometheus.Counter
	transposeBatch  prometheus.Histogram
	transposeCols   prometheus.Counter
	transposeItems  prometheus.Counter
	similarityRows  *prometheus.CounterVec
	neighbors       prometheus.Histogram
	similarityTime  prometheus.Histogram
}

// NewCollector registers the simmat metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		rowWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rows_written_total",
			Help:      "Rows appended to matrix writers",
		}, []string{"status"}),
		rowBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "row_bytes_written_total",
			Help:      "Encoded row bytes appended to matrix writers, including padding",
		}),
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "row_lookups_total",
			Help:      "Random-access row lookups by outcome",
		}, []string{"result"}),
		lookupLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "row_lookup_duration_seconds",
			Help:      "Latency of random-access row lookups",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
		}),
		scans: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "scans_total",
			Help:      "Full sequential matrix scans",
		}, []string{"status"}),
		scannedRows: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "scanned_rows_total",
			Help:      "Rows decoded by sequential scans",
		}),
		scanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "scan_duration_seconds",
			Help:      "Duration of full sequential scans",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		windowMaps: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "window_maps_total",
			Help:      "Page windows mapped by non-resident stores",
		}),
		windowEvictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "window_evictions_total",
			Help:      "Page windows unmapped to make room for another",
		}),
		transposeBatch: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "transpose_batch_duration_seconds",
			Help:      "Duration of transpose batches",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		transposeCols: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "transpose_columns_total",
			Help:      "Columns emitted by transpose batches",
		}),
		transposeItems: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "transpose_entries_total",
			Help:      "Entries emitted by transpose batches",
		}),
		similarityRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "similarity_rows_total",
			Help:      "Target rows processed by similarity runs",
		}, []string{"status"}),
		neighbors: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "similarity_neighbors",
			Help:      "Neighbors retained per similarity row",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		similarityTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "similarity_row_duration_seconds",
			Help:      "Time to score one similarity row",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (c *Collector) RecordRowWrite(bytes int, err error) {
	c.rowWrites.WithLabelValues(status(err)).Inc()
	if err == nil {
		c.rowBytes.Add(float64(bytes))
	}
}

func (c *Collector) RecordRowLookup(duration time.Duration, found bool, err error) {
	result := "hit"
	switch {
	case err != nil:
		result = "error"
	case !found:
		result = "miss"
	}
	c.lookups.WithLabelValues(result).Inc()
	c.lookupLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordScan(rows int, duration time.Duration, err error) {
	c.scans.WithLabelValues(status(err)).Inc()
	c.scannedRows.Add(float64(rows))
	c.scanDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordWindowMap(evicted bool) {
	c.windowMaps.Inc()
	if evicted {
		c.windowEvictions.Inc()
	}
}

func (c *Collector) RecordTransposeBatch(columns int, entries int64, duration time.Duration) {
	c.transposeCols.Add(float64(columns))
	c.transposeItems.Add(float64(entries))
	c.transposeBatch.Observe(duration.Seconds())
}

func (c *Collector) RecordSimilarityRow(neighbors int, duration time.Duration, err error) {
	c.similarityRows.WithLabelValues(status(err)).Inc()
	c.similarityTime.Observe(duration.Seconds())
	if err == nil {
		c.neighbors.Observe(float64(neighbors))
	}
}
