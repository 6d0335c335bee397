package run

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see
// package metrics/prometheus for a ready-made implementation.
type MetricsCollector interface {
	// RecordRowWrite is called after each row is appended to a matrix writer.
	// bytes is the encoded size including padding.
	RecordRowWrite(bytes int, err error)

	// RecordRowLookup is called after each random-access row lookup.
	RecordRowLookup(duration time.Duration, found bool, err error)

	// RecordScan is called after each full sequential scan of a matrix.
	RecordScan(rows int, duration time.Duration, err error)

	// RecordWindowMap is called whenever a non-resident window is mapped.
	// evicted reports whether another window had to be unmapped first.
	RecordWindowMap(evicted bool)

	// RecordTransposeBatch is called after each transpose batch is emitted.
	RecordTransposeBatch(columns int, entries int64, duration time.Duration)

	// RecordSimilarityRow is called after each target row of a similarity run.
	// neighbors is the number of entries retained, err is non-nil if the
	// row was skipped.
	RecordSimilarityRow(neighbors int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRowWrite(int, error)                      {}
func (NoopMetricsCollector) RecordRowLookup(time.Duration, bool, error)     {}
func (NoopMetricsCollector) RecordScan(int, time.Duration, error)           {}
func (NoopMetricsCollector) RecordWindowMap(bool)                           {}
func (NoopMetricsCollector) RecordTransposeBatch(int, int64, time.Duration) {}
func (NoopMetricsCollector) RecordSimilarityRow(int, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	RowsWritten          atomic.Int64
	BytesWritten         atomic.Int64
	WriteErrors          atomic.Int64
	LookupCount          atomic.Int64
	LookupMisses         atomic.Int64
	LookupErrors         atomic.Int64
	LookupTotalNanos     atomic.Int64
	ScanCount            atomic.Int64
	ScanRows             atomic.Int64
	ScanErrors           atomic.Int64
	WindowMaps           atomic.Int64
	WindowEvictions      atomic.Int64
	TransposeBatches     atomic.Int64
	TransposeColumns     atomic.Int64
	TransposeEntries     atomic.Int64
	SimilarityRows       atomic.Int64
	SimilarityFailures   atomic.Int64
	SimilarityNeighbors  atomic.Int64
	SimilarityTotalNanos atomic.Int64
}

// RecordRowWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRowWrite(bytes int, err error) {
	if err != nil {
		b.WriteErrors.Add(1)
		return
	}
	b.RowsWritten.Add(1)
	b.BytesWritten.Add(int64(bytes))
}

// RecordRowLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRowLookup(duration time.Duration, found bool, err error) {
	b.LookupCount.Add(1)
	b.LookupTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LookupErrors.Add(1)
	} else if !found {
		b.LookupMisses.Add(1)
	}
}

// RecordScan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScan(rows int, _ time.Duration, err error) {
	b.ScanCount.Add(1)
	b.ScanRows.Add(int64(rows))
	if err != nil {
		b.ScanErrors.Add(1)
	}
}

// RecordWindowMap implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWindowMap(evicted bool) {
	b.WindowMaps.Add(1)
	if evicted {
		b.WindowEvictions.Add(1)
	}
}

// RecordTransposeBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTransposeBatch(columns int, entries int64, _ time.Duration) {
	b.TransposeBatches.Add(1)
	b.TransposeColumns.Add(int64(columns))
	b.TransposeEntries.Add(entries)
}

// RecordSimilarityRow implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSimilarityRow(neighbors int, duration time.Duration, err error) {
	b.SimilarityRows.Add(1)
	b.SimilarityTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SimilarityFailures.Add(1)
		return
	}
	b.SimilarityNeighbors.Add(int64(neighbors))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RowsWritten:         b.RowsWritten.Load(),
		BytesWritten:        b.BytesWritten.Load(),
		WriteErrors:         b.WriteErrors.Load(),
		LookupCount:         b.LookupCount.Load(),
		LookupMisses:        b.LookupMisses.Load(),
		LookupErrors:        b.LookupErrors.Load(),
		LookupAvgNanos:      avg(b.LookupTotalNanos.Load(), b.LookupCount.Load()),
		ScanCount:           b.ScanCount.Load(),
		ScanRows:            b.ScanRows.Load(),
		ScanErrors:          b.ScanErrors.Load(),
		WindowMaps:          b.WindowMaps.Load(),
		WindowEvictions:     b.WindowEvictions.Load(),
		TransposeBatches:    b.TransposeBatches.Load(),
		TransposeColumns:    b.TransposeColumns.Load(),
		TransposeEntries:    b.TransposeEntries.Load(),
		SimilarityRows:      b.SimilarityRows.Load(),
		SimilarityFailures:  b.SimilarityFailures.Load(),
		SimilarityNeighbors: b.SimilarityNeighbors.Load(),
		SimilarityAvgNanos:  avg(b.SimilarityTotalNanos.Load(), b.SimilarityRows.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RowsWritten         int64
	BytesWritten        int64
	WriteErrors         int64
	LookupCount         int64
	LookupMisses        int64
	LookupErrors        int64
	LookupAvgNanos      int64
	ScanCount           int64
	ScanRows            int64
	ScanErrors          int64
	WindowMaps          int64
	WindowEvictions     int64
	TransposeBatches    int64
	TransposeColumns    int64
	TransposeEntries    int64
	SimilarityRows      int64
	SimilarityFailures  int64
	SimilarityNeighbors int64
	SimilarityAvgNanos  int64
}
