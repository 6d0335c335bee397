package transpose

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/row"
	"github.com/hupe1980/simmat/run"
)

// Stats summarizes a transpose run.
type Stats struct {
	Columns  int   // rows of the output
	Entries  int64 // total entries moved
	Batches  int
	Scans    int // full scans of the source, census included
	Duration time.Duration
}

// Transpose writes the transpose of src to dstPath as a sparse matrix.
// Output rows are source column ids in ascending order; each output row
// lists the source rows containing that column in source order.
func Transpose(ctx context.Context, rc *run.Context, src *matrix.Store, dstPath string, optFns ...Option) (*Stats, error) {
	o := options{
		memoryBudget: DefaultMemoryBudget,
		entryBytes:   DefaultEntryBytes,
	}
	for _, fn := range optFns {
		fn(&o)
	}

	start := time.Now()
	log := rc.Log().WithStage("transpose").WithPath(dstPath)
	stats := &Stats{}

	c, err := takeCensus(ctx, rc, src)
	if err != nil {
		return nil, fmt.Errorf("transpose census: %w", err)
	}
	stats.Scans++
	rc.Report("census", int64(src.Len()), int64(src.Len()))

	conf := c.conf()
	if src.Kind() == row.KindSparse {
		conf = src.ValueConf()
	}
	if o.conf != nil {
		conf = *o.conf
	}
	copyCodes := src.Kind() == row.KindSparse && conf == src.ValueConf()

	w, err := matrix.NewSparseWriter(dstPath, conf, o.writerOpts...)
	if err != nil {
		return nil, err
	}

	budget := o.memoryBudget
	if limit := rc.Controller().MemoryLimit(); limit > 0 {
		budget = min(budget, limit)
	}

	t := &transposer{
		rc:        rc,
		src:       src,
		w:         w,
		census:    c,
		conf:      conf,
		copyCodes: copyCodes,
		stats:     stats,
	}

	for lo := 0; lo < len(c.cols); {
		hi, cost := nextBatch(c.counts, lo, budget, o.entryBytes)
		batchStart := time.Now()
		if err := t.runBatch(ctx, lo, hi, cost); err != nil {
			w.Abort()
			log.ErrorContext(ctx, "transpose aborted", "batch", stats.Batches, "error", err)
			return nil, err
		}
		var entries int64
		for _, n := range c.counts[lo:hi] {
			entries += n
		}
		elapsed := time.Since(batchStart)
		log.LogBatch(ctx, stats.Batches, hi-lo, entries, elapsed)
		rc.Collector().RecordTransposeBatch(hi-lo, entries, elapsed)
		rc.Report("transpose", int64(hi), int64(len(c.cols)))
		lo = hi
	}

	if err := w.Finish(); err != nil {
		return nil, err
	}

	stats.Columns = len(c.cols)
	stats.Entries = c.entries
	stats.Duration = time.Since(start)
	log.LogRunCompleted(ctx, "transpose", stats.Columns, 0, stats.Duration)
	return stats, nil
}

type transposer struct {
	rc        *run.Context
	src       *matrix.Store
	w         *matrix.Writer
	census    *census
	conf      row.ValueConf
	copyCodes bool
	stats     *Stats
}

// runBatch accumulates columns [lo, hi) with one scan and writes them.
func (t *transposer) runBatch(ctx context.Context, lo, hi int, cost int64) error {
	ctrl := t.rc.Controller()
	granted, err := ctrl.AcquireMemory(ctx, cost)
	if err != nil {
		return err
	}
	defer ctrl.ReleaseMemory(granted)

	acc := newAccumulator(t.census.cols[lo:hi], t.census.counts[lo:hi], t.copyCodes)
	if err := scan(ctx, t.rc, t.src, acc.add); err != nil {
		return fmt.Errorf("transpose batch %d: %w", t.stats.Batches, err)
	}
	t.stats.Scans++
	t.stats.Batches++

	if err := acc.verify(); err != nil {
		return err
	}

	for j, col := range acc.cols {
		rows, codes, vals := acc.column(j)
		if t.copyCodes {
			err = t.w.WriteRow(&row.SparseRow{RowID: col, Cols: rows, Codes: codes, Conf: t.conf})
		} else {
			err = t.w.WriteSparse(col, rows, vals)
		}
		if err != nil {
			return fmt.Errorf("write column %d: %w", col, err)
		}
	}
	return nil
}
