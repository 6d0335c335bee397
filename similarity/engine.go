package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/simmat/leaderboard"
	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/row"
	"github.com/hupe1980/simmat/run"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrMissingColumn is recorded when the transpose lacks a column of a target row.
	ErrMissingColumn = errors.New("column missing from transpose")

	// ErrMissingRow is recorded when a scheduled target row cannot be found.
	ErrMissingRow = errors.New("target row missing")
)

// progressEvery is the number of rows between progress reports.
const progressEvery = 1024

// RowError wraps the failure of a single target row.
type RowError struct {
	ID  int32
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.ID, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

type result struct {
	id        int32
	neighbors []leaderboard.Entry
}

type engine struct {
	rc         *run.Context
	log        *run.Logger
	src        *matrix.Store
	transposed *matrix.Store
	opts       options
	norms      map[int32]float64
	report     *Report
	done       atomic.Int64
}

// Compute writes, for every target row of src, its top-K most similar
// other rows by cosine similarity to dstPath. transposed must be the
// transpose of src. Per-row failures do not fail the run; they are
// collected in the returned Report. Cancellation and output write errors
// abort the run and remove any partial output.
func Compute(ctx context.Context, rc *run.Context, src, transposed *matrix.Store, dstPath string, optFns ...Option) (*Report, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	if o.k < 1 {
		return nil, ErrInvalidK
	}
	if err := o.conf.Validate(); err != nil {
		return nil, err
	}

	ctrl := rc.Controller()
	if err := ctrl.AcquireRun(ctx); err != nil {
		return nil, err
	}
	defer ctrl.ReleaseRun()

	start := time.Now()
	e := &engine{
		rc:         rc,
		log:        rc.Log().WithStage("similarity").WithPath(dstPath),
		src:        src,
		transposed: transposed,
		opts:       o,
	}

	norms, err := computeNorms(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("similarity norms: %w", err)
	}
	e.norms = norms

	targets := e.targets()
	e.report = newReport(len(targets))

	w, err := matrix.NewSparseWriter(dstPath, o.conf, o.writerOpts...)
	if err != nil {
		return nil, err
	}

	if err := e.run(ctx, targets, w); err != nil {
		w.Abort()
		e.log.ErrorContext(ctx, "similarity aborted", "error", err)
		return nil, err
	}
	if err := w.Finish(); err != nil {
		return nil, err
	}

	e.report.Duration = time.Since(start)
	e.rc.Report("similarity", int64(len(targets)), int64(len(targets)))
	e.log.LogRunCompleted(ctx, "similarity", e.report.Written, e.report.Failures, e.report.Duration)
	return e.report, nil
}

// computeNorms returns the Euclidean length of every row.
func computeNorms(ctx context.Context, src *matrix.Store) (map[int32]float64, error) {
	norms := make(map[int32]float64, src.Len())
	err := src.Iterate(ctx, func(r row.Row) error {
		var sum float64
		for i := 0; i < r.Len(); i++ {
			v := float64(r.Value(i))
			sum += v * v
		}
		norms[r.ID()] = math.Sqrt(sum)
		return nil
	})
	return norms, err
}

func (e *engine) targets() []int32 {
	ids := e.src.IDs()
	if e.opts.rows == nil {
		return ids
	}
	out := make([]int32, 0, min(len(ids), int(e.opts.rows.GetCardinality())))
	for _, id := range ids {
		if e.opts.rows.Contains(uint32(id)) {
			out = append(out, id)
		}
	}
	return out
}

func (e *engine) run(ctx context.Context, targets []int32, w *matrix.Writer) error {
	g, gctx := errgroup.WithContext(ctx)
	results := make(chan result, 2*e.opts.workers)

	var producers sync.WaitGroup
	for worker := range e.opts.workers {
		producers.Add(1)
		g.Go(func() error {
			defer producers.Done()
			return e.work(gctx, worker, Stripe(targets, e.opts.workers, worker), results)
		})
	}
	go func() {
		producers.Wait()
		close(results)
	}()

	g.Go(func() error {
		for res := range results {
			if err := e.write(w, res); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}

func (e *engine) write(w *matrix.Writer, res result) error {
	cols := make([]int32, len(res.neighbors))
	vals := make([]float32, len(res.neighbors))
	for i, n := range res.neighbors {
		cols[i] = n.ID
		vals[i] = n.Score
	}
	if err := w.WriteSparse(res.id, cols, vals); err != nil {
		return fmt.Errorf("write row %d: %w", res.id, err)
	}
	e.report.Written++
	if len(cols) == 0 {
		e.report.Empty++
	}
	return nil
}

func (e *engine) work(ctx context.Context, worker int, ids []int32, results chan<- result) error {
	log := e.log.WithWorker(worker)
	lb := leaderboard.New(e.opts.k)
	acc := make(map[int32]float64)
	total := int64(e.report.Targets)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		neighbors, err := e.scoreRowSafe(id, lb, acc)
		e.rc.Collector().RecordSimilarityRow(len(neighbors), time.Since(start), err)

		if done := e.done.Add(1); done%progressEvery == 0 {
			e.rc.Report("similarity", done, total)
		}

		if err != nil {
			err = &RowError{ID: id, Err: err}
			log.LogRowFailure(ctx, id, err)
			e.report.fail(id, err)
			continue
		}

		select {
		case results <- result{id: id, neighbors: neighbors}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (e *engine) scoreRowSafe(id int32, lb *leaderboard.Leaderboard, acc map[int32]float64) (neighbors []leaderboard.Entry, err error) {
	defer func() {
		if p := recover(); p != nil {
			neighbors = nil
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return e.scoreRow(id, lb, acc)
}

// scoreRow accumulates dot products of id against every row sharing one of
// its columns and returns the best K by cosine.
func (e *engine) scoreRow(id int32, lb *leaderboard.Leaderboard, acc map[int32]float64) ([]leaderboard.Entry, error) {
	r, ok, err := e.src.Row(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrMissingRow, id)
	}

	lb.Reset()
	norm := e.norms[id]
	if norm == 0 {
		return lb.Top(), nil
	}

	clear(acc)
	for i := 0; i < r.Len(); i++ {
		col, v := r.ColID(i), float64(r.Value(i))
		t, ok, err := e.transposed.Row(col)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrMissingColumn, col)
		}
		for j := 0; j < t.Len(); j++ {
			other := t.ColID(j)
			if other == id {
				continue
			}
			acc[other] += v * float64(t.Value(j))
		}
	}

	for other, dot := range acc {
		n2 := e.norms[other]
		if n2 == 0 {
			continue
		}
		cos := float32(dot / (norm * n2))
		if cos < e.opts.minScore {
			continue
		}
		lb.Tally(other, cos)
	}
	return lb.Top(), nil
}
