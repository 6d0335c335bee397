package transpose

import (
	"context"
	"math"
	"slices"

	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/row"
	"github.com/hupe1980/simmat/run"
)

// census holds per-column entry counts in ascending column order.
type census struct {
	cols    []int32
	counts  []int64
	entries int64

	// Observed value range, used for dense sources.
	min, max float32
}

// conf returns a ValueConf covering the observed values.
func (c *census) conf() row.ValueConf {
	if c.entries == 0 {
		return row.ValueConf{Min: 0, Max: 1}
	}
	if c.max <= c.min {
		return row.ValueConf{Min: c.min, Max: c.min + 1}
	}
	return row.ValueConf{Min: c.min, Max: c.max}
}

func takeCensus(ctx context.Context, rc *run.Context, src *matrix.Store) (*census, error) {
	counts := make(map[int32]int64)
	c := &census{min: math.MaxFloat32, max: -math.MaxFloat32}
	dense := src.Kind() == row.KindDense

	err := scan(ctx, rc, src, func(r row.Row) error {
		for i := 0; i < r.Len(); i++ {
			counts[r.ColID(i)]++
			if dense {
				v := r.Value(i)
				c.min = min(c.min, v)
				c.max = max(c.max, v)
			}
		}
		c.entries += int64(r.Len())
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.cols = make([]int32, 0, len(counts))
	for col := range counts {
		c.cols = append(c.cols, col)
	}
	slices.Sort(c.cols)
	c.counts = make([]int64, len(c.cols))
	for i, col := range c.cols {
		c.counts[i] = counts[col]
	}
	return c, nil
}

// scan iterates src, charging the IO limiter for each row read.
func scan(ctx context.Context, rc *run.Context, src *matrix.Store, fn func(row.Row) error) error {
	ctrl := rc.Controller()
	kind := src.Kind()
	return src.Iterate(ctx, func(r row.Row) error {
		size := row.SparseSize(r.Len())
		if kind == row.KindDense {
			size = row.DenseSize(r.Len())
		}
		if err := ctrl.AcquireIO(ctx, size); err != nil {
			return err
		}
		return fn(r)
	})
}
