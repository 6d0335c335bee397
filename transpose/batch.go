package transpose

import (
	"fmt"
	"slices"

	"github.com/hupe1980/simmat/row"
)

// nextBatch returns the end of the longest run of columns starting at lo
// whose accumulator cost fits budget. At least one column is always taken.
func nextBatch(counts []int64, lo int, budget, entryBytes int64) (hi int, cost int64) {
	hi = lo
	for hi < len(counts) {
		c := counts[hi] * entryBytes
		if hi > lo && cost+c > budget {
			break
		}
		cost += c
		hi++
	}
	return hi, cost
}

// accumulator collects the entries of a contiguous range of columns into
// flat arrays sized exactly from the census.
type accumulator struct {
	cols   []int32 // ascending
	counts []int64
	start  []int64 // start[j] is the first slot of column j
	fill   []int64 // entries accumulated so far per column

	rows  []int32
	codes []int8    // quantized codes copied from sparse rows
	vals  []float32 // decoded values otherwise
}

func newAccumulator(cols []int32, counts []int64, copyCodes bool) *accumulator {
	a := &accumulator{
		cols:   cols,
		counts: counts,
		start:  make([]int64, len(cols)),
		fill:   make([]int64, len(cols)),
	}
	var total int64
	for j, n := range counts {
		a.start[j] = total
		total += n
	}
	a.rows = make([]int32, total)
	if copyCodes {
		a.codes = make([]int8, total)
	} else {
		a.vals = make([]float32, total)
	}
	return a
}

// add records the entries of r that fall into the batch.
func (a *accumulator) add(r row.Row) error {
	first, last := a.cols[0], a.cols[len(a.cols)-1]
	sr, sparse := r.(*row.SparseRow)
	if a.codes != nil && !sparse {
		return fmt.Errorf("transpose: row %d is %s, want sparse", r.ID(), r.Kind())
	}

	for i := 0; i < r.Len(); i++ {
		col := r.ColID(i)
		if col < first || col > last {
			continue
		}
		j, ok := slices.BinarySearch(a.cols, col)
		if !ok {
			// The census saw every column of the source.
			return &CountMismatchError{Column: col, Expected: 0, Actual: 1}
		}
		if a.fill[j] == a.counts[j] {
			return &CountMismatchError{Column: col, Expected: a.counts[j], Actual: a.fill[j] + 1}
		}
		slot := a.start[j] + a.fill[j]
		a.rows[slot] = r.ID()
		if a.codes != nil {
			a.codes[slot] = sr.Codes[i]
		} else {
			a.vals[slot] = r.Value(i)
		}
		a.fill[j]++
	}
	return nil
}

// verify checks every column received exactly its census count.
func (a *accumulator) verify() error {
	for j, n := range a.counts {
		if a.fill[j] != n {
			return &CountMismatchError{Column: a.cols[j], Expected: n, Actual: a.fill[j]}
		}
	}
	return nil
}

// column returns the row ids and values accumulated for column j.
func (a *accumulator) column(j int) ([]int32, []int8, []float32) {
	lo, hi := a.start[j], a.start[j]+a.counts[j]
	if a.codes != nil {
		return a.rows[lo:hi], a.codes[lo:hi], nil
	}
	return a.rows[lo:hi], nil, a.vals[lo:hi]
}
