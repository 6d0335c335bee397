package testutil

import (
	"cmp"
	"slices"

	"github.com/hupe1980/simmat/leaderboard"
	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/row"
)

// Row is one row of an in-memory Matrix.
type Row struct {
	ID   int32
	Cols []int32
	Vals []float32
}

// Matrix is an in-memory reference matrix that remembers insertion order.
type Matrix struct {
	Rows  []Row
	index map[int32]int
}

// NewMatrix creates an empty Matrix.
func NewMatrix() *Matrix {
	return &Matrix{index: make(map[int32]int)}
}

// Add appends a row. Adding an existing id replaces it.
func (m *Matrix) Add(id int32, cols []int32, vals []float32) {
	r := Row{ID: id, Cols: slices.Clone(cols), Vals: slices.Clone(vals)}
	if i, ok := m.index[id]; ok {
		m.Rows[i] = r
		return
	}
	m.index[id] = len(m.Rows)
	m.Rows = append(m.Rows, r)
}

// Get returns the row for id.
func (m *Matrix) Get(id int32) (Row, bool) {
	i, ok := m.index[id]
	if !ok {
		return Row{}, false
	}
	return m.Rows[i], true
}

// Map returns the row for id as column → value.
func (m *Matrix) Map(id int32) map[int32]float32 {
	r, _ := m.Get(id)
	out := make(map[int32]float32, len(r.Cols))
	for i, c := range r.Cols {
		out[c] = r.Vals[i]
	}
	return out
}

// Write stores m as a sparse matrix file.
func (m *Matrix) Write(path string, conf row.ValueConf, opts ...matrix.WriterOption) error {
	w, err := matrix.NewSparseWriter(path, conf, opts...)
	if err != nil {
		return err
	}
	for _, r := range m.Rows {
		if err := w.WriteSparse(r.ID, r.Cols, r.Vals); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Finish()
}

// WriteDense stores m as a dense matrix file over schema. Every row must
// have exactly the schema's columns in schema order.
func (m *Matrix) WriteDense(path string, schema []int32, opts ...matrix.WriterOption) error {
	w, err := matrix.NewDenseWriter(path, schema, opts...)
	if err != nil {
		return err
	}
	for _, r := range m.Rows {
		if err := w.WriteDense(r.ID, r.Vals); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Finish()
}

// Quantized returns a copy of m with every value passed through conf.
func (m *Matrix) Quantized(conf row.ValueConf) *Matrix {
	out := NewMatrix()
	for _, r := range m.Rows {
		vals := make([]float32, len(r.Vals))
		for i, v := range r.Vals {
			vals[i] = conf.Decode(conf.Encode(v))
		}
		out.Add(r.ID, r.Cols, vals)
	}
	return out
}

// Transpose returns the exact transpose with columns in ascending order and
// row ids in m's row order.
func (m *Matrix) Transpose() *Matrix {
	byCol := make(map[int32]*Row)
	for _, r := range m.Rows {
		for i, c := range r.Cols {
			t, ok := byCol[c]
			if !ok {
				t = &Row{ID: c}
				byCol[c] = t
			}
			t.Cols = append(t.Cols, r.ID)
			t.Vals = append(t.Vals, r.Vals[i])
		}
	}
	cols := make([]int32, 0, len(byCol))
	for c := range byCol {
		cols = append(cols, c)
	}
	slices.Sort(cols)

	out := NewMatrix()
	for _, c := range cols {
		out.Add(c, byCol[c].Cols, byCol[c].Vals)
	}
	return out
}

// CosineTopK computes, by brute force over all pairs, the k most similar
// other rows of every row. Rows with no overlap are omitted, as are pairs
// involving a zero-norm row.
func (m *Matrix) CosineTopK(k int) map[int32][]leaderboard.Entry {
	maps := make(map[int32]map[int32]float32, len(m.Rows))
	for _, r := range m.Rows {
		if nonzero(r.Vals) {
			maps[r.ID] = m.Map(r.ID)
		}
	}

	out := make(map[int32][]leaderboard.Entry, len(m.Rows))
	for _, a := range m.Rows {
		lb := leaderboard.New(k)
		for _, b := range m.Rows {
			if a.ID == b.ID || maps[a.ID] == nil || maps[b.ID] == nil || !overlaps(maps[a.ID], maps[b.ID]) {
				continue
			}
			lb.Tally(b.ID, float32(Cosine(maps[a.ID], maps[b.ID])))
		}
		out[a.ID] = lb.Top()
	}
	return out
}

func nonzero(vals []float32) bool {
	for _, v := range vals {
		if v != 0 {
			return true
		}
	}
	return false
}

func overlaps(a, b map[int32]float32) bool {
	for c := range a {
		if _, ok := b[c]; ok {
			return true
		}
	}
	return false
}

// SortedIDs returns the row ids in ascending order.
func (m *Matrix) SortedIDs() []int32 {
	ids := make([]int32, len(m.Rows))
	for i, r := range m.Rows {
		ids[i] = r.ID
	}
	slices.SortFunc(ids, cmp.Compare[int32])
	return ids
}
