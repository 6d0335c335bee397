package testutil

import (
	"path/filepath"
	"testing"

	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/row"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseMatrix(t *testing.T) {
	rng := NewRNG(4711)
	m := rng.SparseMatrix(50, 20, 6)

	require.Len(t, m.Rows, 50)
	for _, r := range m.Rows {
		assert.LessOrEqual(t, len(r.Cols), 6)
		seen := map[int32]bool{}
		for i, c := range r.Cols {
			assert.False(t, seen[c])
			seen[c] = true
			assert.Greater(t, r.Vals[i], float32(0))
			assert.LessOrEqual(t, r.Vals[i], float32(1))
		}
	}

	rng.Reset()
	again := rng.SparseMatrix(50, 20, 6)
	assert.Equal(t, m.Rows, again.Rows)
}

func TestTransposeInvolution(t *testing.T) {
	m := NewRNG(1).SparseMatrix(30, 10, 4)
	tt := m.Transpose().Transpose()

	for _, r := range m.Rows {
		assert.Equal(t, m.Map(r.ID), tt.Map(r.ID))
	}
}

func TestCosine(t *testing.T) {
	a := map[int32]float32{1: 1, 2: 1}
	b := map[int32]float32{1: 1, 3: 1}
	assert.InDelta(t, 0.5, Cosine(a, b), 1e-9)
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
	assert.Equal(t, 0.0, Cosine(a, map[int32]float32{}))
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.smx")
	m := NewRNG(2).SparseMatrix(20, 10, 5)
	conf := row.ValueConf{Min: 0, Max: 1}
	require.NoError(t, m.Write(path, conf))

	s, err := matrix.Open(path)
	require.NoError(t, err)
	defer s.Close()

	q := m.Quantized(conf)
	for _, want := range q.Rows {
		got, ok, err := s.Row(want.ID)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, len(want.Cols), got.Len())
		for i := range want.Cols {
			assert.Equal(t, want.Cols[i], got.ColID(i))
			assert.Equal(t, want.Vals[i], got.Value(i))
		}
	}
}
