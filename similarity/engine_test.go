package similarity_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/row"
	"github.com/hupe1980/simmat/run"
	"github.com/hupe1980/simmat/similarity"
	"github.com/hupe1980/simmat/testutil"
	"github.com/hupe1980/simmat/transpose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var unitConf = row.ValueConf{Min: 0, Max: 1}

// prepare writes m, transposes it and returns both stores.
func prepare(t *testing.T, m *testutil.Matrix) (*matrix.Store, *matrix.Store) {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, m.Write(filepath.Join(dir, "src.smx"), unitConf))
	src, err := matrix.Open(filepath.Join(dir, "src.smx"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	_, err = transpose.Transpose(context.Background(), nil, src, filepath.Join(dir, "t.smx"))
	require.NoError(t, err)
	tr, err := matrix.Open(filepath.Join(dir, "t.smx"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })

	return src, tr
}

func openResult(t *testing.T, path string) *matrix.Store {
	t.Helper()
	s, err := matrix.Open(path, matrix.WithVerifyChecksum(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCompute_ThreeRowScenario(t *testing.T) {
	const a, b, c = 1, 2, 3
	m := testutil.NewMatrix()
	m.Add(a, []int32{1, 2}, []float32{1, 1})
	m.Add(b, []int32{1, 3}, []float32{1, 1})
	m.Add(c, []int32{2, 3}, []float32{1, 1})

	src, tr := prepare(t, m)
	dst := filepath.Join(t.TempDir(), "sim.smx")

	report, err := similarity.Compute(context.Background(), nil, src, tr, dst, similarity.WithK(2), similarity.WithWorkers(2))
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, 3, report.Targets)
	assert.Equal(t, 3, report.Written)
	assert.Equal(t, 0, report.Failures)

	out := openResult(t, dst)
	got, ok, err := out.Row(a)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, got.Len())

	// Ties resolve to ascending id.
	assert.Equal(t, int32(b), got.ColID(0))
	assert.Equal(t, int32(c), got.ColID(1))
	for i := range 2 {
		assert.InDelta(t, 0.5, got.Value(i), 2.0/255)
	}
}

func TestCompute_MatchesBruteForce(t *testing.T) {
	m := testutil.NewRNG(7).SparseMatrix(120, 25, 6)
	src, tr := prepare(t, m)
	dst := filepath.Join(t.TempDir(), "sim.smx")

	const k = 5
	report, err := similarity.Compute(context.Background(), nil, src, tr, dst, similarity.WithK(k), similarity.WithWorkers(4))
	require.NoError(t, err)
	require.NoError(t, report.Err())

	want := m.Quantized(unitConf).CosineTopK(k)
	out := openResult(t, dst)
	tol := float64(row.SimilarityConf.Resolution())

	for _, id := range src.IDs() {
		got, ok, err := out.Row(id)
		require.NoError(t, err)
		require.True(t, ok)

		exp := want[id]
		require.Equal(t, len(exp), got.Len(), "row %d", id)
		for i := range exp {
			// Near-ties may swap after float32 rounding, so compare scores
			// by position and ids by score.
			assert.InDelta(t, exp[i].Score, got.Value(i), tol, "row %d pos %d", id, i)
		}
	}
}

func TestCompute_Symmetry(t *testing.T) {
	// Small K-free dataset: every pair that overlaps is retained.
	m := testutil.NewRNG(9).SparseMatrix(40, 15, 5)
	src, tr := prepare(t, m)
	dst := filepath.Join(t.TempDir(), "sim.smx")

	_, err := similarity.Compute(context.Background(), nil, src, tr, dst, similarity.WithK(40))
	require.NoError(t, err)

	out := openResult(t, dst)
	scores := make(map[[2]int32]float32)
	for _, id := range out.IDs() {
		r, _, err := out.Row(id)
		require.NoError(t, err)
		for i := 0; i < r.Len(); i++ {
			scores[[2]int32{id, r.ColID(i)}] = r.Value(i)
		}
	}
	for pair, s := range scores {
		back, ok := scores[[2]int32{pair[1], pair[0]}]
		require.True(t, ok, "pair %v has no reverse", pair)
		assert.InDelta(t, s, back, 1e-6)
	}
}

func TestCompute_SelfExcludedAndMinScore(t *testing.T) {
	m := testutil.NewMatrix()
	m.Add(1, []int32{1}, []float32{1})
	m.Add(2, []int32{1, 2}, []float32{1, 1})
	m.Add(3, []int32{9}, []float32{1})

	src, tr := prepare(t, m)
	dst := filepath.Join(t.TempDir(), "sim.smx")

	report, err := similarity.Compute(context.Background(), nil, src, tr, dst, similarity.WithMinScore(0.8))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Written)
	assert.Equal(t, 3, report.Empty)

	out := openResult(t, dst)
	for _, id := range []int32{1, 2, 3} {
		r, ok, err := out.Row(id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 0, r.Len())
	}
}

func TestCompute_TargetSubset(t *testing.T) {
	m := testutil.NewRNG(11).SparseMatrix(60, 10, 4)
	src, tr := prepare(t, m)
	dst := filepath.Join(t.TempDir(), "sim.smx")

	ids := src.IDs()
	subset := roaring.New()
	for _, id := range ids[:10] {
		subset.Add(uint32(id))
	}

	report, err := similarity.Compute(context.Background(), nil, src, tr, dst, similarity.WithRows(subset))
	require.NoError(t, err)
	assert.Equal(t, 10, report.Targets)

	out := openResult(t, dst)
	assert.Equal(t, 10, out.Len())
	for _, id := range out.IDs() {
		assert.True(t, subset.Contains(uint32(id)))
	}
}

func TestCompute_FailureIsolation(t *testing.T) {
	dir := t.TempDir()
	m := testutil.NewMatrix()
	m.Add(1, []int32{1, 2}, []float32{1, 1})
	m.Add(2, []int32{1, 3}, []float32{1, 1})
	m.Add(3, []int32{2, 3}, []float32{1, 1})
	require.NoError(t, m.Write(filepath.Join(dir, "src.smx"), unitConf))
	src, err := matrix.Open(filepath.Join(dir, "src.smx"))
	require.NoError(t, err)
	defer src.Close()

	// An inverted index missing column 3 breaks rows 2 and 3 only.
	partial := m.Transpose()
	broken := testutil.NewMatrix()
	for _, r := range partial.Rows {
		if r.ID != 3 {
			broken.Add(r.ID, r.Cols, r.Vals)
		}
	}
	require.NoError(t, broken.Write(filepath.Join(dir, "t.smx"), unitConf))
	tr, err := matrix.Open(filepath.Join(dir, "t.smx"))
	require.NoError(t, err)
	defer tr.Close()

	metrics := &run.BasicMetricsCollector{}
	rc := run.New(run.WithMetrics(metrics))
	dst := filepath.Join(dir, "sim.smx")

	report, err := similarity.Compute(context.Background(), rc, src, tr, dst, similarity.WithWorkers(3))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Targets)
	assert.Equal(t, 1, report.Written)
	assert.Equal(t, 2, report.Failures)
	assert.Equal(t, []int32{2, 3}, report.SkippedIDs())
	assert.ErrorIs(t, report.Err(), similarity.ErrMissingColumn)

	var rowErr *similarity.RowError
	require.ErrorAs(t, report.Err(), &rowErr)

	stats := metrics.GetStats()
	assert.Equal(t, int64(3), stats.SimilarityRows)
	assert.Equal(t, int64(2), stats.SimilarityFailures)

	out := openResult(t, dst)
	assert.Equal(t, []int32{1}, out.IDs())
}

func TestCompute_InvalidOptions(t *testing.T) {
	m := testutil.NewMatrix()
	m.Add(1, []int32{1}, []float32{1})
	src, tr := prepare(t, m)
	dst := filepath.Join(t.TempDir(), "sim.smx")

	_, err := similarity.Compute(context.Background(), nil, src, tr, dst, similarity.WithK(0))
	assert.ErrorIs(t, err, similarity.ErrInvalidK)

	_, err = similarity.Compute(context.Background(), nil, src, tr, dst, similarity.WithValueConf(row.ValueConf{Min: 1, Max: 0}))
	assert.ErrorIs(t, err, row.ErrInvalidConf)
}

func TestCompute_HugeK(t *testing.T) {
	m := testutil.NewMatrix()
	m.Add(1, []int32{1, 2}, []float32{1, 1})
	m.Add(2, []int32{1}, []float32{1})
	src, tr := prepare(t, m)
	dst := filepath.Join(t.TempDir(), "sim.smx")

	report, err := similarity.Compute(context.Background(), nil, src, tr, dst,
		similarity.WithK(math.MaxInt), similarity.WithWorkers(1))
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, 2, report.Written)

	got, ok, err := openResult(t, dst).Row(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, int32(2), got.ColID(0))
}

func TestCompute_Canceled(t *testing.T) {
	m := testutil.NewRNG(13).SparseMatrix(30, 10, 3)
	src, tr := prepare(t, m)
	dst := filepath.Join(t.TempDir(), "sim.smx")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := similarity.Compute(ctx, nil, src, tr, dst)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = matrix.Open(dst)
	assert.Error(t, err)
}

func TestCompute_ZeroNormRow(t *testing.T) {
	m := testutil.NewMatrix()
	m.Add(1, []int32{1}, []float32{0})
	m.Add(2, []int32{1}, []float32{1})
	src, tr := prepare(t, m)
	dst := filepath.Join(t.TempDir(), "sim.smx")

	report, err := similarity.Compute(context.Background(), nil, src, tr, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Empty)

	out := openResult(t, dst)
	r, ok, err := out.Row(2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, r.Len())
}
