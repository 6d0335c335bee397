package simmat_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hupe1980/simmat"
	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/resource"
	"github.com/hupe1980/simmat/row"
	"github.com/hupe1980/simmat/run"
	"github.com/hupe1980/simmat/similarity"
	"github.com/hupe1980/simmat/testutil"
	"github.com/hupe1980/simmat/transpose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var unitConf = row.ValueConf{Min: 0, Max: 1}

func writeSource(t *testing.T, m *testutil.Matrix) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "signals.smx")
	require.NoError(t, m.Write(path, unitConf))
	return path
}

func TestPipeline_Run(t *testing.T) {
	m := testutil.NewRNG(3).SparseMatrix(150, 30, 8)
	src := writeSource(t, m)
	tmp := t.TempDir()
	dst := filepath.Join(t.TempDir(), "similar.smx")

	var (
		mu     sync.Mutex
		stages []string
	)
	rc := run.New(
		run.WithMetrics(&run.BasicMetricsCollector{}),
		run.WithProgress(func(stage string, _, _ int64) {
			mu.Lock()
			stages = append(stages, stage)
			mu.Unlock()
		}),
		run.WithResources(resource.NewController(resource.Config{
			MemoryLimitBytes:  1 << 20,
			MaxConcurrentRuns: 1,
		})),
	)

	const k = 4
	p := simmat.NewPipeline(
		simmat.WithRunContext(rc),
		simmat.WithTempDir(tmp),
		simmat.WithTransposeOptions(transpose.WithMemoryBudget(2048)),
		simmat.WithSimilarityOptions(similarity.WithK(k), similarity.WithWorkers(3)),
	)

	res, err := p.Run(context.Background(), src, dst)
	require.NoError(t, err)
	require.NoError(t, res.Similarity.Err())
	assert.Greater(t, res.Transpose.Batches, 1)
	assert.Equal(t, len(m.Rows), res.Similarity.Written)
	assert.Empty(t, res.TransposePath)
	assert.Contains(t, stages, "similarity")

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary transpose not removed")

	out, err := simmat.Open(dst, matrix.WithVerifyChecksum(true))
	require.NoError(t, err)
	defer out.Close()

	want := m.Quantized(unitConf).CosineTopK(k)
	tol := float64(row.SimilarityConf.Resolution())
	for id, exp := range want {
		got, ok, err := out.Row(id)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, len(exp), got.Len(), "row %d", id)
		for i := range exp {
			assert.InDelta(t, exp[i].Score, got.Value(i), tol)
		}
	}
}

func TestPipeline_KeepTranspose(t *testing.T) {
	m := testutil.NewRNG(5).SparseMatrix(40, 12, 5)
	src := writeSource(t, m)
	dir := t.TempDir()
	tpath := filepath.Join(dir, "columns.smx")

	res, err := simmat.NewPipeline(simmat.WithTransposePath(tpath)).
		Run(context.Background(), src, filepath.Join(dir, "sim.smx"))
	require.NoError(t, err)
	assert.Equal(t, tpath, res.TransposePath)

	tr, err := simmat.Open(tpath)
	require.NoError(t, err)
	defer tr.Close()
	assert.Equal(t, m.Quantized(unitConf).Transpose().SortedIDs(), tr.IDs())
}

func TestPipeline_InvalidK(t *testing.T) {
	src := writeSource(t, testutil.NewRNG(1).SparseMatrix(10, 5, 3))

	_, err := simmat.NewPipeline(simmat.WithSimilarityOptions(similarity.WithK(0))).
		Run(context.Background(), src, filepath.Join(t.TempDir(), "sim.smx"))
	assert.ErrorIs(t, err, simmat.ErrInvalidK)
	assert.ErrorIs(t, err, similarity.ErrInvalidK)
}

func TestOpen_Corrupt(t *testing.T) {
	src := writeSource(t, testutil.NewRNG(2).SparseMatrix(20, 5, 3))
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(src, data, 0o644))

	_, err = simmat.Open(src)
	assert.ErrorIs(t, err, simmat.ErrCorrupt)
	assert.ErrorIs(t, err, matrix.ErrCorruptMatrix)

	_, err = simmat.NewPipeline().Run(context.Background(), src, filepath.Join(t.TempDir(), "sim.smx"))
	assert.ErrorIs(t, err, simmat.ErrCorrupt)
}

func TestOpen_Missing(t *testing.T) {
	_, err := simmat.Open(filepath.Join(t.TempDir(), "missing.smx"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, simmat.ErrCorrupt)
}
