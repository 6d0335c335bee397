// Package testutil provides testing utilities for simmat.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded RNG, in-memory sparse matrix fixtures that can be
// written to disk, and brute-force reference implementations of the
// transpose and cosine top-K computations.
//
//	rng := testutil.NewRNG(seed)
//	m := rng.SparseMatrix(1000, 500, 8)
//	err := m.Write(path, row.ValueConf{Min: 0, Max: 1})
//	want := m.CosineTopK(10)
package testutil
