// Package simmat builds top-K cosine similarity matrices from sparse
// "neighbor list per entity" matrices that do not fit in memory.
//
// # Quick Start
//
//	w, _ := matrix.NewSparseWriter("signals.smx", row.ValueConf{Min: 0, Max: 1})
//	_ = w.WriteSparse(42, []int32{7, 9}, []float32{0.8, 0.3})
//	_ = w.Finish()
//
//	p := simmat.NewPipeline(simmat.WithSimilarityOptions(similarity.WithK(20)))
//	res, _ := p.Run(ctx, "signals.smx", "similar.smx")
//
//	sim, _ := simmat.Open("similar.smx")
//	neighbors, ok, _ := sim.Row(42)
//
// # Packages
//
//   - row: row variants, value quantization and the binary row codec
//   - matrix: the paged matrix file format, Writer and Store
//   - transpose: memory-budgeted out-of-core transposition
//   - similarity: the striped cosine top-K engine
//   - archive: publishing finished files to a blob store
//   - run: logger, metrics and resource limits shared by a job
//
// Matrix files are immutable once written. A Store can be shared by any
// number of goroutines.
package simmat
