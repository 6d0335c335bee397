// Package similarity computes top-K cosine similarity lists for every row
// of a sparse matrix.
//
// The column-major transpose of the source serves as an inverted index:
// for a target row r, each of its columns is looked up in the transpose to
// find the other rows sharing that column, and their products are
// accumulated into per-neighbor dot products. Work is proportional to the
// number of row pairs that share a column rather than to the square of
// the row count.
//
// Targets are striped across a fixed pool of workers by position
// (index mod workers). Results flow over a channel to a single goroutine
// that owns the output writer. A row that fails, by error or by panic, is
// logged and recorded in the run Report while the other rows continue.
package similarity
