// Package transpose turns a row-major matrix into a column-major one
// without holding the whole matrix in memory.
//
// The source is scanned once to count the entries of every column. Column
// ids are then processed in ascending order in batches whose accumulator
// fits the memory budget; each batch rescans the source, collects only its
// own columns into exact-size flat arrays and emits them as rows of the
// output. A run therefore costs 1 + number of batches scans and at most one
// batch worth of memory. A single column larger than the budget forms a
// batch on its own.
package transpose
