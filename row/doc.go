// Package row defines matrix rows and their binary encoding.
//
// A row is an entity id plus parallel column ids and values. Two
// variants exist:
//
//   - SparseRow: explicit column ids with values quantized to one signed
//     byte against a matrix-wide ValueConf.
//   - DenseRow: full-precision float32 values aligned with a column schema
//     shared by every row of the matrix.
//
// Encoded layouts (little-endian):
//
//	sparse: [RowMagic u32][id i32][n i32][cols n×i32][codes n×i8]
//	dense:  [RowMagic u32][id i32][n i32][vals n×f32]
//
// Dense rows carry no column ids; the schema lives in the matrix header.
// Decoding copies out of the input buffer, so a decoded row stays valid
// after the buffer is unmapped.
package row
