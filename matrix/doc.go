// Package matrix implements the on-disk matrix file: an immutable sequence
// of encoded rows preceded by an offset table and followed by a checksum
// footer.
//
// # File layout
//
// All integers are little-endian.
//
//	sparse header: [SparseMagic u32][min f32][max f32][N i32][N × (id i32, offset i64)]
//	dense header:  [DenseMagic u32][N i32][N × (id i32, offset i64)][numCols i32][numCols × i32]
//	padding:       zero bytes up to the next 8-byte boundary
//	body:          N encoded rows (see package row), each padded to 8 bytes
//	footer:        [length u64][crc32c u32][FooterMagic u32]
//
// Offsets are absolute file positions of each row's magic, in write order.
// The footer records the number of bytes that precede it together with
// their CRC32C. A file without a valid footer was never finished and is
// rejected on open.
//
// # Writing
//
// Writer appends rows to a scratch body file and assembles the final file
// on Finish, writing to a temporary path that is fsynced and renamed into
// place.
//
// # Reading
//
// Store splits the body into row-aligned page windows of bounded size and
// maps them read-only. In resident mode (the default) every window is
// mapped at open and shared without locking. In non-resident mode windows
// are mapped on demand and an LRU bounds how many stay mapped.
package matrix
