// Package archive ships finished matrix files to a blob store and restores
// them on another host.
//
// An archive is a single blob:
//
//	[magic "SMXA" u32][codec u8][level u8][pad u16]   header, 8 bytes
//	[compressed payload]
//	[raw size u64][crc32c u32][magic "AEND" u32]      trailer, 16 bytes
//
// All integers are little endian. The checksum covers the uncompressed
// file, so Fetch detects corruption regardless of codec. Both directions
// stream; neither holds the whole file in memory.
package archive
