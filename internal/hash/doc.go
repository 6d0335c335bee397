// Package hash provides the checksum used to protect matrix files.
//
// # CRC32-Castagnoli (CRC32C)
//
// Matrix footers and archive frames carry a CRC32C of their payload.
// Go's hash/crc32 uses SSE4.2 or the ARM CRC extension when available.
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(data)
//
// For streaming checksums (e.g. while appending row bodies):
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
package hash
