// Package blobstore provides storage backends for shipping finished matrix
// files between hosts.
//
// # Built-in Implementations
//
//   - LocalStore: local directory, memory-mapped reads, atomic rename on Close
//   - MemoryStore: in-process map, used by tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// Blobs are written once and never modified. Readers address them with
// ReadAt for random access or ReadRange for streaming.
package blobstore
