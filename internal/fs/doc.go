// Package fs provides the filesystem seam used by the matrix writer.
//
// The package defines two interfaces:
//
//   - [File]: an open file with read/write/seek/sync capabilities
//   - [FileSystem]: open, remove, rename, stat and mkdir
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects write, sync and rename failures
//
// Tests use [FaultyFS] to interrupt a matrix write at an arbitrary byte and
// assert that no readable matrix file is left behind:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp", fs.Fault{FailAfterBytes: 128})
//	w, _ := matrix.NewSparseWriter(path, conf, matrix.WithFileSystem(ffs))
package fs
