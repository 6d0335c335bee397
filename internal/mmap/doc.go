// Package mmap provides read-only memory mappings of whole files or of
// byte ranges within a file.
//
// # Overview
//
// Matrix files are paged through a set of row-aligned windows. Each window
// is a Mapping of an arbitrary byte range; the package takes care of the
// page alignment the operating system requires and exposes exactly the
// requested bytes.
//
// # Usage
//
//	m, err := mmap.Map(f, offset, length)
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes() // len(data) == length
//	m.Advise(mmap.AccessSequential)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) and madvise(2) via golang.org/x/sys/unix
//   - Other platforms: github.com/edsrzf/mmap-go (madvise is a no-op)
//
// # Thread Safety
//
// A Mapping is safe for concurrent read access. Close is idempotent, but
// callers must ensure no goroutine still uses Bytes() after Close returns.
package mmap
