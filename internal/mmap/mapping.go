package mmap

import (
	"io"
	"os"
	"sync/atomic"
)

// Mapping represents a read-only memory-mapped byte range of a file.
// It owns the underlying mapping and is responsible for unmapping it.
type Mapping struct {
	// raw is the page-aligned mapping as returned by the OS.
	raw []byte
	// data is the requested range within raw.
	data   []byte
	offset int64
	closed atomic.Bool

	// unmap is the platform-specific function to unmap the memory.
	unmap func([]byte) error
}

// Open maps the whole file at path into memory.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size < 0 || int64(int(size)) != size {
		return nil, ErrInvalidSize
	}

	return Map(f, 0, int(size))
}

// Map maps length bytes of f starting at offset. The offset does not need
// to be page aligned. The file may be closed once Map returns.
func Map(f *os.File, offset int64, length int) (*Mapping, error) {
	if offset < 0 {
		return nil, ErrInvalidOffset
	}
	if length < 0 {
		return nil, ErrInvalidSize
	}
	if length == 0 {
		return &Mapping{offset: offset}, nil
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if offset+int64(length) > fi.Size() {
		return nil, ErrOutOfBounds
	}

	pageSize := int64(os.Getpagesize())
	aligned := offset - offset%pageSize
	delta := int(offset - aligned)

	raw, unmapFunc, err := osMap(f, aligned, length+delta)
	if err != nil {
		return nil, err
	}

	return &Mapping{
		raw:    raw,
		data:   raw[delta : delta+length : delta+length],
		offset: offset,
		unmap:  unmapFunc,
	}, nil
}

// Close unmaps the memory. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil // Already closed
	}
	if m.unmap != nil && m.raw != nil {
		return m.unmap(m.raw)
	}
	return nil
}

// Bytes returns the mapped range.
// Warning: The slice is valid only until Close() is called.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the size of the mapped range in bytes.
func (m *Mapping) Size() int {
	return len(m.data)
}

// Offset returns the file offset of the first mapped byte.
func (m *Mapping) Offset() int64 {
	return m.offset
}

// Advise provides hints to the kernel about how the memory will be accessed.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.raw == nil {
		return nil
	}
	return osAdvise(m.raw, pattern)
}

// ReadAt implements io.ReaderAt relative to the start of the mapped range.
func (m *Mapping) ReadAt(p []byte, off int64) (n int, err error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
