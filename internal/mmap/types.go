package mmap

import "errors"

// AccessPattern is a paging hint passed to Advise.
type AccessPattern int

const (
	// AccessNormal clears any earlier hint.
	AccessNormal AccessPattern = iota
	// AccessSequential suits full scans over a window.
	AccessSequential
	// AccessRandom suits point lookups of single rows.
	AccessRandom
)

var (
	// ErrClosed is returned by a Mapping after Close.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for a negative length or an unmappable file size.
	ErrInvalidSize = errors.New("mmap: invalid size")
	// ErrOutOfBounds is returned when offset+length exceeds the file.
	ErrOutOfBounds = errors.New("mmap: range outside file")
	// ErrInvalidOffset is returned for a negative offset.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
