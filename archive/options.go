package archive

import (
	"github.com/hupe1980/simmat/internal/fs"
)

// Option configures Publish and Fetch.
type Option func(*options)

type options struct {
	codec  Codec
	level  int
	verify bool
	fs     fs.FileSystem
}

func defaultOptions() options {
	return options{
		codec:  CodecZstd,
		verify: true,
		fs:     fs.Default,
	}
}

// WithCodec selects the payload compression for Publish. Default: zstd.
func WithCodec(c Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithLevel sets the codec compression level (zstd 1-22, lz4 1-9).
// Zero keeps the codec default.
func WithLevel(level int) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithVerify controls whether the file is opened as a matrix and its
// footer checksum checked, before Publish and after Fetch. Default: true.
func WithVerify(verify bool) Option {
	return func(o *options) {
		o.verify = verify
	}
}

// WithFileSystem overrides the local file system used by Fetch.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}
