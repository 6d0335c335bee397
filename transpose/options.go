package transpose

import (
	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/row"
)

const (
	// DefaultMemoryBudget bounds the accumulator of one batch.
	DefaultMemoryBudget = 256 << 20

	// DefaultEntryBytes is the accumulator cost of one entry: an int32 row
	// id plus a float32 value.
	DefaultEntryBytes = 8
)

type options struct {
	memoryBudget int64
	entryBytes   int64
	conf         *row.ValueConf
	writerOpts   []matrix.WriterOption
}

// Option configures Transpose.
type Option func(*options)

// WithMemoryBudget sets the maximum accumulator size of one batch in bytes.
func WithMemoryBudget(bytes int64) Option {
	return func(o *options) {
		if bytes > 0 {
			o.memoryBudget = bytes
		}
	}
}

// WithEntryBytes sets the estimated memory cost of one accumulated entry.
func WithEntryBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.entryBytes = n
		}
	}
}

// WithValueConf sets the quantization of the output matrix. By default a
// sparse source keeps its own ValueConf and a dense source uses the value
// range observed during the census.
func WithValueConf(conf row.ValueConf) Option {
	return func(o *options) {
		o.conf = &conf
	}
}

// WithWriterOptions passes options to the output matrix writer.
func WithWriterOptions(opts ...matrix.WriterOption) Option {
	return func(o *options) {
		o.writerOpts = append(o.writerOpts, opts...)
	}
}
