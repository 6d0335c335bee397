package matrix

import (
	"github.com/hupe1980/simmat/internal/fs"
	"github.com/hupe1980/simmat/run"
)

const (
	// DefaultMaxWindowSize is the default upper bound of one mapped window.
	DefaultMaxWindowSize = 1 << 30

	// DefaultMaxMappedWindows is the default number of windows a
	// non-resident store keeps mapped.
	DefaultMaxMappedWindows = 16
)

type writerOptions struct {
	fs         fs.FileSystem
	scratchDir string
	logger     *run.Logger
	metrics    run.MetricsCollector
}

// WriterOption configures a Writer.
type WriterOption func(*writerOptions)

// WithFileSystem sets the file system used for scratch, temporary and output files.
func WithFileSystem(fsys fs.FileSystem) WriterOption {
	return func(o *writerOptions) {
		o.fs = fsys
	}
}

// WithScratchDir places the scratch body file in dir instead of next to the output.
func WithScratchDir(dir string) WriterOption {
	return func(o *writerOptions) {
		o.scratchDir = dir
	}
}

// WithWriterLogger sets the logger used by the writer.
func WithWriterLogger(l *run.Logger) WriterOption {
	return func(o *writerOptions) {
		o.logger = l
	}
}

// WithWriterMetrics sets the metrics collector used by the writer.
func WithWriterMetrics(m run.MetricsCollector) WriterOption {
	return func(o *writerOptions) {
		o.metrics = m
	}
}

type storeOptions struct {
	maxWindowSize    int64
	resident         bool
	maxMappedWindows int
	verifyChecksum   bool
	logger           *run.Logger
	metrics          run.MetricsCollector
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

// WithMaxWindowSize bounds the size of each mapped window in bytes.
func WithMaxWindowSize(bytes int64) StoreOption {
	return func(o *storeOptions) {
		if bytes > 0 {
			o.maxWindowSize = bytes
		}
	}
}

// WithResident controls whether all windows are mapped at open (true,
// the default) or on demand.
func WithResident(resident bool) StoreOption {
	return func(o *storeOptions) {
		o.resident = resident
	}
}

// WithMaxMappedWindows bounds how many windows a non-resident store keeps mapped.
func WithMaxMappedWindows(n int) StoreOption {
	return func(o *storeOptions) {
		if n > 0 {
			o.maxMappedWindows = n
		}
	}
}

// WithVerifyChecksum verifies the footer checksum on open.
func WithVerifyChecksum(verify bool) StoreOption {
	return func(o *storeOptions) {
		o.verifyChecksum = verify
	}
}

// WithLogger sets the logger used by the store.
func WithLogger(l *run.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = l
	}
}

// WithMetrics sets the metrics collector used by the store.
func WithMetrics(m run.MetricsCollector) StoreOption {
	return func(o *storeOptions) {
		o.metrics = m
	}
}

// WithRunContext takes logger and metrics from rc.
func WithRunContext(rc *run.Context) StoreOption {
	return func(o *storeOptions) {
		o.logger = rc.Log()
		o.metrics = rc.Collector()
	}
}
