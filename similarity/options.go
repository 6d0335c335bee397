package similarity

import (
	"math"
	"runtime"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/row"
)

// DefaultK is the default number of neighbors kept per row.
const DefaultK = 10

type options struct {
	k          int
	workers    int
	rows       *roaring.Bitmap
	conf       row.ValueConf
	minScore   float32
	writerOpts []matrix.WriterOption
}

func defaultOptions() options {
	return options{
		k:        DefaultK,
		workers:  runtime.GOMAXPROCS(0),
		conf:     row.SimilarityConf,
		minScore: float32(math.Inf(-1)),
	}
}

// Option configures Compute.
type Option func(*options)

// WithK sets the number of neighbors kept per row.
func WithK(k int) Option {
	return func(o *options) {
		o.k = k
	}
}

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithRows restricts the target rows to the ids in bm. Ids are stored as
// their uint32 bit pattern. Neighbors are still drawn from every row.
func WithRows(bm *roaring.Bitmap) Option {
	return func(o *options) {
		o.rows = bm
	}
}

// WithValueConf sets the quantization of the output scores.
func WithValueConf(conf row.ValueConf) Option {
	return func(o *options) {
		o.conf = conf
	}
}

// WithMinScore drops neighbors scoring below min.
func WithMinScore(min float32) Option {
	return func(o *options) {
		o.minScore = min
	}
}

// WithWriterOptions passes options to the output matrix writer.
func WithWriterOptions(opts ...matrix.WriterOption) Option {
	return func(o *options) {
		o.writerOpts = append(o.writerOpts, opts...)
	}
}
