package simmat

import (
	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/run"
	"github.com/hupe1980/simmat/similarity"
	"github.com/hupe1980/simmat/transpose"
)

type options struct {
	rc            *run.Context
	tempDir       string
	transposePath string
	storeOpts     []matrix.StoreOption
	transposeOpts []transpose.Option
	simOpts       []similarity.Option
}

// Option configures a Pipeline.
type Option func(*options)

// WithRunContext sets the logger, metrics, progress callback and resource
// limits shared by every stage.
func WithRunContext(rc *run.Context) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithTempDir sets the directory for the intermediate transpose.
// Default: os.TempDir().
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithTransposePath keeps the intermediate transpose at path instead of
// deleting it after the run.
func WithTransposePath(path string) Option {
	return func(o *options) {
		o.transposePath = path
	}
}

// WithStoreOptions configures how the source and transpose are opened.
func WithStoreOptions(opts ...matrix.StoreOption) Option {
	return func(o *options) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}

// WithTransposeOptions configures the transpose stage.
func WithTransposeOptions(opts ...transpose.Option) Option {
	return func(o *options) {
		o.transposeOpts = append(o.transposeOpts, opts...)
	}
}

// WithSimilarityOptions configures the similarity stage.
func WithSimilarityOptions(opts ...similarity.Option) Option {
	return func(o *options) {
		o.simOpts = append(o.simOpts, opts...)
	}
}
