package simmat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/similarity"
	"github.com/hupe1980/simmat/transpose"
)

// Open opens a finished matrix file for reading.
func Open(path string, opts ...matrix.StoreOption) (*matrix.Store, error) {
	s, err := matrix.Open(path, opts...)
	if err != nil {
		return nil, translateError(err)
	}
	return s, nil
}

// Result summarizes a pipeline run.
type Result struct {
	Transpose     *transpose.Stats
	Similarity    *similarity.Report
	TransposePath string // empty if the transpose was temporary
	Duration      time.Duration
}

// Pipeline runs transpose followed by similarity.
type Pipeline struct {
	opts options
}

// NewPipeline creates a Pipeline.
func NewPipeline(optFns ...Option) *Pipeline {
	var o options
	for _, fn := range optFns {
		fn(&o)
	}
	return &Pipeline{opts: o}
}

// Run computes the similarity matrix of the row-major matrix at srcPath
// and writes it to dstPath. Unless WithTransposePath is set, the
// intermediate transpose is written to a temporary directory and removed
// when Run returns.
func (p *Pipeline) Run(ctx context.Context, srcPath, dstPath string) (*Result, error) {
	res, err := p.run(ctx, srcPath, dstPath)
	return res, translateError(err)
}

func (p *Pipeline) run(ctx context.Context, srcPath, dstPath string) (*Result, error) {
	start := time.Now()
	rc := p.opts.rc
	storeOpts := append([]matrix.StoreOption{matrix.WithRunContext(rc)}, p.opts.storeOpts...)

	src, err := matrix.Open(srcPath, storeOpts...)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	tpath := p.opts.transposePath
	if tpath == "" {
		dir, err := os.MkdirTemp(p.opts.tempDir, "simmat-*")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(dir)
		tpath = filepath.Join(dir, "transpose.smx")
	}

	tstats, err := transpose.Transpose(ctx, rc, src, tpath, p.opts.transposeOpts...)
	if err != nil {
		return nil, fmt.Errorf("transpose: %w", err)
	}

	transposed, err := matrix.Open(tpath, storeOpts...)
	if err != nil {
		return nil, err
	}
	defer transposed.Close()

	report, err := similarity.Compute(ctx, rc, src, transposed, dstPath, p.opts.simOpts...)
	if err != nil {
		return nil, fmt.Errorf("similarity: %w", err)
	}

	res := &Result{
		Transpose:  tstats,
		Similarity: report,
		Duration:   time.Since(start),
	}
	if p.opts.transposePath != "" {
		res.TransposePath = tpath
	}
	return res, nil
}
