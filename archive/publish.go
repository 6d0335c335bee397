package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hupe1980/simmat/blobstore"
	"github.com/hupe1980/simmat/internal/hash"
	"github.com/hupe1980/simmat/resource"
	"github.com/hupe1980/simmat/run"
)

// Publish compresses the file at srcPath and stores it as name.
// The blob only becomes visible once it is complete; on any error the
// upload is aborted.
func Publish(ctx context.Context, rc *run.Context, srcPath string, store blobstore.BlobStore, name string, optFns ...Option) (stats *Stats, err error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.codec > CodecZstd {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(opts.codec))
	}

	start := time.Now()
	stats = &Stats{Name: name, Codec: opts.codec}
	defer func() {
		rc.Log().WithPath(srcPath).LogTransfer(ctx, "publish", name, stats.RawBytes, stats.StoredBytes, err)
	}()

	if opts.verify {
		if err := verifyMatrix(srcPath); err != nil {
			return stats, err
		}
	}

	f, err := opts.fs.OpenFile(srcPath, os.O_RDONLY, 0)
	if err != nil {
		return stats, err
	}
	defer f.Close()

	blob, err := store.Create(ctx, name)
	if err != nil {
		return stats, fmt.Errorf("create blob %s: %w", name, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = blob.Abort()
		}
	}()

	out := &countingWriter{w: resource.NewRateLimitedWriter(ctx, blob, rc.Controller())}
	if _, err := out.Write(header{codec: opts.codec, level: uint8(min(max(opts.level, 0), 255))}.appendBinary(nil)); err != nil {
		return stats, err
	}

	cw, err := compressor(out, opts.codec, opts.level)
	if err != nil {
		return stats, err
	}
	h := hash.NewCRC32C()
	raw, err := io.Copy(io.MultiWriter(cw, h), contextReader{ctx: ctx, r: f})
	if err != nil {
		_ = cw.Close()
		return stats, fmt.Errorf("compress %s: %w", srcPath, err)
	}
	if err := cw.Close(); err != nil {
		return stats, err
	}

	if _, err := out.Write(trailer{rawSize: uint64(raw), checksum: h.Sum32()}.appendBinary(nil)); err != nil {
		return stats, err
	}
	if err := blob.Close(); err != nil {
		return stats, fmt.Errorf("commit blob %s: %w", name, err)
	}
	committed = true

	stats.RawBytes = raw
	stats.StoredBytes = out.n
	stats.Duration = time.Since(start)
	return stats, nil
}
