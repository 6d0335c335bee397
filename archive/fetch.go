package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/simmat/blobstore"
	"github.com/hupe1980/simmat/internal/conv"
	"github.com/hupe1980/simmat/internal/hash"
	"github.com/hupe1980/simmat/resource"
	"github.com/hupe1980/simmat/run"
)

// Fetch downloads the archive name and restores it to dstPath.
// The file is written to a temporary sibling and renamed into place only
// after its size and checksum match the trailer.
func Fetch(ctx context.Context, rc *run.Context, store blobstore.BlobStore, name, dstPath string, optFns ...Option) (stats *Stats, err error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	stats = &Stats{Name: name}
	defer func() {
		rc.Log().WithPath(dstPath).LogTransfer(ctx, "fetch", name, stats.RawBytes, stats.StoredBytes, err)
	}()

	blob, err := store.Open(ctx, name)
	if err != nil {
		return stats, fmt.Errorf("open blob %s: %w", name, err)
	}
	defer blob.Close()

	size := blob.Size()
	if size < HeaderSize+TrailerSize {
		return stats, fmt.Errorf("%w: %s has %d bytes", ErrCorruptArchive, name, size)
	}

	buf := make([]byte, TrailerSize)
	if err := readFull(ctx, blob, buf[:HeaderSize], 0); err != nil {
		return stats, err
	}
	h, err := decodeHeader(buf[:HeaderSize])
	if err != nil {
		return stats, err
	}
	if err := readFull(ctx, blob, buf, size-TrailerSize); err != nil {
		return stats, err
	}
	t, err := decodeTrailer(buf)
	if err != nil {
		return stats, err
	}
	stats.Codec = h.codec

	body, err := blob.ReadRange(ctx, HeaderSize, size-HeaderSize-TrailerSize)
	if err != nil {
		return stats, err
	}
	defer body.Close()

	in := resource.NewRateLimitedReader(ctx, body, rc.Controller())
	dec, err := decompressor(contextReader{ctx: ctx, r: in}, h.codec)
	if err != nil {
		return stats, err
	}
	defer dec.Close()

	raw, err := restore(ctx, opts, dec, dstPath, t)
	if err != nil {
		return stats, err
	}

	if opts.verify {
		if err := verifyMatrix(dstPath); err != nil {
			_ = opts.fs.Remove(dstPath)
			return stats, err
		}
	}

	stats.RawBytes = raw
	stats.StoredBytes = size
	stats.Duration = time.Since(start)
	return stats, nil
}

// restore streams the decompressed payload into dstPath via a temporary file.
func restore(ctx context.Context, opts options, r io.Reader, dstPath string, t trailer) (int64, error) {
	if err := opts.fs.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return 0, err
	}
	tmp := dstPath + ".tmp"
	f, err := opts.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	ok := false
	defer func() {
		if !ok {
			_ = f.Close()
			_ = opts.fs.Remove(tmp)
		}
	}()

	sum := hash.NewCRC32C()
	size, err := conv.Uint64ToInt64(t.rawSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}
	raw, err := io.Copy(io.MultiWriter(f, sum), io.LimitReader(r, size+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("%w: decompress: %w", ErrCorruptArchive, err)
	}
	if uint64(raw) != t.rawSize {
		return 0, fmt.Errorf("%w: restored %d bytes, expected %d", ErrCorruptArchive, raw, t.rawSize)
	}
	if got := sum.Sum32(); got != t.checksum {
		return 0, fmt.Errorf("%w: checksum mismatch: stored 0x%08x, computed 0x%08x", ErrCorruptArchive, t.checksum, got)
	}

	if err := f.Sync(); err != nil {
		return 0, err
	}
	ok = true
	if err := f.Close(); err != nil {
		_ = opts.fs.Remove(tmp)
		return 0, err
	}
	if err := opts.fs.Rename(tmp, dstPath); err != nil {
		_ = opts.fs.Remove(tmp)
		return 0, err
	}
	return raw, nil
}

func readFull(ctx context.Context, blob blobstore.Blob, p []byte, off int64) error {
	n, err := blob.ReadAt(ctx, p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("read archive at %d: %w", off, err)
}
