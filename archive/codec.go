package archive

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the payload compression.
type Codec uint8

const (
	// CodecNone stores the file verbatim.
	CodecNone Codec = 0
	// CodecLZ4 uses the LZ4 frame format (fast, lower ratio).
	CodecLZ4 Codec = 1
	// CodecZstd uses zstd (better ratio, good for cold storage).
	CodecZstd Codec = 2
)

// ErrUnknownCodec is returned for unsupported codec identifiers or names.
var ErrUnknownCodec = errors.New("archive: unknown codec")

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Codec(%d)", uint8(c))
	}
}

// ParseCodec converts a codec name as accepted on the command line.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "none", "":
		return CodecNone, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd", "zst":
		return CodecZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// compressor wraps w so that bytes written are compressed with c.
// Close flushes the codec but leaves w open.
func compressor(w io.Writer, c Codec, level int) (io.WriteCloser, error) {
	switch c {
	case CodecNone:
		return nopWriteCloser{w}, nil
	case CodecLZ4:
		zw := lz4.NewWriter(w)
		opts := []lz4.Option{lz4.ChecksumOption(false)}
		if level > 0 {
			opts = append(opts, lz4.CompressionLevelOption(lz4LevelFor(level)))
		}
		if err := zw.Apply(opts...); err != nil {
			return nil, err
		}
		return zw, nil
	case CodecZstd:
		encLevel := zstd.SpeedDefault
		if level > 0 {
			encLevel = zstd.EncoderLevelFromZstd(level)
		}
		return zstd.NewWriter(w, zstd.WithEncoderLevel(encLevel))
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}
}

// decompressor returns a reader producing the decompressed bytes of r.
func decompressor(r io.Reader, c Codec) (io.ReadCloser, error) {
	switch c {
	case CodecNone:
		return io.NopCloser(r), nil
	case CodecLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case CodecZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}
}

func lz4LevelFor(level int) lz4.CompressionLevel {
	if level > 9 {
		level = 9
	}
	return lz4.CompressionLevel(1 << (8 + level))
}
