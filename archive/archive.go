package archive

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/simmat/matrix"
)

// Stats describes a completed transfer.
type Stats struct {
	Name        string
	Codec       Codec
	RawBytes    int64
	StoredBytes int64
	Duration    time.Duration
}

// Ratio returns stored bytes per raw byte.
func (s *Stats) Ratio() float64 {
	if s.RawBytes == 0 {
		return 0
	}
	return float64(s.StoredBytes) / float64(s.RawBytes)
}

// verifyMatrix opens path as a matrix with footer checksum verification.
func verifyMatrix(path string) error {
	st, err := matrix.Open(path, matrix.WithVerifyChecksum(true), matrix.WithResident(false))
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	return st.Close()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
