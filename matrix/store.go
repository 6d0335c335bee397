package matrix

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/hupe1980/simmat/internal/cache"
	"github.com/hupe1980/simmat/internal/conv"
	"github.com/hupe1980/simmat/internal/hash"
	"github.com/hupe1980/simmat/internal/mmap"
	"github.com/hupe1980/simmat/row"
	"github.com/hupe1980/simmat/run"
)

// Store provides random and sequential read access to a matrix file.
// It is safe for concurrent use.
type Store struct {
	path   string
	f      *os.File
	header *Header
	index  map[int32]int64
	opts   storeOptions

	bodyStart int64
	bodyEnd   int64
	windows   []*window
	lru       *cache.LRU[int, *window] // non-resident only

	closed atomic.Bool
}

// Open opens and validates the matrix file at path.
func Open(path string, optFns ...StoreOption) (*Store, error) {
	o := storeOptions{
		maxWindowSize:    DefaultMaxWindowSize,
		resident:         true,
		maxMappedWindows: DefaultMaxMappedWindows,
		logger:           run.NoopLogger(),
		metrics:          run.NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&o)
	}

	s, err := open(path, o)
	o.logger.LogOpen(context.Background(), path, s.Len(), s.NumWindows(), err)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func open(path string, o storeOptions) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	s := &Store{path: path, f: f, opts: o}
	if err := s.load(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	fi, err := s.f.Stat()
	if err != nil {
		return err
	}
	size := fi.Size()
	if size < FooterSize {
		return corruptAt(s.path, 0, "file of %d bytes has no footer", size)
	}

	buf := make([]byte, FooterSize)
	if _, err := s.f.ReadAt(buf, size-FooterSize); err != nil {
		return fmt.Errorf("read footer: %w", err)
	}
	footer, err := decodeFooter(s.path, buf, size)
	if err != nil {
		return err
	}
	length := int64(footer.Length)

	if s.opts.verifyChecksum {
		sum, _, err := hash.ReaderCRC32C(io.NewSectionReader(s.f, 0, length))
		if err != nil {
			return fmt.Errorf("checksum: %w", err)
		}
		if sum != footer.Checksum {
			return corruptAt(s.path, length, "checksum mismatch: stored 0x%08x, computed 0x%08x", footer.Checksum, sum)
		}
	}

	h, err := s.readHeader(length)
	if err != nil {
		return err
	}
	if err := h.validate(s.path, length); err != nil {
		return err
	}
	s.header = h
	s.bodyStart = h.BodyStart()
	s.bodyEnd = length

	s.index = make(map[int32]int64, len(h.IDs))
	for i, id := range h.IDs {
		if _, dup := s.index[id]; dup {
			return corruptAt(s.path, h.Offsets[i], "duplicate row id %d", id)
		}
		s.index[id] = h.Offsets[i]
	}

	layout, err := layoutWindows(h.Offsets, s.bodyEnd, s.opts.maxWindowSize)
	if err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}
	s.windows = make([]*window, len(layout))
	for i, w := range layout {
		s.windows[i] = &window{Window: w}
	}

	if s.opts.resident {
		for _, w := range s.windows {
			if err := w.mapFrom(s.f); err != nil {
				s.unmapAll()
				return err
			}
		}
		return nil
	}

	s.lru = cache.NewLRU(s.opts.maxMappedWindows, func(_ int, w *window) {
		_ = w.unmap()
	})
	return nil
}

// readHeader maps the header prefix of the file and decodes it.
func (s *Store) readHeader(length int64) (*Header, error) {
	headerLen, err := peekHeaderLength(s.path, s.f, length)
	if err != nil {
		return nil, err
	}
	n, err := conv.Int64ToInt(headerLen)
	if err != nil {
		return nil, err
	}

	m, err := mmap.Map(s.f, 0, n)
	if err != nil {
		return nil, fmt.Errorf("map header: %w", err)
	}
	defer m.Close()

	return decodeHeader(s.path, m.Bytes())
}

// Path returns the file path.
func (s *Store) Path() string { return s.path }

// Len returns the number of rows.
func (s *Store) Len() int {
	if s == nil || s.header == nil {
		return 0
	}
	return len(s.header.IDs)
}

// IDs returns the row ids in stored order. The slice must not be modified.
func (s *Store) IDs() []int32 { return s.header.IDs }

// Kind returns the row variant of the matrix.
func (s *Store) Kind() row.Kind { return s.header.Kind }

// ValueConf returns the quantization range of a sparse matrix.
func (s *Store) ValueConf() row.ValueConf { return s.header.Conf }

// Schema returns the shared column ids of a dense matrix.
func (s *Store) Schema() []int32 { return s.header.Schema }

// Contains reports whether id has a row.
func (s *Store) Contains(id int32) bool {
	_, ok := s.index[id]
	return ok
}

// NumWindows returns the number of page windows.
func (s *Store) NumWindows() int {
	if s == nil {
		return 0
	}
	return len(s.windows)
}

// Windows returns the window layout.
func (s *Store) Windows() []Window {
	out := make([]Window, len(s.windows))
	for i, w := range s.windows {
		out[i] = w.Window
	}
	return out
}

// Size returns the number of data bytes, excluding the footer.
func (s *Store) Size() int64 { return s.bodyEnd }

// Row returns the row for id. A missing id returns (nil, false, nil).
func (s *Store) Row(id int32) (row.Row, bool, error) {
	start := time.Now()
	r, found, err := s.lookup(id)
	s.opts.metrics.RecordRowLookup(time.Since(start), found, err)
	return r, found, err
}

func (s *Store) lookup(id int32) (row.Row, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}
	off, ok := s.index[id]
	if !ok {
		return nil, false, nil
	}
	idx := findWindow(s.windows, off)
	if idx == len(s.windows) {
		return nil, false, corruptAt(s.path, off, "row %d outside every window", id)
	}

	r, err := s.decode(idx, off, mmap.AccessRandom)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// decode decodes the row at absolute offset off from window idx, mapping
// the window first when the store is not resident. The row is copied out
// before the window lock is released.
func (s *Store) decode(idx int, off int64, advice mmap.AccessPattern) (row.Row, error) {
	w := s.windows[idx]
	if s.opts.resident {
		w.mu.RLock()
		defer w.mu.RUnlock()
		if w.m == nil || s.closed.Load() {
			return nil, ErrClosed
		}
		return s.decodeAt(w.m.Bytes(), w, off)
	}

	for {
		w.mu.RLock()
		if w.m != nil {
			r, err := s.decodeAt(w.m.Bytes(), w, off)
			w.mu.RUnlock()
			s.lru.Get(idx)
			return r, err
		}
		w.mu.RUnlock()

		if s.closed.Load() {
			return nil, ErrClosed
		}

		w.mu.Lock()
		if s.closed.Load() {
			w.mu.Unlock()
			return nil, ErrClosed
		}
		if w.m == nil {
			if err := w.mapFrom(s.f); err != nil {
				w.mu.Unlock()
				return nil, err
			}
			_ = w.m.Advise(advice)
			w.mu.Unlock()
			s.opts.metrics.RecordWindowMap(s.lru.Add(idx, w))
			continue
		}
		w.mu.Unlock()
	}
}

func (s *Store) decodeAt(data []byte, w *window, off int64) (row.Row, error) {
	if data == nil {
		return nil, ErrClosed
	}
	r, err := row.Decode(data[off-w.Start:], s.header.Kind, s.header.Conf, s.header.Schema)
	if err != nil {
		return nil, &CorruptMatrixError{Path: s.path, Offset: off, Reason: "undecodable row", cause: err}
	}
	return r, nil
}

// Iterate calls fn for every row in stored order. Iteration stops at the
// first error returned by fn or when ctx is done. fn runs without any
// window lock held and may call Row.
func (s *Store) Iterate(ctx context.Context, fn func(row.Row) error) error {
	start := time.Now()
	rows := 0
	err := s.iterate(ctx, func(r row.Row) error {
		rows++
		return fn(r)
	})
	s.opts.metrics.RecordScan(rows, time.Since(start), err)
	return err
}

func (s *Store) iterate(ctx context.Context, fn func(row.Row) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	offsets := s.header.Offsets

	for idx, w := range s.windows {
		if s.opts.resident {
			w.mu.RLock()
			if w.m != nil {
				_ = w.m.Advise(mmap.AccessSequential)
			}
			w.mu.RUnlock()
		}
		for i := w.FirstRow; i < w.FirstRow+w.NumRows; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := s.decode(idx, offsets[i], mmap.AccessSequential)
			if err != nil {
				return err
			}
			if err := fn(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close unmaps all windows and closes the file. It is idempotent. Reads
// racing Close either complete or return ErrClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.lru != nil {
		s.lru.Purge()
	}
	s.unmapAll()
	return s.f.Close()
}

func (s *Store) unmapAll() {
	for _, w := range s.windows {
		_ = w.unmap()
	}
}
