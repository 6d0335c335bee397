package matrix

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/simmat/internal/conv"
	"github.com/hupe1980/simmat/internal/fs"
	"github.com/hupe1980/simmat/internal/hash"
	"github.com/hupe1980/simmat/row"
	"github.com/hupe1980/simmat/run"
)

var padding [Alignment]byte

// Writer builds a matrix file. Rows are appended to a scratch file and the
// final file is assembled by Finish. Writer is safe for concurrent use.
type Writer struct {
	mu sync.Mutex

	path   string
	kind   row.Kind
	conf   row.ValueConf
	schema []int32
	opts   writerOptions

	scratchPath string
	scratch     fs.File
	bw          *bufio.Writer
	bodyLen     int64

	ids     []int32
	offsets []int64 // relative to body start
	seen    map[int32]struct{}
	cols    map[int32]struct{}
	buf     []byte

	finished bool
	err      error
}

// NewSparseWriter creates a writer for a sparse matrix quantized with conf.
func NewSparseWriter(path string, conf row.ValueConf, opts ...WriterOption) (*Writer, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return newWriter(path, row.KindSparse, conf, nil, opts)
}

// NewDenseWriter creates a writer for a dense matrix over schema. Schema
// column ids must be unique.
func NewDenseWriter(path string, schema []int32, opts ...WriterOption) (*Writer, error) {
	seen := make(map[int32]struct{}, len(schema))
	for _, c := range schema {
		if _, ok := seen[c]; ok {
			return nil, fmt.Errorf("%w: %d in schema", ErrDuplicateColumn, c)
		}
		seen[c] = struct{}{}
	}
	return newWriter(path, row.KindDense, row.ValueConf{}, append([]int32(nil), schema...), opts)
}

func newWriter(path string, kind row.Kind, conf row.ValueConf, schema []int32, optFns []WriterOption) (*Writer, error) {
	o := writerOptions{
		fs:      fs.Default,
		logger:  run.NoopLogger(),
		metrics: run.NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&o)
	}

	dir := o.scratchDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	if err := o.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	scratchPath := filepath.Join(dir, filepath.Base(path)+".body")

	f, err := o.fs.OpenFile(scratchPath, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}

	return &Writer{
		path:        path,
		kind:        kind,
		conf:        conf,
		schema:      schema,
		opts:        o,
		scratchPath: scratchPath,
		scratch:     f,
		bw:          bufio.NewWriterSize(f, 1<<20),
		seen:        make(map[int32]struct{}),
		cols:        make(map[int32]struct{}),
	}, nil
}

// Path returns the final output path.
func (w *Writer) Path() string { return w.path }

// Kind returns the row variant accepted by the writer.
func (w *Writer) Kind() row.Kind { return w.kind }

// Len returns the number of rows written so far.
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.ids)
}

// WriteRow appends r. Sparse rows quantized with the writer's ValueConf are
// copied code for code; other rows are re-encoded from their values.
func (w *Writer) WriteRow(r row.Row) error {
	switch w.kind {
	case row.KindSparse:
		if sr, ok := r.(*row.SparseRow); ok && sr.Conf == w.conf {
			return w.append(sr.RowID, sr.Cols, func(dst []byte) ([]byte, error) {
				return row.AppendSparseCodes(dst, sr.RowID, sr.Cols, sr.Codes)
			})
		}
		cols := make([]int32, r.Len())
		vals := make([]float32, r.Len())
		for i := range cols {
			cols[i] = r.ColID(i)
			vals[i] = r.Value(i)
		}
		return w.WriteSparse(r.ID(), cols, vals)
	default:
		if r.Kind() != row.KindDense {
			w.checkOpen()
			return fmt.Errorf("%w: %s row into %s matrix", ErrKindMismatch, r.Kind(), w.kind)
		}
		if r.Len() != len(w.schema) {
			w.checkOpen()
			return fmt.Errorf("%w: %d values, schema has %d columns", ErrSchemaMismatch, r.Len(), len(w.schema))
		}
		for i, c := range w.schema {
			if r.ColID(i) != c {
				w.checkOpen()
				return fmt.Errorf("%w: column %d is %d, schema has %d", ErrSchemaMismatch, i, r.ColID(i), c)
			}
		}
		return w.WriteDense(r.ID(), row.Values(r, nil))
	}
}

// WriteSparse quantizes vals and appends the row.
func (w *Writer) WriteSparse(id int32, cols []int32, vals []float32) error {
	if w.kind != row.KindSparse {
		w.checkOpen()
		return fmt.Errorf("%w: sparse row into %s matrix", ErrKindMismatch, w.kind)
	}
	for _, v := range vals {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			w.checkOpen()
			return fmt.Errorf("%w: row %d contains %v", ErrInvalidValue, id, v)
		}
	}
	return w.append(id, cols, func(dst []byte) ([]byte, error) {
		return row.AppendSparse(dst, id, cols, vals, w.conf)
	})
}

// WriteDense appends a dense row. len(vals) must equal the schema length.
func (w *Writer) WriteDense(id int32, vals []float32) error {
	if w.kind != row.KindDense {
		w.checkOpen()
		return fmt.Errorf("%w: dense row into %s matrix", ErrKindMismatch, w.kind)
	}
	if len(vals) != len(w.schema) {
		w.checkOpen()
		return fmt.Errorf("%w: %d values, schema has %d columns", ErrSchemaMismatch, len(vals), len(w.schema))
	}
	for _, v := range vals {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			w.checkOpen()
			return fmt.Errorf("%w: row %d contains %v", ErrInvalidValue, id, v)
		}
	}
	return w.append(id, nil, func(dst []byte) ([]byte, error) {
		return row.AppendDense(dst, id, vals), nil
	})
}

func (w *Writer) checkOpen() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		panic(ErrWriterFinished)
	}
}

func (w *Writer) append(id int32, cols []int32, encode func([]byte) ([]byte, error)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		panic(ErrWriterFinished)
	}
	if w.err != nil {
		return w.err
	}
	if _, ok := w.seen[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateRow, id)
	}
	if len(cols) > 0 {
		clear(w.cols)
		for _, c := range cols {
			if _, ok := w.cols[c]; ok {
				return fmt.Errorf("%w: %d in row %d", ErrDuplicateColumn, c, id)
			}
			w.cols[c] = struct{}{}
		}
	}

	buf, err := encode(w.buf[:0])
	if err != nil {
		return err
	}
	if pad := int(align(int64(len(buf)))) - len(buf); pad > 0 {
		buf = append(buf, padding[:pad]...)
	}
	w.buf = buf

	if _, err := w.bw.Write(buf); err != nil {
		w.err = fmt.Errorf("write scratch body: %w", err)
		w.opts.metrics.RecordRowWrite(0, w.err)
		return w.err
	}

	w.seen[id] = struct{}{}
	w.ids = append(w.ids, id)
	w.offsets = append(w.offsets, w.bodyLen)
	w.bodyLen += int64(len(buf))
	w.opts.metrics.RecordRowWrite(len(buf), nil)
	return nil
}

// Finish assembles the output file. Calling Finish again returns the
// result of the first call.
func (w *Writer) Finish() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		return w.err
	}
	w.finished = true

	if w.err == nil {
		w.err = w.assemble()
	}
	w.cleanup()

	ctx := context.Background()
	w.opts.logger.LogFinish(ctx, w.path, len(w.ids), w.bodyLen, w.err)
	return w.err
}

func (w *Writer) assemble() error {
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("flush scratch body: %w", err)
	}
	if _, err := conv.IntToInt32(len(w.ids)); err != nil {
		return err
	}

	h := &Header{
		Kind:   w.kind,
		Conf:   w.conf,
		IDs:    w.ids,
		Schema: w.schema,
	}
	start := h.BodyStart()
	h.Offsets = make([]int64, len(w.offsets))
	for i, off := range w.offsets {
		h.Offsets[i] = start + off
	}

	if _, err := w.scratch.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind scratch body: %w", err)
	}

	tmpPath := w.path + ".tmp"
	out, err := w.opts.fs.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	if err := w.writeFile(out, h); err != nil {
		_ = out.Close()
		_ = w.opts.fs.Remove(tmpPath)
		return err
	}
	if err := out.Close(); err != nil {
		_ = w.opts.fs.Remove(tmpPath)
		return fmt.Errorf("close output: %w", err)
	}
	if err := w.opts.fs.Rename(tmpPath, w.path); err != nil {
		_ = w.opts.fs.Remove(tmpPath)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

func (w *Writer) writeFile(out fs.File, h *Header) error {
	crc := hash.NewCRC32C()
	bw := bufio.NewWriterSize(io.MultiWriter(out, crc), 1<<20)

	if _, err := bw.Write(h.AppendBinary(nil)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	n, err := io.Copy(bw, io.LimitReader(w.scratch, w.bodyLen))
	if err != nil {
		return fmt.Errorf("copy body: %w", err)
	}
	if n != w.bodyLen {
		return fmt.Errorf("copy body: short copy %d of %d bytes", n, w.bodyLen)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write body: %w", err)
	}

	footer := Footer{
		Length:   uint64(h.BodyStart() + w.bodyLen),
		Checksum: crc.Sum32(),
	}
	if _, err := out.Write(footer.appendBinary(nil)); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync output: %w", err)
	}
	return nil
}

func (w *Writer) cleanup() {
	if w.scratch != nil {
		_ = w.scratch.Close()
		_ = w.opts.fs.Remove(w.scratchPath)
		w.scratch = nil
	}
}

// Abort discards all rows and removes scratch and temporary files. The
// writer cannot be used afterwards. Abort after a successful Finish leaves
// the output in place.
func (w *Writer) Abort() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		return
	}
	w.finished = true
	w.err = errors.New("matrix writer aborted")
	w.cleanup()
	_ = w.opts.fs.Remove(w.path + ".tmp")
}
