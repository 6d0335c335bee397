package row

import (
	"encoding/binary"
	"fmt"
	"math"
)

// RowMagic prefixes every encoded row ("ROW1").
const RowMagic uint32 = 0x31574F52

// HeaderSize is the size of the magic, id and count prefix.
const HeaderSize = 12

// SparseSize returns the encoded size of a sparse row with n columns.
func SparseSize(n int) int {
	return HeaderSize + 5*n
}

// DenseSize returns the encoded size of a dense row with n columns.
func DenseSize(n int) int {
	return HeaderSize + 4*n
}

// AppendSparse quantizes vals with conf and appends the encoded row to dst.
func AppendSparse(dst []byte, id int32, cols []int32, vals []float32, conf ValueConf) ([]byte, error) {
	if len(cols) != len(vals) {
		return dst, fmt.Errorf("%w: %d cols, %d values", ErrLengthMismatch, len(cols), len(vals))
	}
	dst = appendHeader(dst, id, len(cols))
	for _, c := range cols {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(c))
	}
	for _, v := range vals {
		dst = append(dst, byte(conf.Encode(v)))
	}
	return dst, nil
}

// AppendSparseCodes appends a sparse row whose values are already quantized.
func AppendSparseCodes(dst []byte, id int32, cols []int32, codes []int8) ([]byte, error) {
	if len(cols) != len(codes) {
		return dst, fmt.Errorf("%w: %d cols, %d codes", ErrLengthMismatch, len(cols), len(codes))
	}
	dst = appendHeader(dst, id, len(cols))
	for _, c := range cols {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(c))
	}
	for _, b := range codes {
		dst = append(dst, byte(b))
	}
	return dst, nil
}

// EncodeSparse is AppendSparse into a fresh buffer.
func EncodeSparse(id int32, cols []int32, vals []float32, conf ValueConf) ([]byte, error) {
	return AppendSparse(make([]byte, 0, SparseSize(len(cols))), id, cols, vals, conf)
}

// AppendDense appends an encoded dense row to dst.
func AppendDense(dst []byte, id int32, vals []float32) []byte {
	dst = appendHeader(dst, id, len(vals))
	for _, v := range vals {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// EncodeDense is AppendDense into a fresh buffer.
func EncodeDense(id int32, vals []float32) []byte {
	return AppendDense(make([]byte, 0, DenseSize(len(vals))), id, vals)
}

func appendHeader(dst []byte, id int32, n int) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, RowMagic)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(id))
	return binary.LittleEndian.AppendUint32(dst, uint32(int32(n)))
}

// readHeader validates the prefix of buf and returns the id and column count.
func readHeader(buf []byte) (int32, int, error) {
	if len(buf) < HeaderSize {
		return 0, 0, corrupt("buffer of %d bytes shorter than header", len(buf))
	}
	if m := binary.LittleEndian.Uint32(buf); m != RowMagic {
		return 0, 0, corrupt("bad magic 0x%08x", m)
	}
	id := int32(binary.LittleEndian.Uint32(buf[4:]))
	n := int32(binary.LittleEndian.Uint32(buf[8:]))
	if n < 0 {
		return 0, 0, corrupt("negative column count %d", n)
	}
	return id, int(n), nil
}

// EncodedSize reads the header at the start of buf and returns the full
// encoded size of the row.
func EncodedSize(buf []byte, kind Kind) (int, error) {
	_, n, err := readHeader(buf)
	if err != nil {
		return 0, err
	}
	switch kind {
	case KindSparse:
		return SparseSize(n), nil
	case KindDense:
		return DenseSize(n), nil
	default:
		return 0, fmt.Errorf("unknown row kind %d", kind)
	}
}

// DecodeSparse decodes a sparse row, dequantizing against conf.
func DecodeSparse(buf []byte, conf ValueConf) (*SparseRow, error) {
	id, n, err := readHeader(buf)
	if err != nil {
		return nil, err
	}
	if need := SparseSize(n); len(buf) < need {
		return nil, corrupt("row %d truncated: need %d bytes, have %d", id, need, len(buf))
	}

	r := &SparseRow{
		RowID: id,
		Cols:  make([]int32, n),
		Codes: make([]int8, n),
		Conf:  conf,
	}
	p := buf[HeaderSize:]
	for i := range r.Cols {
		r.Cols[i] = int32(binary.LittleEndian.Uint32(p[4*i:]))
	}
	p = p[4*n:]
	for i := range r.Codes {
		r.Codes[i] = int8(p[i])
	}
	return r, nil
}

// DecodeDense decodes a dense row. If schema is non-nil the column count
// must equal len(schema).
func DecodeDense(buf []byte, schema []int32) (*DenseRow, error) {
	id, n, err := readHeader(buf)
	if err != nil {
		return nil, err
	}
	if schema != nil && n != len(schema) {
		return nil, corrupt("row %d has %d values, schema has %d columns", id, n, len(schema))
	}
	if need := DenseSize(n); len(buf) < need {
		return nil, corrupt("row %d truncated: need %d bytes, have %d", id, need, len(buf))
	}

	r := &DenseRow{
		RowID: id,
		Cols:  schema,
		Vals:  make([]float32, n),
	}
	p := buf[HeaderSize:]
	for i := range r.Vals {
		r.Vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[4*i:]))
	}
	return r, nil
}

// Decode decodes a row of the given kind.
func Decode(buf []byte, kind Kind, conf ValueConf, schema []int32) (Row, error) {
	switch kind {
	case KindSparse:
		r, err := DecodeSparse(buf, conf)
		if err != nil {
			return nil, err
		}
		return r, nil
	case KindDense:
		r, err := DecodeDense(buf, schema)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown row kind %d", kind)
	}
}
