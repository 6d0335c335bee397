package matrix

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/simmat/row"
)

const (
	SparseMagic uint32 = 0x31584D53 // "SMX1"
	DenseMagic  uint32 = 0x31584D44 // "DMX1"
	FooterMagic uint32 = 0x444E4558 // "XEND"

	// Alignment of the body start and of every row.
	Alignment = 8

	// FooterSize is the size of the trailing footer in bytes.
	FooterSize = 16

	// tableEntrySize is the size of one (id i32, offset i64) entry.
	tableEntrySize = 12
)

// Header is the decoded file header.
type Header struct {
	Kind    row.Kind
	Conf    row.ValueConf // sparse only
	IDs     []int32
	Offsets []int64
	Schema  []int32 // dense only
}

// Footer is the decoded file trailer.
type Footer struct {
	// Length is the number of bytes preceding the footer.
	Length   uint64
	Checksum uint32
}

func align(n int64) int64 {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// headerSize returns the unpadded header size for n rows.
func headerSize(kind row.Kind, n, numCols int) int64 {
	if kind == row.KindSparse {
		return 16 + int64(n)*tableEntrySize
	}
	return 8 + int64(n)*tableEntrySize + 4 + int64(numCols)*4
}

// BodyStart returns the file offset of the first row for the header.
func (h *Header) BodyStart() int64 {
	return align(headerSize(h.Kind, len(h.IDs), len(h.Schema)))
}

// AppendBinary appends the encoded header plus alignment padding to dst.
func (h *Header) AppendBinary(dst []byte) []byte {
	n := uint32(int32(len(h.IDs)))
	switch h.Kind {
	case row.KindSparse:
		dst = binary.LittleEndian.AppendUint32(dst, SparseMagic)
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(h.Conf.Min))
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(h.Conf.Max))
		dst = binary.LittleEndian.AppendUint32(dst, n)
		dst = appendTable(dst, h.IDs, h.Offsets)
	case row.KindDense:
		dst = binary.LittleEndian.AppendUint32(dst, DenseMagic)
		dst = binary.LittleEndian.AppendUint32(dst, n)
		dst = appendTable(dst, h.IDs, h.Offsets)
		dst = binary.LittleEndian.AppendUint32(dst, uint32(int32(len(h.Schema))))
		for _, c := range h.Schema {
			dst = binary.LittleEndian.AppendUint32(dst, uint32(c))
		}
	}
	size := headerSize(h.Kind, len(h.IDs), len(h.Schema))
	for i := size; i < align(size); i++ {
		dst = append(dst, 0)
	}
	return dst
}

func appendTable(dst []byte, ids []int32, offsets []int64) []byte {
	for i, id := range ids {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(id))
		dst = binary.LittleEndian.AppendUint64(dst, uint64(offsets[i]))
	}
	return dst
}

// decodeHeader parses a header from buf, which holds every byte preceding
// the footer (or at least the whole header).
func decodeHeader(path string, buf []byte) (*Header, error) {
	if len(buf) < 4 {
		return nil, corruptAt(path, 0, "file too short for magic")
	}

	h := &Header{}
	var p int
	switch m := binary.LittleEndian.Uint32(buf); m {
	case SparseMagic:
		if len(buf) < 16 {
			return nil, corruptAt(path, 4, "truncated sparse header")
		}
		h.Kind = row.KindSparse
		h.Conf = row.ValueConf{
			Min: math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])),
			Max: math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])),
		}
		if err := h.Conf.Validate(); err != nil {
			c := corruptAt(path, 4, "invalid value configuration")
			c.cause = err
			return nil, c
		}
		p = 12
	case DenseMagic:
		if len(buf) < 8 {
			return nil, corruptAt(path, 4, "truncated dense header")
		}
		h.Kind = row.KindDense
		p = 4
	default:
		return nil, corruptAt(path, 0, "bad magic 0x%08x", m)
	}

	n := int32(binary.LittleEndian.Uint32(buf[p:]))
	if n < 0 {
		return nil, corruptAt(path, int64(p), "negative row count %d", n)
	}
	p += 4

	tableEnd := int64(p) + int64(n)*tableEntrySize
	if tableEnd > int64(len(buf)) {
		return nil, corruptAt(path, int64(p), "offset table of %d rows truncated", n)
	}

	h.IDs = make([]int32, n)
	h.Offsets = make([]int64, n)
	for i := range h.IDs {
		h.IDs[i] = int32(binary.LittleEndian.Uint32(buf[p:]))
		h.Offsets[i] = int64(binary.LittleEndian.Uint64(buf[p+4:]))
		p += tableEntrySize
	}

	if h.Kind == row.KindDense {
		if p+4 > len(buf) {
			return nil, corruptAt(path, int64(p), "truncated schema")
		}
		numCols := int32(binary.LittleEndian.Uint32(buf[p:]))
		if numCols < 0 {
			return nil, corruptAt(path, int64(p), "negative schema length %d", numCols)
		}
		p += 4
		if int64(p)+int64(numCols)*4 > int64(len(buf)) {
			return nil, corruptAt(path, int64(p), "schema of %d columns truncated", numCols)
		}
		h.Schema = make([]int32, numCols)
		for i := range h.Schema {
			h.Schema[i] = int32(binary.LittleEndian.Uint32(buf[p:]))
			p += 4
		}
	}

	return h, nil
}

// validate checks that every offset points at an aligned row start inside
// the body and that offsets strictly increase.
func (h *Header) validate(path string, length int64) error {
	start := h.BodyStart()
	if start > length {
		return corruptAt(path, start, "header extends past data length %d", length)
	}
	prev := int64(-1)
	for i, off := range h.Offsets {
		switch {
		case off < start || off+row.HeaderSize > length:
			return corruptAt(path, off, "row %d offset outside body [%d, %d)", h.IDs[i], start, length)
		case (off-start)%Alignment != 0:
			return corruptAt(path, off, "row %d offset not aligned", h.IDs[i])
		case off <= prev:
			return corruptAt(path, off, "row %d offset not increasing", h.IDs[i])
		}
		prev = off
	}
	return nil
}

func (f Footer) appendBinary(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, f.Length)
	dst = binary.LittleEndian.AppendUint32(dst, f.Checksum)
	return binary.LittleEndian.AppendUint32(dst, FooterMagic)
}

func decodeFooter(path string, buf []byte, fileSize int64) (Footer, error) {
	off := fileSize - FooterSize
	if len(buf) != FooterSize {
		return Footer{}, corruptAt(path, off, "short footer")
	}
	if m := binary.LittleEndian.Uint32(buf[12:]); m != FooterMagic {
		return Footer{}, corruptAt(path, off, "missing footer (magic 0x%08x)", m)
	}
	f := Footer{
		Length:   binary.LittleEndian.Uint64(buf),
		Checksum: binary.LittleEndian.Uint32(buf[8:]),
	}
	if f.Length != uint64(off) {
		return Footer{}, corruptAt(path, off, "footer length %d does not match file size %d", f.Length, fileSize)
	}
	return f, nil
}

func (h *Header) String() string {
	return fmt.Sprintf("%s matrix, %d rows", h.Kind, len(h.IDs))
}

// peekHeaderLength reads the fixed fields of the header and returns its
// unpadded length without reading the offset table.
func peekHeaderLength(path string, r io.ReaderAt, length int64) (int64, error) {
	var buf [16]byte
	if length < 8 {
		return 0, corruptAt(path, 0, "file too short for header")
	}
	if _, err := r.ReadAt(buf[:min(length, 16)], 0); err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	var size int64
	switch m := binary.LittleEndian.Uint32(buf[:]); m {
	case SparseMagic:
		if length < 16 {
			return 0, corruptAt(path, 4, "truncated sparse header")
		}
		n := int32(binary.LittleEndian.Uint32(buf[12:]))
		if n < 0 {
			return 0, corruptAt(path, 12, "negative row count %d", n)
		}
		size = headerSize(row.KindSparse, int(n), 0)
	case DenseMagic:
		n := int32(binary.LittleEndian.Uint32(buf[4:]))
		if n < 0 {
			return 0, corruptAt(path, 4, "negative row count %d", n)
		}
		schemaAt := 8 + int64(n)*tableEntrySize
		if schemaAt+4 > length {
			return 0, corruptAt(path, 8, "offset table of %d rows truncated", n)
		}
		var nc [4]byte
		if _, err := r.ReadAt(nc[:], schemaAt); err != nil {
			return 0, fmt.Errorf("read schema length: %w", err)
		}
		numCols := int32(binary.LittleEndian.Uint32(nc[:]))
		if numCols < 0 {
			return 0, corruptAt(path, schemaAt, "negative schema length %d", numCols)
		}
		size = headerSize(row.KindDense, int(n), int(numCols))
	default:
		return 0, corruptAt(path, 0, "bad magic 0x%08x", m)
	}

	if size > length {
		return 0, corruptAt(path, size, "header of %d bytes exceeds data length %d", size, length)
	}
	return size, nil
}
