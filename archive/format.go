package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Magic opens every archive ("SMXA").
	Magic uint32 = 0x41584D53
	// TrailerMagic closes every archive ("AEND").
	TrailerMagic uint32 = 0x444E4541

	// HeaderSize is the fixed archive header length.
	HeaderSize = 8
	// TrailerSize is the fixed archive trailer length.
	TrailerSize = 16
)

// ErrCorruptArchive is returned when an archive fails structural or checksum validation.
var ErrCorruptArchive = errors.New("archive: corrupt archive")

type header struct {
	codec Codec
	level uint8
}

func (h header) appendBinary(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, Magic)
	return append(dst, byte(h.codec), h.level, 0, 0)
}

func decodeHeader(b []byte) (header, error) {
	if len(b) < HeaderSize {
		return header{}, fmt.Errorf("%w: short header", ErrCorruptArchive)
	}
	if m := binary.LittleEndian.Uint32(b); m != Magic {
		return header{}, fmt.Errorf("%w: bad magic %#x", ErrCorruptArchive, m)
	}
	return header{codec: Codec(b[4]), level: b[5]}, nil
}

type trailer struct {
	rawSize  uint64
	checksum uint32
}

func (t trailer) appendBinary(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, t.rawSize)
	dst = binary.LittleEndian.AppendUint32(dst, t.checksum)
	return binary.LittleEndian.AppendUint32(dst, TrailerMagic)
}

func decodeTrailer(b []byte) (trailer, error) {
	if len(b) < TrailerSize {
		return trailer{}, fmt.Errorf("%w: short trailer", ErrCorruptArchive)
	}
	if m := binary.LittleEndian.Uint32(b[12:]); m != TrailerMagic {
		return trailer{}, fmt.Errorf("%w: bad trailer magic %#x", ErrCorruptArchive, m)
	}
	return trailer{
		rawSize:  binary.LittleEndian.Uint64(b),
		checksum: binary.LittleEndian.Uint32(b[8:]),
	}, nil
}
