//go:build !unix

package mmap

import (
	"os"

	mmapgo "github.com/edsrzf/mmap-go"
)

func osMap(f *os.File, offset int64, length int) ([]byte, func([]byte) error, error) {
	m, err := mmapgo.MapRegion(f, length, mmapgo.RDONLY, 0, offset)
	if err != nil {
		return nil, nil, err
	}

	return m, func([]byte) error { return m.Unmap() }, nil
}

func osAdvise(_ []byte, _ AccessPattern) error {
	return nil
}
