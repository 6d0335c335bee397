package matrix

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/hupe1980/simmat/internal/mmap"
)

// Window describes a row-aligned byte range of the body.
type Window struct {
	Start    int64 // absolute file offset, inclusive
	End      int64 // absolute file offset, exclusive
	FirstRow int   // position of the first row in stored order
	NumRows  int
}

// Size returns the window length in bytes.
func (w Window) Size() int64 { return w.End - w.Start }

type window struct {
	Window

	mu sync.RWMutex
	m  *mmap.Mapping // nil while unmapped
}

func (w *window) mapFrom(f *os.File) error {
	m, err := mmap.Map(f, w.Start, int(w.Size()))
	if err != nil {
		return fmt.Errorf("map window [%d, %d): %w", w.Start, w.End, err)
	}
	w.m = m
	return nil
}

func (w *window) unmap() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.m == nil {
		return nil
	}
	err := w.m.Close()
	w.m = nil
	return err
}

// layoutWindows packs consecutive rows into windows of at most maxSize
// bytes. Row i spans [offsets[i], offsets[i+1]) and the last row ends at
// bodyEnd. Windows never split a row.
func layoutWindows(offsets []int64, bodyEnd, maxSize int64) ([]Window, error) {
	var windows []Window
	if len(offsets) == 0 {
		return windows, nil
	}

	cur := Window{Start: offsets[0], FirstRow: 0}
	for i, start := range offsets {
		end := bodyEnd
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		if end-start > maxSize {
			return nil, fmt.Errorf("%w: row at offset %d spans %d bytes, window limit %d", ErrRowTooLarge, start, end-start, maxSize)
		}
		if end-cur.Start > maxSize {
			cur.End = start
			windows = append(windows, cur)
			cur = Window{Start: start, FirstRow: i}
		}
		cur.NumRows++
	}
	cur.End = bodyEnd
	return append(windows, cur), nil
}

// findWindow returns the index of the window containing off.
func findWindow(windows []*window, off int64) int {
	return sort.Search(len(windows), func(i int) bool {
		return windows[i].End > off
	})
}
