package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/simmat/row"
)

const maxLineBytes = 64 << 20

// readTSV parses neighbor lists of the form
//
//	rowID<TAB>col:value col:value ...
//
// Blank lines and lines starting with '#' are skipped.
func readTSV(r io.Reader, fn func(id int32, cols []int32, vals []float32) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	var (
		cols []int32
		vals []float32
	)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		id, err := strconv.ParseInt(fields[0], 10, 32)
		if err != nil {
			return fmt.Errorf("line %d: row id: %w", lineNo, err)
		}

		cols, vals = cols[:0], vals[:0]
		for _, f := range fields[1:] {
			c, v, ok := strings.Cut(f, ":")
			if !ok {
				return fmt.Errorf("line %d: entry %q is not col:value", lineNo, f)
			}
			col, err := strconv.ParseInt(c, 10, 32)
			if err != nil {
				return fmt.Errorf("line %d: column id: %w", lineNo, err)
			}
			val, err := strconv.ParseFloat(v, 32)
			if err != nil {
				return fmt.Errorf("line %d: value: %w", lineNo, err)
			}
			cols = append(cols, int32(col))
			vals = append(vals, float32(val))
		}

		if err := fn(int32(id), cols, vals); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return sc.Err()
}

// writeTSV prints r in the format accepted by readTSV.
func writeTSV(w io.Writer, r row.Row) error {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(int64(r.ID()), 10))
	for i := 0; i < r.Len(); i++ {
		if i == 0 {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatInt(int64(r.ColID(i)), 10))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(float64(r.Value(i)), 'g', -1, 32))
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}
