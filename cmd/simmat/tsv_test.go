package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/simmat/row"
)

type parsedRow struct {
	id   int32
	cols []int32
	vals []float32
}

func parse(t *testing.T, input string) ([]parsedRow, error) {
	t.Helper()
	var rows []parsedRow
	err := readTSV(strings.NewReader(input), func(id int32, cols []int32, vals []float32) error {
		rows = append(rows, parsedRow{id: id, cols: append([]int32(nil), cols...), vals: append([]float32(nil), vals...)})
		return nil
	})
	return rows, err
}

func TestReadTSV(t *testing.T) {
	rows, err := parse(t, "# comment\n\n5\t1:0.5 9:-1\n6\n  7\t3:2e-1  \n")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, parsedRow{id: 5, cols: []int32{1, 9}, vals: []float32{0.5, -1}}, rows[0])
	assert.Equal(t, int32(6), rows[1].id)
	assert.Empty(t, rows[1].cols)
	assert.Equal(t, []float32{0.2}, rows[2].vals)
}

func TestReadTSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bad id", "x\t1:1\n", "line 1: row id"},
		{"missing colon", "1\t1:1\n2\t3\n", "line 2: entry \"3\""},
		{"bad column", "1\tc:1\n", "column id"},
		{"bad value", "1\t1:v\n", "value"},
		{"id overflow", "4294967296\t1:1\n", "row id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.input)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	conf := row.ValueConf{Min: 0, Max: 1}
	enc, err := row.EncodeSparse(3, []int32{4, 8}, []float32{0, 1}, conf)
	require.NoError(t, err)
	r, err := row.DecodeSparse(enc, conf)
	require.NoError(t, err)
	require.NoError(t, writeTSV(&buf, r))
	assert.Equal(t, "3\t4:0 8:1\n", buf.String())

	rows, err := parse(t, buf.String())
	require.NoError(t, err)
	assert.Equal(t, []int32{4, 8}, rows[0].cols)
}
