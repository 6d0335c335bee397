package row

// Kind identifies the row variant stored in a matrix.
type Kind uint8

const (
	// KindSparse rows carry explicit column ids and quantized values.
	KindSparse Kind = iota + 1
	// KindDense rows carry float32 values aligned with a shared schema.
	KindDense
)

func (k Kind) String() string {
	switch k {
	case KindSparse:
		return "sparse"
	case KindDense:
		return "dense"
	default:
		return "unknown"
	}
}

// Row is the read-only view shared by both variants.
type Row interface {
	// ID returns the entity id of the row.
	ID() int32
	// Kind returns the row variant.
	Kind() Kind
	// Len returns the number of columns.
	Len() int
	// ColID returns the column id at position i.
	ColID(i int) int32
	// Value returns the value at position i.
	Value(i int) float32
}

// SparseRow stores column ids and quantized values.
type SparseRow struct {
	RowID int32
	Cols  []int32
	Codes []int8
	Conf  ValueConf
}

func (r *SparseRow) ID() int32           { return r.RowID }
func (r *SparseRow) Kind() Kind          { return KindSparse }
func (r *SparseRow) Len() int            { return len(r.Cols) }
func (r *SparseRow) ColID(i int) int32   { return r.Cols[i] }
func (r *SparseRow) Value(i int) float32 { return r.Conf.Decode(r.Codes[i]) }

// DenseRow stores one float32 per schema column.
// Cols is the matrix schema and must not be modified.
type DenseRow struct {
	RowID int32
	Cols  []int32
	Vals  []float32
}

func (r *DenseRow) ID() int32           { return r.RowID }
func (r *DenseRow) Kind() Kind          { return KindDense }
func (r *DenseRow) Len() int            { return len(r.Vals) }
func (r *DenseRow) ColID(i int) int32   { return r.Cols[i] }
func (r *DenseRow) Value(i int) float32 { return r.Vals[i] }

// Values decodes all values of r into dst and returns it.
func Values(r Row, dst []float32) []float32 {
	dst = dst[:0]
	for i := 0; i < r.Len(); i++ {
		dst = append(dst, r.Value(i))
	}
	return dst
}

// Lookup returns the value stored for col, if any.
func Lookup(r Row, col int32) (float32, bool) {
	for i := 0; i < r.Len(); i++ {
		if r.ColID(i) == col {
			return r.Value(i), true
		}
	}
	return 0, false
}
