package matrix

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptMatrix matches every *CorruptMatrixError.
	ErrCorruptMatrix = errors.New("corrupt matrix")

	// ErrRowTooLarge is returned when a single row exceeds the maximum window size.
	ErrRowTooLarge = errors.New("row larger than maximum window size")

	// ErrDuplicateRow is returned when a row id is written twice.
	ErrDuplicateRow = errors.New("duplicate row id")

	// ErrDuplicateColumn is returned when a column id repeats within one row.
	ErrDuplicateColumn = errors.New("duplicate column id")

	// ErrSchemaMismatch is returned when a dense row does not match the schema.
	ErrSchemaMismatch = errors.New("dense row does not match schema")

	// ErrKindMismatch is returned when a row of the wrong variant is written.
	ErrKindMismatch = errors.New("row kind does not match matrix")

	// ErrInvalidValue is returned for NaN or infinite values.
	ErrInvalidValue = errors.New("invalid value")

	// ErrWriterFinished is the panic value for writes after Finish or Abort.
	ErrWriterFinished = errors.New("matrix writer already finished")

	// ErrClosed is returned by operations on a closed Store.
	ErrClosed = errors.New("matrix store closed")
)

// CorruptMatrixError describes a structural problem found while opening
// or reading a matrix file.
type CorruptMatrixError struct {
	Path   string
	Offset int64
	Reason string
	cause  error
}

func (e *CorruptMatrixError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("corrupt matrix %s at offset %d: %s: %v", e.Path, e.Offset, e.Reason, e.cause)
	}
	return fmt.Sprintf("corrupt matrix %s at offset %d: %s", e.Path, e.Offset, e.Reason)
}

// Is reports whether target is ErrCorruptMatrix.
func (e *CorruptMatrixError) Is(target error) bool { return target == ErrCorruptMatrix }

func (e *CorruptMatrixError) Unwrap() error { return e.cause }

func corruptAt(path string, offset int64, format string, args ...any) *CorruptMatrixError {
	return &CorruptMatrixError{Path: path, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
