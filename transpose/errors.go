package transpose

import (
	"errors"
	"fmt"
)

// ErrCountMismatch matches every *CountMismatchError.
var ErrCountMismatch = errors.New("transpose count mismatch")

// CountMismatchError reports a column whose accumulated entry count differs
// from its census count. It means the source changed between scans or a
// scan is inconsistent, and aborts the run.
type CountMismatchError struct {
	Column   int32
	Expected int64
	Actual   int64
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("transpose count mismatch for column %d: census %d, accumulated %d", e.Column, e.Expected, e.Actual)
}

// Is reports whether target is ErrCountMismatch.
func (e *CountMismatchError) Is(target error) bool { return target == ErrCountMismatch }
