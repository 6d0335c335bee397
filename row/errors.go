package row

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptRow matches every *CorruptRowError.
	ErrCorruptRow = errors.New("corrupt row")

	// ErrLengthMismatch is returned when column ids and values differ in length.
	ErrLengthMismatch = errors.New("columns and values differ in length")
)

// CorruptRowError describes an encoded row that cannot be decoded.
type CorruptRowError struct {
	Reason string
}

func (e *CorruptRowError) Error() string {
	return fmt.Sprintf("corrupt row: %s", e.Reason)
}

// Is reports whether target is ErrCorruptRow.
func (e *CorruptRowError) Is(target error) bool { return target == ErrCorruptRow }

func corrupt(format string, args ...any) error {
	return &CorruptRowError{Reason: fmt.Sprintf(format, args...)}
}
