package simmat

import (
	"errors"
	"fmt"

	"github.com/hupe1980/simmat/archive"
	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/row"
	"github.com/hupe1980/simmat/similarity"
	"github.com/hupe1980/simmat/transpose"
)

var (
	// ErrCorrupt unifies every kind of on-disk corruption: bad rows, bad
	// matrix headers or footers, damaged archives, and transposes whose
	// column counts disagree with their source.
	ErrCorrupt = errors.New("corrupt data")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, row.ErrCorruptRow) ||
		errors.Is(err, matrix.ErrCorruptMatrix) ||
		errors.Is(err, archive.ErrCorruptArchive) ||
		errors.Is(err, transpose.ErrCountMismatch) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if errors.Is(err, similarity.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}

	return err
}
