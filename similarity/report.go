package similarity

import (
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hashicorp/go-multierror"
)

// Report summarizes a similarity run.
type Report struct {
	Targets  int // rows scheduled
	Written  int // rows written, including empty ones
	Empty    int // rows written without neighbors
	Failures int // rows skipped after an error
	Duration time.Duration

	// Skipped holds the ids of failed rows as uint32 bit patterns.
	Skipped *roaring.Bitmap

	mu   sync.Mutex
	errs *multierror.Error
}

func newReport(targets int) *Report {
	return &Report{
		Targets: targets,
		Skipped: roaring.New(),
	}
}

func (r *Report) fail(id int32, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures++
	r.Skipped.Add(uint32(id))
	r.errs = multierror.Append(r.errs, err)
}

// Err returns the per-row failures combined, or nil if every row succeeded.
func (r *Report) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errs.ErrorOrNil()
}

// SkippedIDs returns the ids of failed rows in ascending bit-pattern order.
func (r *Report) SkippedIDs() []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw := r.Skipped.ToArray()
	ids := make([]int32, len(raw))
	for i, v := range raw {
		ids[i] = int32(v)
	}
	return ids
}
