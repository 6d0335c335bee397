// Package resource bounds the memory, concurrency and IO consumed by
// matrix jobs.
//
// A single Controller can be shared by several transpose and similarity
// runs in one process:
//
//   - Memory: transpose batches reserve their exact accumulator size before
//     filling it. A request larger than the configured limit is granted the
//     whole limit, so a single oversized column can still make progress.
//   - Runs: similarity computations hold a run slot for their lifetime.
//   - IO: sequential scans and archive transfers are throttled to a byte rate.
//
// All methods are safe on a nil *Controller, which imposes no limits.
package resource
