// Package run carries the ambient dependencies of a matrix job.
//
// Transpose and similarity runs do not consult any process-wide state.
// Instead each call receives a *Context holding the logger, metrics
// collector, progress callback and resource controller to use. A nil
// *Context, or a Context with nil fields, falls back to no-op behavior.
package run
