// Package conv converts between integer widths with overflow checks.
//
// Matrix headers and archive trailers carry fixed-width counts and sizes
// read from disk. Converting them to int or int64 goes through this
// package so a corrupt value surfaces as an error instead of wrapping.
package conv
