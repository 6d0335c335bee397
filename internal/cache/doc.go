// Package cache provides the LRU used to bound the number of mapped
// page windows of a non-resident matrix store.
//
// Eviction callbacks run outside the cache lock, so a callback may block
// on the evicted window's own lock without stalling unrelated lookups.
package cache
