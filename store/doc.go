// Package store defines per-thread conversation memory.
//
// A SessionStore keeps the ordered exchanges of each thread, capped to a
// maximum length with the oldest exchanges evicted first. Implementations:
//
//   - store/memory: in process, with optional inactivity expiry (go-cache)
//   - store/redis: Redis lists
//   - store/sqlite: a SQLite table
package store
