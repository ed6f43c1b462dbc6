// Package sqlite stores chunks in a local SQLite file through the pure-Go
// modernc.org/sqlite driver.
//
// One table holds chunk text, offsets, partner and session keys and the
// embedding as a little-endian float32 blob. The schema is applied from the
// embedded migrations on open. The database runs in WAL mode with a busy
// timeout so the watcher and CLI can share it.
package sqlite
