// Package history persists connection-cycle transitions to SQLite.
//
// SQLiteRepository stores one row per transition in the transitions table
// created by the embedded migrations. Recorder adapts the repository to a
// status.Sink, writing entries from a single background goroutine so the
// Machine's Step never waits on disk I/O.
package history
