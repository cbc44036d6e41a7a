// Package stats persists request statistics, per-server settings and the set
// of chat messages already answered, backed by SQLite.
//
// The schema is versioned; a database created by a different version is
// rejected with ErrSchemaMismatch rather than migrated in place. All writes
// retry briefly on SQLITE_BUSY so the daemon and CLI can share the file.
package stats
