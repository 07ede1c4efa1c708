// Package store persists games, libraries, releases and runtime settings in
// SQLite.
//
// The Store manages the connection, schema initialization and the partial and
// batched updates the download engine relies on. Writes retry with backoff
// while the database is busy so the daemon and the CLI can share one file.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package store
