// Package services defines shared utilities consumed by the download engine,
// the daemon and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp game ids, release ids, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can tell a
//     missing configuration from a missing game or an unreachable client.
//
// Use these helpers when wiring new download logic so error handling and
// observability stay uniform.
package services
