// Package logging assembles structured slog loggers and formatting helpers used
// across gamearr.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so download code can tag log
// lines with game ids, release ids and reconciliation correlation ids. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
