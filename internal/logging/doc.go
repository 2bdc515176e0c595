// Package logging assembles structured slog loggers and formatting helpers used
// across albumtracker services.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so registry, API, and IPC code
// tag log lines with album IDs and correlation IDs the same way. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
