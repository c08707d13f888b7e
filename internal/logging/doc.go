// Package logging assembles the structured slog loggers used by the labnote
// CLI, HTTP service and store.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that tag log lines with request and experiment ids. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
