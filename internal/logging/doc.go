// Package logging assembles structured slog loggers and formatting helpers.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes helpers so components tag their lines with a
// component name and session ID. Console output renders byte counts and
// durations for humans; JSON output keeps raw values for tooling. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
