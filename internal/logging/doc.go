// Package logging assembles structured slog loggers and formatting helpers used
// across the storyvideo pipeline.
//
// It owns the console/JSON handlers, level and output plumbing, and
// context-aware helpers so stage code tags log lines with run IDs, stages, and
// correlation IDs. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
