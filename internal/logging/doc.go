// Package logging assembles structured slog loggers and formatting helpers
// used across icokit.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and exposes context-aware helpers so pipeline code can tag
// log lines with item ids, run ids and stages. The package also provides a
// no-op logger for tests and library callers that do not care about output.
package logging
