// Package logging assembles structured slog loggers and formatting helpers used
// across chunkscribe.
//
// It owns the configurable console/JSON handlers, routes file output through a
// size-rotated writer, and exposes context-aware helpers so pipeline code can
// automatically tag log lines with run IDs, asset names, and segment indexes.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
