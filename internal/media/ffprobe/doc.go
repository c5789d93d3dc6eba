// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio stream properties
//   - Format: container-level metadata (duration, size, format name)
//
// Inspect executes ffprobe and returns the parsed Result; Decode parses output
// captured elsewhere. Helper methods on Result turn ffprobe's string fields
// into durations and byte counts.
package ffprobe
