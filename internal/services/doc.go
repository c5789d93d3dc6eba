// Package services defines shared utilities consumed by the transcription
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, asset names, segment indexes, and
//     stage names for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent history statuses (failed vs rejected).
//
// Use these helpers when wiring new pipeline code so operational behaviour
// (error handling, observability) stays uniform.
package services
