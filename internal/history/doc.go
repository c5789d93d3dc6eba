// Package history persists transcription runs in SQLite.
//
// Every `chunkscribe transcribe` invocation opens a run keyed by a UUID and
// records one row per audio asset with its final status, segment counts,
// retry attempts, and output location. The ledger backs `chunkscribe history`
// and lets operators see which assets came back partial without re-reading
// logs.
//
// Schema changes bump schemaVersion in schema.go; users delete history.db to
// adopt the new schema.
package history
