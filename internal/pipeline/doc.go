// Package pipeline turns audio files into transcripts.
//
// An Orchestrator discovers inputs, then runs each asset through probe,
// optional mp3 conversion, chunk planning and a sequential per-segment fold
// (extract, transcribe with retry, parse, carry the prompt forward). The
// per-asset timelines are merged, resegmented into sentence cues and written
// once. Assets run concurrently up to the configured worker count; segments of
// one asset never do, because every segment's prompt depends on the previous
// segment's text.
package pipeline
