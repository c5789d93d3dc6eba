// Package subtitles parses, merges, and re-segments SRT transcripts.
//
// Cues carry integer millisecond offsets from parse to render. Parse turns a
// service response into cues, Merge stitches per-segment cue lists into one
// asset-global Timeline, Resegment regroups the timeline into sentence-bounded
// DisplayCues, and the Render helpers produce text only at the very end.
package subtitles
