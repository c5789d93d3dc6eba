// Package workspace manages the scratch directories and locks a transcription
// run needs.
//
// Each run gets a directory under paths.work_dir named after its run id, and
// each asset gets a subdirectory for converted audio and extracted segments.
// Directories left behind by crashed runs are swept by CleanStale at the start
// of the next run. LockOutput keeps two runs from writing into the same output
// directory at once.
package workspace
