// Package preflight provides readiness checks for the speech-to-text service,
// the external binaries, and the filesystem paths chunkscribe depends on.
//
// These checks run in two contexts:
//   - `chunkscribe transcribe` calls RunAll before touching any input. If any
//     check fails the run stops before the first upload.
//   - `chunkscribe check` renders every result as a table.
package preflight
