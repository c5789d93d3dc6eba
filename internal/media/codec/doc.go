// Package codec wraps the ffmpeg invocations chunkscribe needs: converting an
// input container to mp3 and cutting an mp3 into fixed time windows.
//
// Both operations shell out to ffmpeg. Tests swap the process launch with
// WithCommandRunner and assert on the generated arguments.
package codec
