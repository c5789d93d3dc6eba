// Package transcription talks to an OpenAI-compatible speech-to-text service.
//
// Client uploads one audio file per call and returns the SRT body. RetryPolicy
// wraps any Transcriber with a bounded, delay-free retry loop that always
// yields an Outcome instead of an error, and Prompter carries the priming
// prompt from one segment to the next.
package transcription
