package transcription

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxAttempts is the total number of calls made for one segment.
const DefaultMaxAttempts = 3

// ErrRetriesExhausted marks an Outcome whose every attempt failed.
var ErrRetriesExhausted = errors.New("transcription retries exhausted")

// Outcome is the terminal result for one segment: either Raw holds the SRT
// body, or Err holds the failure and Raw is empty.
type Outcome struct {
	Raw      string
	Attempts int
	Err      error
}

// Failed reports whether the segment produced no transcript.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// RetryPolicy bounds the calls made for one request. The zero value uses
// DefaultMaxAttempts. A policy holds no state, so one value can serve every
// asset concurrently.
type RetryPolicy struct {
	MaxAttempts int
}

// DefaultRetryPolicy returns the three-attempt policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

// Transcribe calls t until it succeeds or the attempt budget is spent. Attempts
// follow each other immediately. A cancelled context ends the loop early and
// the returned Outcome carries the context error.
func (p RetryPolicy) Transcribe(ctx context.Context, t Transcriber, req Request) Outcome {
	limit := p.attempts()
	var lastErr error
	attempt := 0
	for attempt < limit {
		if err := ctx.Err(); err != nil {
			return Outcome{Attempts: attempt, Err: err}
		}
		attempt++
		raw, err := t.Transcribe(ctx, req)
		if err == nil {
			return Outcome{Raw: raw, Attempts: attempt}
		}
		lastErr = err
	}
	return Outcome{
		Attempts: attempt,
		Err:      fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, lastErr),
	}
}
