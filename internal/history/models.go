package history

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a run or an asset within a run.
type Status string

const (
	StatusPending      Status = "pending"
	StatusTranscribing Status = "transcribing"
	StatusCompleted    Status = "completed"
	// StatusPartial marks an asset whose transcript has gaps from failed segments,
	// or a run where some assets failed.
	StatusPartial  Status = "partial"
	StatusFailed   Status = "failed"
	StatusRejected Status = "rejected"
)

var allStatuses = []Status{
	StatusPending,
	StatusTranscribing,
	StatusCompleted,
	StatusPartial,
	StatusFailed,
	StatusRejected,
}

// ParseStatus converts a user-supplied string into a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Terminal reports whether no further updates are expected for the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusFailed, StatusRejected:
		return true
	default:
		return false
	}
}

// Run is one invocation of the transcription pipeline.
type Run struct {
	ID         string
	Status     Status
	Language   string
	Model      string
	OutputDir  string
	AssetCount int
	Succeeded  int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the wall time of a finished run, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Asset records the outcome of one audio asset.
type Asset struct {
	ID             int64
	RunID          string
	Name           string
	SourcePath     string
	OutputPath     string
	Status         Status
	SegmentCount   int
	FailedSegments int
	CueCount       int
	Attempts       int
	AudioDuration  time.Duration
	ErrorMessage   string
	CreatedAt      time.Time
}
