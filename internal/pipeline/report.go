package pipeline

import (
	"time"

	"chunkscribe/internal/history"
)

// AssetResult is the outcome of one asset.
type AssetResult struct {
	Asset          AudioAsset
	Status         history.Status
	OutputPath     string
	SRTPath        string
	Segments       int
	FailedSegments int
	Cues           int
	DisplayCues    int
	Attempts       int
	ParseWarnings  int
	Elapsed        time.Duration
	Err            error
}

// Succeeded reports whether a transcript was written for the asset.
func (r AssetResult) Succeeded() bool {
	return r.Status == history.StatusCompleted || r.Status == history.StatusPartial
}

// Report lists every discovered asset in discovery order.
type Report struct {
	RunID      string
	OutputDir  string
	StartedAt  time.Time
	FinishedAt time.Time
	Assets     []AssetResult
}

// Counts returns how many assets produced a transcript and how many did not.
func (r Report) Counts() (succeeded, failed int) {
	for _, asset := range r.Assets {
		if asset.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// Status summarizes the run.
func (r Report) Status() history.Status {
	if len(r.Assets) == 0 {
		return history.StatusFailed
	}
	succeeded, failed := r.Counts()
	switch {
	case succeeded == 0:
		return history.StatusFailed
	case failed > 0:
		return history.StatusPartial
	}
	for _, asset := range r.Assets {
		if asset.Status == history.StatusPartial {
			return history.StatusPartial
		}
	}
	return history.StatusCompleted
}

func (r Report) historyRun(language, model string) history.Run {
	succeeded, failed := r.Counts()
	return history.Run{
		ID:         r.RunID,
		Status:     r.Status(),
		Language:   language,
		Model:      model,
		OutputDir:  r.OutputDir,
		AssetCount: len(r.Assets),
		Succeeded:  succeeded,
		Failed:     failed,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

func (r AssetResult) historyAsset(runID string) history.Asset {
	asset := history.Asset{
		RunID:          runID,
		Name:           r.Asset.Name,
		SourcePath:     r.Asset.Path,
		OutputPath:     r.OutputPath,
		Status:         r.Status,
		SegmentCount:   r.Segments,
		FailedSegments: r.FailedSegments,
		CueCount:       r.Cues,
		Attempts:       r.Attempts,
		AudioDuration:  r.Asset.Duration,
	}
	if r.Err != nil {
		asset.ErrorMessage = r.Err.Error()
	}
	return asset
}
