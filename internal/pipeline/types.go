package pipeline

import (
	"context"
	"time"

	"chunkscribe/internal/history"
	"chunkscribe/internal/media/ffprobe"
)

// AudioAsset is one input file. Size, Duration and Format describe the file
// that will actually be segmented, which may be a converted copy of Path.
type AudioAsset struct {
	Path     string
	Name     string
	Size     int64
	Duration time.Duration
	Format   string
}

// Segment is one planned window of an asset. AudioPath is filled in when the
// window's audio has been materialized.
type Segment struct {
	Index     int
	Start     time.Duration
	Duration  time.Duration
	AudioPath string

	// extracted marks AudioPath as a scratch file owned by the runner.
	extracted bool
}

// End returns the exclusive end of the window.
func (s Segment) End() time.Duration {
	return s.Start + s.Duration
}

// Prober reports container metadata for an audio file.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

// Codec converts and slices audio. *codec.Codec satisfies it.
type Codec interface {
	ConvertToMP3(ctx context.Context, source, dest string) error
	ExtractSegment(ctx context.Context, source string, start, duration time.Duration, dest string) error
}

// Recorder persists run and asset outcomes. *history.Store satisfies it.
type Recorder interface {
	StartRun(ctx context.Context, run history.Run) error
	RecordAsset(ctx context.Context, asset history.Asset) error
	FinishRun(ctx context.Context, run history.Run) error
}

type ffprobeProber struct {
	binary string
}

func (p ffprobeProber) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	return ffprobe.Inspect(ctx, p.binary, path)
}
