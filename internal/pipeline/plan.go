package pipeline

import (
	"fmt"
	"time"

	"chunkscribe/internal/media/codec"
	"chunkscribe/internal/services"
)

// Plan splits asset into consecutive transcription windows.
//
// An asset at or below maxBytes is a single segment covering the whole file.
// Anything larger is cut into windows of the given length, the last one
// holding the remainder, so the count is ceil(Duration/window) and the windows
// cover [0, Duration) exactly once.
func Plan(asset AudioAsset, maxBytes int64, window time.Duration) ([]Segment, error) {
	if maxBytes <= 0 {
		return nil, services.Wrap(services.ErrValidation, "plan", "check ceiling",
			fmt.Sprintf("request ceiling must be positive, got %d bytes", maxBytes), nil)
	}
	if asset.Size <= maxBytes {
		return []Segment{{Index: 0, Start: 0, Duration: asset.Duration}}, nil
	}
	if window <= 0 {
		return nil, services.Wrap(services.ErrValidation, "plan", "check window",
			fmt.Sprintf("window must be positive, got %s", window), nil)
	}
	if asset.Duration <= 0 {
		return nil, services.Wrap(services.ErrValidation, "plan", "check duration",
			fmt.Sprintf("%s exceeds the request ceiling but has no known duration", asset.Name), nil)
	}

	count := int((asset.Duration + window - 1) / window)
	segments := make([]Segment, 0, count)
	for i := 0; i < count; i++ {
		start := time.Duration(i) * window
		length := min(window, asset.Duration-start)
		segments = append(segments, Segment{Index: i, Start: start, Duration: length})
	}
	return segments, nil
}

// needsConversion reports whether an asset must be re-encoded before planning.
// Only assets over the ceiling are converted, and never when already mp3.
func needsConversion(asset AudioAsset, maxBytes int64) bool {
	return asset.Size > maxBytes && asset.Format != codec.CanonicalFormat
}
