package subtitles

// OffsetFallback selects how the running offset advances past a segment that
// produced no cues.
type OffsetFallback int

const (
	// OffsetFallbackNone leaves the offset unchanged, so the next segment is
	// placed as if the empty segment had zero length.
	OffsetFallbackNone OffsetFallback = iota
	// OffsetFallbackNominal advances the offset by the segment's planned window.
	OffsetFallbackNominal
)

// ParseOffsetFallback maps a configuration value to an OffsetFallback.
func ParseOffsetFallback(value string) OffsetFallback {
	if value == "nominal" {
		return OffsetFallbackNominal
	}
	return OffsetFallbackNone
}

// MergeOptions controls Merge.
type MergeOptions struct {
	Fallback OffsetFallback
	// NominalDurations holds each segment's planned window in milliseconds,
	// indexed like the segments passed to Merge. Only read with OffsetFallbackNominal.
	NominalDurations []int64
}

// Merge concatenates per-segment cue lists into one asset-global timeline.
//
// Every cue of segment k is shifted by the running offset. After each segment
// the offset grows by the end of that segment's last cue rather than its
// nominal duration, which tracks how far the service actually transcribed.
// Cue order is preserved.
func Merge(segments [][]Cue, opts MergeOptions) Timeline {
	total := 0
	for _, cues := range segments {
		total += len(cues)
	}
	timeline := make(Timeline, 0, total)

	var offset int64
	for k, cues := range segments {
		for _, cue := range cues {
			cue.Start += offset
			cue.End += offset
			timeline = append(timeline, cue)
		}
		switch {
		case len(cues) > 0:
			offset += cues[len(cues)-1].End
		case opts.Fallback == OffsetFallbackNominal && k < len(opts.NominalDurations):
			offset += opts.NominalDurations[k]
		}
	}
	return timeline
}
