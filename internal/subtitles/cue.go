package subtitles

// Cue is one SRT entry. Start and End are milliseconds; they are segment-local
// straight out of Parse and asset-global once merged.
type Cue struct {
	Index int
	Start int64
	End   int64
	Text  string
}

// Timeline is an ordered cue sequence with asset-global timestamps. Cues keep
// the order they were received in; overlaps reported by the service are not
// corrected.
type Timeline []Cue

// End returns the end of the last cue, or zero for an empty timeline.
func (t Timeline) End() int64 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].End
}

// DisplayCue is a sentence-bounded regrouping of one or more cues.
type DisplayCue struct {
	Start int64
	End   int64
	Text  string
}
