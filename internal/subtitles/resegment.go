package subtitles

import "strings"

// TrailingPolicy decides what happens to text left over after the last
// sentence terminator.
type TrailingPolicy int

const (
	// TrailingDrop discards the unterminated tail.
	TrailingDrop TrailingPolicy = iota
	// TrailingEmit emits the tail as a final DisplayCue.
	TrailingEmit
)

// ParseTrailingPolicy maps a configuration value to a TrailingPolicy.
func ParseTrailingPolicy(value string) TrailingPolicy {
	if value == "emit" {
		return TrailingEmit
	}
	return TrailingDrop
}

// Resegment groups cues into sentence-bounded display cues. A display cue
// closes when its accumulated text ends in '.', '!' or '?'; it starts at the
// first contributing cue and ends at the cue that completed the sentence.
func Resegment(timeline Timeline, policy TrailingPolicy) []DisplayCue {
	var (
		out   []DisplayCue
		parts []string
		start int64
		end   int64
	)
	for _, cue := range timeline {
		text := strings.TrimSpace(cue.Text)
		if text == "" {
			continue
		}
		if len(parts) == 0 {
			start = cue.Start
		}
		parts = append(parts, text)
		end = cue.End
		if endsSentence(text) {
			out = append(out, DisplayCue{Start: start, End: end, Text: strings.Join(parts, " ")})
			parts = parts[:0]
		}
	}
	if len(parts) > 0 && policy == TrailingEmit {
		out = append(out, DisplayCue{Start: start, End: end, Text: strings.Join(parts, " ")})
	}
	return out
}

func endsSentence(text string) bool {
	switch text[len(text)-1] {
	case '.', '!', '?':
		return true
	default:
		return false
	}
}
