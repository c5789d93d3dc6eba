package subtitles

import (
	"fmt"
	"strings"
)

// RenderDisplay formats display cues as "[start - end] text" lines, each
// followed by a blank line.
func RenderDisplay(cues []DisplayCue) string {
	var b strings.Builder
	for _, cue := range cues {
		fmt.Fprintf(&b, "[%s - %s] %s\n\n", FormatDisplayTimestamp(cue.Start), FormatDisplayTimestamp(cue.End), cue.Text)
	}
	return b.String()
}
