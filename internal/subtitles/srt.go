package subtitles

import (
	"fmt"
	"strconv"
	"strings"
)

// Warning describes an SRT block that Parse skipped.
type Warning struct {
	// Block is the 1-based position of the block within the response.
	Block  int
	Reason string
	Text   string
}

func (w Warning) String() string {
	return fmt.Sprintf("block %d: %s", w.Block, w.Reason)
}

// ParseResult is the outcome of parsing one service response.
type ParseResult struct {
	Cues     []Cue
	Warnings []Warning
}

// PlainText returns the cue texts joined by single spaces.
func (r ParseResult) PlainText() string {
	return PlainText(r.Cues)
}

// Parse extracts cues from SRT text. It never fails: blocks that do not match
// the index/timing/text grammar are skipped and reported as warnings, and an
// input without any usable block yields no cues plus a warning.
func Parse(raw string) ParseResult {
	var result ParseResult
	blocks := splitBlocks(raw)
	if len(blocks) == 0 {
		result.Warnings = append(result.Warnings, Warning{Reason: "empty response"})
		return result
	}

	for i, block := range blocks {
		cue, reason := parseBlock(block)
		if reason != "" {
			result.Warnings = append(result.Warnings, Warning{Block: i + 1, Reason: reason, Text: block})
			continue
		}
		result.Cues = append(result.Cues, cue)
	}
	if len(result.Cues) == 0 && len(result.Warnings) > 0 {
		result.Warnings = append(result.Warnings, Warning{Reason: "no parsable cues"})
	}
	return result
}

func splitBlocks(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var (
		blocks  []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		// A cue header directly after text starts a new block even without
		// the separating blank line.
		if len(current) >= 3 && i+1 < len(lines) && isIndexLine(line) && isTimingLine(lines[i+1]) {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

func parseBlock(block string) (Cue, string) {
	lines := strings.Split(block, "\n")
	if len(lines) < 3 {
		return Cue{}, "incomplete block"
	}

	index, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(lines[0], "\ufeff")))
	if err != nil || index < 0 {
		return Cue{}, fmt.Sprintf("invalid index line %q", lines[0])
	}

	start, end, err := parseTiming(lines[1])
	if err != nil {
		return Cue{}, err.Error()
	}

	textLines := make([]string, 0, len(lines)-2)
	for _, line := range lines[2:] {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			textLines = append(textLines, trimmed)
		}
	}
	return Cue{
		Index: index,
		Start: start,
		End:   end,
		Text:  strings.Join(textLines, " "),
	}, ""
}

// parseTiming reads "start --> end". Anything after the end timestamp, such
// as position settings, is ignored.
func parseTiming(line string) (int64, int64, error) {
	startText, endText, ok := strings.Cut(line, "-->")
	if !ok {
		return 0, 0, fmt.Errorf("missing timing line, got %q", line)
	}
	start, err := ParseTimestamp(startText)
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(endText)
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("missing end timestamp in %q", line)
	}
	end, err := ParseTimestamp(fields[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func isIndexLine(line string) bool {
	index, err := strconv.Atoi(strings.TrimSpace(line))
	return err == nil && index >= 0
}

func isTimingLine(line string) bool {
	_, _, err := parseTiming(strings.TrimSpace(line))
	return err == nil
}

// PlainText concatenates cue text with single spaces and no timestamps.
func PlainText(cues []Cue) string {
	parts := make([]string, 0, len(cues))
	for _, cue := range cues {
		if text := strings.TrimSpace(cue.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// RenderSRT formats cues as an SRT document, renumbering from 1.
func RenderSRT(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), cue.Text)
	}
	return b.String()
}
