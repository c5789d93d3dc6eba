package codec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CanonicalFormat is the container every oversized asset is normalised to
// before splitting.
const CanonicalFormat = "mp3"

// FFmpegCommand is the default ffmpeg executable name.
const FFmpegCommand = "ffmpeg"

// CommandRunner launches an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Codec converts and splits audio with ffmpeg.
type Codec struct {
	ffmpegBinary  string
	commandRunner CommandRunner
}

// New creates a Codec that invokes the given ffmpeg binary.
func New(ffmpegBinary string) *Codec {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = FFmpegCommand
	}
	return &Codec{ffmpegBinary: ffmpegBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Codec) WithCommandRunner(runner CommandRunner) *Codec {
	c.commandRunner = runner
	return c
}

// ConvertToMP3 decodes source and writes an mp3 copy to dest. The source file
// is left untouched.
func (c *Codec) ConvertToMP3(ctx context.Context, source, dest string) error {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(dest) == "" {
		return errors.New("convert audio: source and destination are required")
	}
	if err := c.run(ctx, buildConvertArgs(source, dest)...); err != nil {
		return fmt.Errorf("ffmpeg convert: %w", err)
	}
	return nil
}

// ExtractSegment writes the [start, start+duration) window of source to dest as mp3.
func (c *Codec) ExtractSegment(ctx context.Context, source string, start, duration time.Duration, dest string) error {
	if start < 0 {
		return fmt.Errorf("extract segment: invalid start %s", start)
	}
	if duration <= 0 {
		return fmt.Errorf("extract segment: invalid duration %s", duration)
	}
	if err := c.run(ctx, buildExtractArgs(source, start, duration, dest)...); err != nil {
		return fmt.Errorf("ffmpeg extract segment: %w", err)
	}
	return nil
}

func (c *Codec) run(ctx context.Context, args ...string) error {
	if c.commandRunner != nil {
		return c.commandRunner(ctx, c.ffmpegBinary, args...)
	}
	cmd := exec.CommandContext(ctx, c.ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func buildConvertArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-c:a", "libmp3lame",
		"-q:a", "4",
		dest,
	}
}

func buildExtractArgs(source string, start, duration time.Duration, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-c:a", "libmp3lame",
		"-q:a", "4",
		dest,
	}
}

func formatSeconds(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}
