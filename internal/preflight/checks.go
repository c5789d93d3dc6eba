package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"chunkscribe/internal/config"
	"chunkscribe/internal/deps"
	"chunkscribe/internal/transcription"
)

// MinWorkSpaceBytes is the free space required in the work directory. It
// leaves room for one converted asset plus a couple of extracted segments.
const MinWorkSpaceBytes = 256 * 1024 * 1024

// CheckAPI verifies that the speech-to-text API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckAPI(ctx context.Context, cfg *config.Config) Result {
	const name = "Speech-to-text API"
	if cfg.OpenAI.APIKey == "" {
		return Result{Name: name, Detail: "API key missing (set OPENAI_API_KEY)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := transcription.NewClient(cfg.OpenAI.APIKey,
		transcription.WithBaseURL(cfg.OpenAI.BaseURL),
		transcription.WithModel(cfg.OpenAI.Model),
	)
	if err := client.CheckAPIKey(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable, key accepted"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minBytes available.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	available := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s (%s free)", path, formatBytes(available))
	if available < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s, need %s", detail, formatBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps locates the external binaries the pipeline shells out to.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.Locate(ctx, []deps.Binary{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Purpose: "mp3 conversion and splitting"},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Purpose: "media inspection"},
	})
}

func summarizeAPIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (API unreachable)"
	}
	if errors.Is(err, transcription.ErrUnauthorized) {
		return "API key rejected"
	}
	return err.Error()
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
