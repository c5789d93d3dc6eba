package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chunkscribe/internal/config"
	"chunkscribe/internal/logging"
	"chunkscribe/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	logger.Info("hello from config")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "info",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "debug",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, fragment := range []string{`"ts":`, `"level":"info"`, `"msg":"json message"`, `"k":"v"`} {
		if !strings.Contains(string(content), fragment) {
			t.Fatalf("expected %s in %q", fragment, content)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-xyz")
	ctx = services.WithAsset(ctx, "talk.mp3")
	ctx = services.WithSegment(ctx, 3)

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	logging.WithContext(ctx, base).Info("contextual log")

	line := buf.String()
	for _, fragment := range []string{"run_id=run-xyz", "asset=talk.mp3", "segment=3"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logging.WarnWithContext(logger, "segment failed", "segment_failed", logging.String(logging.FieldImpact, "segment has no text"))

	line := buf.String()
	if !strings.Contains(line, "event_type=segment_failed") {
		t.Fatalf("expected event type in %q", line)
	}
	if !strings.Contains(line, "error_hint=") {
		t.Fatalf("expected default error hint in %q", line)
	}
	if !strings.Contains(line, `impact="segment has no text"`) {
		t.Fatalf("expected caller impact preserved in %q", line)
	}
}

func TestConsoleLoggerRendersScope(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "scope.log")
	logger, err := logging.New(logging.Options{Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRunID(context.Background(), "0f4c2a9e-6b1d-4c55-9d0e-2f8b7a1c3e44")
	ctx = services.WithAsset(ctx, "talk.mp3")
	ctx = services.WithSegment(ctx, 3)

	logging.NewComponentLogger(logging.WithContext(ctx, logger), "pipeline").
		Info("segment done", logging.Int("chars", 812), logging.String("note", "two words"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	want := `INFO [0f4c2a9e talk.mp3#3] pipeline: segment done chars=812 note="two words"`
	if !strings.Contains(string(content), want) {
		t.Fatalf("expected %q in %q", want, content)
	}
}

func TestErrorWithContextKeepsCallerHint(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logging.ErrorWithContext(logger, "asset failed", "asset_failed", logging.String(logging.FieldErrorHint, "check ffmpeg"))

	line := buf.String()
	if strings.Count(line, "error_hint=") != 1 || !strings.Contains(line, `error_hint="check ffmpeg"`) {
		t.Fatalf("expected single caller hint in %q", line)
	}
	if strings.Contains(line, "impact=") {
		t.Fatalf("error logs should not get an impact default: %q", line)
	}
}
