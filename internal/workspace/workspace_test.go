package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chunkscribe/internal/logging"
)

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	oldDir := filepath.Join(tmpDir, "old-run")
	if err := os.Mkdir(oldDir, 0o755); err != nil {
		t.Fatalf("create old dir: %v", err)
	}
	oldTime := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldDir, oldTime, oldTime); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	recentDir := filepath.Join(tmpDir, "recent-run")
	if err := os.Mkdir(recentDir, 0o755); err != nil {
		t.Fatalf("create recent dir: %v", err)
	}
	staleFile := filepath.Join(tmpDir, "notes.txt")
	if err := os.WriteFile(staleFile, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.Chtimes(staleFile, oldTime, oldTime); err != nil {
		t.Fatalf("set file time: %v", err)
	}

	result := CleanStale(context.Background(), tmpDir, DefaultStaleAge, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("expected only %s removed, got %v", oldDir, result.Removed)
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Fatalf("recent dir should remain: %v", err)
	}
	if _, err := os.Stat(staleFile); err != nil {
		t.Fatalf("files should be ignored: %v", err)
	}
}

func TestRunDirLifecycle(t *testing.T) {
	base := t.TempDir()
	run, err := NewRunDir(base, "run-123")
	if err != nil {
		t.Fatalf("NewRunDir: %v", err)
	}
	assetDir, err := run.AssetDir(2, "My Lecture (part 1)")
	if err != nil {
		t.Fatalf("AssetDir: %v", err)
	}
	if filepath.Base(assetDir) != "002-My_Lecture_part_1" {
		t.Fatalf("unexpected asset dir name: %s", filepath.Base(assetDir))
	}
	if !strings.HasPrefix(assetDir, run.Path) {
		t.Fatalf("asset dir %s not under run dir %s", assetDir, run.Path)
	}
	if err := run.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(run.Path); !os.IsNotExist(err) {
		t.Fatalf("expected run dir removed, got %v", err)
	}
	if _, err := NewRunDir("", "x"); err == nil {
		t.Fatal("expected error for empty work dir")
	}
}

func TestLockOutputIsExclusive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	first, err := LockOutput(dir)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := LockOutput(dir); !errors.Is(err, ErrOutputLocked) {
		t.Fatalf("expected ErrOutputLocked, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	second, err := LockOutput(dir)
	if err != nil {
		t.Fatalf("relock after release: %v", err)
	}
	_ = second.Release()
}

func TestCleanStaleSkipsActiveRun(t *testing.T) {
	workDir := t.TempDir()
	run, err := NewRunDir(workDir, "long-run")
	if err != nil {
		t.Fatalf("NewRunDir: %v", err)
	}
	t.Cleanup(func() { _ = run.Remove() })
	assetDir, err := run.AssetDir(1, "lecture.mp3")
	if err != nil {
		t.Fatalf("AssetDir: %v", err)
	}
	oldTime := time.Now().Add(-2 * time.Hour)
	for _, dir := range []string{assetDir, run.Path} {
		if err := os.Chtimes(dir, oldTime, oldTime); err != nil {
			t.Fatalf("set old time: %v", err)
		}
	}
	segment := filepath.Join(assetDir, "segment-005.mp3")
	if err := os.WriteFile(segment, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write segment: %v", err)
	}
	if err := os.Chtimes(run.Path, oldTime, oldTime); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	result := CleanStale(context.Background(), workDir, DefaultStaleAge, nil)

	if len(result.Removed) != 0 {
		t.Fatalf("active run removed: %v", result.Removed)
	}
	if _, err := os.Stat(segment); err != nil {
		t.Fatalf("segment should remain: %v", err)
	}
}

func TestCleanStaleRemovesReleasedRun(t *testing.T) {
	workDir := t.TempDir()
	run, err := NewRunDir(workDir, "crashed-run")
	if err != nil {
		t.Fatalf("NewRunDir: %v", err)
	}
	if err := run.lock.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	oldTime := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(run.Path, oldTime, oldTime); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	result := CleanStale(context.Background(), workDir, DefaultStaleAge, nil)

	if len(result.Removed) != 1 || result.Removed[0] != run.Path {
		t.Fatalf("expected %s removed, got %v", run.Path, result.Removed)
	}
}
