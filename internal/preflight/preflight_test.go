package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chunkscribe/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected pass with 1 byte minimum: %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, 1<<62); result.Passed {
		t.Fatal("expected failure with an impossible minimum")
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func newModelsServer(t *testing.T, key string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+key {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckAPI(t *testing.T) {
	srv := newModelsServer(t, "good-key")
	cfg := config.Default()
	cfg.OpenAI.BaseURL = srv.URL

	cfg.OpenAI.APIKey = "good-key"
	if result := CheckAPI(context.Background(), &cfg); !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}

	cfg.OpenAI.APIKey = "bad-key"
	result := CheckAPI(context.Background(), &cfg)
	if result.Passed || result.Detail != "API key rejected" {
		t.Fatalf("expected rejected key, got %+v", result)
	}

	cfg.OpenAI.APIKey = ""
	result = CheckAPI(context.Background(), &cfg)
	if result.Passed || !strings.Contains(result.Detail, "missing") {
		t.Fatalf("expected missing key failure, got %+v", result)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_DirectoriesAndAPI(t *testing.T) {
	srv := newModelsServer(t, "k")
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.OpenAI.APIKey = "k"
	cfg.OpenAI.BaseURL = srv.URL

	results := RunAll(context.Background(), &cfg, Options{OutputDir: t.TempDir()})
	names := make(map[string]Result, len(results))
	for _, r := range results {
		names[r.Name] = r
	}
	for _, name := range []string{"Work directory", "Work directory space", "State directory", "Output directory", "Speech-to-text API"} {
		r, ok := names[name]
		if !ok {
			t.Fatalf("missing check %q in %+v", name, results)
		}
		if !r.Passed {
			t.Errorf("check %q failed: %s", name, r.Detail)
		}
	}
	if _, ok := names["FFmpeg"]; !ok {
		t.Fatal("expected ffmpeg dependency check")
	}
}

func TestRunAll_SkipAPIAndHistoryDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.History.Enabled = false

	results := RunAll(context.Background(), &cfg, Options{SkipAPI: true})
	for _, r := range results {
		if r.Name == "Speech-to-text API" || r.Name == "State directory" || r.Name == "Output directory" {
			t.Fatalf("unexpected check %q", r.Name)
		}
	}
}

func TestFailed(t *testing.T) {
	failed := Failed([]Result{{Name: "a", Passed: true}, {Name: "b"}, {Name: "c"}})
	if len(failed) != 2 || failed[0].Name != "b" {
		t.Fatalf("unexpected failed checks: %+v", failed)
	}
}
