package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofrs/flock"
)

// ErrOutputLocked is returned when another run holds the output directory lock.
var ErrOutputLocked = errors.New("output directory is locked by another run")

const (
	lockFileName    = ".chunkscribe.lock"
	runLockFileName = ".run.lock"
)

// RunDir is the scratch directory owned by one run. It holds a lock for as
// long as the run is alive so CleanStale never sweeps it.
type RunDir struct {
	Path string
	lock *flock.Flock
}

// NewRunDir creates <workDir>/<runID> and locks it.
func NewRunDir(workDir, runID string) (RunDir, error) {
	if strings.TrimSpace(workDir) == "" {
		return RunDir{}, errors.New("work directory is required")
	}
	if strings.TrimSpace(runID) == "" {
		return RunDir{}, errors.New("run id is required")
	}
	path := filepath.Join(workDir, runID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return RunDir{}, fmt.Errorf("create run directory: %w", err)
	}
	lock := flock.New(filepath.Join(path, runLockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return RunDir{}, fmt.Errorf("lock run directory: %w", err)
	}
	if !ok {
		return RunDir{}, fmt.Errorf("run directory %s is in use", path)
	}
	return RunDir{Path: path, lock: lock}, nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// AssetDir creates a per-asset subdirectory. index keeps names unique when two
// inputs share a basename.
func (r RunDir) AssetDir(index int, name string) (string, error) {
	safe := strings.Trim(unsafeNameChars.ReplaceAllString(name, "_"), "_")
	if safe == "" {
		safe = "asset"
	}
	path := filepath.Join(r.Path, fmt.Sprintf("%03d-%s", index, safe))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create asset directory: %w", err)
	}
	return path, nil
}

// Remove deletes the run directory and everything in it.
func (r RunDir) Remove() error {
	if r.Path == "" {
		return nil
	}
	err := os.RemoveAll(r.Path)
	if r.lock != nil {
		_ = r.lock.Unlock()
	}
	return err
}

// OutputLock is an exclusive advisory lock on an output directory.
type OutputLock struct {
	lock *flock.Flock
}

// LockOutput takes a non-blocking exclusive lock on dir, creating it if needed.
func LockOutput(dir string) (*OutputLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	lock := flock.New(filepath.Join(dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, dir)
	}
	return &OutputLock{lock: lock}, nil
}

// Path returns the lock file location.
func (l *OutputLock) Path() string {
	if l == nil || l.lock == nil {
		return ""
	}
	return l.lock.Path()
}

// Release unlocks and removes the lock file.
func (l *OutputLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release output lock: %w", err)
	}
	_ = os.Remove(l.lock.Path())
	return nil
}
