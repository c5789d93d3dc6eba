package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// versionTimeout bounds each `<binary> -version` call.
const versionTimeout = 5 * time.Second

// Binary names an external tool the pipeline shells out to.
type Binary struct {
	Name    string
	Command string
	Purpose string
}

// Status is the resolved state of one Binary.
type Status struct {
	Binary
	// Path is the absolute location found on PATH, empty when missing.
	Path string
	// Version is the first line printed by `-version`, when the binary answers.
	Version string
	// Problem explains why the binary is unusable.
	Problem string
}

// Available reports whether the binary was found.
func (s Status) Available() bool {
	return s.Path != "" && s.Problem == ""
}

// Locate resolves each binary on PATH and asks it for its version line.
// A binary that resolves but refuses -version is still reported available.
func Locate(ctx context.Context, binaries []Binary) []Status {
	statuses := make([]Status, len(binaries))
	for i, bin := range binaries {
		bin.Command = strings.TrimSpace(bin.Command)
		statuses[i] = locate(ctx, bin)
	}
	return statuses
}

func locate(ctx context.Context, bin Binary) Status {
	status := Status{Binary: bin}
	if bin.Command == "" {
		status.Problem = "command not configured"
		return status
	}
	path, err := exec.LookPath(bin.Command)
	if err != nil {
		status.Problem = fmt.Sprintf("binary %q not found", bin.Command)
		return status
	}
	status.Path = path
	status.Version = versionLine(ctx, path)
	return status
}

func versionLine(ctx context.Context, path string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}
