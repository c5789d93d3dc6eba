package preflight

import (
	"context"
	"fmt"
	"strings"

	"chunkscribe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects the optional checks RunAll performs.
type Options struct {
	// OutputDir is checked for write access when set.
	OutputDir string
	// SkipAPI skips the network round trip to the speech-to-text service.
	SkipAPI bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, MinWorkSpaceBytes))

	if cfg.History.Enabled {
		results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	}

	if strings.TrimSpace(opts.OutputDir) != "" {
		results = append(results, CheckDirectoryAccess("Output directory", opts.OutputDir))
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		result := Result{Name: status.Name, Passed: status.Available()}
		switch {
		case !result.Passed:
			result.Detail = fmt.Sprintf("%s (needed for %s)", status.Problem, status.Purpose)
		case status.Version != "":
			result.Detail = fmt.Sprintf("%s (%s)", status.Path, status.Version)
		default:
			result.Detail = status.Path
		}
		results = append(results, result)
	}

	if !opts.SkipAPI {
		results = append(results, CheckAPI(ctx, cfg))
	}

	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
