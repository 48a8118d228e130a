package preflight

import (
	"fmt"
	"path/filepath"
	"strings"

	"quickshorts/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check a generation run needs for cfg.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckSystemDeps(cfg) {
		detail := status.Path
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{Name: status.Name, Passed: status.Available || status.Optional, Detail: detail})
	}

	if cfg.Video.InputPath != "" {
		results = append(results, CheckInputFile("Input video", cfg.Video.InputPath))
	}
	if cfg.Video.OutputPath != "" {
		outDir := filepath.Dir(cfg.Video.OutputPath)
		access := CheckDirectoryAccess("Output directory", outDir)
		results = append(results, access)
		if access.Passed {
			results = append(results, CheckFreeSpace("Free space", outDir, minFreeBytes))
		}
	}
	if cfg.Subtitles.Enabled && cfg.Subtitles.FontPath != "" {
		results = append(results, CheckInputFile("Subtitle font", cfg.Subtitles.FontPath))
	}
	return results
}

// Failures returns the failed results.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summarize joins failed results into one error message, or returns nil
// when every check passed.
func Summarize(results []Result) error {
	failed := Failures(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}
