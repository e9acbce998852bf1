package preflight

import (
	"context"
	"path/filepath"

	"filldrops/internal/config"
	"filldrops/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks the work directory and, when history is enabled, the
// directory holding the history database.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir)}
	if cfg.History.Enabled && cfg.Paths.HistoryDB != "" {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.Paths.HistoryDB)))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// CheckSystemDeps evaluates the external tools named by cfg. They are only
// required for non-y4m inputs and outputs, so both are reported as optional.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpeg.FFmpegBinary,
			Description: "Converts non-y4m inputs and encodes non-y4m outputs",
			Optional:    true,
			VersionArg:  "-version",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFmpeg.FFprobeBinary,
			Description: "Inspects non-y4m inputs before conversion",
			Optional:    true,
			VersionArg:  "-version",
		},
	}
	return deps.CheckBinaries(ctx, requirements)
}
