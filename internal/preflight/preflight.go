package preflight

import (
	"fmt"
	"strings"

	"actionprep/internal/config"
	"actionprep/internal/faults"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the output-side checks for a pipeline run.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckWritableDir("Output directory", cfg.Paths.OutputDir),
	}
	for _, dir := range cfg.OutputDirs() {
		if !config.Within(cfg.Paths.OutputDir, dir) {
			results = append(results, CheckWritableDir("Artifact directory", dir))
		}
	}
	results = append(results,
		CheckWritableDir("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Free space", cfg.Paths.OutputDir, uint64(cfg.Preflight.MinFreeMiB)*1024*1024),
	)
	return results
}

// Err returns an output error naming every failed check, or nil.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return faults.Wrap(faults.ErrOutput, "preflight", "check", strings.Join(failed, "; "), nil)
}
