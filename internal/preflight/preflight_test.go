package preflight

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"actionprep/internal/config"
	"actionprep/internal/faults"
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

func TestCheckWritableDir_MissingUnderWritableParent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b")
	result := CheckWritableDir("test", target)
	if !result.Passed {
		t.Fatalf("expected pass for creatable dir, got: %s", result.Detail)
	}
}

func TestCheckWritableDir_FileInTheWay(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckWritableDir("test", filepath.Join(f, "child"))
	if result.Passed {
		t.Fatal("expected failure when a file blocks the path")
	}
}

func TestCheckWritableDir_ReadOnly(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses permission bits")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	result := CheckWritableDir("test", filepath.Join(dir, "out"))
	if result.Passed {
		t.Fatal("expected failure for read-only parent")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if r := CheckFreeSpace("space", dir, 0); !r.Passed {
		t.Fatalf("zero minimum should pass: %s", r.Detail)
	}
	if r := CheckFreeSpace("space", filepath.Join(dir, "later"), 1); !r.Passed {
		t.Fatalf("one byte should be available: %s", r.Detail)
	}
	if r := CheckFreeSpace("space", dir, math.MaxUint64); r.Passed {
		t.Fatal("expected failure for impossible minimum")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.ActionDataDir = filepath.Join(base, "out", "action_data")
	cfg.Paths.NormalizedDataDir = filepath.Join(base, "out", "normalized_data")
	cfg.Paths.CombinedDir = filepath.Join(base, "out", "combined_action_data")
	cfg.Paths.CombinedNormalizedDir = filepath.Join(base, "elsewhere", "combined_data_normalized")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Preflight.MinFreeMiB = 1

	results := RunAll(&cfg)
	// output, one artifact dir outside output, log, free space
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if err := Err(results); err != nil {
		t.Fatalf("Err: %v", err)
	}
}

func TestRunAll_SiblingArtifactDirIsChecked(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.ActionDataDir = filepath.Join(base, "out-frames")
	cfg.Paths.NormalizedDataDir = filepath.Join(base, "out", "normalized_data")
	cfg.Paths.CombinedDir = filepath.Join(base, "out", "combined_action_data")
	cfg.Paths.CombinedNormalizedDir = filepath.Join(base, "out", "combined_data_normalized")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	// A regular file where the sibling directory should go makes its check fail.
	if err := os.WriteFile(cfg.Paths.ActionDataDir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	results := RunAll(&cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if results[1].Name != "Artifact directory" || results[1].Passed {
		t.Fatalf("expected failed artifact directory check, got %+v", results[1])
	}
	if err := Err(results); !errors.Is(err, faults.ErrOutput) {
		t.Fatalf("expected ErrOutput, got %v", err)
	}
}

func TestErrWrapsOutput(t *testing.T) {
	err := Err([]Result{{Name: "ok", Passed: true}, {Name: "Output directory", Detail: "not writable"}})
	if !errors.Is(err, faults.ErrOutput) {
		t.Fatalf("expected ErrOutput, got %v", err)
	}
}
