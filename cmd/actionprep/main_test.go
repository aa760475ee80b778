package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"actionprep/internal/config"
	"actionprep/internal/faults"
	"actionprep/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	flags = append(flags, "--log-level", "error")
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestRunThenHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteRecording(t, env.cfg, testsupport.NewRecording(9))

	out, _, err := runCLI(t, []string{"run", "--no-progress"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "complete")
	requireContains(t, out, "Frames:     9")

	out, _, err = runCLI(t, []string{"run", "--no-progress", "--workers", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	requireContains(t, out, "Matches previous run")

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "completed")
	requireContains(t, out, "velocity=value")
	requireContains(t, out, "yes")

	entries, err := os.ReadDir(env.cfg.Paths.CombinedDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 9 {
		t.Fatalf("expected 9 frame files, got %d", len(entries))
	}
}

func TestRunFlagOverrides(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteRecording(t, env.cfg, testsupport.NewRecording(4))
	output := filepath.Join(testsupport.BaseDir(env.cfg), "other-out")

	_, _, err := runCLI(t, []string{"run", "--no-progress", "--output", output, "--raw-velocity", "sign", "--normalize-joints"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(output, "combined_action_data", "frame_000003.npy")); err != nil {
		t.Fatalf("expected frames under overridden output: %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "--limit", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "velocity=sign normalize-joints")
}

func TestRunRejectsInvalidFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"run", "--raw-velocity", "bogus"}, env.configPath)
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if code := faults.ExitCode(err); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunMissingRecordingExitCode(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"run", "--no-progress"}, env.configPath)
	if !errors.Is(err, faults.ErrMetadata) {
		t.Fatalf("expected metadata error, got %v", err)
	}
	if code := faults.ExitCode(err); code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "rejected")
	requireContains(t, out, "[WARN]")
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestInspect(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteRecording(t, env.cfg, testsupport.NewRecording(6))

	out, _, err := runCLI(t, []string{"inspect"}, env.configPath)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, "Frames:    6")
	requireContains(t, out, "joint_pos.bin")
	requireContains(t, out, "angular_velocity")

	if _, err := os.Stat(env.cfg.Paths.CombinedDir); !os.IsNotExist(err) {
		t.Fatalf("inspect must not create output directories: %v", err)
	}
}

func TestConfigInitShowValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Output directory")

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[assembly]")
	requireContains(t, out, env.cfg.Paths.RecordingDir)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestGenerateDryRun(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"generate", "--dry-run", "--start", "0", "--end", "10", "--step", "10"}, env.configPath)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 planned commands, got %d:\n%s", len(lines), out)
	}
	requireContains(t, lines[2], "--example_ind 10")
	requireContains(t, lines[4], env.cfg.Generation.EvaluateScript)
}

func TestGenerateRunsScripts(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithGenerationRange(0, 0, 1),
		testsupport.WithStubScript("fake-python", "exit 0"),
	)
	if err := os.MkdirAll(env.cfg.Generation.WorkDir, 0o755); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"generate"}, env.configPath)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	requireContains(t, out, "Generated 1 examples")
	requireContains(t, out, "Evaluation: yes")
}

func TestGenerateFailureExitCode(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithGenerationRange(0, 0, 1),
		testsupport.WithStubScript("fake-python", "exit 1"),
	)
	if err := os.MkdirAll(env.cfg.Generation.WorkDir, 0o755); err != nil {
		t.Fatal(err)
	}

	_, _, err := runCLI(t, []string{"generate"}, env.configPath)
	if code := faults.ExitCode(err); code != 6 {
		t.Fatalf("exit code = %d, want 6 (err %v)", code, err)
	}
}

func TestShellJoin(t *testing.T) {
	got := shellJoin([]string{"a", "b c", "it's", ""})
	want := `a 'b c' 'it'\''s' ''`
	if got != want {
		t.Fatalf("shellJoin = %q, want %q", got, want)
	}
}
