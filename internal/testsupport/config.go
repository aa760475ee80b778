package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"actionprep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Every path is absolute, matching what config.Load produces.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RecordingDir = filepath.Join(base, "recording")
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LedgerPath = filepath.Join(base, "logs", "ledger.db")
	cfgVal.Generation.WorkDir = filepath.Join(base, "genie")
	cfgVal.Generation.OutputDir = filepath.Join(base, "genie", "generated")
	cfgVal.Assembly.Workers = 2
	cfgVal.Preflight.MinFreeMiB = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	builder.resolveOutputs()

	return builder.cfg
}

func (b *configBuilder) resolveOutputs() {
	p := &b.cfg.Paths
	for _, dir := range []*string{&p.ActionDataDir, &p.NormalizedDataDir, &p.CombinedDir, &p.CombinedNormalizedDir} {
		if !filepath.IsAbs(*dir) {
			*dir = filepath.Join(p.OutputDir, *dir)
		}
	}
}

// WithNormalizeJoints toggles normalized joint slots in normalized vectors.
func WithNormalizeJoints(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Assembly.NormalizeJoints = enabled
	}
}

// WithRawVelocity selects the raw vector velocity mode.
func WithRawVelocity(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Assembly.RawVelocity = mode
	}
}

// WithWorkers sets the frame assembly worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Assembly.Workers = n
	}
}

// WithGenerationRange sets the example indices visited by the generation loop.
func WithGenerationRange(start, end, step int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Generation.Start = start
		b.cfg.Generation.End = end
		b.cfg.Generation.Step = step
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. Each stub appends its arguments to
// <base>/bin/<name>.log and exits 0. If names is empty, python is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"python"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			target := filepath.Join(binDir, name)
			script := []byte("#!/bin/sh\necho \"$@\" >> \"" + target + ".log\"\nexit 0\n")
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		prependPath(b.t, binDir)
	}
}

// WithStubScript installs an executable named name whose body is the given
// shell script, and points generation.python at it.
func WithStubScript(name, body string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
			b.t.Fatalf("write stub %s: %v", name, err)
		}
		b.cfg.Generation.Python = target
	}
}

func prependPath(t testing.TB, dir string) {
	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.RecordingDir)
}

// StubLog returns the argument log written by a stub created with WithStubbedBinaries.
func StubLog(cfg *config.Config, name string) string {
	return filepath.Join(BaseDir(cfg), "bin", name+".log")
}
