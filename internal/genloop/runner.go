package genloop

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"actionprep/internal/config"
	"actionprep/internal/deps"
	"actionprep/internal/faults"
	"actionprep/internal/fileutil"
	"actionprep/internal/logging"
	"actionprep/internal/preflight"
)

// CommandRunner executes one subprocess. dir is the working directory and env
// holds extra KEY=VALUE pairs appended to the inherited environment.
type CommandRunner func(ctx context.Context, dir string, env []string, name string, args ...string) error

// Option configures a Runner.
type Option func(*Runner)

// WithCommandRunner replaces subprocess execution, skipping the binary check.
func WithCommandRunner(run CommandRunner) Option {
	return func(r *Runner) {
		if run != nil {
			r.run = run
			r.custom = true
		}
	}
}

// Runner drives the generate/visualize/evaluate loop.
type Runner struct {
	full   *config.Config
	cfg    config.Generation
	python string
	logger *slog.Logger
	run    CommandRunner
	custom bool
}

// Summary reports what a loop run did.
type Summary struct {
	Examples  int
	Renamed   int
	Skipped   int
	Evaluated bool
	Elapsed   time.Duration
}

// New constructs a Runner from the generation section of cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		full:   cfg,
		cfg:    cfg.Generation,
		python: cfg.Generation.Python,
		logger: logging.NewComponentLogger(logger, "genloop"),
		run:    execCommand,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every planned step in order. The first failing subprocess
// aborts the loop with faults.ErrExternalTool.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var summary Summary

	if !r.custom {
		if err := deps.Missing(preflight.CheckGenerationDeps(r.full)); err != nil {
			return summary, err
		}
	}
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return summary, faults.Wrap(faults.ErrOutput, "genloop", "prepare", r.cfg.OutputDir, err)
	}

	var env []string
	if r.cfg.CUDAVisibleDevices != "" {
		env = append(env, "CUDA_VISIBLE_DEVICES="+r.cfg.CUDAVisibleDevices)
	}

	for _, step := range Plan(r.cfg) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		r.logger.Info("running step",
			logging.String(logging.FieldEventType, "genloop_step"),
			logging.String("step", string(step.Kind)),
			logging.Int("example", step.Example),
		)
		if err := r.run(ctx, r.cfg.WorkDir, env, r.python, step.Args...); err != nil {
			return summary, faults.Wrap(faults.ErrExternalTool, "genloop", string(step.Kind),
				fmt.Sprintf("example %d", step.Example), err)
		}

		switch step.Kind {
		case StepGenerate:
			summary.Examples++
		case StepVisualize:
			renamed, skipped, err := r.collect(step.Example)
			summary.Renamed += renamed
			summary.Skipped += skipped
			if err != nil {
				return summary, err
			}
		case StepEvaluate:
			summary.Evaluated = true
		}
	}

	summary.Elapsed = time.Since(start)
	r.logger.Info("generation loop complete",
		logging.String(logging.FieldEventType, "genloop_complete"),
		logging.Int("examples", summary.Examples),
		logging.Int("renamed", summary.Renamed),
		logging.Bool("evaluated", summary.Evaluated),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

func (r *Runner) collect(example int) (int, int, error) {
	renamed, skipped := 0, 0
	for _, mv := range Renames(r.cfg.OutputDir, example) {
		if _, err := os.Stat(mv.From); errors.Is(err, fs.ErrNotExist) {
			skipped++
			r.logger.Debug("visualization artifact absent", logging.String("path", mv.From))
			continue
		}
		if err := fileutil.MoveFile(mv.From, mv.To); err != nil {
			return renamed, skipped, faults.Wrap(faults.ErrOutput, "genloop", "rename", mv.From, err)
		}
		renamed++
	}
	return renamed, skipped, nil
}

func execCommand(ctx context.Context, dir string, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
