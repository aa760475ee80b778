package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"actionprep/internal/assemble"
	"actionprep/internal/config"
	"actionprep/internal/faults"
	"actionprep/internal/ledger"
	"actionprep/internal/logging"
	"actionprep/internal/npystore"
	"actionprep/internal/preflight"
	"actionprep/internal/recording"
)

// Progress receives frame assembly progress. Tick may be called from several
// goroutines at once.
type Progress interface {
	Begin(label string, total int)
	Tick()
	End()
}

// Options configures one pipeline run.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// Ledger, when set, records the run and its artifact digests.
	Ledger   *ledger.Store
	Progress Progress
}

// Result summarizes a completed run.
type Result struct {
	RunID       string
	NumFrames   int
	Channels    []npystore.Artifact
	Frames      []assemble.FrameSet
	Fingerprint string
	// PreviousRunID is the latest earlier completed run over the same
	// recording and options, if the ledger holds one.
	PreviousRunID string
	// Reproduced reports whether the previous run's fingerprint matched.
	Reproduced bool
	Elapsed    time.Duration
}

// Bytes returns the total size of every artifact written.
func (r Result) Bytes() int64 {
	var total int64
	for _, a := range r.Channels {
		total += a.Bytes
	}
	for _, f := range r.Frames {
		total += f.Bytes
	}
	return total
}

// FramesPerSecond is the assembly rate over the whole run, 0 before timing.
func (r Result) FramesPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.NumFrames) / r.Elapsed.Seconds()
}

// Artifacts returns the ledger rows describing the run's output.
func (r Result) Artifacts() []ledger.Artifact {
	out := make([]ledger.Artifact, 0, len(r.Channels)+len(r.Frames))
	for _, a := range r.Channels {
		out = append(out, ledger.Artifact{Kind: a.Kind, Name: a.Name, Bytes: a.Bytes, SHA256: a.SHA256})
	}
	for _, f := range r.Frames {
		out = append(out, ledger.Artifact{Kind: f.Kind(), Name: filepath.Base(f.Dir), Bytes: f.Bytes, SHA256: f.Digest})
	}
	return out
}

// Run converts one recording into per-channel arrays and per-frame vectors.
//
// Order of work: preflight, output lock, metadata, decode, derive, channel
// artifacts, raw frames, normalized frames. Any failure aborts the run; files
// already renamed into place stay, and a rerun overwrites them.
func Run(ctx context.Context, opts Options) (res Result, err error) {
	cfg := opts.Config
	if cfg == nil {
		return Result{}, faults.Wrap(faults.ErrConfiguration, "pipeline", "run", "config is required", nil)
	}
	logger := logging.NewComponentLogger(opts.Logger, "pipeline")
	start := time.Now()

	if err := preflight.Err(preflight.RunAll(cfg)); err != nil {
		return Result{}, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return Result{}, faults.Wrap(faults.ErrOutput, "pipeline", "prepare", "", err)
	}
	lock, err := acquireLock(cfg.Paths.OutputDir)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("failed to release output lock", logging.Error(unlockErr))
		}
	}()

	// Ledger writes outlive cancellation so interrupted runs are still recorded.
	ledgerCtx := context.WithoutCancel(ctx)
	run := beginRun(ledgerCtx, opts.Ledger, cfg, logger)
	res.RunID = run.ID
	if run.ID != "" {
		logger = logger.With(logging.String(logging.FieldRunID, run.ID))
	}
	defer func() {
		res.Elapsed = time.Since(start)
		finishRun(ledgerCtx, opts.Ledger, run, &res, err, logger)
	}()

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("recording", cfg.Paths.RecordingDir),
		logging.String("output", cfg.Paths.OutputDir),
	)

	layout := cfg.RecordingLayout()
	meta, err := recording.LoadMetadata(layout.MetadataPath(), cfg.Recording.FrameCountField)
	if err != nil {
		return res, err
	}
	res.NumFrames = meta.NumFrames
	if opts.Ledger != nil && run.ID != "" {
		if setErr := opts.Ledger.SetFrames(ledgerCtx, run.ID, meta.NumFrames); setErr != nil {
			logger.Warn("ledger frame count not recorded", logging.Error(setErr))
		}
	}

	inputs, err := decodeRecording(layout, meta.NumFrames, logger)
	if err != nil {
		return res, err
	}
	channels, err := assemble.Build(meta.NumFrames, inputs)
	if err != nil {
		return res, faults.Wrap(faults.ErrDecode, "pipeline", "derive", "", err)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.Channels, err = writeChannelArtifacts(cfg.Paths, inputs, channels)
	if err != nil {
		return res, err
	}
	logger.Info("channel artifacts written",
		logging.String(logging.FieldEventType, "channels_written"),
		logging.Int("artifacts", len(res.Channels)),
	)

	workers := cfg.Assembly.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	assembler, err := assemble.New(channels, assemble.Options{
		NormalizeJoints: cfg.Assembly.NormalizeJoints,
		RawVelocitySign: cfg.Assembly.RawVelocity == config.RawVelocitySign,
		Workers:         workers,
	})
	if err != nil {
		return res, faults.Wrap(faults.ErrDecode, "pipeline", "assemble", "", err)
	}

	targets := []struct {
		flavor assemble.Flavor
		dir    string
	}{
		{assemble.FlavorRaw, cfg.Paths.CombinedDir},
		{assemble.FlavorNormalized, cfg.Paths.CombinedNormalizedDir},
	}
	for _, target := range targets {
		set, err := writeFrames(ctx, assembler, target.flavor, target.dir, logger, opts.Progress)
		if err != nil {
			return res, err
		}
		res.Frames = append(res.Frames, set)
	}

	res.Fingerprint = ledger.Fingerprint(res.Artifacts())
	return res, nil
}

func writeFrames(ctx context.Context, a *assemble.Assembler, flavor assemble.Flavor, dir string, logger *slog.Logger, progress Progress) (assemble.FrameSet, error) {
	var tick func()
	if progress != nil {
		progress.Begin(flavor.String(), a.NumFrames())
		defer progress.End()
		tick = progress.Tick
	}
	set, err := a.WriteFrames(ctx, flavor, dir, logger, tick)
	if err != nil {
		return set, err
	}
	logger.Info("frame vectors written",
		logging.String(logging.FieldEventType, "frames_written"),
		logging.String("flavor", flavor.String()),
		logging.Int("frames", set.Count),
		logging.String("dir", dir),
	)
	return set, nil
}

func beginRun(ctx context.Context, store *ledger.Store, cfg *config.Config, logger *slog.Logger) ledger.Run {
	run := ledger.Run{
		RecordingDir:    cfg.Paths.RecordingDir,
		OutputDir:       cfg.Paths.OutputDir,
		NormalizeJoints: cfg.Assembly.NormalizeJoints,
		RawVelocity:     cfg.Assembly.RawVelocity,
	}
	if store == nil {
		return run
	}
	begun, err := store.Begin(ctx, run)
	if err != nil {
		logger.Warn("run not recorded in ledger", logging.Error(err))
		return run
	}
	return begun
}

// finishRun records the outcome. Ledger failures are logged, never returned,
// so history problems cannot fail an otherwise good run.
func finishRun(ctx context.Context, store *ledger.Store, run ledger.Run, res *Result, runErr error, logger *slog.Logger) {
	if runErr != nil {
		logging.ErrorWithContext(logger, "run failed", "run_failed", hintFor(runErr), logging.Error(runErr))
	} else {
		logger.Info("run complete",
			logging.String(logging.FieldEventType, "run_complete"),
			logging.Int("frames", res.NumFrames),
			logging.Int64("bytes", res.Bytes()),
			logging.Duration("elapsed", res.Elapsed),
			logging.Float64("frames_per_second", res.FramesPerSecond()),
		)
	}
	if store == nil || run.ID == "" {
		return
	}

	if runErr == nil {
		if err := store.AddArtifacts(ctx, run.ID, res.Artifacts()); err != nil {
			logger.Warn("artifacts not recorded in ledger", logging.Error(err))
		}
	}
	finished, err := store.Finish(ctx, run.ID, runErr)
	if err != nil {
		logger.Warn("run outcome not recorded in ledger", logging.Error(err))
		return
	}
	if runErr != nil {
		return
	}
	prev, err := store.PreviousCompleted(ctx, finished)
	if err != nil {
		logger.Warn("previous run lookup failed", logging.Error(err))
		return
	}
	if prev != nil {
		res.PreviousRunID = prev.ID
		res.Reproduced = prev.Fingerprint == finished.Fingerprint
		if !res.Reproduced {
			logger.Warn("output differs from previous run",
				logging.String("previous_run", prev.ID),
			)
		}
	}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, faults.ErrMetadata):
		return "check the recording descriptor and paths.metadata_file"
	case errors.Is(err, faults.ErrDecode):
		return "channel files must hold num_frames x width little-endian float32 values"
	case errors.Is(err, faults.ErrLocked):
		return "wait for the other run to finish or choose another output directory"
	case errors.Is(err, faults.ErrOutput):
		return "check permissions and free space under the output directory"
	default:
		return "see the log file for details"
	}
}
