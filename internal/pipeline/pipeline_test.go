package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"actionprep/internal/config"
	"actionprep/internal/faults"
	"actionprep/internal/logging"
	"actionprep/internal/npystore"
	"actionprep/internal/pipeline"
	"actionprep/internal/recording"
	"actionprep/internal/testsupport"
)

func scenarioRecording() testsupport.Recording {
	rec := testsupport.NewRecording(5)
	for f := range rec.Joints {
		for j := range rec.Joints[f] {
			rec.Joints[f][j] = 0
		}
	}
	rec.Joints[1][4], rec.Joints[2][4] = 1, 0.5
	rec.LeftHand = []float32{0, 0, 1, 1, 0}
	rec.RightHand = []float32{0, 1, 1, 0, 0}
	rec.Velocity = []float32{0.1, 0.2, 0.2, 0.0, -0.1}
	rec.AngularVelocity = []float32{2, 2, 2, 2, 2}
	return rec
}

func runPipeline(t *testing.T, cfg *config.Config) pipeline.Result {
	t.Helper()
	res, err := pipeline.Run(context.Background(), pipeline.Options{
		Config: cfg,
		Logger: logging.NewNop(),
		Ledger: testsupport.MustOpenLedger(t, cfg),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func readVector(t *testing.T, path string) []float64 {
	t.Helper()
	vec, err := npystore.ReadFloat64(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(vec) != recording.VectorLen {
		t.Fatalf("%s has length %d, want %d", path, len(vec), recording.VectorLen)
	}
	return vec
}

func TestRunScenarioSignMode(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRawVelocity(config.RawVelocitySign))
	testsupport.WriteRecording(t, cfg, scenarioRecording())

	res := runPipeline(t, cfg)
	if res.NumFrames != 5 {
		t.Fatalf("NumFrames = %d, want 5", res.NumFrames)
	}

	changes, err := npystore.ReadInt8(filepath.Join(cfg.Paths.ActionDataDir, "velocity_changes.npy"))
	if err != nil {
		t.Fatal(err)
	}
	wantChanges := []int8{0, 1, 0, -1, -1}
	for i := range wantChanges {
		if changes[i] != wantChanges[i] {
			t.Fatalf("velocity_changes = %v, want %v", changes, wantChanges)
		}
	}

	vec := readVector(t, filepath.Join(cfg.Paths.CombinedDir, "frame_000003.npy"))
	tail := vec[recording.SlotLeftHand:recording.SlotAngularVelocity]
	if tail[0] != 1 || tail[1] != 0 || tail[2] != -1 {
		t.Fatalf("frame 3 tail = %v, want [1 0 -1]", tail)
	}
	if vec[recording.SlotAngularVelocity] != 0 {
		t.Fatalf("steady angular velocity should encode 0, got %v", vec[recording.SlotAngularVelocity])
	}

	// joint_04 = [0,1,0.5,0,0] -> changes [0,1,-1,-1,0]
	frame2 := readVector(t, filepath.Join(cfg.Paths.CombinedDir, "frame_000002.npy"))
	if frame2[4] != -1 {
		t.Fatalf("joint_04 at frame 2 = %v, want -1", frame2[4])
	}
}

func TestRunScenarioValueMode(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteRecording(t, cfg, scenarioRecording())
	runPipeline(t, cfg)

	vec := readVector(t, filepath.Join(cfg.Paths.CombinedDir, "frame_000003.npy"))
	tail := vec[recording.SlotLeftHand:]
	if tail[0] != 1 || tail[1] != 0 || tail[2] != 0 || tail[3] != 2 {
		t.Fatalf("frame 3 tail = %v, want [1 0 0 2]", tail)
	}
	frame4 := readVector(t, filepath.Join(cfg.Paths.CombinedDir, "frame_000004.npy"))
	if frame4[recording.SlotVelocity] != float64(float32(-0.1)) {
		t.Fatalf("frame 4 velocity = %v, want raw -0.1", frame4[recording.SlotVelocity])
	}

	norm := readVector(t, filepath.Join(cfg.Paths.CombinedNormalizedDir, "frame_000003_normalized.npy"))
	if norm[recording.SlotVelocity] != -1 || norm[recording.SlotAngularVelocity] != 0 {
		t.Fatalf("normalized frame 3 velocity slots = %v", norm[recording.SlotVelocity:])
	}
	if norm[recording.SlotLeftHand] != 1 {
		t.Fatalf("hand closure must stay raw, got %v", norm[recording.SlotLeftHand])
	}
}

func TestRunLogsCompletionRate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteRecording(t, cfg, testsupport.NewRecording(4))

	logPath := filepath.Join(t.TempDir(), "run.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	res, err := pipeline.Run(context.Background(), pipeline.Options{Config: cfg, Logger: logger})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.FramesPerSecond() <= 0 {
		t.Fatalf("expected positive frame rate, got %v", res.FramesPerSecond())
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"frames_per_second":`) {
		t.Fatalf("run complete entry missing frame rate:\n%s", data)
	}
	if (pipeline.Result{NumFrames: 4}).FramesPerSecond() != 0 {
		t.Fatal("untimed result should report zero rate")
	}
}

func TestRunWritesFullLayout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	rec := testsupport.NewRecording(12)
	testsupport.WriteRecording(t, cfg, rec)
	res := runPipeline(t, cfg)

	// 21 joints x 3 artifacts + hands + velocity values/changes/normalized
	if len(res.Channels) != recording.Joints*3+8 {
		t.Fatalf("expected %d channel artifacts, got %d", recording.Joints*3+8, len(res.Channels))
	}
	for _, name := range []string{
		"joint_00.npy", "joint_20_changes.npy", "l_hand_closure.npy", "r_hand_closure.npy",
		"velocity.npy", "angular_velocity.npy", "velocity_changes.npy", "angular_velocity_changes.npy",
	} {
		if _, err := os.Stat(filepath.Join(cfg.Paths.ActionDataDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	for _, name := range []string{"joint_07_changes_normalized.npy", "velocity_normalized.npy", "angular_velocity_normalized.npy"} {
		if _, err := os.Stat(filepath.Join(cfg.Paths.NormalizedDataDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}

	positions, err := npystore.ReadFloat32(filepath.Join(cfg.Paths.ActionDataDir, "joint_03.npy"))
	if err != nil {
		t.Fatal(err)
	}
	for f := range positions {
		if positions[f] != rec.Joints[f][3] {
			t.Fatalf("joint_03[%d] = %v, want %v", f, positions[f], rec.Joints[f][3])
		}
	}

	for _, dir := range []string{cfg.Paths.CombinedDir, cfg.Paths.CombinedNormalizedDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != rec.Frames {
			t.Fatalf("%s holds %d files, want %d", dir, len(entries), rec.Frames)
		}
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		if !sort.StringsAreSorted(names) {
			t.Fatalf("frame names do not sort in frame order: %v", names)
		}
	}

	for f := 0; f < rec.Frames; f++ {
		norm := readVector(t, filepath.Join(cfg.Paths.CombinedNormalizedDir, npystore.FrameName(f, 6, true)+".npy"))
		for i, v := range norm {
			if v < -1 || v > 1 {
				if i == recording.SlotLeftHand || i == recording.SlotRightHand {
					continue
				}
				t.Fatalf("frame %d slot %d = %v outside [-1, 1]", f, i, v)
			}
		}
	}
}

func TestRunNormalizeJoints(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithNormalizeJoints(true))
	testsupport.WriteRecording(t, cfg, scenarioRecording())
	runPipeline(t, cfg)

	raw := readVector(t, filepath.Join(cfg.Paths.CombinedDir, "frame_000001.npy"))
	norm := readVector(t, filepath.Join(cfg.Paths.CombinedNormalizedDir, "frame_000001_normalized.npy"))
	if raw[4] != 1 || norm[4] != 1 {
		t.Fatalf("joint_04 frame 1 raw=%v norm=%v, want 1", raw[4], norm[4])
	}
	if norm[0] != 0 {
		t.Fatalf("constant joint must normalize to 0, got %v", norm[0])
	}
}

func TestRunIsReproducible(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(4))
	testsupport.WriteRecording(t, cfg, testsupport.NewRecording(30))

	first := runPipeline(t, cfg)
	if first.PreviousRunID != "" {
		t.Fatalf("first run should have no predecessor, got %s", first.PreviousRunID)
	}
	before, err := os.ReadFile(filepath.Join(cfg.Paths.CombinedNormalizedDir, "frame_000017_normalized.npy"))
	if err != nil {
		t.Fatal(err)
	}

	cfg.Assembly.Workers = 1
	second := runPipeline(t, cfg)
	if second.PreviousRunID != first.RunID || !second.Reproduced {
		t.Fatalf("second run not reproduced: %+v", second)
	}
	if first.Fingerprint != second.Fingerprint {
		t.Fatal("fingerprints differ between runs")
	}
	after, err := os.ReadFile(filepath.Join(cfg.Paths.CombinedNormalizedDir, "frame_000017_normalized.npy"))
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatal("frame file changed between runs")
	}
}

func TestRunRejectsBadInputs(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, cfg *config.Config)
		marker error
		status string
	}{
		{
			name:   "missing metadata",
			setup:  func(t *testing.T, cfg *config.Config) {},
			marker: faults.ErrMetadata,
			status: faults.StatusRejected,
		},
		{
			name: "zero frames",
			setup: func(t *testing.T, cfg *config.Config) {
				testsupport.WriteMetadata(t, cfg.RecordingLayout().MetadataPath(), "", 0)
			},
			marker: faults.ErrMetadata,
			status: faults.StatusRejected,
		},
		{
			name: "short channel",
			setup: func(t *testing.T, cfg *config.Config) {
				testsupport.WriteRecording(t, cfg, testsupport.NewRecording(6))
				testsupport.WriteMetadata(t, cfg.RecordingLayout().MetadataPath(), "", 7)
			},
			marker: faults.ErrDecode,
			status: faults.StatusRejected,
		},
		{
			name: "missing channel",
			setup: func(t *testing.T, cfg *config.Config) {
				testsupport.WriteRecording(t, cfg, testsupport.NewRecording(6))
				if err := os.Remove(cfg.RecordingLayout().ChannelPath(recording.RightHand)); err != nil {
					t.Fatal(err)
				}
			},
			marker: faults.ErrDecode,
			status: faults.StatusRejected,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			tc.setup(t, cfg)
			store := testsupport.MustOpenLedger(t, cfg)

			_, err := pipeline.Run(context.Background(), pipeline.Options{Config: cfg, Logger: logging.NewNop(), Ledger: store})
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}

			runs, err := store.ListRuns(context.Background(), 1)
			if err != nil {
				t.Fatal(err)
			}
			if len(runs) != 1 || runs[0].Status != tc.status {
				t.Fatalf("ledger runs = %+v, want one %s run", runs, tc.status)
			}

			entries, _ := os.ReadDir(cfg.Paths.CombinedDir)
			if len(entries) != 0 {
				t.Fatalf("no frames should be written, found %d", len(entries))
			}
		})
	}
}

func TestRunHonoursOutputLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteRecording(t, cfg, testsupport.NewRecording(3))
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}

	held := flock.New(filepath.Join(cfg.Paths.OutputDir, pipeline.LockFileName))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	defer held.Unlock()

	_, err = pipeline.Run(context.Background(), pipeline.Options{Config: cfg, Logger: logging.NewNop()})
	if !errors.Is(err, faults.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteRecording(t, cfg, testsupport.NewRecording(8))
	store := testsupport.MustOpenLedger(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipeline.Run(ctx, pipeline.Options{Config: cfg, Logger: logging.NewNop(), Ledger: store})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	runs, err := store.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != faults.StatusFailed {
		t.Fatalf("cancelled run should be recorded as failed: %+v", runs)
	}
}

type countingProgress struct {
	labels []string
	ticks  chan struct{}
	ended  int
}

func (p *countingProgress) Begin(label string, _ int) { p.labels = append(p.labels, label) }
func (p *countingProgress) Tick()                     { p.ticks <- struct{}{} }
func (p *countingProgress) End()                      { p.ended++ }

func TestRunReportsProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteRecording(t, cfg, testsupport.NewRecording(7))
	progress := &countingProgress{ticks: make(chan struct{}, 14)}

	if _, err := pipeline.Run(context.Background(), pipeline.Options{Config: cfg, Logger: logging.NewNop(), Progress: progress}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(progress.ticks) != 14 || progress.ended != 2 || len(progress.labels) != 2 {
		t.Fatalf("progress ticks=%d ended=%d labels=%v", len(progress.ticks), progress.ended, progress.labels)
	}
}

func TestInspect(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteRecording(t, cfg, scenarioRecording())

	report, err := pipeline.Inspect(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if report.Metadata.NumFrames != 5 || len(report.Channels) != 4 || len(report.Columns) != recording.VectorLen {
		t.Fatalf("unexpected report shape: %+v", report)
	}
	vel := report.Columns[recording.SlotVelocity]
	if vel.Name != "velocity" || vel.Changes.Rising != 1 || vel.Changes.Falling != 2 || vel.Changes.Steady != 2 {
		t.Fatalf("velocity column = %+v", vel)
	}
	if vel.Min != -0.1 || vel.Max != 0.2 {
		t.Fatalf("velocity range = [%v, %v]", vel.Min, vel.Max)
	}
	if report.Columns[0].Changes.Changed() {
		t.Fatal("constant joint reported as changed")
	}
	if report.Channels[0].Bytes != 5*21*4 {
		t.Fatalf("joint_pos bytes = %d", report.Channels[0].Bytes)
	}
}
