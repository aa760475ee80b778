package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"actionprep/internal/config"
	"actionprep/internal/recording"
)

// Recording is an in-memory recording fixture. Joints is indexed
// [frame][joint].
type Recording struct {
	Frames          int
	Joints          [][]float32
	LeftHand        []float32
	RightHand       []float32
	Velocity        []float32
	AngularVelocity []float32
}

// NewRecording returns a deterministic recording with the given frame count.
// Joint j at frame f oscillates with period j+2 so every joint sees a mix of
// rising, falling, and steady frames.
func NewRecording(frames int) Recording {
	rec := Recording{
		Frames:          frames,
		Joints:          make([][]float32, frames),
		LeftHand:        make([]float32, frames),
		RightHand:       make([]float32, frames),
		Velocity:        make([]float32, frames),
		AngularVelocity: make([]float32, frames),
	}
	for f := 0; f < frames; f++ {
		row := make([]float32, recording.Joints)
		for j := range row {
			period := j + 2
			row[j] = float32((f%period)*(j+1)) * 0.25
		}
		rec.Joints[f] = row
		rec.LeftHand[f] = float32(f%3) * 0.5
		rec.RightHand[f] = float32(f%4) * 0.25
		rec.Velocity[f] = float32(f%5) - 2
		rec.AngularVelocity[f] = float32((f*7)%3) - 1
	}
	return rec
}

// WriteRecording lays the fixture out the way a real recording is stored:
// a JSON descriptor plus one little-endian float32 file per channel.
func WriteRecording(t testing.TB, cfg *config.Config, rec Recording) {
	t.Helper()

	layout := cfg.RecordingLayout()
	WriteMetadata(t, layout.MetadataPath(), cfg.Recording.FrameCountField, rec.Frames)

	joints := make([]float32, 0, rec.Frames*recording.Joints)
	for _, row := range rec.Joints {
		joints = append(joints, row...)
	}
	driving := make([]float32, 0, rec.Frames*2)
	for f := 0; f < rec.Frames; f++ {
		driving = append(driving, rec.Velocity[f], rec.AngularVelocity[f])
	}

	WriteFloat32s(t, layout.ChannelPath(recording.JointPositions), joints)
	WriteFloat32s(t, layout.ChannelPath(recording.LeftHand), rec.LeftHand)
	WriteFloat32s(t, layout.ChannelPath(recording.RightHand), rec.RightHand)
	WriteFloat32s(t, layout.ChannelPath(recording.DrivingCommand), driving)
}

// WriteMetadata writes a descriptor holding only the frame count field.
func WriteMetadata(t testing.TB, path, field string, frames int) {
	t.Helper()

	if field == "" {
		field = recording.DefaultFrameCountField
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	payload := fmt.Sprintf("{\"%s\": %d, \"fps\": 30}\n", field, frames)
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
