package recording_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"actionprep/internal/faults"
	"actionprep/internal/recording"
)

func writeDescriptor(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	return path
}

func TestLoadMetadataReadsFrameCount(t *testing.T) {
	path := writeDescriptor(t, `{"num_images": 1200, "hz": 30}`)

	meta, err := recording.LoadMetadata(path, "")
	if err != nil {
		t.Fatalf("LoadMetadata returned error: %v", err)
	}
	if meta.NumFrames != 1200 {
		t.Fatalf("unexpected frame count: %d", meta.NumFrames)
	}
	if meta.Path != path {
		t.Fatalf("unexpected path: %q", meta.Path)
	}
}

func TestLoadMetadataCustomField(t *testing.T) {
	path := writeDescriptor(t, `{"frames": 7}`)

	meta, err := recording.LoadMetadata(path, "frames")
	if err != nil {
		t.Fatalf("LoadMetadata returned error: %v", err)
	}
	if meta.NumFrames != 7 {
		t.Fatalf("unexpected frame count: %d", meta.NumFrames)
	}
}

func TestLoadMetadataFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing field", `{"hz": 30}`},
		{"not json", `num_images=3`},
		{"string count", `{"num_images": "three"}`},
		{"fractional count", `{"num_images": 2.5}`},
		{"zero count", `{"num_images": 0}`},
		{"negative count", `{"num_images": -4}`},
		{"array document", `[1, 2, 3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDescriptor(t, tt.content)
			_, err := recording.LoadMetadata(path, "")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, faults.ErrMetadata) {
				t.Fatalf("expected ErrMetadata, got %v", err)
			}
		})
	}
}

func TestLoadMetadataMissingFile(t *testing.T) {
	_, err := recording.LoadMetadata(filepath.Join(t.TempDir(), "absent.json"), "")
	if !errors.Is(err, faults.ErrMetadata) {
		t.Fatalf("expected ErrMetadata, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist cause to be wrapped, got %v", err)
	}
}

func TestLayoutPaths(t *testing.T) {
	layout := recording.Layout{Dir: "/data/train", MetadataFile: "metadata.json", ActionsSubdir: "actions"}
	if got := layout.MetadataPath(); got != "/data/train/metadata.json" {
		t.Fatalf("unexpected metadata path %q", got)
	}
	if got := layout.ChannelPath(recording.DrivingCommand); got != "/data/train/actions/driving_command.bin" {
		t.Fatalf("unexpected channel path %q", got)
	}

	layout.MetadataFile = "/elsewhere/meta.json"
	if got := layout.MetadataPath(); got != "/elsewhere/meta.json" {
		t.Fatalf("absolute metadata path should be kept, got %q", got)
	}
}
