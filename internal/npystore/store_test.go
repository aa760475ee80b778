package npystore_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"testing"

	"actionprep/internal/faults"
	"actionprep/internal/npystore"
)

func TestWriteArrayRoundTrips(t *testing.T) {
	dir := t.TempDir()

	art, err := npystore.WriteArray(dir, npystore.KindNormalized, "velocity_normalized", []float64{0, 1, 0, -1, -1})
	if err != nil {
		t.Fatalf("WriteArray: %v", err)
	}
	if art.Name != "velocity_normalized.npy" || art.Kind != npystore.KindNormalized {
		t.Fatalf("unexpected artifact %+v", art)
	}
	info, err := os.Stat(art.Path)
	if err != nil {
		t.Fatalf("stat artifact: %v", err)
	}
	if info.Size() != art.Bytes {
		t.Fatalf("reported %d bytes, file has %d", art.Bytes, info.Size())
	}
	if len(art.SHA256) != 64 {
		t.Fatalf("unexpected digest %q", art.SHA256)
	}

	got, err := npystore.ReadFloat64(art.Path)
	if err != nil {
		t.Fatalf("ReadFloat64: %v", err)
	}
	if !slices.Equal(got, []float64{0, 1, 0, -1, -1}) {
		t.Fatalf("unexpected values %v", got)
	}
}

func TestWriteArrayTypes(t *testing.T) {
	dir := t.TempDir()

	if _, err := npystore.WriteArray(dir, npystore.KindSignChange, "joint_00_changes", []int8{0, -1, 1}); err != nil {
		t.Fatalf("write int8: %v", err)
	}
	if _, err := npystore.WriteArray(dir, npystore.KindRawChannel, "joint_00", []float32{1, 1, 0.5}); err != nil {
		t.Fatalf("write float32: %v", err)
	}

	changes, err := npystore.ReadInt8(filepath.Join(dir, "joint_00_changes.npy"))
	if err != nil || !slices.Equal(changes, []int8{0, -1, 1}) {
		t.Fatalf("ReadInt8 = %v, %v", changes, err)
	}
	raw, err := npystore.ReadFloat32(filepath.Join(dir, "joint_00.npy"))
	if err != nil || !slices.Equal(raw, []float32{1, 1, 0.5}) {
		t.Fatalf("ReadFloat32 = %v, %v", raw, err)
	}
}

func TestWriteArrayIsDeterministicAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	values := []float64{0.25, -1, 3}

	first, err := npystore.WriteArray(dir, npystore.KindFrameRaw, "frame_000000", values)
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	firstBytes, err := os.ReadFile(first.Path)
	if err != nil {
		t.Fatalf("read first: %v", err)
	}
	second, err := npystore.WriteArray(dir, npystore.KindFrameRaw, "frame_000000", values)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	secondBytes, err := os.ReadFile(second.Path)
	if err != nil {
		t.Fatalf("read second: %v", err)
	}
	if !bytes.Equal(firstBytes, secondBytes) || first.SHA256 != second.SHA256 {
		t.Fatal("rewriting identical values should produce identical bytes")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "frame_000000.npy" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("unexpected directory contents %v", names)
	}
}

func TestWriteArrayMissingDirectory(t *testing.T) {
	_, err := npystore.WriteArray(filepath.Join(t.TempDir(), "absent"), npystore.KindFrameRaw, "frame_000000", []float64{1})
	if !errors.Is(err, faults.ErrOutput) {
		t.Fatalf("expected ErrOutput, got %v", err)
	}
}

func TestFrameNamesSortInFrameOrder(t *testing.T) {
	if got := npystore.FrameName(42, 6, false); got != "frame_000042" {
		t.Fatalf("unexpected frame name %q", got)
	}
	if got := npystore.FrameName(7, 6, true); got != "frame_000007_normalized" {
		t.Fatalf("unexpected normalized frame name %q", got)
	}
	if got := npystore.FrameDigits(5); got != 6 {
		t.Fatalf("expected minimum width 6, got %d", got)
	}
	if got := npystore.FrameDigits(12_345_678); got != 8 {
		t.Fatalf("expected width 8, got %d", got)
	}
	if got := npystore.FrameDigits(1_000_000); got != 6 {
		t.Fatalf("frame 999999 fits in six digits, got %d", got)
	}

	digits := npystore.FrameDigits(2_000_000)
	frames := []int{1_500_000, 9, 999_999, 10, 0}
	names := make([]string, len(frames))
	for i, f := range frames {
		names[i] = npystore.FrameName(f, digits, false)
	}
	sort.Strings(names)
	slices.Sort(frames)
	for i, f := range frames {
		if names[i] != npystore.FrameName(f, digits, false) {
			t.Fatalf("lexicographic order differs from frame order at %d: %v", i, names)
		}
	}
}

func TestChannelNames(t *testing.T) {
	if got := npystore.ChangesName("joint_03"); got != "joint_03_changes" {
		t.Fatalf("unexpected changes name %q", got)
	}
	if got := npystore.NormalizedChangesName("joint_03"); got != "joint_03_changes_normalized" {
		t.Fatalf("unexpected normalized changes name %q", got)
	}
	if got := npystore.NormalizedName("velocity"); got != "velocity_normalized" {
		t.Fatalf("unexpected normalized name %q", got)
	}
}
