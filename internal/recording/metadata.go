package recording

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"actionprep/internal/faults"
)

// DefaultFrameCountField is the descriptor key holding the recording's frame count.
const DefaultFrameCountField = "num_images"

// Metadata describes a recording as read from its descriptor.
type Metadata struct {
	Path      string
	NumFrames int
}

// Layout locates the files of one recording on disk.
type Layout struct {
	Dir           string
	MetadataFile  string
	ActionsSubdir string
}

// MetadataPath returns the absolute descriptor path.
func (l Layout) MetadataPath() string {
	if filepath.IsAbs(l.MetadataFile) {
		return l.MetadataFile
	}
	return filepath.Join(l.Dir, l.MetadataFile)
}

// ChannelPath returns the binary file path for the given channel.
func (l Layout) ChannelPath(spec ChannelSpec) string {
	return filepath.Join(l.Dir, l.ActionsSubdir, spec.FileName())
}

// LoadMetadata reads the frame count from a JSON descriptor. A missing file,
// malformed JSON, a missing field, or a non-positive count all fail with
// faults.ErrMetadata.
func LoadMetadata(path, field string) (Metadata, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		field = DefaultFrameCountField
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Metadata{}, faults.Wrap(faults.ErrMetadata, "recording", "load metadata", "descriptor not found: "+path, err)
		}
		return Metadata{}, faults.Wrap(faults.ErrMetadata, "recording", "load metadata", path, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	var doc map[string]json.RawMessage
	if err := decoder.Decode(&doc); err != nil {
		return Metadata{}, faults.Wrap(faults.ErrMetadata, "recording", "parse metadata", path, err)
	}
	raw, ok := doc[field]
	if !ok {
		return Metadata{}, faults.Wrap(faults.ErrMetadata, "recording", "parse metadata", fmt.Sprintf("field %q missing in %s", field, path), nil)
	}

	frames, err := parseFrameCount(raw)
	if err != nil {
		return Metadata{}, faults.Wrap(faults.ErrMetadata, "recording", "parse metadata", fmt.Sprintf("field %q in %s", field, path), err)
	}
	return Metadata{Path: path, NumFrames: frames}, nil
}

func parseFrameCount(raw json.RawMessage) (int, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var number json.Number
	if err := decoder.Decode(&number); err != nil {
		return 0, fmt.Errorf("frame count is not a number: %s", strings.TrimSpace(string(raw)))
	}
	value, err := number.Int64()
	if err != nil {
		return 0, fmt.Errorf("frame count is not an integer: %s", number)
	}
	if value <= 0 {
		return 0, fmt.Errorf("frame count must be positive, got %d", value)
	}
	if int64(int(value)) != value {
		return 0, fmt.Errorf("frame count %d overflows int", value)
	}
	return int(value), nil
}
