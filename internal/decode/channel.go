package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"golang.org/x/sys/unix"

	"actionprep/internal/faults"
	"actionprep/internal/recording"
)

// Channel is a read-only, memory-mapped view of one raw telemetry file laid
// out as little-endian float32 values in row-major (frame, sub-channel) order.
type Channel struct {
	path   string
	width  int
	frames int
	data   []byte
}

// Open maps the file at path and checks that it holds exactly frames*width
// float32 values. A missing file or a size mismatch fails with faults.ErrDecode.
func Open(path string, width, frames int) (*Channel, error) {
	if width <= 0 || frames <= 0 {
		return nil, faults.Wrap(faults.ErrDecode, "decode", "open", fmt.Sprintf("invalid shape (%d, %d) for %s", frames, width, path), nil)
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, faults.Wrap(faults.ErrDecode, "decode", "open", "channel file not found: "+path, err)
		}
		return nil, faults.Wrap(faults.ErrDecode, "decode", "open", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, faults.Wrap(faults.ErrDecode, "decode", "stat", path, err)
	}
	want := int64(frames) * int64(width) * recording.ElementSize
	if info.Size() != want {
		return nil, faults.Wrap(faults.ErrDecode, "decode", "open", fmt.Sprintf(
			"%s holds %d bytes, expected %d for shape (%d, %d)", path, info.Size(), want, frames, width), nil)
	}
	if want > math.MaxInt {
		return nil, faults.Wrap(faults.ErrDecode, "decode", "open", fmt.Sprintf("%s too large to map", path), nil)
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(want), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, faults.Wrap(faults.ErrDecode, "decode", "mmap", path, err)
	}
	return &Channel{path: path, width: width, frames: frames, data: data}, nil
}

// OpenSpec opens the channel described by spec inside the recording layout.
func OpenSpec(layout recording.Layout, spec recording.ChannelSpec, frames int) (*Channel, error) {
	return Open(layout.ChannelPath(spec), spec.Width, frames)
}

// Path returns the mapped file path.
func (c *Channel) Path() string { return c.path }

// Width returns the number of sub-channels per frame.
func (c *Channel) Width() int { return c.width }

// Frames returns the number of rows.
func (c *Channel) Frames() int { return c.frames }

// At returns the value for one frame and sub-channel. It panics on
// out-of-range indices or after Close, like a slice index would.
func (c *Channel) At(frame, sub int) float32 {
	if frame < 0 || frame >= c.frames || sub < 0 || sub >= c.width {
		panic(fmt.Sprintf("decode: index (%d, %d) out of range for shape (%d, %d)", frame, sub, c.frames, c.width))
	}
	offset := (frame*c.width + sub) * recording.ElementSize
	return math.Float32frombits(binary.LittleEndian.Uint32(c.data[offset : offset+recording.ElementSize]))
}

// Column copies one sub-channel out of the mapping.
func (c *Channel) Column(sub int) []float32 {
	out := make([]float32, c.frames)
	for f := range out {
		out[f] = c.At(f, sub)
	}
	return out
}

// Close unmaps the file. It is safe to call more than once.
func (c *Channel) Close() error {
	if c == nil || c.data == nil {
		return nil
	}
	data := c.data
	c.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap %s: %w", c.path, err)
	}
	return nil
}
