package npystore

import (
	"fmt"
	"strconv"
)

// Artifact kinds recorded in the run ledger.
const (
	KindRawChannel        = "raw_channel"
	KindSignChange        = "sign_change"
	KindNormalized        = "normalized"
	KindFrameRaw          = "frame_raw"
	KindFrameNormalized   = "frame_normalized"
	minFrameDigits        = 6
	normalizedFrameSuffix = "_normalized"
)

// FrameDigits returns the zero-padding width for frame indices so that file
// names sort lexicographically in frame order. It never drops below six.
func FrameDigits(numFrames int) int {
	if numFrames <= 1 {
		return minFrameDigits
	}
	return max(minFrameDigits, len(strconv.Itoa(numFrames-1)))
}

// FrameName returns the artifact stem for a frame, e.g. frame_000042 or
// frame_000042_normalized.
func FrameName(frame, digits int, normalized bool) string {
	name := fmt.Sprintf("frame_%0*d", digits, frame)
	if normalized {
		name += normalizedFrameSuffix
	}
	return name
}

// ChangesName returns the sign-change artifact stem for a channel stem.
func ChangesName(stem string) string {
	return stem + "_changes"
}

// NormalizedChangesName returns the normalized artifact stem for a joint stem.
func NormalizedChangesName(stem string) string {
	return stem + "_changes_normalized"
}

// NormalizedName returns the normalized artifact stem for a driving command stem.
func NormalizedName(stem string) string {
	return stem + "_normalized"
}
