package assemble

import (
	"fmt"

	"actionprep/internal/recording"
)

// Flavor selects which per-frame vector variant is built.
type Flavor int

const (
	FlavorRaw Flavor = iota
	FlavorNormalized
)

func (f Flavor) String() string {
	switch f {
	case FlavorRaw:
		return "raw"
	case FlavorNormalized:
		return "normalized"
	default:
		return fmt.Sprintf("flavor(%d)", int(f))
	}
}

// Options controls vector contents.
type Options struct {
	// NormalizeJoints uses normalized joint sign-changes in normalized vectors.
	NormalizeJoints bool
	// RawVelocitySign puts velocity sign-changes, rather than the decoded
	// command values, into raw vectors.
	RawVelocitySign bool
	// Workers bounds concurrent frame writers. Values below 1 mean 1.
	Workers int
}

// Assembler builds per-frame vectors from resident channels. It holds no
// mutable state and is safe for concurrent use.
type Assembler struct {
	ch   *Channels
	opts Options
}

// New validates the channels and returns an assembler over them.
func New(ch *Channels, opts Options) (*Assembler, error) {
	if err := ch.Validate(); err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	return &Assembler{ch: ch, opts: opts}, nil
}

// NumFrames returns the number of vectors each flavor produces.
func (a *Assembler) NumFrames() int {
	return a.ch.NumFrames
}

// Vector builds the vector of the given flavor for frame f.
func (a *Assembler) Vector(flavor Flavor, f int) []float64 {
	if flavor == FlavorNormalized {
		return a.NormalizedVector(f)
	}
	return a.RawVector(f)
}

// RawVector returns joint sign-changes, raw hand closure, and the velocity
// slots for frame f.
func (a *Assembler) RawVector(f int) []float64 {
	a.checkFrame(f)
	out := make([]float64, recording.VectorLen)
	a.fillJoints(out, f, false)
	a.fillHands(out, f)
	if a.opts.RawVelocitySign {
		out[recording.SlotVelocity] = float64(a.ch.VelocityChanges[f])
		out[recording.SlotAngularVelocity] = float64(a.ch.AngularVelocityChanges[f])
	} else {
		out[recording.SlotVelocity] = float64(a.ch.Velocity[f])
		out[recording.SlotAngularVelocity] = float64(a.ch.AngularVelocity[f])
	}
	return out
}

// NormalizedVector returns the same layout as RawVector with normalized
// velocity and angular velocity.
func (a *Assembler) NormalizedVector(f int) []float64 {
	a.checkFrame(f)
	out := make([]float64, recording.VectorLen)
	a.fillJoints(out, f, a.opts.NormalizeJoints)
	a.fillHands(out, f)
	out[recording.SlotVelocity] = a.ch.VelocityNormalized[f]
	out[recording.SlotAngularVelocity] = a.ch.AngularVelocityNormalized[f]
	return out
}

func (a *Assembler) fillJoints(out []float64, f int, normalized bool) {
	for j := 0; j < recording.Joints; j++ {
		if normalized {
			out[j] = a.ch.JointNormalized[j][f]
		} else {
			out[j] = float64(a.ch.JointChanges[j][f])
		}
	}
}

// Hand closure is a native 0/1 signal and is never normalized.
func (a *Assembler) fillHands(out []float64, f int) {
	out[recording.SlotLeftHand] = float64(a.ch.LeftHand[f])
	out[recording.SlotRightHand] = float64(a.ch.RightHand[f])
}

func (a *Assembler) checkFrame(f int) {
	if f < 0 || f >= a.ch.NumFrames {
		panic(fmt.Sprintf("assemble: frame %d out of range [0, %d)", f, a.ch.NumFrames))
	}
}
