package assemble

import (
	"fmt"

	"actionprep/internal/recording"
)

// Channels holds every decoded and derived per-channel array of a recording,
// resident in memory and shared read-only by the frame assemblers.
type Channels struct {
	NumFrames int

	JointChanges    [recording.Joints][]int8
	JointNormalized [recording.Joints][]float64

	LeftHand  []float32
	RightHand []float32

	Velocity                  []float32
	AngularVelocity           []float32
	VelocityChanges           []int8
	AngularVelocityChanges    []int8
	VelocityNormalized        []float64
	AngularVelocityNormalized []float64
}

// Validate checks that every array has exactly NumFrames rows.
func (c *Channels) Validate() error {
	if c == nil {
		return fmt.Errorf("channels are nil")
	}
	if c.NumFrames <= 0 {
		return fmt.Errorf("channels have non-positive frame count %d", c.NumFrames)
	}
	check := func(name string, n int) error {
		if n != c.NumFrames {
			return fmt.Errorf("channel %s has %d frames, expected %d", name, n, c.NumFrames)
		}
		return nil
	}
	for j := 0; j < recording.Joints; j++ {
		name := recording.JointName(j)
		if err := check(name+" changes", len(c.JointChanges[j])); err != nil {
			return err
		}
		if err := check(name+" normalized", len(c.JointNormalized[j])); err != nil {
			return err
		}
	}
	lengths := []struct {
		name string
		n    int
	}{
		{recording.LeftHand.Name, len(c.LeftHand)},
		{recording.RightHand.Name, len(c.RightHand)},
		{recording.VelocityName, len(c.Velocity)},
		{recording.AngularVelocityName, len(c.AngularVelocity)},
		{recording.VelocityName + " changes", len(c.VelocityChanges)},
		{recording.AngularVelocityName + " changes", len(c.AngularVelocityChanges)},
		{recording.VelocityName + " normalized", len(c.VelocityNormalized)},
		{recording.AngularVelocityName + " normalized", len(c.AngularVelocityNormalized)},
	}
	for _, l := range lengths {
		if err := check(l.name, l.n); err != nil {
			return err
		}
	}
	return nil
}
