package assemble

import (
	"fmt"

	"actionprep/internal/derive"
	"actionprep/internal/recording"
)

// Inputs are the decoded raw columns of a recording.
type Inputs struct {
	JointPositions  [recording.Joints][]float32
	LeftHand        []float32
	RightHand       []float32
	Velocity        []float32
	AngularVelocity []float32
}

// Build derives sign-changes and normalized channels from decoded inputs.
// Every input column must have numFrames rows.
func Build(numFrames int, in Inputs) (*Channels, error) {
	ch := &Channels{
		NumFrames:       numFrames,
		LeftHand:        in.LeftHand,
		RightHand:       in.RightHand,
		Velocity:        in.Velocity,
		AngularVelocity: in.AngularVelocity,
	}
	for j := 0; j < recording.Joints; j++ {
		if len(in.JointPositions[j]) != numFrames {
			return nil, fmt.Errorf("assemble: %s has %d frames, expected %d", recording.JointName(j), len(in.JointPositions[j]), numFrames)
		}
		ch.JointChanges[j] = derive.SignChanges(in.JointPositions[j])
		ch.JointNormalized[j] = derive.Normalize(ch.JointChanges[j])
	}
	ch.VelocityChanges = derive.SignChanges(in.Velocity)
	ch.AngularVelocityChanges = derive.SignChanges(in.AngularVelocity)
	ch.VelocityNormalized = derive.Normalize(ch.VelocityChanges)
	ch.AngularVelocityNormalized = derive.Normalize(ch.AngularVelocityChanges)

	if err := ch.Validate(); err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	return ch, nil
}
