package pipeline

import (
	"log/slog"

	"actionprep/internal/assemble"
	"actionprep/internal/decode"
	"actionprep/internal/logging"
	"actionprep/internal/recording"
)

// decodeRecording maps every raw channel once and copies its columns into
// resident slices. The mappings are released before returning.
func decodeRecording(layout recording.Layout, frames int, logger *slog.Logger) (assemble.Inputs, error) {
	var in assemble.Inputs

	opened := make([]*decode.Channel, 0, len(recording.RawChannels()))
	defer func() {
		for _, ch := range opened {
			_ = ch.Close()
		}
	}()
	open := func(spec recording.ChannelSpec) (*decode.Channel, error) {
		ch, err := decode.OpenSpec(layout, spec, frames)
		if err != nil {
			return nil, err
		}
		opened = append(opened, ch)
		logger.Debug("channel mapped",
			logging.String(logging.FieldChannel, spec.Name),
			logging.Int("width", spec.Width),
			logging.String("path", ch.Path()),
		)
		return ch, nil
	}

	joints, err := open(recording.JointPositions)
	if err != nil {
		return in, err
	}
	left, err := open(recording.LeftHand)
	if err != nil {
		return in, err
	}
	right, err := open(recording.RightHand)
	if err != nil {
		return in, err
	}
	driving, err := open(recording.DrivingCommand)
	if err != nil {
		return in, err
	}

	for j := 0; j < recording.Joints; j++ {
		in.JointPositions[j] = joints.Column(j)
	}
	in.LeftHand = left.Column(0)
	in.RightHand = right.Column(0)
	in.Velocity = driving.Column(recording.VelocityColumn)
	in.AngularVelocity = driving.Column(recording.AngularVelocityColumn)
	return in, nil
}
