package pipeline

import (
	"log/slog"

	"actionprep/internal/config"
	"actionprep/internal/derive"
	"actionprep/internal/logging"
	"actionprep/internal/recording"
)

// ChannelInfo describes one raw channel file.
type ChannelInfo struct {
	Spec  recording.ChannelSpec
	Path  string
	Bytes int64
}

// ColumnInfo summarizes one decoded column and its sign-changes.
type ColumnInfo struct {
	Name    string
	Min     float32
	Max     float32
	Changes derive.Stats
}

// Report is a read-only description of a recording.
type Report struct {
	Metadata recording.Metadata
	Channels []ChannelInfo
	Columns  []ColumnInfo
}

// Inspect decodes a recording without writing anything and reports its
// shape and per-column change statistics in vector slot order.
func Inspect(cfg *config.Config, logger *slog.Logger) (Report, error) {
	logger = logging.NewComponentLogger(logger, "inspect")
	layout := cfg.RecordingLayout()

	meta, err := recording.LoadMetadata(layout.MetadataPath(), cfg.Recording.FrameCountField)
	if err != nil {
		return Report{}, err
	}
	report := Report{Metadata: meta}
	for _, spec := range recording.RawChannels() {
		report.Channels = append(report.Channels, ChannelInfo{
			Spec:  spec,
			Path:  layout.ChannelPath(spec),
			Bytes: spec.ByteSize(meta.NumFrames),
		})
	}

	in, err := decodeRecording(layout, meta.NumFrames, logger)
	if err != nil {
		return report, err
	}
	columns := make([][]float32, 0, recording.VectorLen)
	for j := 0; j < recording.Joints; j++ {
		columns = append(columns, in.JointPositions[j])
	}
	columns = append(columns, in.LeftHand, in.RightHand, in.Velocity, in.AngularVelocity)

	for i, name := range recording.SlotNames() {
		col := columns[i]
		info := ColumnInfo{Name: name, Min: col[0], Max: col[0]}
		for _, v := range col[1:] {
			info.Min = min(info.Min, v)
			info.Max = max(info.Max, v)
		}
		info.Changes = derive.Summarize(derive.SignChanges(col))
		report.Columns = append(report.Columns, info)
	}
	return report, nil
}
