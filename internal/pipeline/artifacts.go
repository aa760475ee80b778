package pipeline

import (
	"actionprep/internal/assemble"
	"actionprep/internal/config"
	"actionprep/internal/npystore"
	"actionprep/internal/recording"
)

// artifactRow names one per-channel array and where it is written.
type artifactRow[T npystore.Array] struct {
	dir    string
	kind   string
	name   string
	values T
}

// writeChannelArtifacts persists the per-channel arrays: raw values and
// sign-changes under action_data_dir, normalized sign-changes under
// normalized_data_dir.
func writeChannelArtifacts(paths config.Paths, in assemble.Inputs, ch *assemble.Channels) ([]npystore.Artifact, error) {
	raw, norm := paths.ActionDataDir, paths.NormalizedDataDir

	var (
		values  []artifactRow[[]float32]
		changes []artifactRow[[]int8]
		scaled  []artifactRow[[]float64]
	)
	for j := 0; j < recording.Joints; j++ {
		name := recording.JointName(j)
		values = append(values, artifactRow[[]float32]{raw, npystore.KindRawChannel, name, in.JointPositions[j]})
		changes = append(changes, artifactRow[[]int8]{raw, npystore.KindSignChange, npystore.ChangesName(name), ch.JointChanges[j]})
		scaled = append(scaled, artifactRow[[]float64]{norm, npystore.KindNormalized, npystore.NormalizedChangesName(name), ch.JointNormalized[j]})
	}

	values = append(values,
		artifactRow[[]float32]{raw, npystore.KindRawChannel, recording.LeftHand.Name, ch.LeftHand},
		artifactRow[[]float32]{raw, npystore.KindRawChannel, recording.RightHand.Name, ch.RightHand},
		artifactRow[[]float32]{raw, npystore.KindRawChannel, recording.VelocityName, ch.Velocity},
		artifactRow[[]float32]{raw, npystore.KindRawChannel, recording.AngularVelocityName, ch.AngularVelocity},
	)
	changes = append(changes,
		artifactRow[[]int8]{raw, npystore.KindSignChange, npystore.ChangesName(recording.VelocityName), ch.VelocityChanges},
		artifactRow[[]int8]{raw, npystore.KindSignChange, npystore.ChangesName(recording.AngularVelocityName), ch.AngularVelocityChanges},
	)
	scaled = append(scaled,
		artifactRow[[]float64]{norm, npystore.KindNormalized, npystore.NormalizedName(recording.VelocityName), ch.VelocityNormalized},
		artifactRow[[]float64]{norm, npystore.KindNormalized, npystore.NormalizedName(recording.AngularVelocityName), ch.AngularVelocityNormalized},
	)

	out := make([]npystore.Artifact, 0, len(values)+len(changes)+len(scaled))
	var err error
	if out, err = writeRows(out, values); err != nil {
		return nil, err
	}
	if out, err = writeRows(out, changes); err != nil {
		return nil, err
	}
	if out, err = writeRows(out, scaled); err != nil {
		return nil, err
	}
	return out, nil
}

func writeRows[T npystore.Array](out []npystore.Artifact, rows []artifactRow[T]) ([]npystore.Artifact, error) {
	for _, row := range rows {
		art, err := npystore.WriteArray(row.dir, row.kind, row.name, row.values)
		if err != nil {
			return nil, err
		}
		out = append(out, art)
	}
	return out, nil
}
