package config

const (
	defaultConfigPath            = "~/.config/actionprep/config.toml"
	projectConfigName            = "actionprep.toml"
	defaultRecordingDir          = "data/train_v1.1"
	defaultMetadataFile          = "metadata.json"
	defaultActionsSubdir         = "actions"
	defaultOutputDir             = "."
	defaultActionDataDir         = "action_data"
	defaultNormalizedDataDir     = "normalized_data"
	defaultCombinedDir           = "combined_action_data"
	defaultCombinedNormalizedDir = "combined_data_normalized"
	defaultLogDir                = "~/.local/share/actionprep/logs"
	defaultLedgerName            = "ledger.db"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultRawVelocity           = RawVelocityValue
	defaultMinFreeMiB            = 64
	defaultPython                = "python"
	defaultGenerateScript        = "genie/generate.py"
	defaultVisualizeScript       = "visualize.py"
	defaultEvaluateScript        = "genie/evaluate.py"
	defaultCheckpointDir         = "1x-technologies/GENIE_138M"
	defaultGenerationOutputDir   = "data/genie_baseline_generated"
	defaultGenerationEnd         = 240
	defaultGenerationStep        = 10
	defaultMaskgitSteps          = 2
	defaultCUDAVisibleDevices    = "0"
)

// Raw velocity modes accepted by assembly.raw_velocity.
const (
	RawVelocityValue = "value"
	RawVelocitySign  = "sign"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RecordingDir:          defaultRecordingDir,
			MetadataFile:          defaultMetadataFile,
			ActionsSubdir:         defaultActionsSubdir,
			OutputDir:             defaultOutputDir,
			ActionDataDir:         defaultActionDataDir,
			NormalizedDataDir:     defaultNormalizedDataDir,
			CombinedDir:           defaultCombinedDir,
			CombinedNormalizedDir: defaultCombinedNormalizedDir,
			LogDir:                defaultLogDir,
		},
		Recording: Recording{
			FrameCountField: "num_images",
		},
		Assembly: Assembly{
			RawVelocity: defaultRawVelocity,
		},
		Generation: Generation{
			Python:             defaultPython,
			GenerateScript:     defaultGenerateScript,
			VisualizeScript:    defaultVisualizeScript,
			EvaluateScript:     defaultEvaluateScript,
			CheckpointDir:      defaultCheckpointDir,
			OutputDir:          defaultGenerationOutputDir,
			End:                defaultGenerationEnd,
			Step:               defaultGenerationStep,
			MaskgitSteps:       defaultMaskgitSteps,
			CUDAVisibleDevices: defaultCUDAVisibleDevices,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Preflight: Preflight{
			MinFreeMiB: defaultMinFreeMiB,
		},
	}
}
