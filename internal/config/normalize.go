package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRecording()
	c.normalizeAssembly()
	if err := c.normalizeGeneration(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("ACTIONPREP_RECORDING_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.RecordingDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("ACTIONPREP_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = strings.TrimSpace(value)
	}

	var err error
	if strings.TrimSpace(c.Paths.RecordingDir) == "" {
		c.Paths.RecordingDir = defaultRecordingDir
	}
	if c.Paths.RecordingDir, err = expandPath(c.Paths.RecordingDir); err != nil {
		return fmt.Errorf("paths.recording_dir: %w", err)
	}
	c.Paths.MetadataFile = strings.TrimSpace(c.Paths.MetadataFile)
	if c.Paths.MetadataFile == "" {
		c.Paths.MetadataFile = defaultMetadataFile
	}
	c.Paths.ActionsSubdir = strings.TrimSpace(c.Paths.ActionsSubdir)
	if c.Paths.ActionsSubdir == "" {
		c.Paths.ActionsSubdir = defaultActionsSubdir
	}

	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}

	outputs := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.action_data_dir", &c.Paths.ActionDataDir, defaultActionDataDir},
		{"paths.normalized_data_dir", &c.Paths.NormalizedDataDir, defaultNormalizedDataDir},
		{"paths.combined_dir", &c.Paths.CombinedDir, defaultCombinedDir},
		{"paths.combined_normalized_dir", &c.Paths.CombinedNormalizedDir, defaultCombinedNormalizedDir},
	}
	for _, out := range outputs {
		if strings.TrimSpace(*out.value) == "" {
			*out.value = out.fallback
		}
		if *out.value, err = resolveUnder(c.Paths.OutputDir, *out.value); err != nil {
			return fmt.Errorf("%s: %w", out.key, err)
		}
	}

	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		c.Paths.LedgerPath = filepath.Join(c.Paths.LogDir, defaultLedgerName)
	}
	if c.Paths.LedgerPath, err = resolveUnder(c.Paths.LogDir, c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeRecording() {
	c.Recording.FrameCountField = strings.TrimSpace(c.Recording.FrameCountField)
	if c.Recording.FrameCountField == "" {
		c.Recording.FrameCountField = "num_images"
	}
}

func (c *Config) normalizeAssembly() {
	c.Assembly.RawVelocity = strings.ToLower(strings.TrimSpace(c.Assembly.RawVelocity))
	if c.Assembly.RawVelocity == "" {
		c.Assembly.RawVelocity = defaultRawVelocity
	}
}

func (c *Config) normalizeGeneration() error {
	g := &c.Generation
	g.Python = strings.TrimSpace(g.Python)
	if g.Python == "" {
		g.Python = defaultPython
	}
	g.GenerateScript = strings.TrimSpace(g.GenerateScript)
	g.VisualizeScript = strings.TrimSpace(g.VisualizeScript)
	g.EvaluateScript = strings.TrimSpace(g.EvaluateScript)
	// checkpoint_dir may be a hub identifier rather than a local path.
	g.CheckpointDir = strings.TrimSpace(g.CheckpointDir)
	g.CUDAVisibleDevices = strings.TrimSpace(g.CUDAVisibleDevices)

	var err error
	if strings.TrimSpace(g.WorkDir) != "" {
		if g.WorkDir, err = expandPath(g.WorkDir); err != nil {
			return fmt.Errorf("generation.work_dir: %w", err)
		}
	}
	if strings.TrimSpace(g.OutputDir) == "" {
		g.OutputDir = defaultGenerationOutputDir
	}
	base := g.WorkDir
	if base == "" {
		if base, err = os.Getwd(); err != nil {
			return fmt.Errorf("generation.output_dir: %w", err)
		}
	}
	if g.OutputDir, err = resolveUnder(base, g.OutputDir); err != nil {
		return fmt.Errorf("generation.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
