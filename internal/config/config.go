package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"actionprep/internal/faults"
	"actionprep/internal/recording"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input recording and output tree locations.
type Paths struct {
	RecordingDir          string `toml:"recording_dir"`
	MetadataFile          string `toml:"metadata_file"`
	ActionsSubdir         string `toml:"actions_subdir"`
	OutputDir             string `toml:"output_dir"`
	ActionDataDir         string `toml:"action_data_dir"`
	NormalizedDataDir     string `toml:"normalized_data_dir"`
	CombinedDir           string `toml:"combined_dir"`
	CombinedNormalizedDir string `toml:"combined_normalized_dir"`
	LogDir                string `toml:"log_dir"`
	LedgerPath            string `toml:"ledger_path"`
}

// Recording contains descriptor parsing options.
type Recording struct {
	FrameCountField string `toml:"frame_count_field"`
}

// Assembly controls how per-frame vectors are built.
type Assembly struct {
	// NormalizeJoints places normalized joint sign-changes in the normalized
	// vectors instead of the raw sign-changes.
	NormalizeJoints bool `toml:"normalize_joints"`
	// RawVelocity selects what raw vectors carry in the velocity slots:
	// "value" for the decoded command, "sign" for its sign-change.
	RawVelocity string `toml:"raw_velocity"`
	// Workers is the number of frame assembly goroutines. 0 uses every CPU.
	Workers int `toml:"workers"`
}

// Generation contains settings for the external generation/evaluation loop.
type Generation struct {
	Python             string  `toml:"python"`
	WorkDir            string  `toml:"work_dir"`
	GenerateScript     string  `toml:"generate_script"`
	VisualizeScript    string  `toml:"visualize_script"`
	EvaluateScript     string  `toml:"evaluate_script"`
	CheckpointDir      string  `toml:"checkpoint_dir"`
	OutputDir          string  `toml:"output_dir"`
	Start              int     `toml:"start"`
	End                int     `toml:"end"`
	Step               int     `toml:"step"`
	MaskgitSteps       int     `toml:"maskgit_steps"`
	Temperature        float64 `toml:"temperature"`
	CUDAVisibleDevices string  `toml:"cuda_visible_devices"`
	SkipEvaluate       bool    `toml:"skip_evaluate"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Preflight contains checks performed before a run writes anything.
type Preflight struct {
	MinFreeMiB int `toml:"min_free_mib"`
}

// Config encapsulates all configuration values for actionprep.
//
// Configuration sections by subsystem:
//   - Paths: recording input and output tree locations
//   - Recording: descriptor parsing
//   - Assembly: frame vector options and worker count
//   - Generation: external generation/evaluation loop
//   - Logging: log format and level
//   - Preflight: free space requirements
type Config struct {
	Paths      Paths      `toml:"paths"`
	Recording  Recording  `toml:"recording"`
	Assembly   Assembly   `toml:"assembly"`
	Generation Generation `toml:"generation"`
	Logging    Logging    `toml:"logging"`
	Preflight  Preflight  `toml:"preflight"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Failures are tagged with faults.ErrConfiguration.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, faults.Wrap(faults.ErrConfiguration, "config", "resolve", "", err)
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, faults.Wrap(faults.ErrConfiguration, "config", "open", resolvedPath, err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, faults.Wrap(faults.ErrConfiguration, "config", "parse", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, faults.Wrap(faults.ErrConfiguration, "config", "normalize", "", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, faults.Wrap(faults.ErrConfiguration, "config", "validate", "", err)
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// RecordingLayout describes where the input recording lives.
func (c *Config) RecordingLayout() recording.Layout {
	return recording.Layout{
		Dir:           c.Paths.RecordingDir,
		MetadataFile:  c.Paths.MetadataFile,
		ActionsSubdir: c.Paths.ActionsSubdir,
	}
}

// OutputDirs returns the four artifact directories in creation order.
func (c *Config) OutputDirs() []string {
	return []string{
		c.Paths.ActionDataDir,
		c.Paths.NormalizedDataDir,
		c.Paths.CombinedDir,
		c.Paths.CombinedNormalizedDir,
	}
}

// SetRecordingDir points the config at another recording.
func (c *Config) SetRecordingDir(dir string) error {
	expanded, err := expandPath(strings.TrimSpace(dir))
	if err != nil {
		return faults.Wrap(faults.ErrConfiguration, "config", "recording dir", dir, err)
	}
	if expanded == "" {
		return faults.Wrap(faults.ErrConfiguration, "config", "recording dir", "path is empty", nil)
	}
	c.Paths.RecordingDir = expanded
	return nil
}

// SetOutputDir moves the output tree. Artifact directories that lived under
// the previous output directory move with it; ones configured elsewhere stay.
func (c *Config) SetOutputDir(dir string) error {
	expanded, err := expandPath(strings.TrimSpace(dir))
	if err != nil {
		return faults.Wrap(faults.ErrConfiguration, "config", "output dir", dir, err)
	}
	if expanded == "" {
		return faults.Wrap(faults.ErrConfiguration, "config", "output dir", "path is empty", nil)
	}
	previous := c.Paths.OutputDir
	for _, target := range []*string{
		&c.Paths.ActionDataDir,
		&c.Paths.NormalizedDataDir,
		&c.Paths.CombinedDir,
		&c.Paths.CombinedNormalizedDir,
	} {
		if !Within(previous, *target) {
			continue
		}
		rel, _ := filepath.Rel(previous, *target)
		*target = filepath.Join(expanded, rel)
	}
	c.Paths.OutputDir = expanded
	return c.Validate()
}

// Within reports whether path is base or lies beneath it. Both paths are
// compared lexically, so /data/out-frames is not within /data/out.
func Within(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// EnsureDirectories creates the output tree and log directory.
func (c *Config) EnsureDirectories() error {
	dirs := append([]string{c.Paths.OutputDir, c.Paths.LogDir}, c.OutputDirs()...)
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Paths.LedgerPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger directory %q: %w", dir, err)
		}
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() (string, error) {
	payload, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(payload), nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// resolveUnder expands value, anchoring relative paths at base.
func resolveUnder(base, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || filepath.IsAbs(value) || strings.HasPrefix(value, "~") {
		return expandPath(value)
	}
	return expandPath(filepath.Join(base, value))
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
