package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAssembly(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Preflight.MinFreeMiB < 0 {
		return errors.New("preflight.min_free_mib must be >= 0")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.RecordingDir) == "" {
		return errors.New("paths.recording_dir must be set")
	}
	seen := make(map[string]string, 4)
	keys := []string{"paths.action_data_dir", "paths.normalized_data_dir", "paths.combined_dir", "paths.combined_normalized_dir"}
	for i, dir := range c.OutputDirs() {
		if prev, ok := seen[dir]; ok {
			return fmt.Errorf("%s must differ from %s (both %q)", keys[i], prev, dir)
		}
		seen[dir] = keys[i]
	}
	return nil
}

func (c *Config) validateAssembly() error {
	switch c.Assembly.RawVelocity {
	case RawVelocityValue, RawVelocitySign:
	default:
		return fmt.Errorf("assembly.raw_velocity must be %q or %q, got %q", RawVelocityValue, RawVelocitySign, c.Assembly.RawVelocity)
	}
	if c.Assembly.Workers < 0 {
		return errors.New("assembly.workers must be >= 0")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	g := c.Generation
	if g.Step <= 0 {
		return errors.New("generation.step must be positive")
	}
	if g.Start < 0 {
		return errors.New("generation.start must be >= 0")
	}
	if g.End < g.Start {
		return errors.New("generation.end must be >= generation.start")
	}
	if g.MaskgitSteps <= 0 {
		return errors.New("generation.maskgit_steps must be positive")
	}
	if g.Temperature < 0 {
		return errors.New("generation.temperature must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
