// Package config loads, normalizes, and validates actionprep configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// ACTIONPREP_RECORDING_DIR. Output directory names are anchored under
// paths.output_dir so a single setting relocates the whole artifact tree.
//
// Always obtain settings through this package so downstream code receives
// absolute paths and clear validation errors.
package config
