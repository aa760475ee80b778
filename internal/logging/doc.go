// Package logging builds the slog loggers used across actionprep.
//
// Two formats are supported: a compact console format that prefixes the
// component name, and JSON with ts/level/msg keys for machine consumption.
// Debug level adds file:line sources. Use NewComponentLogger to tag a
// subsystem and the Field* constants for shared keys.
package logging
