// Package preflight provides readiness checks for the filesystem paths and
// external binaries actionprep depends on.
//
// The pipeline calls RunAll before it takes the output lock; any failed check
// aborts the run before a single artifact is written. The generate command
// uses CheckGenerationDeps to confirm the Python interpreter is on PATH.
package preflight
