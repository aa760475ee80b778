package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMetadata      = errors.New("metadata error")
	ErrDecode        = errors.New("decode error")
	ErrOutput        = errors.New("output error")
	ErrConfiguration = errors.New("configuration error")
	ErrExternalTool  = errors.New("external tool error")
	ErrLocked        = errors.New("output directory locked")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrOutput
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Run statuses persisted by the run ledger.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRejected  = "rejected"
)

// RunStatus maps a pipeline error to the status recorded for the run. Errors in
// the inputs or configuration reject the run; everything else is a failure.
func RunStatus(err error) string {
	switch {
	case err == nil:
		return StatusCompleted
	case errors.Is(err, ErrMetadata), errors.Is(err, ErrDecode), errors.Is(err, ErrConfiguration):
		return StatusRejected
	default:
		return StatusFailed
	}
}

// ExitCode maps an error to the process exit code used by the CLI.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfiguration):
		return 2
	case errors.Is(err, ErrMetadata):
		return 3
	case errors.Is(err, ErrDecode):
		return 4
	case errors.Is(err, ErrOutput):
		return 5
	case errors.Is(err, ErrExternalTool):
		return 6
	case errors.Is(err, ErrLocked):
		return 7
	default:
		return 1
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
