package ledger

import "time"

// Run is one pipeline invocation.
type Run struct {
	ID              string
	RecordingDir    string
	OutputDir       string
	NumFrames       int
	NormalizeJoints bool
	RawVelocity     string
	Status          string
	ErrorMessage    string
	Fingerprint     string
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Duration returns the wall time of a finished run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Artifact is one file, or one frame directory summary, produced by a run.
type Artifact struct {
	Kind   string
	Name   string
	Bytes  int64
	SHA256 string
}
