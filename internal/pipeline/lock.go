package pipeline

import (
	"path/filepath"

	"github.com/gofrs/flock"

	"actionprep/internal/faults"
)

// LockFileName is created inside the output directory while a run writes to it.
const LockFileName = ".actionprep.lock"

// acquireLock takes the exclusive output lock without blocking.
func acquireLock(outputDir string) (*flock.Flock, error) {
	lockPath := filepath.Join(outputDir, LockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, faults.Wrap(faults.ErrOutput, "pipeline", "lock", lockPath, err)
	}
	if !ok {
		return nil, faults.Wrap(faults.ErrLocked, "pipeline", "lock", "another actionprep run is writing to "+outputDir, nil)
	}
	return lock, nil
}
