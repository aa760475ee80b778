package assemble

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"

	"actionprep/internal/logging"
	"actionprep/internal/npystore"
)

// FrameSet summarizes the vectors written for one flavor. Digest is the
// SHA-256 over the per-frame file digests in frame order.
type FrameSet struct {
	Flavor Flavor
	Dir    string
	Count  int
	Bytes  int64
	Digest string
}

// Kind returns the ledger artifact kind for the flavor.
func (s FrameSet) Kind() string {
	if s.Flavor == FlavorNormalized {
		return npystore.KindFrameNormalized
	}
	return npystore.KindFrameRaw
}

// WriteFrames persists one vector per frame into dir, fanning the frames out
// across the configured number of workers. The first failure cancels the
// remaining frames and is returned. progress, when non-nil, is called once per
// written frame and may be called from several goroutines.
func (a *Assembler) WriteFrames(ctx context.Context, flavor Flavor, dir string, logger *slog.Logger, progress func()) (FrameSet, error) {
	if err := ctx.Err(); err != nil {
		return FrameSet{}, err
	}
	logger = logging.NewComponentLogger(logger, "assemble")
	frames := a.ch.NumFrames
	digits := npystore.FrameDigits(frames)
	kind := FrameSet{Flavor: flavor}.Kind()

	workers := a.opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > frames {
		workers = frames
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	digests := make([]string, frames)
	sizes := make([]int64, frames)
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				name := npystore.FrameName(f, digits, flavor == FlavorNormalized)
				art, err := npystore.WriteArray(dir, kind, name, a.Vector(flavor, f))
				if err != nil {
					fail(err)
					return
				}
				digests[f] = art.SHA256
				sizes[f] = art.Bytes
				if progress != nil {
					progress()
				}
			}
		}()
	}

feed:
	for f := 0; f < frames; f++ {
		select {
		case jobs <- f:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return FrameSet{}, firstErr
	}
	if err := ctx.Err(); err != nil {
		return FrameSet{}, err
	}

	set := FrameSet{Flavor: flavor, Dir: dir, Count: frames}
	hasher := sha256.New()
	for f := range digests {
		hasher.Write([]byte(digests[f]))
		set.Bytes += sizes[f]
	}
	set.Digest = hex.EncodeToString(hasher.Sum(nil))

	logger.Debug("frame vectors written",
		logging.String("flavor", flavor.String()),
		logging.Int("frames", frames),
		logging.Int("workers", workers),
		logging.String("dir", dir),
	)
	return set, nil
}
