package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"actionprep/internal/faults"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, recording_dir, output_dir, num_frames, normalize_joints, raw_velocity, status, error_message, fingerprint, started_at, finished_at"

// Begin inserts a running entry and returns it with a fresh run ID.
func (s *Store) Begin(ctx context.Context, run Run) (Run, error) {
	run.ID = uuid.NewString()
	run.Status = faults.StatusRunning
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, recording_dir, output_dir, num_frames, normalize_joints, raw_velocity, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.RecordingDir,
		run.OutputDir,
		run.NumFrames,
		boolToInt(run.NormalizeJoints),
		run.RawVelocity,
		run.Status,
		run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// SetFrames records the frame count once metadata has been read.
func (s *Store) SetFrames(ctx context.Context, runID string, frames int) error {
	if _, err := s.exec(ctx, "UPDATE runs SET num_frames = ? WHERE id = ?", frames, runID); err != nil {
		return fmt.Errorf("update run frames: %w", err)
	}
	return nil
}

// AddArtifacts stores artifact digests for a run in a single transaction.
func (s *Store) AddArtifacts(ctx context.Context, runID string, artifacts []Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin artifacts tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx,
			"INSERT OR REPLACE INTO artifacts (run_id, kind, name, bytes, sha256) VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("prepare artifact insert: %w", err)
		}
		defer stmt.Close()

		for _, art := range artifacts {
			if _, err := stmt.ExecContext(ctx, runID, art.Kind, art.Name, art.Bytes, art.SHA256); err != nil {
				return fmt.Errorf("insert artifact %s: %w", art.Name, err)
			}
		}
		return tx.Commit()
	})
}

// Finish marks a run as ended. The status is derived from runErr and the run
// fingerprint is computed from the recorded artifact digests.
func (s *Store) Finish(ctx context.Context, runID string, runErr error) (Run, error) {
	status := faults.RunStatus(runErr)
	var message any
	if runErr != nil {
		message = runErr.Error()
	}

	var fingerprint any
	if runErr == nil {
		artifacts, err := s.Artifacts(ctx, runID)
		if err != nil {
			return Run{}, err
		}
		fingerprint = Fingerprint(artifacts)
	}

	_, err := s.exec(ctx,
		"UPDATE runs SET status = ?, error_message = ?, fingerprint = ?, finished_at = ? WHERE id = ?",
		status, message, fingerprint, time.Now().UTC().Format(timeLayout), runID,
	)
	if err != nil {
		return Run{}, fmt.Errorf("finish run: %w", err)
	}
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return Run{}, err
	}
	if run == nil {
		return Run{}, fmt.Errorf("finish run: run %s not found", runID)
	}
	return *run, nil
}

// GetRun returns a run by ID, or nil when it does not exist.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// PreviousCompleted returns the latest completed run over the same recording
// and options that started before the given run, or nil.
func (s *Store) PreviousCompleted(ctx context.Context, run Run) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+` FROM runs
         WHERE recording_dir = ? AND normalize_joints = ? AND raw_velocity = ? AND status = ? AND id <> ? AND started_at <= ?
         ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		run.RecordingDir, boolToInt(run.NormalizeJoints), run.RawVelocity, faults.StatusCompleted, run.ID,
		run.StartedAt.UTC().Format(timeLayout),
	)
	prev, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("previous run: %w", err)
	}
	return prev, nil
}

// Artifacts lists a run's artifacts ordered by kind and name.
func (s *Store) Artifacts(ctx context.Context, runID string) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT kind, name, bytes, sha256 FROM artifacts WHERE run_id = ? ORDER BY kind, name", runID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var art Artifact
		if err := rows.Scan(&art.Kind, &art.Name, &art.Bytes, &art.SHA256); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		out = append(out, art)
	}
	return out, rows.Err()
}

// Fingerprint hashes artifact kinds, names, and digests in a stable order.
func Fingerprint(artifacts []Artifact) string {
	sorted := append([]Artifact(nil), artifacts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Kind != sorted[j].Kind {
			return sorted[i].Kind < sorted[j].Kind
		}
		return sorted[i].Name < sorted[j].Name
	})
	hasher := sha256.New()
	for _, art := range sorted {
		fmt.Fprintf(hasher, "%s\x00%s\x00%s\n", art.Kind, art.Name, art.SHA256)
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run             Run
		normalizeJoints int
		errorMessage    sql.NullString
		fingerprint     sql.NullString
		startedRaw      string
		finishedRaw     sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.RecordingDir,
		&run.OutputDir,
		&run.NumFrames,
		&normalizeJoints,
		&run.RawVelocity,
		&run.Status,
		&errorMessage,
		&fingerprint,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.NormalizeJoints = normalizeJoints != 0
	run.ErrorMessage = errorMessage.String
	run.Fingerprint = fingerprint.String
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	return &run, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
