package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound reports an unknown run identifier.
	ErrNotFound = errors.New("history: run not found")
	// ErrAmbiguous reports an identifier prefix matching several runs.
	ErrAmbiguous = errors.New("history: run prefix is ambiguous")
)

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or connects to the history database at path and applies
// migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Connection pragmas below only hold for the connection they ran on.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin records a new running entry and returns it with a fresh ID.
func (s *Store) Begin(ctx context.Context, kind Kind, input, output string, threshold float64) (Run, error) {
	run := Run{
		ID:         uuid.NewString(),
		Kind:       kind,
		InputPath:  input,
		OutputPath: output,
		Threshold:  threshold,
		Status:     StatusRunning,
		StartedAt:  s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, input_path, output_path, threshold, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), run.InputPath, nullableString(run.OutputPath), run.Threshold,
		string(run.Status), run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish stores the totals of a run and marks it succeeded or failed.
func (s *Store) Finish(ctx context.Context, id string, out Outcome) error {
	status := StatusSucceeded
	var message any
	if out.Err != nil {
		status = StatusFailed
		message = out.Err.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, frames = ?, original = ?, interpolated = ?,
            mean_diff = ?, max_diff = ?, error_message = ?, finished_at = ?
         WHERE id = ?`,
		string(status), out.Frames, out.Original, out.Interpolated,
		out.MeanDiff, out.MaxDiff, message, s.now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// RecordFrames stores per-frame decisions for run id in one transaction.
func (s *Store) RecordFrames(ctx context.Context, id string, frames []FrameRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin frames tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO run_frames (run_id, frame_index, diff, decision) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare frame insert: %w", err)
	}
	defer stmt.Close()
	for _, f := range frames {
		if _, err := stmt.ExecContext(ctx, id, f.Index, f.Diff, f.Decision); err != nil {
			return fmt.Errorf("insert frame %d: %w", f.Index, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit frames: %w", err)
	}
	return nil
}

const runColumns = `id, kind, input_path, output_path, threshold, status, frames, original,
    interpolated, mean_diff, max_diff, error_message, started_at, finished_at`

// List returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC"
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
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the run whose ID equals or uniquely starts with idOrPrefix.
func (s *Store) Get(ctx context.Context, idOrPrefix string) (Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return Run{}, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2",
		idOrPrefix, stripLikeWildcards(idOrPrefix)+"%")
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == idOrPrefix {
			return run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(found) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	case 1:
		return found[0], nil
	default:
		return Run{}, fmt.Errorf("%w: %s", ErrAmbiguous, idOrPrefix)
	}
}

// Frames returns the stored decisions of run id ordered by index. When
// decision is non-empty only matching frames are returned.
func (s *Store) Frames(ctx context.Context, id, decision string) ([]FrameRecord, error) {
	query := "SELECT frame_index, diff, decision FROM run_frames WHERE run_id = ?"
	args := []any{id}
	if decision != "" {
		query += " AND decision = ?"
		args = append(args, decision)
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY frame_index", args...)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	defer rows.Close()

	var frames []FrameRecord
	for rows.Next() {
		var f FrameRecord
		if err := rows.Scan(&f.Index, &f.Diff, &f.Decision); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// Delete removes a run and its frames.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		kind       string
		status     string
		output     sql.NullString
		message    sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&run.ID, &kind, &run.InputPath, &output, &run.Threshold, &status,
		&run.Frames, &run.Original, &run.Interpolated, &run.MeanDiff, &run.MaxDiff,
		&message, &startedAt, &finishedAt); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Kind = Kind(kind)
	run.Status = Status(status)
	run.OutputPath = output.String
	run.Error = message.String
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTime(finishedAt.String)
	}
	return run, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func stripLikeWildcards(value string) string {
	return strings.NewReplacer(`%`, ``, `_`, ``).Replace(value)
}
