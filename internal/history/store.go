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

	_ "modernc.org/sqlite"

	"storyvideo/internal/config"
	"storyvideo/internal/services"
)

// Status is the lifecycle state of a journaled run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Run is one journal entry.
type Run struct {
	ID                string
	AudioPath         string
	ImagesDir         string
	OutputPath        string
	Style             string
	Status            Status
	FailureKind       string
	ErrorMessage      string
	SegmentCount      int
	ImagesUsed        int
	UniqueImages      int
	OracleAccepted    int
	Fallbacks         int
	AverageConfidence float64
	DurationSeconds   float64
	StartedAt         time.Time
	FinishedAt        time.Time
}

// Elapsed returns the wall time of a finished run.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is recorded when a run ends.
type Outcome struct {
	Err               error
	SegmentCount      int
	ImagesUsed        int
	UniqueImages      int
	OracleAccepted    int
	Fallbacks         int
	AverageConfidence float64
	DurationSeconds   float64
}

// Store manages the run journal backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal at cfg.History.Path.
func Open(cfg *config.Config) (*Store, error) {
	dbPath := strings.TrimSpace(cfg.History.Path)
	if dbPath == "" {
		return nil, services.Wrap(services.ErrConfiguration, "history", "open", "history.path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Begin records a new running entry.
func (s *Store) Begin(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("history: run id required")
	}
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, audio_path, images_dir, output_path, style, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.AudioPath,
		run.ImagesDir,
		nullableString(run.OutputPath),
		nullableString(run.Style),
		StatusRunning,
		started.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Finish closes a running entry with its outcome.
func (s *Store) Finish(ctx context.Context, id string, outcome Outcome) error {
	status := StatusSucceeded
	kind := services.FailureKind(outcome.Err)
	message := ""
	switch {
	case outcome.Err == nil:
	case services.IsCanceled(outcome.Err):
		status = StatusCanceled
		message = outcome.Err.Error()
	default:
		status = StatusFailed
		message = outcome.Err.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, failure_kind = ?, error_message = ?,
            segment_count = ?, images_used = ?, unique_images = ?,
            oracle_accepted = ?, fallbacks = ?, average_confidence = ?,
            duration_seconds = ?, finished_at = ?
         WHERE id = ?`,
		status,
		kind,
		nullableString(message),
		outcome.SegmentCount,
		outcome.ImagesUsed,
		outcome.UniqueImages,
		outcome.OracleAccepted,
		outcome.Fallbacks,
		outcome.AverageConfidence,
		outcome.DurationSeconds,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.Wrap(services.ErrNotFound, "history", "finish", "unknown run "+id, nil)
	}
	return nil
}

// Get fetches one run.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "history", "get", "unknown run "+id, nil)
	}
	return run, err
}

// List returns the most recent runs first. A limit <= 0 returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
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
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// MarkInterrupted fails every entry still marked running. Callers must know
// no other process is mid-run against the same journal.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, failure_kind = 'interrupted',
            error_message = 'process exited before the run finished', finished_at = ?
         WHERE status = ?`,
		StatusFailed,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

// Stats counts runs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const runColumns = "id, audio_path, images_dir, output_path, style, status, failure_kind, error_message, segment_count, images_used, unique_images, oracle_accepted, fallbacks, average_confidence, duration_seconds, started_at, finished_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		outputPath  sql.NullString
		style       sql.NullString
		status      string
		failureKind sql.NullString
		errorMsg    sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.AudioPath,
		&run.ImagesDir,
		&outputPath,
		&style,
		&status,
		&failureKind,
		&errorMsg,
		&run.SegmentCount,
		&run.ImagesUsed,
		&run.UniqueImages,
		&run.OracleAccepted,
		&run.Fallbacks,
		&run.AverageConfidence,
		&run.DurationSeconds,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.OutputPath = outputPath.String
	run.Style = style.String
	run.Status = Status(status)
	run.FailureKind = failureKind.String
	run.ErrorMessage = errorMsg.String
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	return &run, nil
}

func parseTime(raw string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
