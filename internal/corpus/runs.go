package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"icokit/internal/pipeline"
	"icokit/internal/services"
)

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunInterrupted RunStatus = "interrupted"
	RunFailed      RunStatus = "failed"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID         string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt *time.Time
	Items      int
	Failed     int
	Tokens     int
	Vocabulary int
	MinFreq    int
	MinLength  int
	Error      string
}

// Duration returns the wall time of a finished run, or zero.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StartRun records a new running run with a fresh id.
func (s *Store) StartRun(ctx context.Context, minFreq, minLength int) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
		MinFreq:   minFreq,
		MinLength: minLength,
	}
	if _, err := s.execWithRetry(ctx,
		"INSERT INTO runs (id, status, started_at, min_freq, min_length) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.Status, run.StartedAt.Format(time.RFC3339Nano), minFreq, minLength,
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun closes a run with its summary. runErr, when set, decides between
// the interrupted and failed states.
func (s *Store) FinishRun(ctx context.Context, runID string, summary pipeline.Summary, runErr error) error {
	status := RunCompleted
	var errText string
	if runErr != nil {
		status = RunFailed
		if services.IsInterrupt(runErr) {
			status = RunInterrupted
		}
		errText = runErr.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, items = ?, failed = ?, tokens = ?, vocabulary = ?, error = ?
        WHERE id = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		summary.Items,
		summary.Failed,
		summary.Tokens,
		summary.Vocabulary,
		nullableString(errText),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.Wrap(services.ErrNotFound, "corpus", "finish run", fmt.Sprintf("run %q", runID), nil)
	}
	return nil
}

// GetRun returns one run. Unknown ids wrap services.ErrNotFound.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+runColumns+" FROM runs WHERE id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "corpus", "get run", fmt.Sprintf("run %q", runID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// Runs returns recorded runs, newest first. A limit of zero returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY rowid DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

const runColumns = `id, status, started_at, finished_at, items, failed, tokens, vocabulary, min_freq, min_length, error`

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run                 Run
		status, startedAt   string
		finishedAt, errText sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&status,
		&startedAt,
		&finishedAt,
		&run.Items,
		&run.Failed,
		&run.Tokens,
		&run.Vocabulary,
		&run.MinFreq,
		&run.MinLength,
		&errText,
	); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.Error = errText.String
	if ts, err := parseTimeString(startedAt); err == nil {
		run.StartedAt = ts
	}
	if finishedAt.Valid {
		if ts, err := parseTimeString(finishedAt.String); err == nil {
			run.FinishedAt = &ts
		}
	}
	return &run, nil
}
