package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
)

// CreateRun records a new running evaluation.
func (s *SQLiteStore) CreateRun(ctx context.Context, corpus string, etype bench.EvalType) (*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	run := &Run{
		ID:        generateID(),
		Corpus:    corpus,
		EvalType:  string(etype),
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("corpus", corpus))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, corpus, etype, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Corpus, run.EvalType, run.Status, formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun closes a run. A nil runErr marks it completed with the
// report's overall scores; otherwise it is marked failed.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, report *bench.Report, runErr error) error {
	if s.db == nil {
		return ErrNotOpened
	}

	status := RunStatusCompleted
	var errMsg sql.NullString
	if runErr != nil {
		status = RunStatusFailed
		errMsg = sql.NullString{String: runErr.Error(), Valid: true}
	}

	var (
		pairs       int
		exact, exec float64
		summary     sql.NullString
	)
	if report != nil {
		if all, ok := report.Level(bench.LevelAll); ok {
			pairs, exact, exec = all.Count, all.Exact, all.Exec
		}
		js, err := marshalJSON(report.Levels)
		if err != nil {
			return fmt.Errorf("failed to encode run summary: %w", err)
		}
		summary = sql.NullString{String: js, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, completed_at = ?, error = ?, pairs = ?, exact = ?, exec = ?, summary = ?
		WHERE id = ?`,
		status, formatTime(time.Now()), errMsg, pairs, exact, exec, summary, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

const runColumns = `id, corpus, etype, status, started_at, completed_at, error, pairs, exact, exec, summary`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run               Run
		started           string
		completed, errMsg sql.NullString
		summary           sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Corpus, &run.EvalType, &run.Status, &started,
		&completed, &errMsg, &run.Pairs, &run.Exact, &run.Exec, &summary); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, fmt.Errorf("bad started_at for run %s: %w", run.ID, err)
	}
	if completed.Valid {
		t, err := parseTime(completed.String)
		if err != nil {
			return nil, fmt.Errorf("bad completed_at for run %s: %w", run.ID, err)
		}
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	if summary.Valid {
		if err := json.Unmarshal([]byte(summary.String), &run.Levels); err != nil {
			return nil, fmt.Errorf("bad summary for run %s: %w", run.ID, err)
		}
	}
	return &run, nil
}

// GetRun retrieves a run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
