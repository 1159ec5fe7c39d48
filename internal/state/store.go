// Package state persists evaluation runs and their per-pair results in
// SQLite.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
)

// ErrNotOpened is returned by a store used before Open.
var ErrNotOpened = errors.New("database not opened")

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one stored evaluation.
type Run struct {
	ID          string     `json:"id"`
	Corpus      string     `json:"corpus"`
	EvalType    string     `json:"etype"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Pairs       int        `json:"pairs"`
	Exact       float64    `json:"exact"`
	Exec        float64    `json:"exec"`
	// Levels is the per-level summary of a completed run.
	Levels []bench.LevelSummary `json:"levels,omitempty"`
}

// PairRecord is a stored pair result.
type PairRecord struct {
	RunID string `json:"run_id"`
	bench.PairResult
}

// Store is the persistence interface used by the CLI.
type Store interface {
	CreateRun(ctx context.Context, corpus string, etype bench.EvalType) (*Run, error)
	CompleteRun(ctx context.Context, id string, report *bench.Report, runErr error) error
	SavePairResults(ctx context.Context, runID string, pairs []bench.PairResult) error
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	GetPairResults(ctx context.Context, runID string) ([]PairRecord, error)
	Close() error
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var _ Store = (*SQLiteStore)(nil)
