package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
)

// SavePairResults stores every pair of a run in one transaction. Saving a
// pair again replaces it.
func (s *SQLiteStore) SavePairResults(ctx context.Context, runID string, pairs []bench.PairResult) (err error) {
	if s.db == nil {
		return ErrNotOpened
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO pair_results
			(run_id, case_id, db_id, hardness, exact, exec_match, pred_error, skipped, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range pairs {
		p := &pairs[i]
		detail, err := marshalJSON(p)
		if err != nil {
			return fmt.Errorf("failed to encode pair %s: %w", p.ID, err)
		}
		var execMatch sql.NullBool
		if p.Exec != nil {
			execMatch = sql.NullBool{Bool: p.Exec.Match, Valid: true}
		}
		var predErr sql.NullString
		if p.PredError != "" {
			predErr = sql.NullString{String: p.PredError, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, runID, p.ID, p.DB, p.Hardness.String(), p.Exact,
			execMatch, predErr, p.Skipped, detail); err != nil {
			return fmt.Errorf("failed to save pair %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pair results: %w", err)
	}
	s.logger.Debug("saved pair results", slog.String("run", runID), slog.Int("pairs", len(pairs)))
	return nil
}

// GetPairResults returns the stored pairs of a run ordered by case id.
func (s *SQLiteStore) GetPairResults(ctx context.Context, runID string) ([]PairRecord, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT detail FROM pair_results WHERE run_id = ? ORDER BY case_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pair results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []PairRecord
	for rows.Next() {
		var detail string
		if err := rows.Scan(&detail); err != nil {
			return nil, fmt.Errorf("failed to scan pair result: %w", err)
		}
		rec := PairRecord{RunID: runID}
		if err := json.Unmarshal([]byte(detail), &rec.PairResult); err != nil {
			return nil, fmt.Errorf("failed to decode pair result: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
