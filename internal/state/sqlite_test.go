package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
	"github.com/leapstack-labs/sqlmatch/internal/testutil"
	"github.com/leapstack-labs/sqlmatch/pkg/eval"
	"github.com/leapstack-labs/sqlmatch/pkg/hardness"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(context.Background(), ":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func samplePairs() []bench.PairResult {
	return []bench.PairResult{
		{
			ID:       "1",
			DB:       "world",
			Gold:     "SELECT name FROM city",
			Hardness: hardness.Easy,
			Exact:    true,
			Scores:   map[eval.Component]eval.Score{eval.Select: eval.Perfect(1, 1)},
			Exec:     &bench.ExecResult{Match: true},
		},
		{
			ID:        "2",
			DB:        "world",
			Gold:      "SELECT name, population FROM city ORDER BY population",
			Hardness:  hardness.Medium,
			PredError: "parse error at token 3: unexpected end of query, expected table",
		},
	}
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	version, err := store.MigrationVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// migrating twice is a no-op
	require.NoError(t, store.Migrate(ctx))

	for _, table := range []string{"runs", "pair_results"} {
		rows, err := store.db.QueryContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1")
		require.NoError(t, err, "table %s", table)
		_ = rows.Close()
	}
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, "dev.yaml", bench.EvalAll)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	pairs := samplePairs()
	report := bench.NewReport(bench.EvalAll, pairs)
	require.NoError(t, store.SavePairResults(ctx, run.ID, pairs))
	require.NoError(t, store.CompleteRun(ctx, run.ID, report, nil))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	assert.Equal(t, "dev.yaml", got.Corpus)
	assert.Equal(t, "all", got.EvalType)
	require.NotNil(t, got.CompletedAt)
	assert.False(t, got.CompletedAt.Before(got.StartedAt))
	assert.Equal(t, 2, got.Pairs)
	assert.InDelta(t, 0.5, got.Exact, 1e-9)
	assert.InDelta(t, 1.0, got.Exec, 1e-9)
	require.Len(t, got.Levels, 5)
	assert.Equal(t, "easy", got.Levels[0].Level)

	records, err := store.GetPairResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, run.ID, records[0].RunID)
	assert.Equal(t, pairs[0], records[0].PairResult)
	assert.Equal(t, pairs[1], records[1].PairResult)
}

func TestSQLiteStore_FailedRun(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, "dev.yaml", bench.EvalMatch)
	require.NoError(t, err)
	require.NoError(t, store.CompleteRun(ctx, run.ID, nil, errors.New("alias collides with table name")))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "alias collides with table name", got.Error)
	assert.Empty(t, got.Levels)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, corpus := range []string{"a.yaml", "b.yaml", "c.yaml"} {
		run, err := store.CreateRun(ctx, corpus, bench.EvalAll)
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c.yaml", all[0].Corpus, "newest first")

	limited, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetRun(ctx, "missing")
	require.ErrorIs(t, err, ErrRunNotFound)

	err = store.CompleteRun(ctx, "missing", nil, nil)
	require.ErrorIs(t, err, ErrRunNotFound)

	records, err := store.GetPairResults(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	_, err := store.CreateRun(ctx, "x", bench.EvalAll)
	require.ErrorIs(t, err, ErrNotOpened)
	_, err = store.ListRuns(ctx, 0)
	require.ErrorIs(t, err, ErrNotOpened)
	require.ErrorIs(t, store.SavePairResults(ctx, "x", nil), ErrNotOpened)
	assert.NoError(t, store.Close())
}
