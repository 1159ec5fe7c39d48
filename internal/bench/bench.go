// Package bench runs a corpus of query pairs through parsing, rebuilding,
// hardness classification and scoring, and aggregates the results per
// hardness tier.
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlmatch/internal/catalog"
	"github.com/leapstack-labs/sqlmatch/internal/corpus"
	"github.com/leapstack-labs/sqlmatch/pkg/ast"
	"github.com/leapstack-labs/sqlmatch/pkg/eval"
	"github.com/leapstack-labs/sqlmatch/pkg/hardness"
	"github.com/leapstack-labs/sqlmatch/pkg/parser"
	"github.com/leapstack-labs/sqlmatch/pkg/rebuild"
	"github.com/leapstack-labs/sqlmatch/pkg/tablematch"
)

// EvalType selects which comparisons a run performs.
type EvalType string

// Evaluation types.
const (
	EvalAll   EvalType = "all"
	EvalMatch EvalType = "match"
	EvalExec  EvalType = "exec"
)

// ParseEvalType validates an evaluation type name. Empty means all.
func ParseEvalType(s string) (EvalType, error) {
	switch EvalType(s) {
	case "", EvalAll:
		return EvalAll, nil
	case EvalMatch, EvalExec:
		return EvalType(s), nil
	}
	return "", fmt.Errorf("unknown evaluation type %q (want all, match or exec)", s)
}

func (t EvalType) match() bool { return t == EvalAll || t == EvalMatch }
func (t EvalType) exec() bool  { return t == EvalAll || t == EvalExec }

// Options configure a run.
type Options struct {
	EvalType EvalType
	// KeepValues compares literal values instead of dropping them.
	KeepValues bool
	// KeepDistinct compares DISTINCT flags instead of clearing them.
	KeepDistinct bool
	// ForeignKeys folds foreign-key columns onto one representative.
	ForeignKeys bool
	// Workers bounds concurrent pairs. Zero means GOMAXPROCS.
	Workers int
	// Table compares result tables.
	Table tablematch.Options
	// DBDir holds Spider databases as <dir>/<db>/<db>.sqlite. When set,
	// pairs without result tables are executed against it.
	DBDir  string
	Logger *slog.Logger
}

// ExecResult is the outcome of result-table matching for one pair.
type ExecResult struct {
	Match bool     `json:"match"`
	Notes []string `json:"notes,omitempty"`
}

// PairResult is the evaluation of one case.
type PairResult struct {
	ID        string                        `json:"id"`
	DB        string                        `json:"db_id"`
	Question  string                        `json:"question,omitempty"`
	Gold      string                        `json:"gold"`
	Predicted string                        `json:"predicted"`
	Hardness  hardness.Tier                 `json:"hardness"`
	Counts    hardness.Counts               `json:"counts"`
	Scores    map[eval.Component]eval.Score `json:"scores,omitempty"`
	Exact     bool                          `json:"exact"`
	Exec      *ExecResult                   `json:"exec,omitempty"`
	// PredError is why the prediction could not be parsed. The prediction
	// was scored as an empty query.
	PredError string `json:"pred_error,omitempty"`
	// Skipped pairs have an unusable gold query and are not aggregated.
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Run evaluates every case. A schema inconsistency aborts the run; any
// other per-pair failure is recorded on its PairResult.
func Run(ctx context.Context, cases []corpus.Case, cat *catalog.Catalog, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.EvalType == "" {
		opts.EvalType = EvalAll
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	logger.Info("starting evaluation",
		slog.Int("pairs", len(cases)),
		slog.String("etype", string(opts.EvalType)),
		slog.Int("workers", workers))

	var dbs *databases
	if opts.DBDir != "" && opts.EvalType.exec() {
		dbs = newDatabases(opts.DBDir, logger)
		defer dbs.Close()
	}

	results := make([]PairResult, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := evaluate(gctx, &cases[i], cat, dbs, opts)
			if err != nil {
				return fmt.Errorf("case %s: %w", cases[i].ID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := NewReport(opts.EvalType, results)
	report.Duration = time.Since(start)
	logger.Info("evaluation complete",
		slog.Int("pairs", len(results)),
		slog.Int("pred_errors", report.PredErrors),
		slog.Int("skipped", report.Skipped),
		slog.Duration("duration", report.Duration))
	return report, nil
}

// Evaluate scores a single case outside of a run. Errors are those that
// would abort a run.
func Evaluate(ctx context.Context, c corpus.Case, cat *catalog.Catalog, opts Options) (PairResult, error) {
	if opts.EvalType == "" {
		opts.EvalType = EvalAll
	}
	var dbs *databases
	if opts.DBDir != "" && opts.EvalType.exec() {
		logger := opts.Logger
		if logger == nil {
			logger = slog.Default()
		}
		dbs = newDatabases(opts.DBDir, logger)
		defer dbs.Close()
	}
	return evaluate(ctx, &c, cat, dbs, opts)
}

// evaluate scores one case. It returns an error only for failures that
// must abort the run.
func evaluate(ctx context.Context, c *corpus.Case, cat *catalog.Catalog, dbs *databases, opts Options) (PairResult, error) {
	res := PairResult{
		ID:        c.ID,
		DB:        c.DB,
		Question:  c.Question,
		Gold:      c.Gold,
		Predicted: c.Predicted,
	}

	entry, err := cat.Get(c.DB)
	if err != nil {
		res.Skipped, res.Error = true, err.Error()
		return res, nil
	}

	gold, err := parser.ParseQuery(c.Gold, entry.Schema)
	if err != nil {
		if errors.Is(err, parser.ErrAliasCollision) {
			return res, err
		}
		res.Skipped, res.Error = true, fmt.Sprintf("gold: %v", err)
		return res, nil
	}

	pred := ast.Empty()
	if c.Predicted == "" {
		res.PredError = "no prediction"
	} else if p, err := parser.ParseQuery(c.Predicted, entry.Schema); err != nil {
		if errors.Is(err, parser.ErrAliasCollision) {
			return res, err
		}
		res.PredError = err.Error()
	} else {
		pred = p
	}

	res.Counts = hardness.Count(gold)
	res.Hardness = res.Counts.Tier()

	if opts.EvalType.match() {
		g, p := normalize(gold, entry.ForeignKeys, opts), normalize(pred, entry.ForeignKeys, opts)
		m := eval.PartialMatch(p, g)
		res.Scores, res.Exact = m.Scores, m.Exact
	}

	if opts.EvalType.exec() {
		tableOpts := opts.Table
		// a sorted gold result makes row order part of the answer
		if len(gold.OrderBy.Items) > 0 {
			tableOpts.Ordered = true
		}
		res.Exec = execute(ctx, c, dbs, tableOpts)
	}
	return res, nil
}

func normalize(sql *ast.Sql, fk map[string]string, opts Options) *ast.Sql {
	if !opts.KeepValues {
		sql = rebuild.StripValues(sql)
	}
	if !opts.KeepDistinct {
		sql = rebuild.StripDistinct(sql)
	}
	if opts.ForeignKeys {
		sql = rebuild.ForeignKeys(sql, fk)
	}
	return sql
}
