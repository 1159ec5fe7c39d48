package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/leapstack-labs/sqlmatch/internal/corpus"
	"github.com/leapstack-labs/sqlmatch/pkg/adapter"
	"github.com/leapstack-labs/sqlmatch/pkg/adapters/sqlite"
	"github.com/leapstack-labs/sqlmatch/pkg/tablematch"
)

// execute matches result tables. Tables carried by the case win; otherwise
// both queries run against the case's database when one is available. A nil
// result means exec matching could not be evaluated for this pair.
func execute(ctx context.Context, c *corpus.Case, dbs *databases, opts tablematch.Options) *ExecResult {
	if c.HasTables() {
		m := tablematch.Match(c.PredResult, c.GoldResult, c.Question, opts)
		return &ExecResult{Match: m.Match, Notes: m.Notes}
	}
	if dbs == nil {
		return nil
	}

	gold, err := dbs.query(ctx, c.DB, c.Gold)
	if err != nil {
		dbs.logger.Warn("gold query failed", slog.String("case", c.ID), slog.String("error", err.Error()))
		return nil
	}
	pred, err := dbs.query(ctx, c.DB, c.Predicted)
	if err != nil {
		return &ExecResult{Notes: []string{"prediction failed: " + err.Error()}}
	}
	m := tablematch.Match(pred, gold, c.Question, opts)
	return &ExecResult{Match: m.Match, Notes: m.Notes}
}

// databases opens Spider sqlite files on demand and shares them between
// workers.
type databases struct {
	dir    string
	logger *slog.Logger

	mu   sync.Mutex
	open map[string]*sqlite.Adapter
}

func newDatabases(dir string, logger *slog.Logger) *databases {
	return &databases{dir: dir, logger: logger, open: make(map[string]*sqlite.Adapter)}
}

func (d *databases) get(ctx context.Context, db string) (*sqlite.Adapter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if adp, ok := d.open[db]; ok {
		return adp, nil
	}

	path := filepath.Join(d.dir, db, db+".sqlite")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database %s: %w", db, err)
	}
	adp := sqlite.New(d.logger)
	cfg := adapter.Config{Type: "sqlite", Path: path, Database: db, Params: map[string]any{"read_only": true}}
	if err := adp.Connect(ctx, cfg); err != nil {
		return nil, err
	}
	d.open[db] = adp
	return adp, nil
}

func (d *databases) query(ctx context.Context, db, sql string) (tablematch.Table, error) {
	if sql == "" {
		return nil, errors.New("empty query")
	}
	adp, err := d.get(ctx, db)
	if err != nil {
		return nil, err
	}
	return adp.Query(ctx, sql)
}

// Close closes every opened database.
func (d *databases) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for name, adp := range d.open {
		if err := adp.Close(); err != nil {
			d.logger.Warn("failed to close database", slog.String("database", name), slog.String("error", err.Error()))
		}
	}
	d.open = nil
}
