package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlmatch/pkg/adapter"
	"github.com/leapstack-labs/sqlmatch/pkg/schema"

	// Register the bundled adapters.
	_ "github.com/leapstack-labs/sqlmatch/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sqlmatch/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/sqlmatch/pkg/adapters/sqlite"
)

// FromAdapter introspects one live database and wraps it as a catalog.
// When name is empty the adapter's database name is used. Foreign keys are
// read when the adapter supports it.
func FromAdapter(ctx context.Context, name string, cfg adapter.Config, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	adp, err := adapter.NewAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := adp.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Type, err)
	}
	defer func() { _ = adp.Close() }()

	s, err := adp.Schema(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect schema: %w", err)
	}
	if name != "" && name != s.Name() {
		s = rename(s, name)
	}

	var fk map[string]string
	if fker, ok := adp.(adapter.ForeignKeyer); ok {
		if fk, err = fker.ForeignKeys(ctx); err != nil {
			return nil, fmt.Errorf("failed to read foreign keys: %w", err)
		}
	}

	logger.Info("introspected database",
		slog.String("database", s.Name()),
		slog.Int("tables", len(s.Tables())),
		slog.Int("foreign_keys", len(fk)))

	c := New()
	c.Add(&Entry{Schema: s, ForeignKeys: fk})
	return c, nil
}

func rename(s *schema.Schema, name string) *schema.Schema {
	tables := make([]schema.Table, 0, len(s.Tables()))
	for _, t := range s.Tables() {
		cols, _ := s.Columns(t)
		tables = append(tables, schema.Table{Name: t, Columns: cols})
	}
	return schema.New(name, tables)
}

// Types lists every source type Open accepts.
func Types() []string {
	return append([]string{TypeSpider, TypeFile}, adapter.ListAdapters()...)
}
