// Package sqlite provides a SQLite database adapter backed by the pure Go
// modernc driver. Spider ships one SQLite file per database, so this is the
// adapter execution matching uses by default.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqlmatch/pkg/adapter"
	"github.com/leapstack-labs/sqlmatch/pkg/schema"

	_ "modernc.org/sqlite" // sqlite driver
)

// Params holds SQLite-specific configuration.
type Params struct {
	// Pragmas run after connecting, e.g. "foreign_keys = on"
	Pragmas []string `mapstructure:"pragmas"`
	// ReadOnly opens the file with mode=ro
	ReadOnly bool `mapstructure:"read_only"`
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Connect opens the database file at cfg.Path, or an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	var params Params
	if err := adapter.DecodeParams(cfg.Params, &params); err != nil {
		return err
	}

	dsn := cfg.Path
	if dsn == "" {
		dsn = ":memory:"
	}
	if params.ReadOnly && dsn != ":memory:" {
		dsn = "file:" + dsn + "?mode=ro"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// an in-memory database lives and dies with its connection
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	for _, p := range params.Pragmas {
		if _, err := db.ExecContext(ctx, "PRAGMA "+p); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply pragma %q: %w", p, err)
		}
	}

	a.Logger.Debug("opened sqlite database", slog.String("path", dsn))
	a.DB = db
	a.Cfg = cfg
	return nil
}

const columnsQuery = `
	SELECT
		m.name,
		p.name
	FROM sqlite_master m
	JOIN pragma_table_info(m.name) p
	WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
	ORDER BY m.name, p.cid
`

// Schema introspects every user table.
func (a *Adapter) Schema(ctx context.Context) (*schema.Schema, error) {
	return a.SchemaFromQuery(ctx, a.databaseName(), columnsQuery)
}

func (a *Adapter) databaseName() string {
	if a.Cfg.Database != "" {
		return a.Cfg.Database
	}
	if a.Cfg.Path == "" || a.Cfg.Path == ":memory:" {
		return "memory"
	}
	return strings.TrimSuffix(filepath.Base(a.Cfg.Path), filepath.Ext(a.Cfg.Path))
}

const foreignKeysQuery = `
	SELECT
		m.name,
		f."from",
		f."table",
		f."to"
	FROM sqlite_master m
	JOIN pragma_foreign_key_list(m.name) f
	WHERE m.type = 'table'
`

const primaryKeyQuery = `SELECT name FROM pragma_table_info(?) WHERE pk = 1`

// ForeignKeys reports declared foreign keys. A reference without a target
// column points at the target table's primary key.
func (a *Adapter) ForeignKeys(ctx context.Context) (map[string]string, error) {
	if a.DB == nil {
		return nil, adapter.ErrNotConnected
	}
	rows, err := a.DB.QueryContext(ctx, foreignKeysQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}

	type ref struct {
		table, column, target string
		targetColumn          sql.NullString
	}
	var refs []ref
	for rows.Next() {
		var r ref
		if err := rows.Scan(&r.table, &r.column, &r.target, &r.targetColumn); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		refs = append(refs, r)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}

	pairs := make([][2]string, 0, len(refs))
	for _, r := range refs {
		to := r.targetColumn.String
		if !r.targetColumn.Valid || to == "" {
			if err := a.DB.QueryRowContext(ctx, primaryKeyQuery, r.target).Scan(&to); err != nil {
				a.Logger.Debug("skipping foreign key without target column",
					slog.String("table", r.table), slog.String("column", r.column))
				continue
			}
		}
		pairs = append(pairs, [2]string{schema.ColumnID(r.table, r.column), schema.ColumnID(r.target, to)})
	}
	return adapter.FoldKeySets(pairs), nil
}

// Ensure Adapter implements the adapter interfaces
var (
	_ adapter.Adapter      = (*Adapter)(nil)
	_ adapter.ForeignKeyer = (*Adapter)(nil)
)
