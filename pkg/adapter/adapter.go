// Package adapter provides the database adapter contract used to introspect
// live schemas and to run queries for execution matching.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves from init().
package adapter

import (
	"context"

	"github.com/leapstack-labs/sqlmatch/pkg/schema"
	"github.com/leapstack-labs/sqlmatch/pkg/tablematch"
)

// Config holds connection settings for an adapter.
type Config struct {
	Type     string            `mapstructure:"type" json:"type"`
	Path     string            `mapstructure:"path" json:"path,omitempty"`
	DSN      string            `mapstructure:"dsn" json:"dsn,omitempty"`
	Host     string            `mapstructure:"host" json:"host,omitempty"`
	Port     int               `mapstructure:"port" json:"port,omitempty"`
	Database string            `mapstructure:"database" json:"database,omitempty"`
	Username string            `mapstructure:"username" json:"username,omitempty"`
	Password string            `mapstructure:"password" json:"-"`
	Schema   string            `mapstructure:"schema" json:"schema,omitempty"`
	Options  map[string]string `mapstructure:"options" json:"options,omitempty"`

	// Params carries adapter specific settings, decoded by each adapter
	// with mapstructure.
	Params map[string]any `mapstructure:"params" json:"params,omitempty"`
}

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Schema introspects every table and column of the connected database.
	Schema(ctx context.Context) (*schema.Schema, error)

	// Query runs a statement and returns its result as a table whose first
	// row holds the column names.
	Query(ctx context.Context, sql string) (tablematch.Table, error)
}

// ForeignKeyer is implemented by adapters that can report foreign keys.
// The map sends each column id of a key set to the set's representative.
type ForeignKeyer interface {
	ForeignKeys(ctx context.Context) (map[string]string, error)
}
