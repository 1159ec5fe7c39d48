// Package catalog holds the schemas and foreign-key maps of every database
// an evaluation run may reference.
//
// A catalog is loaded from a Spider tables.json file, from a YAML or JSON
// schema file, or by introspecting a live database through an adapter.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlmatch/pkg/adapter"
	"github.com/leapstack-labs/sqlmatch/pkg/schema"
)

// Source types understood by Open besides registered adapter types.
const (
	TypeSpider = "spider"
	TypeFile   = "file"
)

// Entry is one database: its schema and its folded foreign keys.
type Entry struct {
	Schema *schema.Schema
	// ForeignKeys maps every column id of a key set to the set's
	// representative id. Empty when the database declares no keys.
	ForeignKeys map[string]string
}

// Catalog maps database names to entries. Names are case-insensitive.
// A Catalog is read-only once loaded.
type Catalog struct {
	entries map[string]*Entry
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]*Entry)}
}

// Add registers an entry under its schema name, replacing any previous one.
func (c *Catalog) Add(e *Entry) {
	if e.ForeignKeys == nil {
		e.ForeignKeys = map[string]string{}
	}
	c.entries[strings.ToLower(e.Schema.Name())] = e
}

// Get returns the entry for db.
func (c *Catalog) Get(db string) (*Entry, error) {
	if e, ok := c.entries[strings.ToLower(db)]; ok {
		return e, nil
	}
	return nil, &UnknownDatabaseError{Name: db, Available: c.Names()}
}

// Names returns every database name, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for n := range c.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of databases.
func (c *Catalog) Len() int { return len(c.entries) }

// UnknownDatabaseError is returned when a database is not in the catalog.
type UnknownDatabaseError struct {
	Name      string
	Available []string
}

func (e *UnknownDatabaseError) Error() string {
	if len(e.Available) > 5 {
		return fmt.Sprintf("unknown database %q (%d databases loaded)", e.Name, len(e.Available))
	}
	return fmt.Sprintf("unknown database %q\nAvailable databases: %v", e.Name, e.Available)
}

// Open loads a catalog from cfg. Type "spider" reads a tables.json file,
// "file" reads a YAML or JSON schema file, and any other type introspects
// a live database through the adapter registered under that name. An empty
// type is inferred from the path.
func Open(ctx context.Context, cfg adapter.Config, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	typ := cfg.Type
	if typ == "" {
		typ = inferType(cfg.Path)
	}

	logger.Debug("opening catalog", slog.String("type", typ), slog.String("path", cfg.Path))
	switch typ {
	case TypeSpider:
		return LoadSpider(cfg.Path)
	case TypeFile:
		return LoadFile(cfg.Path)
	default:
		cfg.Type = typ
		return FromAdapter(ctx, cfg.Database, cfg, logger)
	}
}

func inferType(path string) string {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case base == "tables.json":
		return TypeSpider
	case strings.HasSuffix(base, ".sqlite"), strings.HasSuffix(base, ".db"):
		return "sqlite"
	case strings.HasSuffix(base, ".duckdb"):
		return "duckdb"
	default:
		return TypeFile
	}
}
