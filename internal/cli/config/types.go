// Package config provides configuration management for the sqlmatch CLI.
package config

import (
	"github.com/leapstack-labs/sqlmatch/pkg/adapter"
	"github.com/leapstack-labs/sqlmatch/pkg/tablematch"
)

// Config holds all CLI configuration options.
type Config struct {
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
	Tables       string        `koanf:"tables"`
	Catalog      CatalogConfig `koanf:"catalog"`
	State        StateConfig   `koanf:"state"`
	Eval         EvalConfig    `koanf:"eval"`
	Server       ServerConfig  `koanf:"server"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// CatalogConfig selects where schemas come from. An empty type is inferred
// from the path.
type CatalogConfig struct {
	Type     string            `koanf:"type"`
	Path     string            `koanf:"path"`
	DSN      string            `koanf:"dsn"`
	Database string            `koanf:"database"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Username string            `koanf:"username"`
	Password string            `koanf:"password"`
	Schema   string            `koanf:"schema"`
	Options  map[string]string `koanf:"options"`
	Params   map[string]any    `koanf:"params"`
}

// StateConfig locates the run history database.
type StateConfig struct {
	Path string `koanf:"path"`
}

// EvalConfig holds evaluation defaults.
type EvalConfig struct {
	Workers       int     `koanf:"workers"`
	EvalType      string  `koanf:"etype"`
	KeepValues    bool    `koanf:"keep_values"`
	KeepDistinct  bool    `koanf:"keep_distinct"`
	ForeignKeys   bool    `koanf:"foreign_keys"`
	CompareHeader bool    `koanf:"compare_header"`
	Epsilon       float64 `koanf:"epsilon"`
	DBDir         string  `koanf:"db_dir"`
}

// ServerConfig holds configuration for the scoring API server.
type ServerConfig struct {
	Port  int  `koanf:"port"`
	Watch bool `koanf:"watch"`
}

// Default configuration values.
const (
	DefaultStateFile = ".sqlmatch/state.db"
	DefaultOutput    = "auto" // TTY=text, otherwise markdown
	DefaultEvalType  = "all"
	DefaultPort      = 8765
)

// AdapterConfig converts the catalog section into an adapter config. The
// top-level tables path is used when the catalog has no path of its own.
func (c *Config) AdapterConfig() adapter.Config {
	cat := c.Catalog
	path := cat.Path
	if path == "" {
		path = c.Tables
	}
	return adapter.Config{
		Type:     cat.Type,
		Path:     path,
		DSN:      cat.DSN,
		Host:     cat.Host,
		Port:     cat.Port,
		Database: cat.Database,
		Username: cat.Username,
		Password: cat.Password,
		Schema:   cat.Schema,
		Options:  cat.Options,
		Params:   cat.Params,
	}
}

// TableOptions returns the result-table comparison settings.
func (e EvalConfig) TableOptions() tablematch.Options {
	return tablematch.Options{
		Epsilon:       e.Epsilon,
		CompareHeader: e.CompareHeader,
	}
}
