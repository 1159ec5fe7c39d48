package duckdb

import "github.com/leapstack-labs/sqlmatch/pkg/adapter"

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "json", "sqlite")
	Extensions []string `mapstructure:"extensions"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`

	// Schema to introspect; defaults to "main"
	Schema string `mapstructure:"schema"`
}

func parseParams(m map[string]any) (*Params, error) {
	p := &Params{}
	if err := adapter.DecodeParams(m, p); err != nil {
		return nil, err
	}
	if p.Schema == "" {
		p.Schema = "main"
	}
	return p, nil
}
