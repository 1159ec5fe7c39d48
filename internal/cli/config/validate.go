package config

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
)

var outputModes = map[string]bool{"auto": true, "text": true, "markdown": true, "json": true}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if !outputModes[c.OutputFormat] {
		errs = append(errs, fmt.Errorf("output must be auto, text, markdown or json, got %q", c.OutputFormat))
	}
	if _, err := bench.ParseEvalType(c.Eval.EvalType); err != nil {
		errs = append(errs, fmt.Errorf("eval.etype: %w", err))
	}
	if c.Eval.Workers < 0 {
		errs = append(errs, fmt.Errorf("eval.workers must not be negative, got %d", c.Eval.Workers))
	}
	if c.Eval.Epsilon < 0 {
		errs = append(errs, fmt.Errorf("eval.epsilon must not be negative, got %g", c.Eval.Epsilon))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// CatalogSource returns the path or DSN schemas are loaded from, or an
// error when none is configured.
func (c *Config) CatalogSource() (string, error) {
	ac := c.AdapterConfig()
	switch {
	case ac.Path != "":
		return ac.Path, nil
	case ac.DSN != "":
		return ac.DSN, nil
	case ac.Host != "":
		return ac.Host, nil
	}
	return "", errors.New("no schema source configured\nHint: pass --tables <tables.json> or set tables in sqlmatch.yaml")
}
