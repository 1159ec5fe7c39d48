package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/sqlmatch/pkg/tablematch"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// EnvPrefix prefixes every environment override. A double underscore
// separates nested keys: SQLMATCH_EVAL__WORKERS sets eval.workers.
const EnvPrefix = "SQLMATCH_"

var configNames = []string{"sqlmatch.yaml", "sqlmatch.yml"}

// flagKeys maps command flags onto config keys. Flags not listed here are
// command options and never reach the config.
var flagKeys = map[string]string{
	"verbose":        "verbose",
	"output":         "output",
	"tables":         "tables",
	"catalog-type":   "catalog.type",
	"dsn":            "catalog.dsn",
	"state":          "state.path",
	"workers":        "eval.workers",
	"etype":          "eval.etype",
	"keep-values":    "eval.keep_values",
	"keep-distinct":  "eval.keep_distinct",
	"foreign-keys":   "eval.foreign_keys",
	"compare-header": "eval.compare_header",
	"epsilon":        "eval.epsilon",
	"db-dir":         "eval.db_dir",
	"port":           "server.port",
	"watch":          "server.watch",
}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
)

func defaults() map[string]any {
	return map[string]any{
		"verbose":             false,
		"output":              DefaultOutput,
		"state.path":          DefaultStateFile,
		"eval.etype":          DefaultEvalType,
		"eval.workers":        0,
		"eval.keep_values":    false,
		"eval.keep_distinct":  false,
		"eval.foreign_keys":   true,
		"eval.compare_header": false,
		"eval.epsilon":        tablematch.DefaultEpsilon,
		"server.port":         DefaultPort,
		"server.watch":        false,
	}
}

// configIn returns the config file in dir, if any.
func configIn(dir string) string {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a config file.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configIn(dir); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, already absolute or in-memory.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
}

// LoadConfig loads configuration from defaults, the config file,
// environment variables and flags, in increasing precedence.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file: explicit path, else the nearest sqlmatch.yaml upward
	configFileUsed = cfgFile
	if configFileUsed == "" {
		configFileUsed = findConfigUpward(cwd)
	}
	projectRoot := cwd
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Environment: SQLMATCH_EVAL__WORKERS -> eval.workers
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// Paths from the file or env are relative to the project root, paths
	// from flags to the working directory.
	var fromFlags map[string]bool
	if flags != nil {
		fromFlags = make(map[string]bool)
		flags.Visit(func(f *pflag.Flag) {
			if key, ok := flagKeys[f.Name]; ok {
				fromFlags[key] = true
			}
		})
	}

	// 4. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	resolve := func(key, path string) string {
		if fromFlags[key] {
			return resolvePathRelativeTo(path, cwd)
		}
		return resolvePathRelativeTo(path, projectRoot)
	}
	cfg.Tables = resolve("tables", cfg.Tables)
	cfg.Catalog.Path = resolve("catalog.path", cfg.Catalog.Path)
	cfg.State.Path = resolve("state.path", cfg.State.Path)
	cfg.Eval.DBDir = resolve("eval.db_dir", cfg.Eval.DBDir)

	expandCatalogEnvVars(&cfg.Catalog)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// LoggerKey returns the context key used for storing the logger.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns. Unknown variables are left as is.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

// expandCatalogEnvVars expands environment variables in connection fields.
func expandCatalogEnvVars(c *CatalogConfig) {
	c.DSN = expandEnvVars(c.DSN)
	c.Host = expandEnvVars(c.Host)
	c.Database = expandEnvVars(c.Database)
	c.Username = expandEnvVars(c.Username)
	c.Password = expandEnvVars(c.Password)
}

// configKey is used to store the loaded config in context.
type configKey struct{}

// WithConfig returns a context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored in ctx, or the defaults.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return Default()
}

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		OutputFormat: DefaultOutput,
		State:        StateConfig{Path: DefaultStateFile},
		Eval: EvalConfig{
			EvalType:    DefaultEvalType,
			ForeignKeys: true,
			Epsilon:     tablematch.DefaultEpsilon,
		},
		Server: ServerConfig{Port: DefaultPort},
	}
}
