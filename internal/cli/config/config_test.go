package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("tables", "", "")
	fs.String("state", "", "")
	fs.Int("workers", 0, "")
	fs.String("etype", "", "")
	fs.Bool("foreign-keys", true, "")
	fs.Float64("epsilon", 0, "")
	fs.String("output", "", "")
	fs.Bool("verbose", false, "")
	fs.String("corpus", "", "")
	return fs
}

// tempDir resolves symlinks so paths compare equal to os.Getwd.
func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "sqlmatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := tempDir(t)
	t.Chdir(dir)
	ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, "all", cfg.Eval.EvalType)
	assert.True(t, cfg.Eval.ForeignKeys)
	assert.False(t, cfg.Eval.KeepValues)
	assert.InDelta(t, 1e-6, cfg.Eval.Epsilon, 1e-12)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.State.Path)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_FileResolvesRelativeToConfigDir(t *testing.T) {
	dir := tempDir(t)
	path := writeConfig(t, dir, `
tables: data/tables.json
output: json
eval:
  workers: 4
  etype: match
  keep_values: true
  db_dir: data/database
server:
  port: 9000
`)
	t.Chdir(tempDir(t))
	ResetConfig()

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, filepath.Join(dir, "data", "tables.json"), cfg.Tables)
	assert.Equal(t, filepath.Join(dir, "data", "database"), cfg.Eval.DBDir)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, 4, cfg.Eval.Workers)
	assert.Equal(t, "match", cfg.Eval.EvalType)
	assert.True(t, cfg.Eval.KeepValues)
	assert.True(t, cfg.Eval.ForeignKeys, "defaults survive a partial eval section")
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadConfig_FindsConfigUpward(t *testing.T) {
	dir := tempDir(t)
	writeConfig(t, dir, "tables: tables.json\n")
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o750))
	t.Chdir(sub)
	ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tables.json"), cfg.Tables)
	assert.Equal(t, dir, cfg.ProjectRoot)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := tempDir(t)
	path := writeConfig(t, dir, `
eval:
  workers: 2
  etype: exec
output: text
`)
	t.Chdir(dir)
	t.Setenv("SQLMATCH_EVAL__WORKERS", "3")
	t.Setenv("SQLMATCH_OUTPUT", "markdown")
	ResetConfig()

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--workers", "8", "--corpus", "dev.yaml"}))

	cfg, err := LoadConfig(path, fs)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Eval.Workers, "flag beats env")
	assert.Equal(t, "markdown", cfg.OutputFormat, "env beats file")
	assert.Equal(t, "exec", cfg.Eval.EvalType, "file beats default")
}

func TestLoadConfig_UnsetFlagsDoNotOverride(t *testing.T) {
	dir := tempDir(t)
	path := writeConfig(t, dir, "eval:\n  foreign_keys: false\n")
	t.Chdir(dir)
	ResetConfig()

	fs := newFlags()
	require.NoError(t, fs.Parse(nil))

	cfg, err := LoadConfig(path, fs)
	require.NoError(t, err)
	assert.False(t, cfg.Eval.ForeignKeys)
}

func TestLoadConfig_FlagPathsRelativeToCwd(t *testing.T) {
	dir := tempDir(t)
	path := writeConfig(t, dir, "")
	cwd := tempDir(t)
	t.Chdir(cwd)
	ResetConfig()

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--tables", "tables.json", "--state", ":memory:"}))

	cfg, err := LoadConfig(path, fs)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "tables.json"), cfg.Tables)
	assert.Equal(t, ":memory:", cfg.State.Path)
}

func TestLoadConfig_ExpandsCatalogEnvVars(t *testing.T) {
	dir := tempDir(t)
	path := writeConfig(t, dir, `
catalog:
  type: postgres
  host: localhost
  password: ${SQLMATCH_TEST_PW}
`)
	t.Chdir(dir)
	t.Setenv("SQLMATCH_TEST_PW", "secret")
	ResetConfig()

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Catalog.Password)

	ac := cfg.AdapterConfig()
	assert.Equal(t, "postgres", ac.Type)
	assert.Equal(t, "localhost", ac.Host)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{OutputFormat: "auto", Eval: EvalConfig{EvalType: "all"}, Server: ServerConfig{Port: 1}}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad output", mutate: func(c *Config) { c.OutputFormat = "yaml" }, errSubstr: "output must be"},
		{name: "bad etype", mutate: func(c *Config) { c.Eval.EvalType = "fuzzy" }, errSubstr: "eval.etype"},
		{name: "negative workers", mutate: func(c *Config) { c.Eval.Workers = -1 }, errSubstr: "eval.workers"},
		{name: "negative epsilon", mutate: func(c *Config) { c.Eval.Epsilon = -1 }, errSubstr: "eval.epsilon"},
		{name: "port", mutate: func(c *Config) { c.Server.Port = 70000 }, errSubstr: "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestCatalogSource(t *testing.T) {
	cfg := Config{Tables: "/data/tables.json"}
	src, err := cfg.CatalogSource()
	require.NoError(t, err)
	assert.Equal(t, "/data/tables.json", src)

	cfg = Config{Catalog: CatalogConfig{Path: "/data/world.sqlite"}, Tables: "/data/tables.json"}
	src, err = cfg.CatalogSource()
	require.NoError(t, err)
	assert.Equal(t, "/data/world.sqlite", src, "catalog path wins over tables")

	_, err = (&Config{}).CatalogSource()
	require.Error(t, err)
}

func TestFromContext(t *testing.T) {
	ctx := t.Context()
	assert.Equal(t, Default(), FromContext(ctx))

	cfg := &Config{Tables: "x.json"}
	assert.Same(t, cfg, FromContext(WithConfig(ctx, cfg)))
}
