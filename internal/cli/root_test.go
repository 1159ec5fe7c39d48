package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
	"github.com/leapstack-labs/sqlmatch/internal/cli/config"
	"github.com/leapstack-labs/sqlmatch/internal/cli/testutil"
	"github.com/leapstack-labs/sqlmatch/internal/state"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"version", "eval", "match", "parse", "hardness", "exec", "repl", "runs", "serve"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
	for _, flag := range []string{"config", "tables", "catalog-type", "dsn", "state", "verbose", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestRootCommand_EvalSaveThenRuns(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	cfgFile := filepath.Join(dir, "sqlmatch.yaml")
	t.Chdir(t.TempDir())

	out, _, err := run(t, "--config", cfgFile, "-o", "json", "eval",
		"--corpus", filepath.Join(dir, "dev.yaml"), "--etype", "match", "--save")
	require.NoError(t, err)

	var report bench.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, bench.EvalMatch, report.EvalType, "--etype reaches the config")

	assert.FileExists(t, filepath.Join(dir, ".sqlmatch", "state.db"), "state path resolves against the config dir")

	out, _, err = run(t, "--config", cfgFile, "-o", "json", "runs")
	require.NoError(t, err)
	var runs []state.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "match", runs[0].EvalType)
	assert.Equal(t, 3, runs[0].Pairs)
}

func TestRootCommand_FindsConfigUpward(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	out, _, err := run(t, "-o", "json", "hardness", "SELECT count(*) FROM singer")
	require.NoError(t, err)
	assert.Contains(t, out, `"hardness": "easy"`)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	_, _, err := run(t, "-o", "yaml", "parse", "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRootCommand_MissingCatalog(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := run(t, "parse", "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Hint")
}
