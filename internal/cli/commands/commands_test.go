package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
	"github.com/leapstack-labs/sqlmatch/internal/catalog"
	"github.com/leapstack-labs/sqlmatch/internal/cli/config"
	clitestutil "github.com/leapstack-labs/sqlmatch/internal/cli/testutil"
	"github.com/leapstack-labs/sqlmatch/internal/state"
	"github.com/leapstack-labs/sqlmatch/internal/testutil"
)

type cmdResult struct {
	out, errOut string
	err         error
}

// execute runs a command with cfg in its context, the way the root command
// prepares it.
func execute(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) cmdResult {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	ctx := config.WithConfig(context.Background(), cfg)
	ctx = context.WithValue(ctx, config.LoggerKey(), testutil.NewTestLogger(t))
	err := cmd.ExecuteContext(ctx)
	return cmdResult{out: out.String(), errOut: errOut.String(), err: err}
}

func projectConfig(t *testing.T, output string) (*config.Config, string) {
	t.Helper()
	dir := clitestutil.SetupTestProject(t)
	cfg := config.Default()
	cfg.Tables = filepath.Join(dir, "tables.json")
	cfg.State.Path = filepath.Join(dir, ".sqlmatch", "state.db")
	cfg.OutputFormat = output
	return cfg, dir
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewEvalCommand(), "eval", []string{"corpus", "gold", "pred", "preds", "save", "workers", "etype", "keep-values", "db-dir"}},
		{NewMatchCommand(), "match <gold> <pred>", []string{"db", "question", "etype", "foreign-keys"}},
		{NewParseCommand(), "parse <sql>", []string{"db"}},
		{NewHardnessCommand(), "hardness <sql>", []string{"db"}},
		{NewExecCommand(), "exec <pred-table> <label-table>", []string{"question", "ordered", "compare-header", "epsilon"}},
		{NewReplCommand(), "repl", []string{"db"}},
		{NewRunsCommand(), "runs [id]", []string{"limit", "pairs"}},
		{NewServeCommand(), "serve", []string{"port", "watch", "etype"}},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Long, "Long should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestMatch_JSON(t *testing.T) {
	cfg, _ := projectConfig(t, "json")

	res := execute(t, NewMatchCommand(), cfg, "SELECT count(*) FROM singer", "select count(*) from singer")
	require.NoError(t, res.err)

	var pair bench.PairResult
	require.NoError(t, json.Unmarshal([]byte(res.out), &pair))
	assert.Equal(t, "concert_singer", pair.DB, "single database is picked without --db")
	assert.True(t, pair.Exact)
	assert.Equal(t, "easy", pair.Hardness.String())
}

func TestMatch_Text(t *testing.T) {
	cfg, _ := projectConfig(t, "text")

	res := execute(t, NewMatchCommand(), cfg,
		"SELECT name, country FROM singer", "SELECT name FROM singer", "--db", "concert_singer")
	require.NoError(t, res.err)

	assert.Contains(t, res.out, "select_no_agg")
	assert.Contains(t, res.out, "0.500")
	clitestutil.AssertNoANSI(t, res.out)
}

func TestMatch_UnknownDB(t *testing.T) {
	cfg, _ := projectConfig(t, "json")

	res := execute(t, NewMatchCommand(), cfg, "SELECT 1", "SELECT 1", "--db", "nope")
	var unknown *catalog.UnknownDatabaseError
	require.ErrorAs(t, res.err, &unknown)
}

func TestParse(t *testing.T) {
	cfg, _ := projectConfig(t, "json")

	res := execute(t, NewParseCommand(), cfg, "SELECT T1.name FROM singer AS T1 WHERE T1.age > 20")
	require.NoError(t, res.err)

	var in struct {
		Tokens   []string          `json:"tokens"`
		Aliases  map[string]string `json:"aliases"`
		AST      json.RawMessage   `json:"ast"`
		Hardness string            `json:"hardness"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &in))
	assert.Equal(t, "singer", in.Aliases["t1"])
	assert.Equal(t, "easy", in.Hardness)
	assert.NotEmpty(t, in.AST)
	assert.Equal(t, "select", in.Tokens[0])
}

func TestParse_MarkdownAndError(t *testing.T) {
	cfg, _ := projectConfig(t, "markdown")

	res := execute(t, NewParseCommand(), cfg, "SELECT name FROM singer")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "## Tokens")
	assert.Contains(t, res.out, "```json")
	assert.Contains(t, res.out, "- **Hardness:** Easy")
	clitestutil.AssertValidMarkdown(t, res.out)

	res = execute(t, NewParseCommand(), cfg, "SELECT name FROM")
	require.Error(t, res.err)
	assert.Contains(t, res.out, "select name from", "tokens are shown for a failed parse")
}

func TestHardness(t *testing.T) {
	cfg, _ := projectConfig(t, "json")

	res := execute(t, NewHardnessCommand(), cfg,
		"SELECT name FROM singer WHERE age > (SELECT avg(age) FROM singer)")
	require.NoError(t, res.err)

	var out struct {
		Hardness string `json:"hardness"`
		Comp1    int    `json:"comp1"`
		Comp2    int    `json:"comp2"`
		Others   int    `json:"others"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &out))
	assert.Equal(t, 1, out.Comp1)
	assert.Equal(t, 1, out.Comp2)
	assert.Equal(t, "hard", out.Hardness)
}

func TestExec(t *testing.T) {
	cfg, dir := projectConfig(t, "json")
	pred, label := filepath.Join(dir, "pred.json"), filepath.Join(dir, "label.json")

	res := execute(t, NewExecCommand(), cfg, pred, label)
	require.NoError(t, res.err)
	var m struct {
		Match bool     `json:"match"`
		Notes []string `json:"notes"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &m))
	assert.True(t, m.Match, "columns and rows are matched regardless of order")

	res = execute(t, NewExecCommand(), cfg, pred, label, "--ordered")
	require.NoError(t, res.err)
	require.NoError(t, json.Unmarshal([]byte(res.out), &m))
	assert.False(t, m.Match)
	assert.NotEmpty(t, m.Notes)
}

func TestEval_Markdown(t *testing.T) {
	cfg, dir := projectConfig(t, "markdown")

	res := execute(t, NewEvalCommand(), cfg, "--corpus", filepath.Join(dir, "dev.yaml"), "--pairs")
	require.NoError(t, res.err)

	assert.Contains(t, res.out, "# Evaluation (3 pairs, all)")
	assert.Contains(t, res.out, "## Partial matching accuracy")
	assert.Contains(t, res.out, "| exact match |")
	assert.Contains(t, res.out, "| q2 | concert_singer |")
	assert.Contains(t, res.errOut, "1 predictions failed to parse")
	clitestutil.AssertValidMarkdown(t, res.out)
}

func TestEval_JSON(t *testing.T) {
	cfg, dir := projectConfig(t, "json")
	cfg.Eval.EvalType = "match"

	res := execute(t, NewEvalCommand(), cfg, "--corpus", filepath.Join(dir, "dev.yaml"))
	require.NoError(t, res.err)

	var report bench.Report
	require.NoError(t, json.Unmarshal([]byte(res.out), &report))
	assert.Equal(t, bench.EvalMatch, report.EvalType)
	assert.Empty(t, report.Pairs, "pairs need --pairs")
	assert.Equal(t, 1, report.PredErrors)
	require.Len(t, report.Levels, 5)

	all := report.Levels[4]
	assert.Equal(t, bench.LevelAll, all.Level)
	assert.Equal(t, 3, all.Count)
	assert.InDelta(t, 1.0/3, all.Exact, 1e-9)
}

func TestEval_NoCases(t *testing.T) {
	cfg, _ := projectConfig(t, "json")

	res := execute(t, NewEvalCommand(), cfg)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "Hint")
}

func TestEval_SaveAndRuns(t *testing.T) {
	cfg, dir := projectConfig(t, "json")

	res := execute(t, NewEvalCommand(), cfg, "--corpus", filepath.Join(dir, "dev.yaml"), "--save")
	require.NoError(t, res.err)

	res = execute(t, NewRunsCommand(), cfg)
	require.NoError(t, res.err)
	var runs []state.Run
	require.NoError(t, json.Unmarshal([]byte(res.out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, state.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, 3, runs[0].Pairs)

	res = execute(t, NewRunsCommand(), cfg, runs[0].ID, "--pairs")
	require.NoError(t, res.err)
	var report bench.Report
	require.NoError(t, json.Unmarshal([]byte(res.out), &report))
	assert.Len(t, report.Pairs, 3)
	assert.Equal(t, 1, report.PredErrors, "rebuilt from stored pairs")

	res = execute(t, NewRunsCommand(), cfg, "missing")
	require.ErrorIs(t, res.err, state.ErrRunNotFound)
}

func TestRuns_Empty(t *testing.T) {
	cfg, _ := projectConfig(t, "text")

	res := execute(t, NewRunsCommand(), cfg)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "No runs saved yet")
}

func TestResolveDB(t *testing.T) {
	cat, err := catalog.LoadSpider(filepath.Join(clitestutil.SetupTestProject(t), "tables.json"))
	require.NoError(t, err)

	db, err := resolveDB(cat, "")
	require.NoError(t, err)
	assert.Equal(t, "concert_singer", db)

	_, err = resolveDB(catalog.New(), "")
	require.Error(t, err)
}

func TestReplSession(t *testing.T) {
	cat, err := catalog.LoadSpider(filepath.Join(clitestutil.SetupTestProject(t), "tables.json"))
	require.NoError(t, err)
	tr := clitestutil.NewTestRendererText()
	s := &replSession{cat: cat, db: "concert_singer", r: tr.Renderer}

	assert.False(t, s.handleLine(".tables"))
	assert.Contains(t, tr.Output(), "singer_in_concert")

	assert.False(t, s.handleLine(".schema singer"))
	assert.Contains(t, tr.Output(), "singer_id, name, country, age")

	assert.False(t, s.handleLine(".db nope"))
	assert.Equal(t, "concert_singer", s.db)
	assert.Contains(t, tr.ErrorOutput(), "nope")

	assert.False(t, s.handleLine("SELECT count(*) FROM singer;"))
	assert.Contains(t, tr.Output(), "Easy")

	assert.False(t, s.handleLine("SELECT FROM"))
	assert.NotEmpty(t, tr.ErrorOutput())

	assert.False(t, s.handleLine(".bogus"))
	assert.Contains(t, tr.ErrorOutput(), "unknown command")

	assert.True(t, s.handleLine(".quit"))
	assert.False(t, strings.Contains(tr.Output(), "\x1b["), "buffers are not terminals")
}
