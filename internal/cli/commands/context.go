package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
	"github.com/leapstack-labs/sqlmatch/internal/catalog"
	"github.com/leapstack-labs/sqlmatch/internal/cli/config"
	"github.com/leapstack-labs/sqlmatch/internal/cli/output"
	"github.com/leapstack-labs/sqlmatch/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds a CommandContext from the command's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// OpenCatalog loads the configured schema catalog.
func (c *CommandContext) OpenCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if _, err := c.Cfg.CatalogSource(); err != nil {
		return nil, err
	}
	cat, err := catalog.Open(ctx, c.Cfg.AdapterConfig(), c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	c.Logger.Debug("catalog loaded", slog.Int("databases", cat.Len()))
	return cat, nil
}

// OpenStore opens the run history database, creating its directory.
// Returns the store and a cleanup function that must be called.
func (c *CommandContext) OpenStore(ctx context.Context) (*state.SQLiteStore, func(), error) {
	path := c.Cfg.State.Path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}
	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(ctx, path); err != nil {
		return nil, nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

// BenchOptions converts the eval config into run options.
func (c *CommandContext) BenchOptions() (bench.Options, error) {
	etype, err := bench.ParseEvalType(c.Cfg.Eval.EvalType)
	if err != nil {
		return bench.Options{}, err
	}
	return bench.Options{
		EvalType:     etype,
		KeepValues:   c.Cfg.Eval.KeepValues,
		KeepDistinct: c.Cfg.Eval.KeepDistinct,
		ForeignKeys:  c.Cfg.Eval.ForeignKeys,
		Workers:      c.Cfg.Eval.Workers,
		Table:        c.Cfg.Eval.TableOptions(),
		DBDir:        c.Cfg.Eval.DBDir,
		Logger:       c.Logger,
	}, nil
}

// addEvalFlags registers the flags that tune scoring. Their values reach
// commands through the loaded config.
func addEvalFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("etype", "", "Evaluation type: all, match or exec")
	f.Bool("keep-values", false, "Compare literal values instead of dropping them")
	f.Bool("keep-distinct", false, "Compare DISTINCT instead of ignoring it")
	f.Bool("foreign-keys", true, "Fold foreign-key columns onto one representative")
	f.Bool("compare-header", false, "Compare result column names")
	f.Float64("epsilon", 0, "Rounding step for numeric result cells")
	f.String("db-dir", "", "Directory of <db>/<db>.sqlite files to execute queries against")
	_ = cmd.RegisterFlagCompletionFunc("etype", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"all", "match", "exec"}, cobra.ShellCompDirectiveNoFileComp
	})
}
