package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmatch/internal/catalog"
	"github.com/leapstack-labs/sqlmatch/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoring API over HTTP",
		Long: `Start an HTTP server that scores queries against the configured catalog.

Endpoints:
  GET  /healthz              liveness and database count
  GET  /api/databases        database ids
  GET  /api/databases/{db}   tables, columns and foreign keys
  POST /api/match            score {db_id, gold, pred, question}
  POST /api/exec             compare {pred, label, question} result tables
  POST /api/parse            tokens, aliases, tree and hardness of {db_id, sql}
  GET  /api/events           server-sent catalog reload events

With --watch the catalog file is reloaded when it changes.`,
		Example: `  sqlmatch serve --tables tables.json
  sqlmatch serve --tables schema.yaml --port 9000 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().Int("port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().Bool("watch", false, "Reload the catalog when its file changes")
	addEvalFlags(cmd)

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg

	benchOpts, err := cmdCtx.BenchOptions()
	if err != nil {
		return err
	}
	source, err := cfg.CatalogSource()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, server.Config{
		Port:      cfg.Server.Port,
		Watch:     cfg.Server.Watch,
		WatchPath: cfg.AdapterConfig().Path,
		Load: func(ctx context.Context) (*catalog.Catalog, error) {
			return cmdCtx.OpenCatalog(ctx)
		},
		Options: benchOpts,
		Logger:  cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	cmdCtx.Logger.Debug("catalog source", slog.String("source", source))
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving %d databases on http://localhost:%d\n", srv.Catalog().Len(), cfg.Server.Port)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	return srv.Serve(ctx)
}
