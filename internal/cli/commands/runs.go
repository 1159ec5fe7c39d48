package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
	"github.com/leapstack-labs/sqlmatch/internal/cli/output"
	"github.com/leapstack-labs/sqlmatch/internal/state"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit int
	Pairs bool
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "List saved evaluation runs",
		Long: `List evaluation runs saved with "eval --save", most recent first.

With a run id, show that run's level summary. Per-pair results are rebuilt
from the stored pairs.`,
		Example: `  sqlmatch runs
  sqlmatch runs --limit 5 --output json
  sqlmatch runs 0b9d8c1e-... --pairs`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runShowRun(cmd, args[0], opts)
			}
			return runListRuns(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&opts.Pairs, "pairs", false, "Include per-pair results")

	return cmd
}

func runListRuns(cmd *cobra.Command, opts *RunsOptions) error {
	ctx := cmd.Context()
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	store, cleanup, err := cmdCtx.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	runs, err := store.ListRuns(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*state.Run{}
		}
		return r.JSON(runs)
	}
	if len(runs) == 0 {
		r.Println("No runs saved yet. Use eval --save to keep one.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			string(run.Status),
			run.EvalType,
			run.Corpus,
			fmt.Sprintf("%d", run.Pairs),
			output.Score(run.Exact),
			output.Score(run.Exec),
		})
	}
	r.Table([]string{"id", "started", "status", "etype", "corpus", "pairs", "exact", "exec"}, rows)
	return nil
}

func runShowRun(cmd *cobra.Command, id string, opts *RunsOptions) error {
	ctx := cmd.Context()
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	store, cleanup, err := cmdCtx.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	run, err := store.GetRun(ctx, id)
	if err != nil {
		return err
	}
	records, err := store.GetPairResults(ctx, id)
	if err != nil {
		return err
	}

	if run.Status != state.RunStatusCompleted {
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(run)
		}
		r.Header(1, "Run "+run.ID)
		r.KeyValue("Status", string(run.Status))
		r.KeyValue("Corpus", run.Corpus)
		if run.Error != "" {
			r.KeyValue("Error", run.Error)
		}
		return nil
	}

	var report *bench.Report
	if len(records) > 0 {
		pairs := make([]bench.PairResult, len(records))
		for i, rec := range records {
			pairs[i] = rec.PairResult
		}
		report = bench.NewReport(bench.EvalType(run.EvalType), pairs)
	} else {
		report = &bench.Report{EvalType: bench.EvalType(run.EvalType), Levels: run.Levels}
	}
	if run.CompletedAt != nil {
		report.Duration = run.CompletedAt.Sub(run.StartedAt)
	}

	if r.EffectiveMode() != output.ModeJSON {
		r.KeyValue("Run", run.ID)
		r.KeyValue("Corpus", run.Corpus)
		r.KeyValue("Started", run.StartedAt.Local().Format(time.DateTime))
		r.Println()
	}
	return renderReport(r, report, opts.Pairs)
}
