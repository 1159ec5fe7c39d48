package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
	"github.com/leapstack-labs/sqlmatch/internal/cli/output"
	"github.com/leapstack-labs/sqlmatch/internal/corpus"
)

// EvalOptions holds options for the eval command.
type EvalOptions struct {
	Corpus string
	Gold   string
	Pred   string
	Preds  string
	Save   bool
	Pairs  bool
}

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	opts := &EvalOptions{}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate predicted queries against a corpus",
		Long: `Evaluate a corpus of predicted queries against their gold queries.

Every pair is parsed against its database schema, classified by hardness and
scored clause by clause. Pairs with result tables, or with a --db-dir holding
their databases, are also compared by execution result.

Cases come from a YAML/JSON corpus (--corpus) or from a gold/prediction file
pair in the benchmark's text format (--gold and --pred).`,
		Example: `  # Evaluate a corpus
  sqlmatch eval --corpus dev.yaml --tables tables.json

  # Benchmark-format gold and prediction files
  sqlmatch eval --gold dev_gold.sql --pred pred.txt --tables tables.json --etype match

  # Read predictions from <id>.sql files and keep the run
  sqlmatch eval --corpus dev.yaml --preds out/ --save`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEval(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Corpus, "corpus", "", "YAML or JSON corpus file")
	cmd.Flags().StringVar(&opts.Gold, "gold", "", "Gold file, one <sql>\\t<db_id> per line")
	cmd.Flags().StringVar(&opts.Pred, "pred", "", "Prediction file, one query per line")
	cmd.Flags().StringVar(&opts.Preds, "preds", "", "Directory of <id>.sql and <id>.json predictions")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Save the run to the state database")
	cmd.Flags().BoolVar(&opts.Pairs, "pairs", false, "Include per-pair results")
	cmd.Flags().Int("workers", 0, "Concurrent pairs (default: number of CPUs)")
	addEvalFlags(cmd)
	cmd.MarkFlagsMutuallyExclusive("corpus", "gold")
	cmd.MarkFlagsRequiredTogether("gold", "pred")

	return cmd
}

func loadCases(opts *EvalOptions) ([]corpus.Case, string, error) {
	switch {
	case opts.Corpus != "":
		cases, err := corpus.Load(opts.Corpus)
		return cases, opts.Corpus, err
	case opts.Gold != "":
		cases, err := corpus.LoadSpiderPair(opts.Gold, opts.Pred)
		return cases, opts.Gold, err
	}
	return nil, "", errors.New("no cases to evaluate\nHint: pass --corpus <file> or --gold <file> --pred <file>")
}

func runEval(cmd *cobra.Command, opts *EvalOptions) error {
	ctx := cmd.Context()
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	cases, source, err := loadCases(opts)
	if err != nil {
		return err
	}
	if opts.Preds != "" {
		n, err := corpus.AttachPredictions(cases, opts.Preds)
		if err != nil {
			return err
		}
		cmdCtx.Logger.Debug("attached predictions", slog.Int("files", n), slog.String("dir", opts.Preds))
	}

	benchOpts, err := cmdCtx.BenchOptions()
	if err != nil {
		return err
	}
	cat, err := cmdCtx.OpenCatalog(ctx)
	if err != nil {
		return err
	}

	if !opts.Save {
		report, err := bench.Run(ctx, cases, cat, benchOpts)
		if err != nil {
			return err
		}
		return renderReport(r, report, opts.Pairs)
	}

	store, cleanup, err := cmdCtx.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	run, err := store.CreateRun(ctx, source, benchOpts.EvalType)
	if err != nil {
		return err
	}
	report, runErr := bench.Run(ctx, cases, cat, benchOpts)
	if runErr == nil {
		if err := store.SavePairResults(ctx, run.ID, report.Pairs); err != nil {
			runErr = err
		}
	}
	if err := store.CompleteRun(ctx, run.ID, report, runErr); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}

	if err := renderReport(r, report, opts.Pairs); err != nil {
		return err
	}
	if r.EffectiveMode() != output.ModeJSON {
		r.Success(fmt.Sprintf("saved run %s", run.ID))
	}
	return nil
}
