package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
	"github.com/leapstack-labs/sqlmatch/internal/catalog"
	"github.com/leapstack-labs/sqlmatch/internal/cli/output"
	"github.com/leapstack-labs/sqlmatch/internal/corpus"
	"github.com/leapstack-labs/sqlmatch/pkg/eval"
)

// MatchOptions holds options for the match command.
type MatchOptions struct {
	DB       string
	Question string
}

// NewMatchCommand creates the match command.
func NewMatchCommand() *cobra.Command {
	opts := &MatchOptions{}

	cmd := &cobra.Command{
		Use:   "match <gold> <pred>",
		Short: "Score one predicted query against a gold query",
		Long: `Score a single predicted query against its gold query.

Prints the partial score of every component, whether the pair is an exact
match, and the hardness of the gold query. With --db-dir both queries are
also executed and their results compared.`,
		Example: `  sqlmatch match "SELECT name FROM singer" "SELECT name FROM singer ORDER BY age" --db concert_singer`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "Database id (optional when the catalog holds one database)")
	cmd.Flags().StringVarP(&opts.Question, "question", "q", "", "Natural-language question, used by result matching")
	addEvalFlags(cmd)

	return cmd
}

// resolveDB picks the database to use. An empty name is accepted when the
// catalog holds a single database.
func resolveDB(cat *catalog.Catalog, name string) (string, error) {
	if name != "" {
		if _, err := cat.Get(name); err != nil {
			return "", err
		}
		return name, nil
	}
	names := cat.Names()
	if len(names) == 1 {
		return names[0], nil
	}
	return "", fmt.Errorf("--db is required: the catalog holds %d databases", len(names))
}

func runMatch(cmd *cobra.Command, gold, pred string, opts *MatchOptions) error {
	ctx := cmd.Context()
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	cat, err := cmdCtx.OpenCatalog(ctx)
	if err != nil {
		return err
	}
	db, err := resolveDB(cat, opts.DB)
	if err != nil {
		return err
	}
	benchOpts, err := cmdCtx.BenchOptions()
	if err != nil {
		return err
	}

	res, err := bench.Evaluate(ctx, corpus.Case{
		ID:        "1",
		DB:        db,
		Question:  opts.Question,
		Gold:      gold,
		Predicted: pred,
	}, cat, benchOpts)
	if err != nil {
		return err
	}
	if res.Skipped {
		return errors.New(res.Error)
	}
	return renderPair(r, &res)
}

func renderPair(r *output.Renderer, res *bench.PairResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}

	r.Header(1, "Match: "+res.DB)
	r.KeyValue("Hardness", output.Title(res.Hardness.String()))
	if res.Scores != nil {
		r.KeyValue("Exact", fmt.Sprintf("%t", res.Exact))
	}
	if res.Exec != nil {
		r.KeyValue("Execution", fmt.Sprintf("%t", res.Exec.Match))
	}
	if res.PredError != "" {
		r.KeyValue("Prediction error", res.PredError)
	}
	r.Println()

	if res.Scores != nil {
		rows := make([][]string, 0, len(eval.Components))
		for _, comp := range eval.Components {
			s := res.Scores[comp]
			rows = append(rows, []string{
				string(comp),
				output.Score(s.Accuracy),
				output.Score(s.Recall),
				output.Score(s.Precision),
				output.Score(s.F1),
				fmt.Sprintf("%d", s.LabelTotal),
				fmt.Sprintf("%d", s.PredTotal),
			})
		}
		r.Table([]string{"component", "accuracy", "recall", "precision", "f1", "gold", "pred"}, rows)
	}

	if res.Exec != nil && len(res.Exec.Notes) > 0 {
		r.Header(2, "Execution notes")
		for _, n := range res.Exec.Notes {
			r.Println(strings.TrimRight(n, "\n"))
		}
	}
	return nil
}
