package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmatch/internal/cli/output"
	"github.com/leapstack-labs/sqlmatch/internal/corpus"
	"github.com/leapstack-labs/sqlmatch/pkg/tablematch"
)

// ExecOptions holds options for the exec command.
type ExecOptions struct {
	Question string
	Ordered  bool
}

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	opts := &ExecOptions{}

	cmd := &cobra.Command{
		Use:   "exec <pred-table> <label-table>",
		Short: "Compare a predicted result table with a label table",
		Long: `Compare two query result tables.

Tables are JSON arrays of rows or CSV files; the first row is the header.
Columns are matched by content regardless of order, numbers are rounded to
--epsilon and row order is ignored unless --ordered is set. Surplus predicted
columns are accepted when the question asks for them.`,
		Example: `  sqlmatch exec pred.json label.json
  sqlmatch exec pred.csv label.csv --question "List the name and age of each singer" --ordered`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Question, "question", "q", "", "Natural-language question")
	cmd.Flags().BoolVar(&opts.Ordered, "ordered", false, "Row order is significant")
	cmd.Flags().Bool("compare-header", false, "Compare result column names")
	cmd.Flags().Float64("epsilon", 0, "Rounding step for numeric cells")

	return cmd
}

func runExec(cmd *cobra.Command, predPath, labelPath string, opts *ExecOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	pred, err := corpus.ReadTable(predPath)
	if err != nil {
		return err
	}
	label, err := corpus.ReadTable(labelPath)
	if err != nil {
		return err
	}

	tableOpts := cmdCtx.Cfg.Eval.TableOptions()
	tableOpts.Ordered = opts.Ordered
	res := tablematch.Match(pred, label, opts.Question, tableOpts)

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}
	if res.Match {
		r.Success("results match")
	} else {
		r.Println(r.Styles().Error.Render("✗ results differ"))
	}
	for _, n := range res.Notes {
		r.Println(r.Styles().Muted.Render(n))
	}
	return nil
}
