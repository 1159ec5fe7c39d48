package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
	"github.com/leapstack-labs/sqlmatch/internal/cli/output"
	"github.com/leapstack-labs/sqlmatch/pkg/hardness"
)

// HardnessOptions holds options for the hardness command.
type HardnessOptions struct {
	DB string
}

// NewHardnessCommand creates the hardness command.
func NewHardnessCommand() *cobra.Command {
	opts := &HardnessOptions{}

	cmd := &cobra.Command{
		Use:   "hardness <sql>",
		Short: "Classify the hardness of a query",
		Long: `Classify a query as easy, medium, hard or extra.

The tier is decided from three counts over the parsed query: clause features
(comp1), nesting and set operations (comp2) and multiplicities (others).`,
		Example: `  sqlmatch hardness "SELECT name FROM singer WHERE age > 20" --db concert_singer`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHardness(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "Database id (optional when the catalog holds one database)")

	return cmd
}

type hardnessOutput struct {
	Hardness hardness.Tier `json:"hardness"`
	hardness.Counts
}

func runHardness(cmd *cobra.Command, query string, opts *HardnessOptions) error {
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
	entry, err := cat.Get(db)
	if err != nil {
		return err
	}

	in, err := bench.Inspect(query, entry.Schema)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(hardnessOutput{Hardness: in.Hardness, Counts: in.Counts})
	}
	r.Println(r.Styles().Bold.Render(output.Title(in.Hardness.String())))
	r.KeyValue("comp1", fmt.Sprintf("%d", in.Counts.Comp1))
	r.KeyValue("comp2", fmt.Sprintf("%d", in.Counts.Comp2))
	r.KeyValue("others", fmt.Sprintf("%d", in.Counts.Others))
	return nil
}
