package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
	"github.com/leapstack-labs/sqlmatch/internal/cli/output"
)

// ParseOptions holds options for the parse command.
type ParseOptions struct {
	DB string
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <sql>",
		Short: "Show how a query is tokenized and parsed",
		Long: `Tokenize and parse a query against a database schema.

Prints the normalized tokens, the alias table, the query tree as JSON and the
hardness of the query.`,
		Example: `  sqlmatch parse "SELECT T1.name FROM singer AS T1" --db concert_singer
  sqlmatch parse "SELECT count(*) FROM singer" --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "Database id (optional when the catalog holds one database)")

	return cmd
}

func runParse(cmd *cobra.Command, query string, opts *ParseOptions) error {
	ctx := cmd.Context()
	cmdCtx := NewCommandContext(cmd)

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
	if in != nil {
		if rerr := renderInspection(cmdCtx.Renderer, in); rerr != nil {
			return rerr
		}
	}
	return err
}

func renderInspection(r *output.Renderer, in *bench.Inspection) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(in)
	}

	r.Header(2, "Tokens")
	r.Println(strings.Join(in.Tokens, " "))
	r.Println()

	if len(in.Aliases) > 0 {
		r.Header(2, "Aliases")
		names := make([]string, 0, len(in.Aliases))
		for a := range in.Aliases {
			names = append(names, a)
		}
		sort.Strings(names)
		rows := make([][]string, 0, len(names))
		for _, a := range names {
			rows = append(rows, []string{a, in.Aliases[a]})
		}
		r.Table([]string{"alias", "target"}, rows)
	}

	if in.AST == nil {
		return nil
	}
	tree, err := json.MarshalIndent(in.AST, "", "  ")
	if err != nil {
		return err
	}
	r.Header(2, "Tree")
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatCodeBlock("json", string(tree)))
	} else {
		r.Println(r.Styles().Code.Render(string(tree)))
	}
	r.Println()

	r.KeyValue("Hardness", output.Title(in.Hardness.String()))
	r.KeyValue("Counts", fmt.Sprintf("comp1=%d comp2=%d others=%d", in.Counts.Comp1, in.Counts.Comp2, in.Counts.Others))
	return nil
}
