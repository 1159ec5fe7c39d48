package bench

import (
	"github.com/leapstack-labs/sqlmatch/pkg/ast"
	"github.com/leapstack-labs/sqlmatch/pkg/hardness"
	"github.com/leapstack-labs/sqlmatch/pkg/parser"
	"github.com/leapstack-labs/sqlmatch/pkg/schema"
)

// Inspection is everything the pipeline derives from one query.
type Inspection struct {
	Tokens   []string          `json:"tokens"`
	Aliases  parser.AliasTable `json:"aliases"`
	AST      *ast.Sql          `json:"ast,omitempty"`
	Hardness hardness.Tier     `json:"hardness"`
	Counts   hardness.Counts   `json:"counts"`
}

// Inspect tokenizes and parses query. On a parse failure the returned
// inspection still carries the tokens and aliases that were produced.
func Inspect(query string, s *schema.Schema) (*Inspection, error) {
	ts, err := parser.Tokenize(query, s)
	if err != nil {
		return nil, err
	}
	in := &Inspection{Tokens: ts.Tokens, Aliases: ts.Aliases}

	merged, err := ts.Merge(s)
	if err != nil {
		return in, err
	}
	in.Tokens, in.Aliases = merged.Tokens, merged.Aliases

	sql, err := parser.Parse(merged, s)
	if err != nil {
		return in, err
	}
	in.AST = sql
	in.Counts = hardness.Count(sql)
	in.Hardness = in.Counts.Tier()
	return in, nil
}
