package eval

import (
	"sort"

	"github.com/leapstack-labs/sqlmatch/pkg/ast"
	"github.com/leapstack-labs/sqlmatch/pkg/token"
)

// KeywordSet returns the set of SQL keywords a query block relies on, sorted.
func KeywordSet(sql *ast.Sql) []string {
	set := make(map[string]struct{})
	add := func(k string) { set[k] = struct{}{} }

	if sql.Select.Distinct {
		add("distinct")
	}
	if !sql.Where.Empty() {
		add("where")
	}
	if len(sql.GroupBy.Cols) > 0 {
		add("group")
	}
	if !sql.Having.Empty() {
		add("having")
	}
	if len(sql.OrderBy.Items) > 0 {
		add("order")
		add(sql.OrderBy.Items[0].Dir.String())
	}
	if sql.Limit.Value != nil {
		add("limit")
	}
	for op := range sql.SetOps() {
		add(op.String())
	}

	for _, c := range []ast.Condition{sql.Where.Condition, sql.Having.Condition} {
		for _, op := range c.Connectors {
			if op == token.CondOr {
				add("or")
			}
		}
		for _, cond := range c.Conds {
			if cond.Not {
				add("not")
			}
			switch cond.Op {
			case token.WhereIn:
				add("in")
			case token.WhereLike:
				add("like")
			}
		}
	}

	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func scoreKeywords(pred, label *ast.Sql) Score {
	return jaccard(KeywordSet(label), KeywordSet(pred), func(a, b string) bool { return a == b })
}
