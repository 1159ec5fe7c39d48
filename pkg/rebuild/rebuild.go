// Package rebuild derives normalized copies of query trees before they are
// compared: foreign-key columns folded onto one representative, literal
// values dropped, or distinct flags cleared.
//
// Every function returns a new tree. The input is never modified.
package rebuild

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlmatch/pkg/ast"
	"github.com/leapstack-labs/sqlmatch/pkg/schema"
	"github.com/leapstack-labs/sqlmatch/pkg/token"
)

// ForeignKeys rewrites column ids through fk, which maps every column of a
// key set to the set's representative. A column is rewritten only when its
// table is named in the FROM clause of the block that references it.
func ForeignKeys(sql *ast.Sql, fk map[string]string) *ast.Sql {
	if len(fk) == 0 {
		return sql
	}
	return (&rewriter{fk: fk}).sql(sql)
}

// StripValues drops every literal and column operand from conditions.
// Subquery operands are kept and stripped in turn.
func StripValues(sql *ast.Sql) *ast.Sql {
	return (&rewriter{values: true}).sql(sql)
}

// StripDistinct clears every distinct flag.
func StripDistinct(sql *ast.Sql) *ast.Sql {
	return (&rewriter{distinct: true}).sql(sql)
}

type rewriter struct {
	fk       map[string]string
	values   bool
	distinct bool

	// tables in FROM of the block being rewritten
	scope map[string]bool
}

func (r *rewriter) sql(s *ast.Sql) *ast.Sql {
	if s == nil {
		return nil
	}
	outer := r.scope
	r.scope = fromTables(s)
	defer func() { r.scope = outer }()

	out := &ast.Sql{
		Select: ast.Select{
			Distinct: s.Select.Distinct && !r.distinct,
			Cols:     r.cols(s.Select.Cols),
		},
		From:      ast.From{Table: r.tableUnit(s.From.Table)},
		Where:     ast.Where{Condition: r.condition(s.Where.Condition)},
		GroupBy:   ast.GroupBy{Cols: r.cols(s.GroupBy.Cols)},
		Having:    ast.Having{Condition: r.condition(s.Having.Condition)},
		Limit:     s.Limit,
		Intersect: r.sql(s.Intersect),
		Union:     r.sql(s.Union),
		Except:    r.sql(s.Except),
	}
	for _, j := range s.From.Joins {
		out.From.Joins = append(out.From.Joins, ast.Join{
			Kind:  j.Kind,
			Table: r.tableUnit(j.Table),
			On:    r.condition(j.On),
		})
	}
	for _, it := range s.OrderBy.Items {
		out.OrderBy.Items = append(out.OrderBy.Items, ast.OrderItem{Col: r.col(it.Col), Dir: it.Dir})
	}
	return out
}

func fromTables(s *ast.Sql) map[string]bool {
	set := make(map[string]bool)
	for _, id := range s.TableIDs() {
		set[strings.TrimSuffix(strings.TrimPrefix(id, "__"), "__")] = true
	}
	return set
}

func (r *rewriter) tableUnit(t ast.TableUnit) ast.TableUnit {
	switch u := t.(type) {
	case nil:
		return nil
	case ast.TableRef:
		return u
	case *ast.Sql:
		return r.sql(u)
	default:
		panic(fmt.Sprintf("rebuild: unknown table unit %T", t))
	}
}

func (r *rewriter) condition(c ast.Condition) ast.Condition {
	if len(c.Conds) == 0 {
		return c
	}
	out := ast.Condition{
		Conds:      make([]ast.Cond, len(c.Conds)),
		Connectors: append([]token.CondOp(nil), c.Connectors...),
	}
	for i, cond := range c.Conds {
		out.Conds[i] = ast.Cond{
			Not:  cond.Not,
			Op:   cond.Op,
			Col:  r.col(cond.Col),
			Val1: r.value(cond.Val1),
			Val2: r.value(cond.Val2),
		}
	}
	return out
}

func (r *rewriter) value(v ast.Value) ast.Value {
	if sv, ok := v.(ast.SubqueryValue); ok {
		return ast.SubqueryValue{Query: r.sql(sv.Query)}
	}
	if r.values {
		return nil
	}
	switch x := v.(type) {
	case nil:
		return nil
	case ast.ColValue:
		return ast.ColValue{Col: r.col(x.Col)}
	case ast.ListValue:
		items := make([]ast.Value, len(x.Items))
		for i, it := range x.Items {
			items[i] = r.value(it)
		}
		return ast.ListValue{Items: items}
	case ast.StringValue, ast.NumberValue:
		return x
	default:
		panic(fmt.Sprintf("rebuild: unknown value %T", v))
	}
}

func (r *rewriter) cols(cols []ast.ColUnit) []ast.ColUnit {
	if len(cols) == 0 {
		return cols
	}
	out := make([]ast.ColUnit, len(cols))
	for i, c := range cols {
		out[i] = r.col(c)
	}
	return out
}

func (r *rewriter) col(c ast.ColUnit) ast.ColUnit {
	switch u := c.(type) {
	case nil:
		return nil
	case ast.ColRef:
		if to, ok := r.fk[u.ID]; ok && r.scope[schema.TableOf(u.ID)] {
			u.ID = to
		}
		if r.distinct {
			u.Distinct = false
		}
		return u
	case ast.Agg:
		u.Col = r.col(u.Col)
		if r.distinct {
			u.Distinct = false
		}
		return u
	case ast.Arith:
		u.Left, u.Right = r.col(u.Left), r.col(u.Right)
		if r.distinct {
			u.Distinct = false
		}
		return u
	default:
		panic(fmt.Sprintf("rebuild: unknown column unit %T", c))
	}
}
