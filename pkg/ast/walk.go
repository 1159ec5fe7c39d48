package ast

import (
	"fmt"

	"github.com/leapstack-labs/sqlmatch/pkg/token"
)

// Walk traverses a tree depth-first and calls fn for each node.
// If fn returns false, the node's children are skipped.
//
// Nodes passed to fn are *Sql, Join, Cond, the ColUnit variants, the Value
// variants and TableRef. Set-operation chains are walked after the block
// that owns them.
func Walk(node any, fn func(node any) bool) {
	if node == nil {
		return
	}
	if s, ok := node.(*Sql); ok && s == nil {
		return
	}
	if !fn(node) {
		return
	}
	walkNode(node, fn)
}

func walkNode(node any, fn func(node any) bool) {
	switch n := node.(type) {
	case *Sql:
		for _, c := range n.Select.Cols {
			Walk(c, fn)
		}
		walkTableUnit(n.From.Table, fn)
		for _, j := range n.From.Joins {
			Walk(j, fn)
		}
		walkCondition(n.Where.Condition, fn)
		for _, c := range n.GroupBy.Cols {
			Walk(c, fn)
		}
		walkCondition(n.Having.Condition, fn)
		for _, it := range n.OrderBy.Items {
			Walk(it.Col, fn)
		}
		Walk(n.Intersect, fn)
		Walk(n.Union, fn)
		Walk(n.Except, fn)

	case Join:
		walkTableUnit(n.Table, fn)
		walkCondition(n.On, fn)

	case Cond:
		Walk(n.Col, fn)
		walkValue(n.Val1, fn)
		walkValue(n.Val2, fn)

	case Agg:
		Walk(n.Col, fn)

	case Arith:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	case ColValue:
		Walk(n.Col, fn)

	case SubqueryValue:
		Walk(n.Query, fn)

	case ListValue:
		for _, v := range n.Items {
			walkValue(v, fn)
		}

	case ColRef, TableRef, StringValue, NumberValue:
		// leaves

	default:
		panic(fmt.Sprintf("ast: cannot walk %T", node))
	}
}

func walkTableUnit(t TableUnit, fn func(node any) bool) {
	if t == nil {
		return
	}
	Walk(t, fn)
}

func walkValue(v Value, fn func(node any) bool) {
	if v == nil {
		return
	}
	Walk(v, fn)
}

func walkCondition(c Condition, fn func(node any) bool) {
	for _, cond := range c.Conds {
		Walk(cond, fn)
	}
}

// ---------- Block Helpers ----------

// TableUnits returns the primary table unit followed by every joined one.
func (s *Sql) TableUnits() []TableUnit {
	var out []TableUnit
	if s.From.Table != nil {
		out = append(out, s.From.Table)
	}
	for _, j := range s.From.Joins {
		out = append(out, j.Table)
	}
	return out
}

// JoinConds returns the ON conditions of every join as one condition. The
// conditions of separate joins are connected with and.
func (s *Sql) JoinConds() Condition {
	var out Condition
	for _, j := range s.From.Joins {
		if j.On.Empty() {
			continue
		}
		if !out.Empty() {
			out.Connectors = append(out.Connectors, token.CondAnd)
		}
		out.Conds = append(out.Conds, j.On.Conds...)
		out.Connectors = append(out.Connectors, j.On.Connectors...)
	}
	return out
}

// TableIDs returns the canonical ids of the plain table refs in FROM.
func (s *Sql) TableIDs() []string {
	var out []string
	for _, t := range s.TableUnits() {
		if r, ok := t.(TableRef); ok {
			out = append(out, r.ID)
		}
	}
	return out
}

// Nested returns the subqueries used as condition operands in this block,
// in WHERE then HAVING order. Set operations and FROM subqueries are not
// included.
func (s *Sql) Nested() []*Sql {
	var out []*Sql
	for _, conds := range [][]Cond{s.Where.Conds, s.Having.Conds} {
		for _, c := range conds {
			for _, v := range []Value{c.Val1, c.Val2} {
				if sv, ok := v.(SubqueryValue); ok && sv.Query != nil {
					out = append(out, sv.Query)
				}
			}
		}
	}
	return out
}

// SetOps returns the set operations linked from this block, keyed by op.
func (s *Sql) SetOps() map[token.SQLOp]*Sql {
	out := make(map[token.SQLOp]*Sql, 3)
	if s.Intersect != nil {
		out[token.SQLIntersect] = s.Intersect
	}
	if s.Union != nil {
		out[token.SQLUnion] = s.Union
	}
	if s.Except != nil {
		out[token.SQLExcept] = s.Except
	}
	return out
}
