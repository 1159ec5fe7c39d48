package eval

import (
	"fmt"

	"github.com/leapstack-labs/sqlmatch/pkg/ast"
	"github.com/leapstack-labs/sqlmatch/pkg/token"
)

func colEq(a, b ast.ColUnit) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func condEq(a, b ast.Cond) bool { return a.Equal(b) }

func scoreSelect(pred, label ast.Select) Score {
	return jaccard(label.Cols, pred.Cols, colEq)
}

func scoreSelectNoAgg(pred, label ast.Select) Score {
	return jaccard(stripAggs(label.Cols), stripAggs(pred.Cols), colEq)
}

func stripAggs(cols []ast.ColUnit) []ast.ColUnit {
	out := make([]ast.ColUnit, len(cols))
	for i, c := range cols {
		out[i] = ast.StripAgg(c)
	}
	return out
}

func scoreConds(pred, label ast.Condition) Score {
	return jaccard(label.Conds, pred.Conds, condEq)
}

// scoreCondCols compares only the left operand of each condition.
func scoreCondCols(pred, label ast.Condition) Score {
	return jaccard(condCols(label), condCols(pred), colEq)
}

func condCols(c ast.Condition) []ast.ColUnit {
	out := make([]ast.ColUnit, len(c.Conds))
	for i, cond := range c.Conds {
		out[i] = cond.Col
	}
	return out
}

func scoreGroupBy(pred, label ast.GroupBy) Score {
	return jaccard(label.Cols, pred.Cols, colEq)
}

func scoreOrderBy(pred, label ast.OrderBy) Score {
	return jaccard(label.Items, pred.Items, func(a, b ast.OrderItem) bool {
		return a.Dir == b.Dir && colEq(a.Col, b.Col)
	})
}

// scoreLimit is all or nothing; two absent limits agree.
func scoreLimit(pred, label ast.Limit) Score {
	l, p := present(label.Value != nil), present(pred.Value != nil)
	if pred.Equal(label) {
		return Perfect(l, p)
	}
	return Zero(l, p)
}

func present(b bool) int {
	if b {
		return 1
	}
	return 0
}

// scoreAndOr compares the sets of connectors used in WHERE.
func scoreAndOr(pred, label ast.Condition) Score {
	return jaccard(connectorSet(label), connectorSet(pred), func(a, b token.CondOp) bool { return a == b })
}

func connectorSet(c ast.Condition) []token.CondOp {
	var out []token.CondOp
	seen := make(map[token.CondOp]bool)
	for _, op := range c.Connectors {
		if !seen[op] {
			seen[op] = true
			out = append(out, op)
		}
	}
	return out
}

// scoreFrom weighs table units and join conditions equally.
func scoreFrom(pred, label *ast.Sql) Score {
	tables := scoreTableUnits(pred.TableUnits(), label.TableUnits())
	conds := scoreConds(pred.JoinConds(), label.JoinConds())
	return blend(tables, conds)
}

// scoreTableUnits matches table refs by id. A nested query matches the
// unused label query it scores best against, provided that score is above
// one half.
func scoreTableUnits(pred, label []ast.TableUnit) Score {
	used := make([]bool, len(label))
	matched := 0
	for _, p := range pred {
		switch pu := p.(type) {
		case ast.TableRef:
			for i, l := range label {
				if lu, ok := l.(ast.TableRef); ok && !used[i] && lu.ID == pu.ID {
					used[i] = true
					matched++
					break
				}
			}
		case *ast.Sql:
			best, bestAcc := -1, 0.5
			for i, l := range label {
				lu, ok := l.(*ast.Sql)
				if !ok || used[i] {
					continue
				}
				if acc := overallAccuracy(pu, lu); acc > bestAcc {
					best, bestAcc = i, acc
				}
			}
			if best >= 0 {
				used[best] = true
				matched++
			}
		default:
			panic(fmt.Sprintf("eval: unsupported table unit %T", p))
		}
	}
	return NewScore(len(label), len(pred), matched)
}

// scoreIUEN counts each set operation and each nested condition subquery
// present on either side. A pair present on both sides matches when it is
// an exact match.
func scoreIUEN(pred, label *ast.Sql) Score {
	var l, p, m int

	predOps, labelOps := pred.SetOps(), label.SetOps()
	for _, op := range []token.SQLOp{token.SQLIntersect, token.SQLUnion, token.SQLExcept} {
		ls, lok := labelOps[op]
		ps, pok := predOps[op]
		l += present(lok)
		p += present(pok)
		if lok && pok && ExactMatch(ps, ls) {
			m++
		}
	}

	labelNested, predNested := label.Nested(), pred.Nested()
	l += len(labelNested)
	p += len(predNested)
	m += countMatches(labelNested, predNested, func(a, b *ast.Sql) bool { return ExactMatch(a, b) })

	return NewScore(l, p, m)
}
