// Package hardness buckets a parsed query into a difficulty tier from the
// number and kind of clauses it uses.
package hardness

import (
	"fmt"

	"github.com/leapstack-labs/sqlmatch/pkg/ast"
	"github.com/leapstack-labs/sqlmatch/pkg/token"
)

// Tier is a difficulty level.
type Tier int

// Tiers, from least to most difficult.
const (
	Easy Tier = iota
	Medium
	Hard
	Extra
)

// Tiers lists every tier in report order.
var Tiers = []Tier{Easy, Medium, Hard, Extra}

var tierNames = [...]string{"easy", "medium", "hard", "extra"}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return "unknown"
	}
	return tierNames[t]
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(b []byte) error {
	tier, ok := ParseTier(string(b))
	if !ok {
		return fmt.Errorf("unknown hardness tier %q", b)
	}
	*t = tier
	return nil
}

// ParseTier returns the tier with the given name.
func ParseTier(s string) (Tier, bool) {
	for i, n := range tierNames {
		if n == s {
			return Tier(i), true
		}
	}
	return Easy, false
}

// Counts are the three complexity measures a tier is derived from.
type Counts struct {
	// Comp1 counts WHERE, GROUP BY, ORDER BY, LIMIT, extra tables, OR
	// connectors and LIKE conditions.
	Comp1 int `json:"comp1"`
	// Comp2 counts nested condition subqueries and set operations.
	Comp2 int `json:"comp2"`
	// Others counts multiple aggregates, select columns, where conditions
	// and group columns, one point each.
	Others int `json:"others"`
}

// Count measures a query block.
func Count(sql *ast.Sql) Counts {
	return Counts{Comp1: comp1(sql), Comp2: comp2(sql), Others: others(sql)}
}

// Classify returns the tier of a query block.
func Classify(sql *ast.Sql) Tier {
	return Count(sql).Tier()
}

// Tier applies the decision table, first match wins.
func (c Counts) Tier() Tier {
	switch {
	case c.Comp1 <= 1 && c.Others == 0 && c.Comp2 == 0:
		return Easy
	case (c.Others <= 2 && c.Comp1 <= 1 && c.Comp2 == 0) ||
		(c.Comp1 <= 2 && c.Others < 2 && c.Comp2 == 0):
		return Medium
	case (c.Others > 2 && c.Comp1 <= 2 && c.Comp2 == 0) ||
		(c.Comp1 > 2 && c.Comp1 <= 3 && c.Others <= 2 && c.Comp2 == 0) ||
		(c.Comp1 <= 1 && c.Others == 0 && c.Comp2 <= 1):
		return Hard
	default:
		return Extra
	}
}

func comp1(sql *ast.Sql) int {
	n := 0
	if !sql.Where.Empty() {
		n++
	}
	if len(sql.GroupBy.Cols) > 0 {
		n++
	}
	if len(sql.OrderBy.Items) > 0 {
		n++
	}
	if sql.Limit.Value != nil {
		n++
	}
	if units := len(sql.TableUnits()); units > 0 {
		n += units - 1
	}
	for _, c := range conditions(sql) {
		for _, op := range c.Connectors {
			if op == token.CondOr {
				n++
			}
		}
		for _, cond := range c.Conds {
			if cond.Op == token.WhereLike {
				n++
			}
		}
	}
	return n
}

func comp2(sql *ast.Sql) int {
	n := len(sql.SetOps())
	for _, c := range conditions(sql) {
		for _, cond := range c.Conds {
			for _, v := range []ast.Value{cond.Val1, cond.Val2} {
				if sv, ok := v.(ast.SubqueryValue); ok && sv.Query != nil {
					n++
				}
			}
		}
	}
	return n
}

func others(sql *ast.Sql) int {
	n := 0
	if aggregates(sql) > 1 {
		n++
	}
	if len(sql.Select.Cols) > 1 {
		n++
	}
	if len(sql.Where.Conds) > 1 {
		n++
	}
	if len(sql.GroupBy.Cols) > 1 {
		n++
	}
	return n
}

// aggregates counts aggregated units in SELECT, WHERE, GROUP BY, ORDER BY
// and HAVING.
func aggregates(sql *ast.Sql) int {
	var units []ast.ColUnit
	units = append(units, sql.Select.Cols...)
	for _, cond := range sql.Where.Conds {
		units = append(units, cond.Col)
	}
	units = append(units, sql.GroupBy.Cols...)
	for _, it := range sql.OrderBy.Items {
		units = append(units, it.Col)
	}
	for _, cond := range sql.Having.Conds {
		units = append(units, cond.Col)
	}

	n := 0
	for _, u := range units {
		if _, ok := u.(ast.Agg); ok {
			n++
		}
	}
	return n
}

func conditions(sql *ast.Sql) []ast.Condition {
	return []ast.Condition{sql.JoinConds(), sql.Where.Condition, sql.Having.Condition}
}
