// Package token defines the fixed operator and keyword tables used by the
// lexer, parser and evaluator.
//
// Each operator family is an ordered table: an operator's position in its
// table is its stable id, so AST nodes carry small integer ids rather than
// strings and two trees built from different inputs compare cheaply.
package token

// AggOp is an aggregate function id.
type AggOp int

// Aggregate ops, in table order.
const (
	AggNone AggOp = iota
	AggMax
	AggMin
	AggCount
	AggSum
	AggAvg
)

var aggNames = [...]string{"none", "max", "min", "count", "sum", "avg"}

func (o AggOp) String() string { return name(aggNames[:], int(o), "agg") }

// WhereOp is a condition operator id. WhereNot only ever appears as the
// negation flag of a condition, never as its operator.
type WhereOp int

// Condition operators, in table order.
const (
	WhereNot WhereOp = iota
	WhereBetween
	WhereEq
	WhereGt
	WhereLt
	WhereGe
	WhereLe
	WhereNe
	WhereIn
	WhereLike
	WhereIs
	WhereExists
)

var whereNames = [...]string{"not", "between", "=", ">", "<", ">=", "<=", "!=", "in", "like", "is", "exists"}

func (o WhereOp) String() string { return name(whereNames[:], int(o), "op") }

// IsComparison reports whether o is one of <, >, <=, >=.
func (o WhereOp) IsComparison() bool {
	switch o {
	case WhereGt, WhereLt, WhereGe, WhereLe:
		return true
	}
	return false
}

// UnitOp is an arithmetic operator id.
type UnitOp int

// Arithmetic ops, in table order.
const (
	UnitNone UnitOp = iota
	UnitMinus
	UnitPlus
	UnitTimes
	UnitDivide
)

var unitNames = [...]string{"none", "-", "+", "*", "/"}

func (o UnitOp) String() string { return name(unitNames[:], int(o), "unit") }

// CondOp is a boolean connector between conditions.
type CondOp int

// Connectors.
const (
	CondAnd CondOp = iota
	CondOr
)

var condNames = [...]string{"and", "or"}

func (o CondOp) String() string { return name(condNames[:], int(o), "cond") }

// SQLOp is a set operation joining two query blocks.
type SQLOp int

// Set operations.
const (
	SQLIntersect SQLOp = iota
	SQLUnion
	SQLExcept
)

var sqlNames = [...]string{"intersect", "union", "except"}

func (o SQLOp) String() string { return name(sqlNames[:], int(o), "setop") }

// OrderOp is a sort direction.
type OrderOp int

// Sort directions.
const (
	OrderDesc OrderOp = iota
	OrderAsc
)

var orderNames = [...]string{"desc", "asc"}

func (o OrderOp) String() string { return name(orderNames[:], int(o), "order") }

func name(table []string, i int, kind string) string {
	if i < 0 || i >= len(table) {
		return kind + "(?)"
	}
	return table[i]
}

func lookup(table []string, s string, from int) (int, bool) {
	for i := from; i < len(table); i++ {
		if table[i] == s {
			return i, true
		}
	}
	return 0, false
}

// LookupAgg returns the aggregate op for s. "none" is not a valid token.
func LookupAgg(s string) (AggOp, bool) {
	i, ok := lookup(aggNames[:], s, 1)
	return AggOp(i), ok
}

// LookupWhere returns the condition operator for s. "not" is excluded since
// it is parsed as a negation flag.
func LookupWhere(s string) (WhereOp, bool) {
	i, ok := lookup(whereNames[:], s, 1)
	return WhereOp(i), ok
}

// LookupUnit returns the arithmetic op for s.
func LookupUnit(s string) (UnitOp, bool) {
	i, ok := lookup(unitNames[:], s, 1)
	return UnitOp(i), ok
}

// LookupCond returns the connector for s.
func LookupCond(s string) (CondOp, bool) {
	i, ok := lookup(condNames[:], s, 0)
	return CondOp(i), ok
}

// LookupSQL returns the set operation for s.
func LookupSQL(s string) (SQLOp, bool) {
	i, ok := lookup(sqlNames[:], s, 0)
	return SQLOp(i), ok
}

// LookupOrder returns the sort direction for s.
func LookupOrder(s string) (OrderOp, bool) {
	i, ok := lookup(orderNames[:], s, 0)
	return OrderOp(i), ok
}
