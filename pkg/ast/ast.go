// Package ast defines the typed tree produced by the parser and consumed by
// the evaluator and the hardness classifier.
//
// Every node is a value. ColUnit, TableUnit and Value are closed sets: their
// marker methods are unexported so no variant can be added outside this
// package, and every type switch over them can treat the default branch as
// unreachable.
//
// # Node Overview
//
//	Sql       → Select From Where GroupBy Having OrderBy Limit [Intersect|Union|Except → Sql]
//	From      → TableUnit Join*
//	TableUnit → TableRef | Sql
//	ColUnit   → ColRef | Agg | Arith
//	Value     → StringValue | NumberValue | ColValue | SubqueryValue | ListValue
package ast

import "github.com/leapstack-labs/sqlmatch/pkg/token"

// ColUnit is a column expression.
type ColUnit interface {
	colUnit()
	// Equal reports structural equality with another column expression.
	Equal(ColUnit) bool
}

// TableUnit is an item in a FROM list.
type TableUnit interface {
	tableUnit()
}

// Value is the right-hand operand of a condition.
type Value interface {
	value()
}

// ---------- Query Block ----------

// Sql is one query block with its optional set-operation chain.
type Sql struct {
	Select  Select
	From    From
	Where   Where
	GroupBy GroupBy
	Having  Having
	OrderBy OrderBy
	Limit   Limit

	Intersect *Sql
	Union     *Sql
	Except    *Sql
}

func (*Sql) tableUnit() {}

// Empty returns the neutral query used in place of one that failed to parse.
func Empty() *Sql {
	return &Sql{}
}

// Select is the projection list.
type Select struct {
	Distinct bool
	Cols     []ColUnit
}

// From is the primary table unit plus its joins.
type From struct {
	Table TableUnit
	Joins []Join
}

// JoinKind names how a table was joined.
type JoinKind string

// Join kinds. JoinCartesian is the comma form.
const (
	JoinPlain     JoinKind = "join"
	JoinInner     JoinKind = "inner"
	JoinLeft      JoinKind = "left"
	JoinRight     JoinKind = "right"
	JoinOuter     JoinKind = "outer"
	JoinNatural   JoinKind = "natural"
	JoinCross     JoinKind = "cross"
	JoinFull      JoinKind = "full"
	JoinCartesian JoinKind = "cartesian"
)

// Join is one joined table unit and its ON conditions.
type Join struct {
	Kind  JoinKind
	Table TableUnit
	On    Condition
}

// Condition is a sequence of conditions joined by connectors.
// len(Connectors) is len(Conds)-1 for a non-empty condition.
type Condition struct {
	Conds      []Cond
	Connectors []token.CondOp
}

// Empty reports whether the condition has no predicates.
func (c Condition) Empty() bool { return len(c.Conds) == 0 }

// Where is the WHERE clause.
type Where struct{ Condition }

// Having is the HAVING clause.
type Having struct{ Condition }

// Cond is a single predicate. Val2 is set only for BETWEEN.
type Cond struct {
	Not  bool
	Op   token.WhereOp
	Col  ColUnit
	Val1 Value
	Val2 Value
}

// GroupBy is the grouping list.
type GroupBy struct {
	Cols []ColUnit
}

// OrderItem is one sort key.
type OrderItem struct {
	Col ColUnit
	Dir token.OrderOp
}

// OrderBy is the sort list.
type OrderBy struct {
	Items []OrderItem
}

// Limit is the optional row limit.
type Limit struct {
	Value *int
}

// ---------- Column Expressions ----------

// ColRef is a resolved column reference.
type ColRef struct {
	ID       string
	Name     string
	Distinct bool
}

func (ColRef) colUnit() {}

// Equal compares canonical ids; the display name is ignored.
func (c ColRef) Equal(o ColUnit) bool {
	r, ok := o.(ColRef)
	return ok && r.ID == c.ID && r.Distinct == c.Distinct
}

// Agg is an aggregate applied to a column expression.
type Agg struct {
	Op       token.AggOp
	Col      ColUnit
	Distinct bool
}

func (Agg) colUnit() {}

// Equal implements ColUnit.
func (a Agg) Equal(o ColUnit) bool {
	r, ok := o.(Agg)
	return ok && r.Op == a.Op && r.Distinct == a.Distinct && colEqual(a.Col, r.Col)
}

// Arith is a binary arithmetic expression.
type Arith struct {
	Op       token.UnitOp
	Left     ColUnit
	Right    ColUnit
	Distinct bool
}

func (Arith) colUnit() {}

// Equal implements ColUnit.
func (a Arith) Equal(o ColUnit) bool {
	r, ok := o.(Arith)
	return ok && r.Op == a.Op && r.Distinct == a.Distinct &&
		colEqual(a.Left, r.Left) && colEqual(a.Right, r.Right)
}

func colEqual(a, b ColUnit) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// StripAgg returns the column expression under any aggregate.
func StripAgg(c ColUnit) ColUnit {
	if a, ok := c.(Agg); ok {
		return StripAgg(a.Col)
	}
	return c
}

// ---------- Table Units ----------

// TableRef is a resolved schema table.
type TableRef struct {
	ID   string
	Name string
}

func (TableRef) tableUnit() {}

// ---------- Values ----------

// StringValue is a quoted literal, quotes included.
type StringValue struct {
	Text string
}

// NumberValue is a numeric literal.
type NumberValue struct {
	Num float64
}

// ColValue is a column expression used as an operand.
type ColValue struct {
	Col ColUnit
}

// SubqueryValue is a nested query used as an operand.
type SubqueryValue struct {
	Query *Sql
}

// ListValue is the literal list operand of IN.
type ListValue struct {
	Items []Value
}

func (StringValue) value()   {}
func (NumberValue) value()   {}
func (ColValue) value()      {}
func (SubqueryValue) value() {}
func (ListValue) value()     {}
