package ast

import "fmt"

// Equal reports whether two query blocks are structurally equal, set
// operations included. Conditions compare with Cond.Equal; every other node
// compares in order.
func (s *Sql) Equal(o *Sql) bool {
	if s == nil || o == nil {
		return s == nil && o == nil
	}
	return s.Select.Distinct == o.Select.Distinct &&
		colsEqual(s.Select.Cols, o.Select.Cols) &&
		fromEqual(s.From, o.From) &&
		conditionEqual(s.Where.Condition, o.Where.Condition) &&
		colsEqual(s.GroupBy.Cols, o.GroupBy.Cols) &&
		conditionEqual(s.Having.Condition, o.Having.Condition) &&
		orderEqual(s.OrderBy, o.OrderBy) &&
		s.Limit.Equal(o.Limit) &&
		s.Intersect.Equal(o.Intersect) &&
		s.Union.Equal(o.Union) &&
		s.Except.Equal(o.Except)
}

// Equal reports whether both limits are absent or hold the same count.
func (l Limit) Equal(o Limit) bool {
	if l.Value == nil || o.Value == nil {
		return l.Value == nil && o.Value == nil
	}
	return *l.Value == *o.Value
}

// TableUnitsEqual compares two FROM items.
func TableUnitsEqual(a, b TableUnit) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case TableRef:
		y, ok := b.(TableRef)
		return ok && x.ID == y.ID
	case *Sql:
		y, ok := b.(*Sql)
		return ok && x.Equal(y)
	default:
		panic(fmt.Sprintf("ast: unknown table unit %T", a))
	}
}

func colsEqual(a, b []ColUnit) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !colEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func fromEqual(a, b From) bool {
	if !TableUnitsEqual(a.Table, b.Table) || len(a.Joins) != len(b.Joins) {
		return false
	}
	for i := range a.Joins {
		x, y := a.Joins[i], b.Joins[i]
		if x.Kind != y.Kind || !TableUnitsEqual(x.Table, y.Table) || !conditionEqual(x.On, y.On) {
			return false
		}
	}
	return true
}

func conditionEqual(a, b Condition) bool {
	if len(a.Conds) != len(b.Conds) || len(a.Connectors) != len(b.Connectors) {
		return false
	}
	for i := range a.Conds {
		if !a.Conds[i].Equal(b.Conds[i]) {
			return false
		}
	}
	for i := range a.Connectors {
		if a.Connectors[i] != b.Connectors[i] {
			return false
		}
	}
	return true
}

func orderEqual(a, b OrderBy) bool {
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if a.Items[i].Dir != b.Items[i].Dir || !colEqual(a.Items[i].Col, b.Items[i].Col) {
			return false
		}
	}
	return true
}
