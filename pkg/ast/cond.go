package ast

import (
	"fmt"

	"github.com/leapstack-labs/sqlmatch/pkg/token"
)

// Equal reports whether two conditions are equivalent.
//
// Both conditions are reduced to a canonical form before comparison:
//
//	not (a = b)   -> a != b          not (a != b) -> a = b
//	not (a < b)   -> a >= b          not (a > b)  -> a <= b
//	not (a <= b)  -> a > b           not (a >= b) -> a < b
//	a > b         -> b < a           a >= b       -> b <= a
//
// After that, = and != compare their two operands as an unordered pair,
// BETWEEN compares its bounds as an unordered pair, and everything else
// compares operand by operand. Operands only match when they are the same
// kind of value, so a = b never equals a = 5.
func (c Cond) Equal(o Cond) bool {
	a, b := c.canonical(), o.canonical()
	if a.not != b.not || a.op != b.op {
		return false
	}
	switch a.op {
	case token.WhereEq, token.WhereNe:
		return ValuesEqual(a.extra, b.extra) && unorderedEqual(a.left, a.right, b.left, b.right)
	case token.WhereBetween:
		return ValuesEqual(a.left, b.left) && unorderedEqual(a.right, a.extra, b.right, b.extra)
	default:
		return ValuesEqual(a.left, b.left) && ValuesEqual(a.right, b.right) && ValuesEqual(a.extra, b.extra)
	}
}

type canonCond struct {
	not   bool
	op    token.WhereOp
	left  Value
	right Value
	extra Value
}

func (c Cond) canonical() canonCond {
	k := canonCond{not: c.Not, op: c.Op, left: ColValue{Col: c.Col}, right: c.Val1, extra: c.Val2}
	if c.Col == nil {
		k.left = nil
	}
	switch {
	case k.op == token.WhereEq && k.not:
		k.op, k.not = token.WhereNe, false
	case k.op == token.WhereNe && k.not:
		k.op, k.not = token.WhereEq, false
	case k.op.IsComparison():
		if k.not {
			k.op, k.not = complement(k.op), false
		}
		if k.op == token.WhereGt || k.op == token.WhereGe {
			k.op = flip(k.op)
			k.left, k.right = k.right, k.left
		}
	}
	return k
}

// complement returns the operator equivalent to the negation of op.
func complement(op token.WhereOp) token.WhereOp {
	switch op {
	case token.WhereLt:
		return token.WhereGe
	case token.WhereGe:
		return token.WhereLt
	case token.WhereGt:
		return token.WhereLe
	case token.WhereLe:
		return token.WhereGt
	}
	panic(fmt.Sprintf("ast: complement of non-comparison %s", op))
}

// flip returns the operator equivalent to op with its operands swapped.
func flip(op token.WhereOp) token.WhereOp {
	switch op {
	case token.WhereLt:
		return token.WhereGt
	case token.WhereGt:
		return token.WhereLt
	case token.WhereLe:
		return token.WhereGe
	case token.WhereGe:
		return token.WhereLe
	}
	panic(fmt.Sprintf("ast: flip of non-comparison %s", op))
}

func unorderedEqual(a1, a2, b1, b2 Value) bool {
	return (ValuesEqual(a1, b1) && ValuesEqual(a2, b2)) ||
		(ValuesEqual(a1, b2) && ValuesEqual(a2, b1))
}

// ValuesEqual compares two operands. Operands of different kinds are never
// equal; two absent operands are.
func ValuesEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case StringValue:
		y, ok := b.(StringValue)
		return ok && x.Text == y.Text
	case NumberValue:
		y, ok := b.(NumberValue)
		return ok && x.Num == y.Num
	case ColValue:
		y, ok := b.(ColValue)
		return ok && colEqual(x.Col, y.Col)
	case SubqueryValue:
		y, ok := b.(SubqueryValue)
		return ok && x.Query.Equal(y.Query)
	case ListValue:
		y, ok := b.(ListValue)
		return ok && listEqual(x.Items, y.Items)
	default:
		panic(fmt.Sprintf("ast: unknown value %T", a))
	}
}

// listEqual compares IN lists as sets: item order does not matter.
func listEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for j, y := range b {
			if !used[j] && ValuesEqual(x, y) {
				used[j], found = true, true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
