package ast

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/sqlmatch/pkg/token"
)

var (
	colA = ColRef{ID: "__t.a__", Name: "t.a"}
	colB = ColRef{ID: "__t.b__", Name: "t.b"}
)

// cmpCond builds "[not] x op y" where swapped selects "b op a" over "a op b".
func cmpCond(op token.WhereOp, not, swapped bool) Cond {
	l, r := colA, colB
	if swapped {
		l, r = colB, colA
	}
	return Cond{Not: not, Op: op, Col: l, Val1: ColValue{Col: r}}
}

// truth evaluates the condition for a given ordering of a against b
// (-1: a<b, 0: a=b, 1: a>b) and returns the outcome vector.
func truth(op token.WhereOp, not, swapped bool) [3]bool {
	var out [3]bool
	for i, ord := range []int{-1, 0, 1} {
		if swapped {
			ord = -ord
		}
		var v bool
		switch op {
		case token.WhereLt:
			v = ord < 0
		case token.WhereGt:
			v = ord > 0
		case token.WhereLe:
			v = ord <= 0
		case token.WhereGe:
			v = ord >= 0
		}
		out[i] = v != not
	}
	return out
}

// TestCondComparisonLattice enumerates every pairing of comparison operator,
// negation and operand order and checks Equal agrees with the truth table.
func TestCondComparisonLattice(t *testing.T) {
	ops := []token.WhereOp{token.WhereLt, token.WhereGt, token.WhereLe, token.WhereGe}
	bools := []bool{false, true}

	for _, op1 := range ops {
		for _, op2 := range ops {
			for _, not1 := range bools {
				for _, not2 := range bools {
					for _, swap := range bools {
						name := fmt.Sprintf("%v%s_%v%s_swap=%v", not1, op1, not2, op2, swap)
						t.Run(name, func(t *testing.T) {
							c1 := cmpCond(op1, not1, false)
							c2 := cmpCond(op2, not2, swap)
							want := truth(op1, not1, false) == truth(op2, not2, swap)
							assert.Equal(t, want, c1.Equal(c2))
							assert.Equal(t, want, c2.Equal(c1), "equality must be symmetric")
						})
					}
				}
			}
		}
	}
}

func TestCondSwapSymmetry(t *testing.T) {
	gt := Cond{Op: token.WhereGt, Col: colA, Val1: ColValue{Col: colB}}
	lt := Cond{Op: token.WhereLt, Col: colB, Val1: ColValue{Col: colA}}
	assert.True(t, gt.Equal(lt))

	lit5 := Cond{Op: token.WhereGt, Col: colA, Val1: NumberValue{Num: 5}}
	lit6 := Cond{Op: token.WhereGt, Col: colA, Val1: NumberValue{Num: 6}}
	assert.True(t, lit5.Equal(lit5))
	assert.False(t, lit5.Equal(lit6))
}

func TestCondEqualityIsUnordered(t *testing.T) {
	ab := Cond{Op: token.WhereEq, Col: colA, Val1: ColValue{Col: colB}}
	ba := Cond{Op: token.WhereEq, Col: colB, Val1: ColValue{Col: colA}}
	assert.True(t, ab.Equal(ba))

	notEq := Cond{Not: true, Op: token.WhereEq, Col: colA, Val1: ColValue{Col: colB}}
	ne := Cond{Op: token.WhereNe, Col: colB, Val1: ColValue{Col: colA}}
	assert.True(t, notEq.Equal(ne))
	assert.False(t, notEq.Equal(ab))
}

func TestCondOperandKindsMustMatch(t *testing.T) {
	colVal := Cond{Op: token.WhereEq, Col: colA, Val1: ColValue{Col: colB}}
	numVal := Cond{Op: token.WhereEq, Col: colA, Val1: NumberValue{Num: 5}}
	strVal := Cond{Op: token.WhereEq, Col: colA, Val1: StringValue{Text: `"5"`}}

	assert.False(t, colVal.Equal(numVal))
	assert.False(t, numVal.Equal(strVal))
}

func TestCondBetweenBoundsUnordered(t *testing.T) {
	a := Cond{Op: token.WhereBetween, Col: colA, Val1: NumberValue{Num: 1}, Val2: NumberValue{Num: 9}}
	b := Cond{Op: token.WhereBetween, Col: colA, Val1: NumberValue{Num: 9}, Val2: NumberValue{Num: 1}}
	c := Cond{Op: token.WhereBetween, Col: colB, Val1: NumberValue{Num: 1}, Val2: NumberValue{Num: 9}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestCondOtherOpsCompareDirectly(t *testing.T) {
	like := Cond{Op: token.WhereLike, Col: colA, Val1: StringValue{Text: `"%x%"`}}
	notLike := like
	notLike.Not = true

	assert.True(t, like.Equal(like))
	assert.False(t, like.Equal(notLike))
}
