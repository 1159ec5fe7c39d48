package ast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlmatch/pkg/token"
)

func intp(n int) *int { return &n }

func sampleSql() *Sql {
	inner := &Sql{
		Select: Select{Cols: []ColUnit{Agg{Op: token.AggAvg, Col: colB}}},
		From:   From{Table: TableRef{ID: "__t__", Name: "t"}},
	}
	return &Sql{
		Select: Select{Cols: []ColUnit{colA, Agg{Op: token.AggCount, Col: ColRef{ID: "__all__", Name: "*"}}}},
		From: From{
			Table: TableRef{ID: "__t__", Name: "t"},
			Joins: []Join{{
				Kind:  JoinPlain,
				Table: TableRef{ID: "__u__", Name: "u"},
				On: Condition{Conds: []Cond{{
					Op: token.WhereEq, Col: colA, Val1: ColValue{Col: ColRef{ID: "__u.a__", Name: "u.a"}},
				}}},
			}},
		},
		Where: Where{Condition{
			Conds: []Cond{
				{Op: token.WhereGt, Col: colB, Val1: SubqueryValue{Query: inner}},
				{Op: token.WhereLike, Col: colA, Val1: StringValue{Text: `"%x%"`}},
			},
			Connectors: []token.CondOp{token.CondOr},
		}},
		GroupBy: GroupBy{Cols: []ColUnit{colA}},
		OrderBy: OrderBy{Items: []OrderItem{{Col: colA, Dir: token.OrderDesc}}},
		Limit:   Limit{Value: intp(3)},
	}
}

func TestSqlEqualReflexive(t *testing.T) {
	assert.True(t, sampleSql().Equal(sampleSql()))
	assert.True(t, Empty().Equal(Empty()))
	assert.False(t, sampleSql().Equal(Empty()))

	var nilSql *Sql
	assert.True(t, nilSql.Equal(nil))
}

func TestSqlEqualDetectsDifferences(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Sql)
	}{
		{"limit", func(s *Sql) { s.Limit = Limit{Value: intp(4)} }},
		{"no limit", func(s *Sql) { s.Limit = Limit{} }},
		{"direction", func(s *Sql) { s.OrderBy.Items[0].Dir = token.OrderAsc }},
		{"connector", func(s *Sql) { s.Where.Connectors[0] = token.CondAnd }},
		{"join kind", func(s *Sql) { s.From.Joins[0].Kind = JoinLeft }},
		{"distinct", func(s *Sql) { s.Select.Distinct = true }},
		{"union", func(s *Sql) { s.Union = Empty() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleSql()
			tt.mutate(s)
			assert.False(t, sampleSql().Equal(s))
		})
	}
}

func TestColUnitEqual(t *testing.T) {
	assert.True(t, colA.Equal(ColRef{ID: colA.ID, Name: "different display"}))
	assert.False(t, colA.Equal(ColRef{ID: colA.ID, Distinct: true}))
	assert.False(t, colA.Equal(Agg{Op: token.AggMax, Col: colA}))

	sum := Arith{Op: token.UnitPlus, Left: colA, Right: colB}
	assert.True(t, sum.Equal(Arith{Op: token.UnitPlus, Left: colA, Right: colB}))
	assert.False(t, sum.Equal(Arith{Op: token.UnitPlus, Left: colB, Right: colA}))

	assert.Equal(t, colA, StripAgg(Agg{Op: token.AggSum, Col: colA}))
}

func TestWalkVisitsEveryNode(t *testing.T) {
	var refs, subqueries, conds int
	Walk(sampleSql(), func(n any) bool {
		switch n.(type) {
		case ColRef:
			refs++
		case SubqueryValue:
			subqueries++
		case Cond:
			conds++
		}
		return true
	})
	// select: a, *; join on: a, u.a; where: b, (avg b), a; group: a; order: a
	assert.Equal(t, 9, refs)
	assert.Equal(t, 1, subqueries)
	assert.Equal(t, 3, conds)
}

func TestWalkSkipsChildren(t *testing.T) {
	var visited int
	Walk(sampleSql(), func(n any) bool {
		visited++
		_, isSql := n.(*Sql)
		return !isSql
	})
	assert.Equal(t, 1, visited)
}

func TestBlockHelpers(t *testing.T) {
	s := sampleSql()
	assert.Len(t, s.TableUnits(), 2)
	assert.Equal(t, []string{"__t__", "__u__"}, s.TableIDs())
	assert.Len(t, s.JoinConds().Conds, 1)
	assert.Len(t, s.Nested(), 1)
	assert.Empty(t, s.SetOps())

	s.Except = Empty()
	assert.Contains(t, s.SetOps(), token.SQLExcept)
}

func TestJoinCondsConnectsJoins(t *testing.T) {
	on := func(col string) Condition {
		return Condition{Conds: []Cond{{
			Op: token.WhereEq, Col: colA, Val1: ColValue{Col: ColRef{ID: "__" + col + "__", Name: col}},
		}}}
	}
	s := &Sql{From: From{
		Table: TableRef{ID: "__t__", Name: "t"},
		Joins: []Join{
			{Kind: JoinPlain, Table: TableRef{ID: "__u__", Name: "u"}, On: on("u.a")},
			{Kind: JoinPlain, Table: TableRef{ID: "__w__", Name: "w"}},
			{Kind: JoinPlain, Table: TableRef{ID: "__v__", Name: "v"}, On: Condition{
				Conds:      append(on("v.a").Conds, on("v.b").Conds...),
				Connectors: []token.CondOp{token.CondOr},
			}},
		},
	}}

	conds := s.JoinConds()
	require.Len(t, conds.Conds, 3)
	assert.Equal(t, []token.CondOp{token.CondAnd, token.CondOr}, conds.Connectors)
	assert.Len(t, conds.Connectors, len(conds.Conds)-1)

	assert.True(t, Empty().JoinConds().Empty())
}

func TestMarshalTagsVariants(t *testing.T) {
	b, err := json.Marshal(sampleSql())
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))

	sel := out["Select"].(map[string]any)
	cols := sel["Cols"].([]any)
	assert.Equal(t, "col", cols[0].(map[string]any)["kind"])
	assert.Equal(t, "agg", cols[1].(map[string]any)["kind"])

	where := out["Where"].(map[string]any)
	assert.Equal(t, []any{"or"}, where["connectors"])
}
