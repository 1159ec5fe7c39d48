package rebuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlmatch/pkg/ast"
	"github.com/leapstack-labs/sqlmatch/pkg/parser"
	"github.com/leapstack-labs/sqlmatch/pkg/schema"
)

func world() *schema.Schema {
	return schema.New("world", []schema.Table{
		{Name: "city", Columns: []string{"id", "name", "countrycode", "population"}},
		{Name: "country", Columns: []string{"code", "name", "continent", "population"}},
	})
}

var worldFK = map[string]string{
	"__city.countrycode__": "__country.code__",
	"__country.code__":     "__country.code__",
}

func parse(t *testing.T, query string) *ast.Sql {
	t.Helper()
	sql, err := parser.ParseQuery(query, world())
	require.NoError(t, err)
	return sql
}

func TestForeignKeysFoldJoinColumns(t *testing.T) {
	sql := parse(t, "SELECT city.name FROM city JOIN country ON city.countrycode = country.code WHERE city.countrycode = 'NLD'")
	before := parse(t, "SELECT city.name FROM city JOIN country ON city.countrycode = country.code WHERE city.countrycode = 'NLD'")

	got := ForeignKeys(sql, worldFK)

	on := got.From.Joins[0].On.Conds[0]
	assert.Equal(t, "__country.code__", on.Col.(ast.ColRef).ID)
	assert.Equal(t, "__country.code__", on.Val1.(ast.ColValue).Col.(ast.ColRef).ID)
	assert.Equal(t, "__country.code__", got.Where.Conds[0].Col.(ast.ColRef).ID)
	assert.Equal(t, "__city.name__", got.Select.Cols[0].(ast.ColRef).ID)

	assert.True(t, sql.Equal(before), "input must not change")
}

func TestForeignKeysMakesEquivalentJoinsEqual(t *testing.T) {
	a := parse(t, "SELECT count(*) FROM city JOIN country ON city.countrycode = country.code GROUP BY city.countrycode")
	b := parse(t, "SELECT count(*) FROM city JOIN country ON city.countrycode = country.code GROUP BY country.code")
	require.False(t, a.Equal(b))

	assert.True(t, ForeignKeys(a, worldFK).Equal(ForeignKeys(b, worldFK)))
}

func TestForeignKeysRespectsBlockScope(t *testing.T) {
	sql := parse(t, "SELECT name FROM country WHERE code IN (SELECT countrycode FROM city)")
	got := ForeignKeys(sql, worldFK)

	inner := got.Where.Conds[0].Val1.(ast.SubqueryValue).Query
	assert.Equal(t, "__country.code__", inner.Select.Cols[0].(ast.ColRef).ID)

	// a city column referenced from a block that only reads country stays
	outOfScope := &ast.Sql{
		Select: ast.Select{Cols: []ast.ColUnit{ast.ColRef{ID: "__city.countrycode__"}}},
		From:   ast.From{Table: ast.TableRef{ID: "__country__"}},
	}
	got = ForeignKeys(outOfScope, worldFK)
	assert.Equal(t, "__city.countrycode__", got.Select.Cols[0].(ast.ColRef).ID)
}

func TestForeignKeysEmptyMapIsIdentity(t *testing.T) {
	sql := parse(t, "SELECT name FROM city")
	assert.Same(t, sql, ForeignKeys(sql, nil))
}

func TestStripValues(t *testing.T) {
	sql := parse(t, "SELECT name FROM city WHERE name = 'x' AND population > (SELECT avg(population) FROM city WHERE id = 3)")
	got := StripValues(sql)

	require.Len(t, got.Where.Conds, 2)
	assert.Nil(t, got.Where.Conds[0].Val1)

	sub, ok := got.Where.Conds[1].Val1.(ast.SubqueryValue)
	require.True(t, ok, "subquery operands are kept")
	assert.Nil(t, sub.Query.Where.Conds[0].Val1)

	assert.Equal(t, ast.StringValue{Text: `"x"`}, sql.Where.Conds[0].Val1, "input must not change")
}

func TestStripValuesMakesLiteralsIrrelevant(t *testing.T) {
	a := parse(t, "SELECT name FROM city WHERE population BETWEEN 1 AND 5")
	b := parse(t, "SELECT name FROM city WHERE population BETWEEN 10 AND 50")
	assert.True(t, StripValues(a).Equal(StripValues(b)))
}

func TestStripDistinct(t *testing.T) {
	sql := parse(t, "SELECT DISTINCT count(DISTINCT name) FROM city UNION SELECT DISTINCT name FROM country")
	got := StripDistinct(sql)

	ast.Walk(got, func(node any) bool {
		switch n := node.(type) {
		case *ast.Sql:
			assert.False(t, n.Select.Distinct)
		case ast.ColRef:
			assert.False(t, n.Distinct)
		case ast.Agg:
			assert.False(t, n.Distinct)
		case ast.Arith:
			assert.False(t, n.Distinct)
		}
		return true
	})
	assert.True(t, sql.Select.Distinct, "input must not change")
}
