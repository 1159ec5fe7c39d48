package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return New("World", []Table{
		{Name: "City", Columns: []string{"ID", "Name", "CountryCode"}},
		{Name: "country", Columns: []string{"code", "name"}},
	})
}

func TestNewLowercasesAndAssignsIDs(t *testing.T) {
	s := testSchema()

	assert.Equal(t, "world", s.Name())
	assert.Equal(t, []string{"city", "country"}, s.Tables())

	tests := []struct {
		key  string
		want string
	}{
		{"*", AllID},
		{"city", "__city__"},
		{"city.name", "__city.name__"},
		{"country.code", "__country.code__"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			id, ok := s.ID(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, id)
		})
	}

	_, ok := s.ID("city.missing")
	assert.False(t, ok)
}

func TestColumnsAreCopies(t *testing.T) {
	s := testSchema()
	cols, ok := s.Columns("city")
	require.True(t, ok)
	cols[0] = "mutated"

	again, _ := s.Columns("city")
	assert.Equal(t, "id", again[0])
}

func TestHasColumnAndIdentifier(t *testing.T) {
	s := testSchema()

	assert.True(t, s.HasTable("country"))
	assert.False(t, s.HasTable("state"))
	assert.True(t, s.HasColumn("city", "countrycode"))
	assert.False(t, s.HasColumn("country", "countrycode"))

	assert.True(t, s.IsIdentifier("countrycode"))
	assert.True(t, s.IsIdentifier("city"))
	assert.True(t, s.IsIdentifier("country.name"))
	assert.False(t, s.IsIdentifier("sydney"))
}

func TestFromMapSortsTables(t *testing.T) {
	s := FromMap("db", map[string][]string{
		"b": {"x"},
		"a": {"y"},
	})
	assert.Equal(t, []string{"a", "b"}, s.Tables())
}

func TestTableOf(t *testing.T) {
	assert.Equal(t, "city", TableOf("__city.name__"))
	assert.Equal(t, "", TableOf(AllID))
	assert.Equal(t, "", TableOf("__city__"))
}

func TestCanonicalIDs(t *testing.T) {
	assert.Equal(t, "__city__", TableID("City"))
	assert.Equal(t, "__city.name__", ColumnID("City", "Name"))

	s := FromMap("db", map[string][]string{"Zoo": {"a"}, "apple": {"b"}})
	assert.Equal(t, []string{"apple", "zoo"}, s.Tables())
	id, ok := s.ID("zoo.a")
	require.True(t, ok)
	assert.Equal(t, ColumnID("zoo", "a"), id)
}
