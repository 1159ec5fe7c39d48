package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlmatch/internal/testutil"
	"github.com/leapstack-labs/sqlmatch/pkg/adapter"
	"github.com/leapstack-labs/sqlmatch/pkg/adapters/sqlite"
)

const spiderTables = `[
  {
    "db_id": "flight_2",
    "table_names_original": ["airlines", "airports", "flights"],
    "column_names_original": [
      [-1, "*"],
      [0, "uid"], [0, "Airline"], [0, "Abbreviation"], [0, "Country"],
      [1, "City"], [1, "AirportCode"], [1, "AirportName"],
      [2, "Airline"], [2, "FlightNo"], [2, "SourceAirport"], [2, "DestAirport"]
    ],
    "foreign_keys": [[11, 6], [10, 6]],
    "primary_keys": [1, 6]
  },
  {
    "db_id": "pets_1",
    "table_names_original": ["Student"],
    "column_names_original": [[-1, "*"], [0, "StuID"]],
    "foreign_keys": []
  }
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSpider(t *testing.T) {
	c, err := LoadSpider(writeFile(t, "tables.json", spiderTables))
	require.NoError(t, err)
	assert.Equal(t, []string{"flight_2", "pets_1"}, c.Names())

	e, err := c.Get("flight_2")
	require.NoError(t, err)
	assert.Equal(t, []string{"airlines", "airports", "flights"}, e.Schema.Tables())
	cols, _ := e.Schema.Columns("flights")
	assert.Equal(t, []string{"airline", "flightno", "sourceairport", "destairport"}, cols)

	// lowest column index in the key set is airports.airportcode (6)
	assert.Equal(t, map[string]string{
		"__airports.airportcode__":  "__airports.airportcode__",
		"__flights.sourceairport__": "__airports.airportcode__",
		"__flights.destairport__":   "__airports.airportcode__",
	}, e.ForeignKeys)

	pets, err := c.Get("PETS_1")
	require.NoError(t, err)
	assert.Empty(t, pets.ForeignKeys)
}

func TestLoadSpider_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "nope"},
		{"missing db_id", `[{"table_names_original": ["t"], "column_names_original": [[0, "a"]]}]`},
		{"bad table index", `[{"db_id": "x", "table_names_original": ["t"], "column_names_original": [[3, "a"]]}]`},
		{"bad foreign key", `[{"db_id": "x", "table_names_original": ["t"], "column_names_original": [[0, "a"]], "foreign_keys": [[0, 9]]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSpider(writeFile(t, "tables.json", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("single database", func(t *testing.T) {
		path := writeFile(t, "world.yaml", `
name: world
tables:
  city: [id, name, countrycode]
  country: [code, name]
foreign_keys:
  - [city.countrycode, country.code]
`)
		c, err := LoadFile(path)
		require.NoError(t, err)

		e, err := c.Get("world")
		require.NoError(t, err)
		assert.Equal(t, []string{"city", "country"}, e.Schema.Tables())
		assert.Equal(t, "__city.countrycode__", e.ForeignKeys["__country.code__"])
	})

	t.Run("database list in json", func(t *testing.T) {
		path := writeFile(t, "schemas.json",
			`{"databases": [{"name": "a", "tables": {"t": ["x"]}}, {"name": "b", "tables": {"u": ["y"]}}]}`)
		c, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, c.Names())
	})

	t.Run("unknown foreign key column", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", `
name: world
tables:
  city: [id]
foreign_keys:
  - [city.id, country.code]
`)
		_, err := LoadFile(path)
		assert.ErrorContains(t, err, "country.code")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := LoadFile(writeFile(t, "empty.yaml", "other: 1\n"))
		assert.ErrorContains(t, err, "no databases")
	})
}

func TestGet_UnknownDatabase(t *testing.T) {
	c, err := LoadSpider(writeFile(t, "tables.json", spiderTables))
	require.NoError(t, err)

	_, err = c.Get("concert_singer")
	var unknown *UnknownDatabaseError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "concert_singer", unknown.Name)
	assert.Equal(t, []string{"flight_2", "pets_1"}, unknown.Available)
}

func TestFromAdapter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shop.sqlite")

	seed := sqlite.New(nil)
	require.NoError(t, seed.Connect(ctx, adapter.Config{Path: path}))
	require.NoError(t, seed.Exec(ctx, `
		CREATE TABLE customer (id INTEGER PRIMARY KEY, name TEXT);
		CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER REFERENCES customer(id));
	`))
	require.NoError(t, seed.Close())

	c, err := Open(ctx, adapter.Config{Path: path}, testutil.NewTestLogger(t))
	require.NoError(t, err)

	e, err := c.Get("shop")
	require.NoError(t, err)
	assert.Equal(t, []string{"customer", "orders"}, e.Schema.Tables())
	assert.Equal(t, "__customer.id__", e.ForeignKeys["__orders.customer_id__"])

	renamed, err := FromAdapter(ctx, "store", adapter.Config{Type: "sqlite", Path: path}, nil)
	require.NoError(t, err)
	_, err = renamed.Get("store")
	assert.NoError(t, err)
}

func TestInferType(t *testing.T) {
	tests := map[string]string{
		"data/spider/tables.json": TypeSpider,
		"db/concert.sqlite":       "sqlite",
		"warehouse.duckdb":        "duckdb",
		"schemas.yaml":            TypeFile,
	}
	for path, want := range tests {
		assert.Equal(t, want, inferType(path), path)
	}
}

func TestTypes(t *testing.T) {
	types := Types()
	assert.Equal(t, []string{TypeSpider, TypeFile}, types[:2])
	assert.Subset(t, types, []string{"duckdb", "postgres", "sqlite"})
}
