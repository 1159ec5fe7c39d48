package corpus

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlmatch/pkg/tablematch"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "gold.csv", "name,population\nSydney,5000000\n")
	path := write(t, dir, "cases.yaml", `
- id: q1
  db_id: world
  question: Which cities are big?
  gold: SELECT name, population FROM city
  predicted: SELECT name FROM city
  gold_result_file: gold.csv
  pred_result:
    - [name, population]
    - [Sydney, 5000000]
- db_id: world
  gold: SELECT count(*) FROM city
`)

	cases, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cases, 2)

	assert.Equal(t, "q1", cases[0].ID)
	assert.Equal(t, "world", cases[0].DB)
	assert.Equal(t, tablematch.Table{{"name", "population"}, {"Sydney", "5000000"}}, cases[0].GoldResult)
	assert.Equal(t, tablematch.Table{{"name", "population"}, {"Sydney", 5000000}}, cases[0].PredResult)
	assert.True(t, cases[0].HasTables())

	assert.Equal(t, "2", cases[1].ID, "missing ids are numbered by position")
	assert.False(t, cases[1].HasTables())
}

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "cases.json", `[{"id": "a", "db_id": "pets_1", "gold": "SELECT 1", "gold_result": [["x"], [1.5]]}]`)

	cases, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, tablematch.Table{{"x"}, {json.Number("1.5")}}, cases[0].GoldResult)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(write(t, dir, "cases.txt", "x"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(write(t, dir, "broken.yaml", "- id: [unclosed"))
	require.Error(t, err)

	_, err = Load(write(t, dir, "missing.yaml", "- id: a\n  gold_result_file: nowhere.json\n"))
	require.ErrorContains(t, err, "case a")
}

func TestLoadSpiderPair(t *testing.T) {
	dir := t.TempDir()
	gold := write(t, dir, "gold.sql", "SELECT count(*) FROM singer\tconcert_singer\n\nSELECT name FROM singer\tconcert_singer\n")
	pred := write(t, dir, "pred.sql", "SELECT count(*) FROM singer\nSELECT name, age FROM singer\n")

	cases, err := LoadSpiderPair(gold, pred)
	require.NoError(t, err)
	assert.Equal(t, []Case{
		{ID: "1", DB: "concert_singer", Gold: "SELECT count(*) FROM singer", Predicted: "SELECT count(*) FROM singer"},
		{ID: "2", DB: "concert_singer", Gold: "SELECT name FROM singer", Predicted: "SELECT name, age FROM singer"},
	}, cases)

	short := write(t, dir, "short.sql", "SELECT 1\n")
	_, err = LoadSpiderPair(gold, short)
	require.ErrorContains(t, err, "has 2 queries")

	noTab := write(t, dir, "notab.sql", "SELECT 1\n")
	_, err = LoadSpiderPair(noTab, short)
	require.ErrorContains(t, err, "separated by a tab")
}

func TestReadTable(t *testing.T) {
	dir := t.TempDir()

	got, err := ReadTable(write(t, dir, "t.json", `[["id", "name"], [1, "a"], [2, null]]`))
	require.NoError(t, err)
	assert.Equal(t, tablematch.Table{{"id", "name"}, {json.Number("1"), "a"}, {json.Number("2"), nil}}, got)

	got, err = ReadTable(write(t, dir, "t.csv", "id,name\n1,\"a, b\"\n"))
	require.NoError(t, err)
	assert.Equal(t, tablematch.Table{{"id", "name"}, {"1", "a, b"}}, got)

	_, err = ReadTable(write(t, dir, "t.xml", "<t/>"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestAttachPredictions(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "1.sql", "SELECT name FROM singer\n")
	write(t, dir, "2.csv", "name\nJoe\n")

	cases := []Case{{ID: "1"}, {ID: "2"}, {ID: "3", Predicted: "SELECT 1"}}
	n, err := AttachPredictions(cases, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, "SELECT name FROM singer", cases[0].Predicted)
	assert.Equal(t, tablematch.Table{{"name"}, {"Joe"}}, cases[1].PredResult)
	assert.Equal(t, "SELECT 1", cases[2].Predicted, "cases without artifacts are untouched")
}
