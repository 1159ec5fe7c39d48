package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/leapstack-labs/sqlmatch/pkg/schema"
)

// spiderDB is one entry of a Spider tables.json file. Columns are
// [table index, name] pairs where index -1 is the wildcard. Foreign keys
// are pairs of column indexes.
type spiderDB struct {
	DBID        string   `json:"db_id"`
	TableNames  []string `json:"table_names_original"`
	ColumnNames [][2]any `json:"column_names_original"`
	ForeignKeys [][2]int `json:"foreign_keys"`
}

// LoadSpider reads a Spider tables.json file.
func LoadSpider(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var dbs []spiderDB
	if err := json.Unmarshal(data, &dbs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	c := New()
	for i := range dbs {
		e, err := dbs[i].entry()
		if err != nil {
			return nil, fmt.Errorf("%s: database %q: %w", path, dbs[i].DBID, err)
		}
		c.Add(e)
	}
	return c, nil
}

func (db *spiderDB) entry() (*Entry, error) {
	if db.DBID == "" {
		return nil, errors.New("missing db_id")
	}

	tables := make([]schema.Table, len(db.TableNames))
	for i, name := range db.TableNames {
		tables[i].Name = name
	}
	ids := make([]string, len(db.ColumnNames))
	for i, col := range db.ColumnNames {
		idx, ok := col[0].(float64)
		name, isStr := col[1].(string)
		if !ok || !isStr {
			return nil, fmt.Errorf("malformed column %d: %v", i, col)
		}
		t := int(idx)
		if t < 0 {
			ids[i] = schema.AllID
			continue
		}
		if t >= len(tables) {
			return nil, fmt.Errorf("column %q references table %d of %d", name, t, len(tables))
		}
		tables[t].Columns = append(tables[t].Columns, name)
		ids[i] = schema.ColumnID(tables[t].Name, name)
	}

	fk, err := foldIndexes(db.ForeignKeys, ids)
	if err != nil {
		return nil, err
	}
	return &Entry{Schema: schema.New(db.DBID, tables), ForeignKeys: fk}, nil
}

// foldIndexes groups columns linked by foreign keys and maps each to the
// id of the lowest column index in its group.
func foldIndexes(pairs [][2]int, ids []string) (map[string]string, error) {
	parent := make(map[int]int)
	var find func(int) int
	find = func(x int) int {
		p, ok := parent[x]
		if !ok {
			parent[x] = x
			return x
		}
		if p == x {
			return x
		}
		root := find(p)
		parent[x] = root
		return root
	}

	for _, p := range pairs {
		for _, i := range p {
			if i < 0 || i >= len(ids) {
				return nil, fmt.Errorf("foreign key column %d out of range", i)
			}
		}
		a, b := find(p[0]), find(p[1])
		if a == b {
			continue
		}
		if b < a {
			a, b = b, a
		}
		parent[b] = a
	}

	out := make(map[string]string, len(parent))
	for i := range parent {
		out[ids[i]] = ids[find(i)]
	}
	return out, nil
}
