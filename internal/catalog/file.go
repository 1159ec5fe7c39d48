package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/leapstack-labs/sqlmatch/pkg/adapter"
	"github.com/leapstack-labs/sqlmatch/pkg/schema"
)

// fileDB is one database in a schema file:
//
//	name: world
//	tables:
//	  city: [id, name, countrycode]
//	  country: [code, name]
//	foreign_keys:
//	  - [city.countrycode, country.code]
type fileDB struct {
	Name        string              `koanf:"name"`
	Tables      map[string][]string `koanf:"tables"`
	ForeignKeys [][]string          `koanf:"foreign_keys"`
}

// fileCatalog is either a single database at the top level or a list
// under databases.
type fileCatalog struct {
	Name        string              `koanf:"name"`
	Tables      map[string][]string `koanf:"tables"`
	ForeignKeys [][]string          `koanf:"foreign_keys"`
	Databases   []fileDB            `koanf:"databases"`
}

// LoadFile reads a YAML or JSON schema file. JSON is read by the YAML
// parser.
func LoadFile(path string) (*Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	var fc fileCatalog
	if err := k.Unmarshal("", &fc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	dbs := fc.Databases
	if fc.Name != "" || len(fc.Tables) > 0 {
		dbs = append(dbs, fileDB{Name: fc.Name, Tables: fc.Tables, ForeignKeys: fc.ForeignKeys})
	}
	if len(dbs) == 0 {
		return nil, fmt.Errorf("%s: no databases defined", path)
	}

	c := New()
	for _, db := range dbs {
		e, err := db.entry()
		if err != nil {
			return nil, fmt.Errorf("%s: database %q: %w", path, db.Name, err)
		}
		c.Add(e)
	}
	return c, nil
}

func (db fileDB) entry() (*Entry, error) {
	if db.Name == "" {
		return nil, errors.New("missing name")
	}
	if len(db.Tables) == 0 {
		return nil, errors.New("no tables")
	}
	s := schema.FromMap(db.Name, db.Tables)

	pairs := make([][2]string, 0, len(db.ForeignKeys))
	for _, fk := range db.ForeignKeys {
		if len(fk) != 2 {
			return nil, fmt.Errorf("foreign key %v must name two columns", fk)
		}
		var pair [2]string
		for i, ref := range fk {
			id, err := columnRef(s, ref)
			if err != nil {
				return nil, err
			}
			pair[i] = id
		}
		pairs = append(pairs, pair)
	}
	return &Entry{Schema: s, ForeignKeys: adapter.FoldKeySets(pairs)}, nil
}

// columnRef resolves "table.column" to a canonical id.
func columnRef(s *schema.Schema, ref string) (string, error) {
	table, column, ok := strings.Cut(ref, ".")
	if !ok {
		return "", fmt.Errorf("foreign key column %q must be table.column", ref)
	}
	if !s.HasColumn(strings.ToLower(table), strings.ToLower(column)) {
		return "", fmt.Errorf("foreign key column %q is not in the schema", ref)
	}
	return schema.ColumnID(table, column), nil
}
