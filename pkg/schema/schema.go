// Package schema holds the read-only table catalog that queries are resolved
// against.
//
// Every table, every table.column pair and the wildcard get a canonical
// identifier:
//
//	*          -> __all__
//	city       -> __city__
//	city.name  -> __city.name__
//
// All names are lowercased on construction. A Schema is immutable and safe
// for concurrent use.
package schema

import (
	"sort"
	"strings"
)

// AllID is the canonical identifier of the wildcard column.
const AllID = "__all__"

// Table is one table and its ordered columns.
type Table struct {
	Name    string
	Columns []string
}

// Schema maps table names to their columns for one database.
type Schema struct {
	name    string
	tables  []Table
	columns map[string][]string
	colSet  map[string]map[string]struct{}
	ids     map[string]string
}

// New builds a schema from tables in declared order. Duplicate table names
// keep the first declaration.
func New(name string, tables []Table) *Schema {
	s := &Schema{
		name:    strings.ToLower(name),
		columns: make(map[string][]string, len(tables)),
		colSet:  make(map[string]map[string]struct{}, len(tables)),
		ids:     map[string]string{"*": AllID},
	}
	for _, t := range tables {
		tn := strings.ToLower(t.Name)
		if _, dup := s.columns[tn]; dup {
			continue
		}
		cols := make([]string, 0, len(t.Columns))
		set := make(map[string]struct{}, len(t.Columns))
		for _, c := range t.Columns {
			cn := strings.ToLower(c)
			if _, seen := set[cn]; seen {
				continue
			}
			set[cn] = struct{}{}
			cols = append(cols, cn)
			key := tn + "." + cn
			s.ids[key] = "__" + key + "__"
		}
		s.columns[tn] = cols
		s.colSet[tn] = set
		s.tables = append(s.tables, Table{Name: tn, Columns: cols})
		s.ids[tn] = "__" + tn + "__"
	}
	return s
}

// FromMap builds a schema from a table->columns map. Tables are ordered by
// name since map order is unspecified.
func FromMap(name string, m map[string][]string) *Schema {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return strings.ToLower(names[i]) < strings.ToLower(names[j]) })
	tables := make([]Table, 0, len(names))
	for _, n := range names {
		tables = append(tables, Table{Name: n, Columns: m[n]})
	}
	return New(name, tables)
}

// Name returns the database name.
func (s *Schema) Name() string { return s.name }

// Tables returns table names in declared order.
func (s *Schema) Tables() []string {
	out := make([]string, len(s.tables))
	for i, t := range s.tables {
		out[i] = t.Name
	}
	return out
}

// HasTable reports whether the schema declares table.
func (s *Schema) HasTable(table string) bool {
	_, ok := s.columns[table]
	return ok
}

// Columns returns the columns of table.
func (s *Schema) Columns(table string) ([]string, bool) {
	cols, ok := s.columns[table]
	if !ok {
		return nil, false
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out, true
}

// HasColumn reports whether table declares column.
func (s *Schema) HasColumn(table, column string) bool {
	set, ok := s.colSet[table]
	if !ok {
		return false
	}
	_, ok = set[column]
	return ok
}

// ID returns the canonical identifier for "*", a table or "table.column".
func (s *Schema) ID(key string) (string, bool) {
	id, ok := s.ids[key]
	return id, ok
}

// IsIdentifier reports whether word names something in the schema: a table,
// a column of any table, or a qualified table.column.
func (s *Schema) IsIdentifier(word string) bool {
	if _, ok := s.ids[word]; ok {
		return true
	}
	for _, set := range s.colSet {
		if _, ok := set[word]; ok {
			return true
		}
	}
	return false
}

// TableID returns the canonical id of a table name.
func TableID(table string) string {
	return "__" + strings.ToLower(table) + "__"
}

// ColumnID returns the canonical id of a table.column pair.
func ColumnID(table, column string) string {
	return "__" + strings.ToLower(table) + "." + strings.ToLower(column) + "__"
}

// TableOf returns the table part of a canonical column id, or "" for the
// wildcard and for ids that are not column ids.
func TableOf(id string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(id, "__"), "__")
	if i := strings.IndexByte(inner, '.'); i > 0 {
		return inner[:i]
	}
	return ""
}
