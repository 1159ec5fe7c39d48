package parser

import "github.com/leapstack-labs/sqlmatch/pkg/ast"

// scope is what one query block knows while it is being parsed: the default
// tables its FROM list brings into scope, in declared order, and the SELECT
// list so far.
type scope struct {
	tables []string

	// selectCols backs positional GROUP BY / ORDER BY references.
	selectCols []ast.ColUnit

	// exprs maps "expr AS name" aliases from the SELECT list to the
	// expression they name.
	exprs map[string]ast.ColUnit
}

func newScope() *scope {
	return &scope{exprs: make(map[string]ast.ColUnit)}
}

func (s *scope) addTable(name string) {
	for _, t := range s.tables {
		if t == name {
			return
		}
	}
	s.tables = append(s.tables, name)
}

// positional returns the SELECT column at 1-based index n.
func (s *scope) positional(n int) (ast.ColUnit, bool) {
	if n < 1 || n > len(s.selectCols) {
		return nil, false
	}
	return s.selectCols[n-1], true
}
