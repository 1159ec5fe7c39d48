// Package parser turns a query string into an ast.Sql resolved against a
// schema.
//
// # Usage
//
//	sql, err := parser.ParseQuery("SELECT name FROM city WHERE id = 1", s)
//	if err != nil {
//	    // handle error
//	}
//
// The two steps can also be run separately, which is what tests and the REPL
// do to show the intermediate tokens:
//
//	ts, err := parser.Tokenize(query, s)
//	merged, err := ts.Merge(s)
//	sql, err := parser.Parse(merged, s)
//
// # Grammar Overview
//
// The parser is recursive descent over a flat token slice:
//
//	query      → ["("] select_core [set_op query] [")"] [set_op query]
//	select_core→ SELECT [DISTINCT] col_list FROM from_clause
//	             [WHERE condition] [GROUP BY group_list] [HAVING condition]
//	             [ORDER BY order_list] [LIMIT integer] [";"]
//	set_op     → INTERSECT | UNION [ALL] | EXCEPT
//
// Columns are resolved while they are parsed. Since the SELECT list precedes
// the FROM list that gives it meaning, each block parses FROM first and then
// returns to SELECT (see parseFromFirst).
//
// See each file for detailed grammar rules for that section.
package parser

import (
	"fmt"

	"github.com/leapstack-labs/sqlmatch/pkg/ast"
	"github.com/leapstack-labs/sqlmatch/pkg/schema"
	"github.com/leapstack-labs/sqlmatch/pkg/token"
)

// Parser parses one token stream into an AST.
type Parser struct {
	cur     *cursor
	schema  *schema.Schema
	aliases AliasTable
}

// NewParser creates a parser over a merged token stream.
func NewParser(ts *TokenStream, s *schema.Schema) *Parser {
	return &Parser{
		cur:     newCursor(ts.Tokens),
		schema:  s,
		aliases: ts.Aliases,
	}
}

// ParseQuery tokenizes, merges aliases and parses a query.
func ParseQuery(query string, s *schema.Schema) (*ast.Sql, error) {
	ts, err := Tokenize(query, s)
	if err != nil {
		return nil, err
	}
	merged, err := ts.Merge(s)
	if err != nil {
		return nil, err
	}
	return Parse(merged, s)
}

// Parse parses a merged token stream. Every token must be consumed.
func Parse(ts *TokenStream, s *schema.Schema) (*ast.Sql, error) {
	return NewParser(ts, s).Parse()
}

// Parse runs the parser to completion.
func (p *Parser) Parse() (*ast.Sql, error) {
	sql, err := p.parseSql()
	if err != nil {
		return nil, err
	}
	if !p.cur.atEnd() {
		tok := p.cur.peek()
		return nil, &ParseError{Pos: p.cur.pos, Token: tok, Message: fmt.Sprintf(msgTrailing, tok), Err: ErrTrailingTokens}
	}
	return sql, nil
}

// ---------- Query Blocks ----------

// parseSql parses one query block, optionally parenthesized, and any set
// operation that follows it. A set operation right after a parenthesized
// block's closing paren belongs to that block, so in
// "WHERE x IN (SELECT ...) UNION SELECT ..." the union joins the subquery.
func (p *Parser) parseSql() (*ast.Sql, error) {
	inParens := p.cur.accept("(")
	sql := &ast.Sql{}

	sc, err := p.parseFromFirst(sql)
	if err != nil {
		return nil, err
	}
	if err := p.parseClauses(sql, sc); err != nil {
		return nil, err
	}
	for p.cur.accept(";") {
	}

	linked, err := p.parseSetOp(sql)
	if err != nil {
		return nil, err
	}
	if inParens {
		if err := p.cur.expect(")"); err != nil {
			return nil, err
		}
		if !linked {
			if _, err := p.parseSetOp(sql); err != nil {
				return nil, err
			}
		}
	}
	return sql, nil
}

// parseFromFirst parses the block's FROM clause ahead of the SELECT list
// that precedes it, then parses SELECT against the tables FROM brought into
// scope. On return the cursor sits just after the FROM clause.
func (p *Parser) parseFromFirst(sql *ast.Sql) (*scope, error) {
	start := p.cur.pos
	fromPos, ok := p.cur.find("from")
	if !ok {
		return nil, p.cur.unexpected(`"from" in query block`)
	}

	if err := p.cur.jump(fromPos); err != nil {
		return nil, err
	}
	sc := newScope()
	from, err := p.parseFrom(sc)
	if err != nil {
		return nil, err
	}
	end := p.cur.pos

	if err := p.cur.jump(start); err != nil {
		return nil, err
	}
	sel, err := p.parseSelect(sc)
	if err != nil {
		return nil, err
	}
	if p.cur.pos != fromPos {
		return nil, p.cur.unexpected(`"from"`)
	}

	sql.Select = sel
	sql.From = from
	if err := p.cur.jump(end); err != nil {
		return nil, err
	}
	return sc, nil
}

// parseClauses parses the optional clauses after FROM, in order.
func (p *Parser) parseClauses(sql *ast.Sql, sc *scope) error {
	if p.cur.accept("where") {
		cond, err := p.parseCondition(sc)
		if err != nil {
			return err
		}
		sql.Where = ast.Where{Condition: cond}
	}
	if p.cur.accept("group") {
		if err := p.cur.expect("by"); err != nil {
			return err
		}
		cols, err := p.parseGroupBy(sc)
		if err != nil {
			return err
		}
		sql.GroupBy = cols
	}
	if p.cur.accept("having") {
		cond, err := p.parseCondition(sc)
		if err != nil {
			return err
		}
		sql.Having = ast.Having{Condition: cond}
	}
	if p.cur.accept("order") {
		if err := p.cur.expect("by"); err != nil {
			return err
		}
		order, err := p.parseOrderBy(sc)
		if err != nil {
			return err
		}
		sql.OrderBy = order
	}
	if p.cur.accept("limit") {
		limit, err := p.parseLimit()
		if err != nil {
			return err
		}
		sql.Limit = limit
	}
	return nil
}

// parseSetOp links a following INTERSECT/UNION/EXCEPT block to sql. It
// reports whether one was found.
func (p *Parser) parseSetOp(sql *ast.Sql) (bool, error) {
	op, ok := token.LookupSQL(p.cur.peek())
	if !ok {
		return false, nil
	}
	p.cur.advance()
	p.cur.accept("all")

	right, err := p.parseSql()
	if err != nil {
		return false, err
	}
	switch op {
	case token.SQLIntersect:
		sql.Intersect = right
	case token.SQLUnion:
		sql.Union = right
	case token.SQLExcept:
		sql.Except = right
	}
	return true, nil
}
