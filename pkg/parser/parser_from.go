package parser

import (
	"fmt"

	"github.com/leapstack-labs/sqlmatch/pkg/ast"
	"github.com/leapstack-labs/sqlmatch/pkg/token"
)

// FROM clause parsing: table references, derived tables, joins.
//
// Grammar:
//
//	from_clause → table_unit (join)*
//	table_unit  → table_name [AS alias] | "(" query ")" [AS alias]
//	join        → join_kind table_unit [ON condition] | "," table_unit
//	join_kind   → {INNER | LEFT | RIGHT | OUTER | NATURAL | CROSS | FULL} JOIN

// parseFrom parses a FROM clause and records its tables in sc.
func (p *Parser) parseFrom(sc *scope) (ast.From, error) {
	var from ast.From
	if err := p.cur.expect("from"); err != nil {
		return from, err
	}

	unit, err := p.parseTableUnit(sc)
	if err != nil {
		return from, err
	}
	from.Table = unit

	for {
		kind, ok, err := p.parseJoinKind()
		if err != nil {
			return from, err
		}
		if !ok {
			break
		}
		unit, err := p.parseTableUnit(sc)
		if err != nil {
			return from, err
		}
		join := ast.Join{Kind: kind, Table: unit}
		if p.cur.accept("on") {
			join.On, err = p.parseCondition(sc)
			if err != nil {
				return from, err
			}
		}
		from.Joins = append(from.Joins, join)
	}
	return from, nil
}

// parseJoinKind consumes the words introducing a join. The kind is the
// first word, so "left outer join" is a left join.
func (p *Parser) parseJoinKind() (ast.JoinKind, bool, error) {
	first := p.cur.peek()
	if first == "," {
		p.cur.advance()
		return ast.JoinCartesian, true, nil
	}
	if !token.IsJoinStarter(first) {
		return "", false, nil
	}
	for {
		tok := p.cur.peek()
		if !token.IsJoinStarter(tok) {
			return "", false, p.cur.unexpected(`"join"`)
		}
		p.cur.advance()
		if tok == "join" {
			return ast.JoinKind(first), true, nil
		}
	}
}

// parseTableUnit parses a table name or a parenthesized subquery.
func (p *Parser) parseTableUnit(sc *scope) (ast.TableUnit, error) {
	if p.cur.peek() == "(" && p.cur.peekAt(1) == "select" {
		sub, err := p.parseSql()
		if err != nil {
			return nil, err
		}
		p.skipAlias()
		return sub, nil
	}

	if p.cur.atEnd() {
		return nil, p.cur.unexpected("table name")
	}
	name := p.cur.next()
	table, ok := p.resolveTable(name)
	if !ok {
		return nil, &ResolutionError{Name: name, Message: fmt.Sprintf(msgUnknownTable, name), Err: ErrUnknownTable}
	}
	id, _ := p.schema.ID(table)
	p.skipAlias()
	sc.addTable(table)
	return ast.TableRef{ID: id, Name: table}, nil
}

// skipAlias consumes "as alias". The alias itself was recorded by the lexer.
func (p *Parser) skipAlias() {
	if p.cur.accept("as") {
		p.cur.advance()
	}
}

// resolveTable maps a table name or alias to a schema table.
func (p *Parser) resolveTable(name string) (string, bool) {
	if target, ok := p.aliases[name]; ok && p.schema.HasTable(target) {
		return target, true
	}
	if p.schema.HasTable(name) {
		return name, true
	}
	return "", false
}
