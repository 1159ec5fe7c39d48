package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqlmatch/pkg/ast"
	"github.com/leapstack-labs/sqlmatch/pkg/schema"
	"github.com/leapstack-labs/sqlmatch/pkg/token"
)

// Column expressions and operand values.
//
// Grammar:
//
//	col_unit → col_term [unit_op col_unit]
//	col_term → "(" col_unit ")"
//	         | [DISTINCT] agg "(" [DISTINCT] col_unit ")"
//	         | [DISTINCT] col_ref
//	col_ref  → "*" | alias "." column | column | select_alias | number
//	value    → quoted_string | number | NULL | "(" query ")" | col_unit
//	list     → "(" value ("," value)* ")"

// parseColUnit parses a column expression. Arithmetic nests to the right.
func (p *Parser) parseColUnit(sc *scope) (ast.ColUnit, error) {
	left, err := p.parseColTerm(sc)
	if err != nil {
		return nil, err
	}
	op, ok := token.LookupUnit(p.cur.peek())
	if !ok {
		return left, nil
	}
	p.cur.advance()
	right, err := p.parseColUnit(sc)
	if err != nil {
		return nil, err
	}
	return ast.Arith{Op: op, Left: left, Right: right}, nil
}

func (p *Parser) parseColTerm(sc *scope) (ast.ColUnit, error) {
	if p.cur.accept("(") {
		inner, err := p.parseColUnit(sc)
		if err != nil {
			return nil, err
		}
		if err := p.cur.expect(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}

	distinct := p.cur.accept("distinct")
	if agg, ok := token.LookupAgg(p.cur.peek()); ok && p.cur.peekAt(1) == "(" {
		p.cur.advance()
		p.cur.advance()
		innerDistinct := p.cur.accept("distinct")
		inner, err := p.parseColUnit(sc)
		if err != nil {
			return nil, err
		}
		if err := p.cur.expect(")"); err != nil {
			return nil, err
		}
		return ast.Agg{Op: agg, Col: inner, Distinct: distinct || innerDistinct}, nil
	}

	ref, err := p.parseColRef(sc)
	if err != nil {
		return nil, err
	}
	if distinct {
		ref = withDistinct(ref)
	}
	return ref, nil
}

func withDistinct(c ast.ColUnit) ast.ColUnit {
	switch u := c.(type) {
	case ast.ColRef:
		u.Distinct = true
		return u
	case ast.Agg:
		u.Distinct = true
		return u
	case ast.Arith:
		u.Distinct = true
		return u
	default:
		panic(fmt.Sprintf("parser: unknown column unit %T", c))
	}
}

// parseColRef resolves one column token. Qualified names go through the
// alias table; bare names are looked up in the default tables in order, then
// in the SELECT aliases, then in the alias table.
func (p *Parser) parseColRef(sc *scope) (ast.ColUnit, error) {
	if p.cur.atEnd() {
		return nil, p.cur.unexpected("column")
	}
	tok := unquote(p.cur.next())

	if tok == "*" {
		return ast.ColRef{ID: schema.AllID, Name: "*"}, nil
	}
	// Numeric constants inside arithmetic ("price * 1.1") carry the literal
	// as their id.
	if isNumber(tok) {
		return ast.ColRef{ID: "#" + tok, Name: tok}, nil
	}
	if ref, ok, err := p.resolveQualified(tok); ok || err != nil {
		return ref, err
	}
	if ref, ok := p.resolveBare(tok, sc); ok {
		return ref, nil
	}
	if expr, ok := sc.exprs[tok]; ok {
		return expr, nil
	}
	if target, ok := p.aliases[tok]; ok && target != tok {
		if _, isAgg := token.LookupAgg(target); isAgg {
			return ast.ColRef{ID: "__" + tok + "__", Name: tok}, nil
		}
		if ref, ok, _ := p.resolveQualified(target); ok {
			return ref, nil
		}
		if ref, ok := p.resolveBare(target, sc); ok {
			return ref, nil
		}
	}
	return nil, &ResolutionError{Name: tok, Message: fmt.Sprintf(msgUnknownColumn, tok), Err: ErrUnknownColumn}
}

// resolveQualified resolves "alias.column". ok is false when tok is not
// qualified.
func (p *Parser) resolveQualified(tok string) (ast.ColUnit, bool, error) {
	dot := strings.IndexByte(tok, '.')
	if dot <= 0 || dot == len(tok)-1 {
		return nil, false, nil
	}
	alias, col := tok[:dot], tok[dot+1:]
	table, ok := p.resolveTable(alias)
	if !ok {
		return nil, false, &ResolutionError{Name: alias, Message: fmt.Sprintf(msgUnknownTable, alias), Err: ErrUnknownTable}
	}
	if col == "*" {
		return ast.ColRef{ID: schema.AllID, Name: table + ".*"}, true, nil
	}
	key := table + "." + col
	id, ok := p.schema.ID(key)
	if !ok {
		return nil, false, &ResolutionError{Name: key, Message: fmt.Sprintf(msgUnknownColumn, key), Err: ErrUnknownColumn}
	}
	return ast.ColRef{ID: id, Name: key}, true, nil
}

// resolveBare finds the first default table declaring col.
func (p *Parser) resolveBare(col string, sc *scope) (ast.ColUnit, bool) {
	for _, table := range sc.tables {
		if p.schema.HasColumn(table, col) {
			key := table + "." + col
			id, _ := p.schema.ID(key)
			return ast.ColRef{ID: id, Name: key}, true
		}
	}
	return nil, false
}

// parseValue parses a condition operand: quoted string, number, NULL,
// subquery or column expression, tried in that order.
func (p *Parser) parseValue(sc *scope) (ast.Value, error) {
	tok := p.cur.peek()
	switch {
	case p.cur.atEnd():
		return nil, p.cur.unexpected("value")
	case isQuoted(tok):
		p.cur.advance()
		return ast.StringValue{Text: tok}, nil
	case tok == "null":
		p.cur.advance()
		return ast.StringValue{Text: "null"}, nil
	case isNumber(tok):
		p.cur.advance()
		n, _ := strconv.ParseFloat(tok, 64)
		return ast.NumberValue{Num: n}, nil
	case tok == "(" && p.cur.peekAt(1) == "select":
		sub, err := p.parseSql()
		if err != nil {
			return nil, err
		}
		return ast.SubqueryValue{Query: sub}, nil
	}

	col, err := p.parseColUnit(sc)
	if err != nil {
		return nil, err
	}
	return ast.ColValue{Col: col}, nil
}

// parseList parses the parenthesized operand of IN. A subquery is returned
// as such.
func (p *Parser) parseList(sc *scope) (ast.Value, error) {
	if p.cur.peek() != "(" || p.cur.peekAt(1) == "select" {
		return p.parseValue(sc)
	}
	p.cur.advance()
	var list ast.ListValue
	for {
		v, err := p.parseValue(sc)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, v)
		if !p.cur.accept(",") {
			break
		}
	}
	if err := p.cur.expect(")"); err != nil {
		return nil, err
	}
	return list, nil
}
