package parser

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/sqlmatch/pkg/ast"
	"github.com/leapstack-labs/sqlmatch/pkg/token"
)

// Clause parsing: SELECT list, conditions, GROUP BY, ORDER BY, LIMIT.
//
// Grammar:
//
//	select_clause → SELECT [DISTINCT] col_unit [AS alias] ("," col_unit [AS alias])*
//	condition     → cond ((AND | OR) cond)*
//	cond          → [NOT] EXISTS "(" query ")"
//	              | col_unit [NOT] where_op operand
//	operand       → value AND value      (BETWEEN)
//	              | [NOT] NULL           (IS)
//	              | list                 (IN)
//	              | value
//	group_list    → (integer | col_unit) ("," (integer | col_unit))*
//	order_list    → (integer | col_unit) [ASC | DESC] ("," ...)*

// parseSelect parses the SELECT list and records it in sc for positional
// and alias references later in the block.
func (p *Parser) parseSelect(sc *scope) (ast.Select, error) {
	var sel ast.Select
	if err := p.cur.expect("select"); err != nil {
		return sel, err
	}
	sel.Distinct = p.cur.accept("distinct")

	for {
		col, err := p.parseColUnit(sc)
		if err != nil {
			return sel, err
		}
		sel.Cols = append(sel.Cols, col)
		if p.cur.accept("as") {
			if p.cur.atEnd() {
				return sel, p.cur.unexpected("alias")
			}
			sc.exprs[unquote(p.cur.next())] = col
		}
		if !p.cur.accept(",") {
			break
		}
	}
	sc.selectCols = sel.Cols
	return sel, nil
}

// parseCondition parses conditions joined by AND/OR. It stops at the first
// token that is neither, leaving the clause boundary to the caller.
func (p *Parser) parseCondition(sc *scope) (ast.Condition, error) {
	var cond ast.Condition
	for {
		c, err := p.parseCond(sc)
		if err != nil {
			return cond, err
		}
		cond.Conds = append(cond.Conds, c)

		op, ok := token.LookupCond(p.cur.peek())
		if !ok {
			return cond, nil
		}
		p.cur.advance()
		cond.Connectors = append(cond.Connectors, op)
	}
}

func (p *Parser) parseCond(sc *scope) (ast.Cond, error) {
	var c ast.Cond

	// [NOT] EXISTS (subquery) has no left operand.
	if p.cur.peek() == "exists" || (p.cur.peek() == "not" && p.cur.peekAt(1) == "exists") {
		c.Not = p.cur.accept("not")
		p.cur.advance()
		c.Op = token.WhereExists
		v, err := p.parseValue(sc)
		if err != nil {
			return c, err
		}
		c.Val1 = v
		return c, nil
	}

	col, err := p.parseColUnit(sc)
	if err != nil {
		return c, err
	}
	c.Col = col
	c.Not = p.cur.accept("not")

	tok := p.cur.peek()
	op, ok := token.LookupWhere(tok)
	if !ok {
		return c, p.cur.unexpected("condition operator")
	}
	p.cur.advance()
	c.Op = op

	switch op {
	case token.WhereBetween:
		if c.Val1, err = p.parseValue(sc); err != nil {
			return c, err
		}
		if err := p.cur.expect("and"); err != nil {
			return c, err
		}
		c.Val2, err = p.parseValue(sc)
	case token.WhereIs:
		if p.cur.accept("not") {
			c.Not = !c.Not
		}
		c.Val1, err = p.parseValue(sc)
	case token.WhereIn:
		c.Val1, err = p.parseList(sc)
	default:
		c.Val1, err = p.parseValue(sc)
	}
	return c, err
}

// parseKey parses a GROUP BY or ORDER BY key: a 1-based position in the
// SELECT list or a column expression.
func (p *Parser) parseKey(sc *scope) (ast.ColUnit, error) {
	tok := p.cur.peek()
	if n, err := strconv.Atoi(tok); err == nil {
		col, ok := sc.positional(n)
		if !ok {
			return nil, &ParseError{
				Pos:     p.cur.pos,
				Token:   tok,
				Message: fmt.Sprintf(msgBadPosition, n, len(sc.selectCols)),
				Err:     ErrBadPosition,
			}
		}
		p.cur.advance()
		return col, nil
	}
	return p.parseColUnit(sc)
}

func (p *Parser) parseGroupBy(sc *scope) (ast.GroupBy, error) {
	var group ast.GroupBy
	for {
		col, err := p.parseKey(sc)
		if err != nil {
			return group, err
		}
		group.Cols = append(group.Cols, col)
		if !p.cur.accept(",") {
			return group, nil
		}
	}
}

func (p *Parser) parseOrderBy(sc *scope) (ast.OrderBy, error) {
	var order ast.OrderBy
	for {
		col, err := p.parseKey(sc)
		if err != nil {
			return order, err
		}
		dir := token.OrderAsc
		if d, ok := token.LookupOrder(p.cur.peek()); ok {
			p.cur.advance()
			dir = d
		}
		order.Items = append(order.Items, ast.OrderItem{Col: col, Dir: dir})
		if !p.cur.accept(",") {
			return order, nil
		}
	}
}

func (p *Parser) parseLimit() (ast.Limit, error) {
	tok := p.cur.peek()
	n, err := strconv.Atoi(tok)
	if err != nil {
		return ast.Limit{}, p.cur.unexpected("integer limit")
	}
	p.cur.advance()
	return ast.Limit{Value: &n}, nil
}
