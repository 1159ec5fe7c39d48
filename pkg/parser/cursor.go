package parser

import "fmt"

// cursor is the parser's position in a token slice. Reads past the end
// return "" rather than failing, so lookahead needs no bounds checks; only
// jumps are validated.
type cursor struct {
	toks []string
	pos  int
}

func newCursor(toks []string) *cursor {
	return &cursor{toks: toks}
}

func (c *cursor) atEnd() bool { return c.pos >= len(c.toks) }

func (c *cursor) peek() string { return c.peekAt(0) }

func (c *cursor) peekAt(n int) string {
	i := c.pos + n
	if i < 0 || i >= len(c.toks) {
		return ""
	}
	return c.toks[i]
}

// next returns the current token and advances past it.
func (c *cursor) next() string {
	tok := c.peek()
	c.advance()
	return tok
}

func (c *cursor) advance() {
	if c.pos < len(c.toks) {
		c.pos++
	}
}

// accept consumes tok if it is next.
func (c *cursor) accept(tok string) bool {
	if c.peek() == tok && !c.atEnd() {
		c.pos++
		return true
	}
	return false
}

// expect consumes tok or fails with a ParseError.
func (c *cursor) expect(tok string) error {
	if c.accept(tok) {
		return nil
	}
	return c.unexpected(fmt.Sprintf("%q", tok))
}

// jump moves to an absolute position in [0, len].
func (c *cursor) jump(pos int) error {
	if pos < 0 || pos > len(c.toks) {
		return &ParseError{Pos: c.pos, Message: fmt.Sprintf(msgBadJump, pos, len(c.toks)), Err: ErrUnexpectedToken}
	}
	c.pos = pos
	return nil
}

// find returns the index of the first tok at the current nesting depth,
// searching forward without moving. The search stops at the ")" that closes
// the enclosing block.
func (c *cursor) find(tok string) (int, bool) {
	depth := 0
	for i := c.pos; i < len(c.toks); i++ {
		t := c.toks[i]
		if t == tok && depth == 0 {
			return i, true
		}
		switch t {
		case "(":
			depth++
		case ")":
			depth--
			if depth < 0 {
				return 0, false
			}
		}
	}
	return 0, false
}

// unexpected builds an error for the current token.
func (c *cursor) unexpected(want string) *ParseError {
	if c.atEnd() {
		return &ParseError{Pos: c.pos, Message: fmt.Sprintf(msgUnexpectedEOF, want), Err: ErrUnexpectedEOF}
	}
	tok := c.peek()
	return &ParseError{Pos: c.pos, Token: tok, Message: fmt.Sprintf(msgUnexpectedToken, tok, want), Err: ErrUnexpectedToken}
}
