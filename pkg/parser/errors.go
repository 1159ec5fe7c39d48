package parser

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by this package wraps one of these,
// so callers can classify failures with errors.Is.
var (
	ErrUnbalancedQuotes = errors.New("unbalanced quotes")
	ErrUnexpectedToken  = errors.New("unexpected token")
	ErrUnexpectedEOF    = errors.New("unexpected end of query")
	ErrTrailingTokens   = errors.New("trailing tokens after query")
	ErrUnknownColumn    = errors.New("unknown column")
	ErrUnknownTable     = errors.New("unknown table")
	ErrBadPosition      = errors.New("positional reference out of range")

	// ErrAliasCollision means the schema and the query disagree about what a
	// table name refers to. It indicates a corrupt schema rather than a bad
	// query and should abort an evaluation run.
	ErrAliasCollision = errors.New("alias collides with table name")
)

// Common error messages
const (
	msgUnexpectedToken = "unexpected token %q, expected %s"
	msgUnexpectedEOF   = "unexpected end of query, expected %s"
	msgOddQuotes       = "found %d quote characters"
	msgTrailing        = "query continues with %q"
	msgUnknownColumn   = "unknown column %q"
	msgUnknownTable    = "unknown table or alias %q"
	msgBadPosition     = "position %d is outside the select list of %d columns"
	msgBadJump         = "cursor jump to %d outside [0, %d]"
	msgAliasCollision  = "alias %q for %q shadows a table of the same name"
)

// LexError is a tokenization failure. Pos is a byte offset into the query.
type LexError struct {
	Pos     int
	Message string
	Err     error
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at offset %d: %s", e.Pos, e.Message)
}

func (e *LexError) Unwrap() error { return e.Err }

// ParseError is a grammar failure. Pos is a token index.
type ParseError struct {
	Pos     int
	Token   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at token %d: %s", e.Pos, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResolutionError is a name that does not resolve against the schema.
type ResolutionError struct {
	Name    string
	Message string
	Err     error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution error: %s", e.Message)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// AliasCollisionError reports an alias that shadows a schema table.
type AliasCollisionError struct {
	Alias  string
	Target string
}

func (e *AliasCollisionError) Error() string {
	return fmt.Sprintf(msgAliasCollision, e.Alias, e.Target)
}

func (e *AliasCollisionError) Unwrap() error { return ErrAliasCollision }
